package transport

import (
	"sync"

	"veriflow/internal/embed/protocol"

	dErrors "veriflow/pkg/domain-errors"
)

// Pair returns connected in-process host and widget ends. Buffered channels
// keep emit ordering without requiring a concurrent reader at every step.
func Pair(buffer int) (HostSide, WidgetSide) {
	if buffer <= 0 {
		buffer = 32
	}
	p := &pair{
		events:   make(chan protocol.Envelope, buffer),
		commands: make(chan protocol.Command, buffer),
	}
	return (*pairHost)(p), (*pairWidget)(p)
}

type pair struct {
	mu       sync.Mutex
	closed   bool
	events   chan protocol.Envelope
	commands chan protocol.Command
}

func (p *pair) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.events)
	close(p.commands)
	return nil
}

type pairWidget pair

func (w *pairWidget) Emit(env protocol.Envelope) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errClosed
	}
	select {
	case w.events <- env:
		return nil
	default:
		return dErrors.New(dErrors.CodeInternal, "event buffer full")
	}
}

func (w *pairWidget) Commands() <-chan protocol.Command { return w.commands }

func (w *pairWidget) Close() error { return (*pair)(w).close() }

type pairHost pair

func (h *pairHost) Send(cmd protocol.CommandEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed
	}
	select {
	case h.commands <- cmd.Command:
		return nil
	default:
		return dErrors.New(dErrors.CodeInternal, "command buffer full")
	}
}

func (h *pairHost) Events() <-chan protocol.Envelope { return h.events }

func (h *pairHost) Close() error { return (*pair)(h).close() }
