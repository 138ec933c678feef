package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"veriflow/internal/embed/protocol"
)

// Wire framing is newline-delimited JSON envelopes. Both ends decode
// strictly: lines that are not protocol traffic are dropped, never
// misinterpreted.

// WidgetWire adapts an io.ReadWriteCloser into the widget end of the
// channel. It reads command envelopes and writes event envelopes.
type WidgetWire struct {
	mu       sync.Mutex
	conn     io.ReadWriteCloser
	enc      *json.Encoder
	commands chan protocol.Command
	closed   bool
	once     sync.Once
}

// NewWidgetWire starts reading commands from conn until it closes.
func NewWidgetWire(conn io.ReadWriteCloser) *WidgetWire {
	w := &WidgetWire{
		conn:     conn,
		enc:      json.NewEncoder(conn),
		commands: make(chan protocol.Command, 32),
	}
	go w.readLoop()
	return w
}

func (w *WidgetWire) readLoop() {
	scanner := bufio.NewScanner(w.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		env, ok := protocol.DecodeCommand(scanner.Bytes())
		if !ok {
			continue
		}
		w.commands <- env.Command
	}
	w.once.Do(func() { close(w.commands) })
}

// Emit writes one event envelope as a JSON line.
func (w *WidgetWire) Emit(env protocol.Envelope) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errClosed
	}
	return w.enc.Encode(env)
}

// Commands returns the inbound command stream.
func (w *WidgetWire) Commands() <-chan protocol.Command { return w.commands }

// Close tears down the underlying connection.
func (w *WidgetWire) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.conn.Close()
}

// HostWire adapts an io.ReadWriteCloser into the host end of the channel.
// It reads event envelopes and writes command envelopes.
type HostWire struct {
	mu     sync.Mutex
	conn   io.ReadWriteCloser
	enc    *json.Encoder
	events chan protocol.Envelope
	closed bool
	once   sync.Once
}

// NewHostWire starts reading events from conn until it closes.
func NewHostWire(conn io.ReadWriteCloser) *HostWire {
	h := &HostWire{
		conn:   conn,
		enc:    json.NewEncoder(conn),
		events: make(chan protocol.Envelope, 32),
	}
	go h.readLoop()
	return h
}

func (h *HostWire) readLoop() {
	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		env, ok := protocol.DecodeEvent(scanner.Bytes())
		if !ok {
			continue
		}
		h.events <- env
	}
	h.once.Do(func() { close(h.events) })
}

// Send writes one command envelope as a JSON line.
func (h *HostWire) Send(cmd protocol.CommandEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed
	}
	return h.enc.Encode(cmd)
}

// Events returns the inbound event stream.
func (h *HostWire) Events() <-chan protocol.Envelope { return h.events }

// Close tears down the underlying connection.
func (h *HostWire) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return h.conn.Close()
}

var (
	_ WidgetSide = (*WidgetWire)(nil)
	_ HostSide   = (*HostWire)(nil)
)
