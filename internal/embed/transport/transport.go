// Package transport delivers protocol envelopes across the host/widget
// boundary. The state machine and the SDK only see these two narrow
// interfaces, so the channel itself is swappable: an in-process pair for
// same-process hosting and tests, or a framed wire connection when the
// widget runs in a separate context.
package transport

import (
	"veriflow/internal/embed/protocol"

	dErrors "veriflow/pkg/domain-errors"
)

// WidgetSide is the widget runtime's end: it emits events outward and
// receives commands from the host.
type WidgetSide interface {
	Emit(env protocol.Envelope) error
	Commands() <-chan protocol.Command
	Close() error
}

// HostSide is the host SDK's end: it receives events and sends commands in.
type HostSide interface {
	Send(cmd protocol.CommandEnvelope) error
	Events() <-chan protocol.Envelope
	Close() error
}

var errClosed = dErrors.New(dErrors.CodeConflict, "transport is closed")
