// Package protocol defines the embed messaging contract between a host
// page and the verification widget: the event and command vocabulary and
// the envelope framing. The two marker strings are the entire wire
// contract and must never change.
package protocol

import (
	"encoding/json"
	"time"
)

// Envelope markers. Frozen for compatibility: the host accepts messages
// from any source but ignores anything whose type is not one of these, so
// unrelated messages cannot be misread as protocol traffic.
const (
	EventMarker   = "veriflow:event"
	CommandMarker = "veriflow:command"
)

// EventType enumerates outbound events (widget to host).
type EventType string

const (
	EventReady      EventType = "ready"
	EventStepChange EventType = "step_change"
	EventSuccess    EventType = "verification_success"
	EventFailed     EventType = "verification_failed"
	EventError      EventType = "error"
	EventClose      EventType = "close"
	EventRetry      EventType = "retry"
)

func (e EventType) valid() bool {
	switch e {
	case EventReady, EventStepChange, EventSuccess, EventFailed, EventError, EventClose, EventRetry:
		return true
	}
	return false
}

// Command enumerates inbound commands (host to widget).
type Command string

const (
	CommandClose Command = "close"
	CommandRetry Command = "retry"
)

func (c Command) valid() bool {
	return c == CommandClose || c == CommandRetry
}

// Envelope frames one outbound event.
type Envelope struct {
	Type      string          `json:"type"`
	Event     EventType       `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// CommandEnvelope frames one inbound command.
type CommandEnvelope struct {
	Type    string  `json:"type"`
	Command Command `json:"command"`
}

// Event payloads. Field names follow the wire contract.

// ReadyData announces the widget is initialized. SessionID is empty in
// embed mode until the session is lazily created.
type ReadyData struct {
	SessionID string `json:"sessionId"`
}

// StepChangeData reports entry into a step, including processing sub-steps.
type StepChangeData struct {
	Step string `json:"step"`
}

// SuccessData reports a passed verification.
type SuccessData struct {
	SessionID     string            `json:"sessionId"`
	Passed        bool              `json:"passed"`
	Score         float64           `json:"score"`
	ExtractedData map[string]string `json:"extractedData,omitempty"`
}

// FailedData reports a scored failure, which is a normal terminal outcome
// rather than an error.
type FailedData struct {
	SessionID        string  `json:"sessionId"`
	Passed           bool    `json:"passed"`
	Score            float64 `json:"score"`
	CanRetry         bool    `json:"canRetry"`
	RemainingRetries int     `json:"remainingRetries"`
}

// ErrorData reports a fatal or step-local error.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent builds an outbound envelope with the fixed marker and a
// millisecond timestamp.
func NewEvent(event EventType, data any) (Envelope, error) {
	env := Envelope{
		Type:      EventMarker,
		Event:     event,
		Timestamp: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Envelope{}, err
		}
		env.Data = raw
	}
	return env, nil
}

// NewCommand builds an inbound envelope with the fixed marker.
func NewCommand(cmd Command) CommandEnvelope {
	return CommandEnvelope{Type: CommandMarker, Command: cmd}
}

// DecodeEvent parses raw bytes as an event envelope. It reports false for
// anything that is not valid protocol traffic: bad JSON, a missing or
// foreign marker, or an unknown event name.
func DecodeEvent(raw []byte) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, false
	}
	if env.Type != EventMarker || !env.Event.valid() {
		return Envelope{}, false
	}
	return env, true
}

// DecodeCommand parses raw bytes as a command envelope, reporting false
// for non-protocol messages.
func DecodeCommand(raw []byte) (CommandEnvelope, bool) {
	var env CommandEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return CommandEnvelope{}, false
	}
	if env.Type != CommandMarker || !env.Command.valid() {
		return CommandEnvelope{}, false
	}
	return env, true
}
