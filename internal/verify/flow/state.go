package flow

import "veriflow/internal/verify/models"

// TerminalKind names the non-actionable end states: the fatal
// initialization failures and the backend-declared terminal-by-policy
// statuses. It is empty while the flow is live.
type TerminalKind string

const (
	TerminalNone             TerminalKind = ""
	TerminalMissingLink      TerminalKind = "missing_link"
	TerminalInvalidLink      TerminalKind = "invalid_link"
	TerminalAlreadyCompleted TerminalKind = "already_completed"
	TerminalRetriesExhausted TerminalKind = "failed"
	TerminalExpired          TerminalKind = "expired"
)

var terminalMessages = map[TerminalKind]string{
	TerminalMissingLink:      "This page needs a verification link. Check the link you were sent.",
	TerminalInvalidLink:      "This verification link is invalid or has expired. Request a new one.",
	TerminalAlreadyCompleted: "This verification has already been completed.",
	TerminalRetriesExhausted: "This verification can no longer be retried. Contact the company that requested it.",
	TerminalExpired:          "This verification has expired. Request a new link.",
}

// State is an immutable snapshot of the flow, sufficient to render the UI
// and to drive protocol events.
type State struct {
	Step                 models.Step
	SessionID            string
	Notice               *Notice
	Result               *models.Result
	Terminal             TerminalKind
	TerminalMessage      string
	AllowedDocumentTypes []models.DocumentType
}

// Transition is delivered to the observer on every step entry, in the order
// the transitions occur.
type Transition struct {
	Step  models.Step
	State State

	// Failure is set when this transition is an error regression to an
	// earlier step; it carries the classified display notice.
	Failure *Notice
}

// Observer receives flow transitions. The widget runtime implements it to
// emit protocol events; tests implement it to record ordering.
type Observer interface {
	Transition(t Transition)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(t Transition)

func (f ObserverFunc) Transition(t Transition) { f(t) }
