package models

// Step is the client-local stage of the capture/submit flow. Exactly one
// step is active at a time. The wire names below are frozen: the embed
// protocol carries them in step_change events.
type Step string

const (
	StepDocument           Step = "document"
	StepDocumentProcessing Step = "document_processing"
	StepSelfie             Step = "selfie"
	StepSelfieProcessing   Step = "selfie_processing"
	StepProcessing         Step = "processing"
	StepComplete           Step = "complete"

	// StepFatal is internal only: no valid session exists and the flow
	// cannot progress. It is never emitted as a step_change.
	StepFatal Step = "fatal"
)

// Processing reports whether the step is one of the in-flight sub-steps
// during which capture UI is unmounted and no new request may start.
func (s Step) Processing() bool {
	return s == StepDocumentProcessing || s == StepSelfieProcessing || s == StepProcessing
}
