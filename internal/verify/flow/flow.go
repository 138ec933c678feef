// Package flow owns the verification step state machine: the step sequence,
// the current session identity, error classification, and retry/resume
// logic. It drives the backend through the ports.API contract and reports
// every step entry to an Observer, in order.
package flow

import (
	"context"
	"log/slog"
	"sync"

	"veriflow/internal/platform/metrics"
	"veriflow/internal/tracer"
	"veriflow/internal/verify/capture"
	"veriflow/internal/verify/models"
	"veriflow/internal/verify/ports"
	dErrors "veriflow/pkg/domain-errors"
)

// Flow is the client-side orchestration for one verification instance.
// It owns Step and the current session id for the lifetime of one
// page/widget instance and has no persistence beyond it.
//
// Methods are safe for concurrent use, but the design is cooperative: a
// "-processing" sub-step is what prevents a duplicate request for the same
// step while one is outstanding.
type Flow struct {
	api      ports.API
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	observer Observer

	mu        sync.Mutex
	step      models.Step
	sessionID string
	result    *models.Result
	notice    *Notice
	terminal  TerminalKind
	user      *models.User
	allowed   []models.DocumentType
	pending   []Transition
}

// Option configures a Flow.
type Option func(*Flow)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Flow) { f.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(f *Flow) { f.tracer = t }
}

func WithObserver(o Observer) Option {
	return func(f *Flow) { f.observer = o }
}

// New builds a Flow around the backend contract.
func New(api ports.API, opts ...Option) (*Flow, error) {
	if api == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "verification API client is required")
	}
	f := &Flow{
		api:    api,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		step:   models.StepDocument,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// InitParams carries what the inbound URL encoded: an encrypted link token,
// a bare API key (embed mode), or neither.
type InitParams struct {
	Token                string
	APIKey               string
	User                 *models.User
	AllowedDocumentTypes []models.DocumentType
}

// Init resolves the starting session. Token exchange failures are terminal:
// the decrypt call is never retried. In embed mode no session exists yet;
// one is created lazily on the first document upload.
func (f *Flow) Init(ctx context.Context, p InitParams) State {
	ctx, span := f.tracer.Start(ctx, tracer.SpanFlowInit)
	var initErr error
	defer func() { span.End(initErr) }()

	f.mu.Lock()
	f.user = p.User
	f.allowed = p.AllowedDocumentTypes

	switch {
	case p.Token != "":
		id, err := f.api.DecryptToken(ctx, p.Token)
		if err != nil {
			initErr = err
			f.enterTerminalLocked(TerminalInvalidLink)
			break
		}
		sess, err := f.api.GetSession(ctx, id)
		if err != nil {
			initErr = err
			f.enterTerminalLocked(TerminalInvalidLink)
			break
		}
		// Adopt whatever id the lookup returned; a retry may have created
		// a child session distinct from the one the link referenced.
		f.sessionID = sess.ID
		if len(sess.AllowedDocumentTypes) > 0 {
			f.allowed = sess.AllowedDocumentTypes
		}
		switch {
		case sess.Status == models.StatusCompleted:
			f.enterTerminalLocked(TerminalAlreadyCompleted)
		case sess.RetriesExhausted():
			f.enterTerminalLocked(TerminalRetriesExhausted)
		case sess.Status == models.StatusExpired:
			f.enterTerminalLocked(TerminalExpired)
		default:
			f.step = models.StepDocument
		}
	case p.APIKey != "":
		f.step = models.StepDocument
	default:
		f.enterTerminalLocked(TerminalMissingLink)
	}

	span.SetAttributes(
		tracer.String(tracer.AttrSessionID, f.sessionID),
		tracer.String(tracer.AttrStep, string(f.step)),
	)
	state := f.snapshotLocked()
	f.mu.Unlock()
	return state
}

// SubmitDocument uploads a document capture, creating the session first if
// none exists. On failure the flow returns to the document step with a
// classified notice; the session id, once assigned, is always retained.
func (f *Flow) SubmitDocument(ctx context.Context, artifact capture.Artifact) (State, error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanUploadDocument,
		tracer.String(tracer.AttrDocumentType, string(artifact.DocumentType)))
	var opErr error
	defer func() { span.End(opErr) }()

	f.mu.Lock()
	if f.step != models.StepDocument {
		state := f.snapshotLocked()
		f.mu.Unlock()
		opErr = dErrors.New(dErrors.CodeConflict, "document capture is not active")
		return state, opErr
	}
	f.notice = nil
	f.setStepLocked(models.StepDocumentProcessing, nil)
	sessionID := f.sessionID
	user := f.user
	f.mu.Unlock()
	f.flush()

	if f.metrics != nil {
		f.metrics.UploadBytes.Observe(float64(len(artifact.Data)))
	}

	if sessionID == "" {
		sess, err := f.api.CreateSession(ctx, ports.CreateSessionRequest{
			Type: "document_selfie",
			User: user,
		})
		if err != nil {
			opErr = err
			return f.failTo(models.StepDocument, err), nil
		}
		sessionID = sess.ID
		f.mu.Lock()
		f.sessionID = sessionID
		f.mu.Unlock()
		if f.metrics != nil {
			f.metrics.SessionsCreated.Inc()
		}
	}

	if _, err := f.api.UploadDocument(ctx, sessionID, artifact); err != nil {
		opErr = err
		return f.failTo(models.StepDocument, err), nil
	}

	f.mu.Lock()
	f.setStepLocked(models.StepSelfie, nil)
	state := f.snapshotLocked()
	f.mu.Unlock()
	f.flush()
	return state, nil
}

// SubmitSelfie uploads the selfie and, on success, immediately submits the
// session for scoring. A 429 from submit returns the flow to the document
// step with the retry-limit notice and no further automatic retry. Any
// submit response carrying a usable result completes the flow regardless of
// HTTP status.
func (f *Flow) SubmitSelfie(ctx context.Context, artifact capture.Artifact) (State, error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanUploadSelfie)
	var opErr error
	defer func() { span.End(opErr) }()

	f.mu.Lock()
	if f.step != models.StepSelfie {
		state := f.snapshotLocked()
		f.mu.Unlock()
		opErr = dErrors.New(dErrors.CodeConflict, "selfie capture is not active")
		return state, opErr
	}
	if f.sessionID == "" {
		state := f.snapshotLocked()
		f.mu.Unlock()
		opErr = dErrors.New(dErrors.CodeConflict, "no session for selfie upload")
		return state, opErr
	}
	f.notice = nil
	f.setStepLocked(models.StepSelfieProcessing, nil)
	sessionID := f.sessionID
	f.mu.Unlock()
	f.flush()

	if f.metrics != nil {
		f.metrics.UploadBytes.Observe(float64(len(artifact.Data)))
	}

	if err := f.api.UploadSelfie(ctx, sessionID, artifact); err != nil {
		opErr = err
		return f.failTo(models.StepSelfie, err), nil
	}

	f.mu.Lock()
	f.setStepLocked(models.StepProcessing, nil)
	f.mu.Unlock()
	f.flush()

	result, err := f.submitSession(ctx, sessionID)
	switch {
	case err == nil && result != nil:
		f.mu.Lock()
		f.result = result
		f.notice = nil
		f.setStepLocked(models.StepComplete, nil)
		state := f.snapshotLocked()
		f.mu.Unlock()
		f.flush()
		span.SetAttributes(tracer.Bool(tracer.AttrPassed, result.Passed))
		f.countSubmit(result)
		return state, nil

	case dErrors.HasCode(err, dErrors.CodeRetryLimit):
		opErr = err
		if f.metrics != nil {
			f.metrics.SubmitsByOutcome.WithLabelValues("retry_limit").Inc()
		}
		notice := retryLimitNotice
		return f.failWith(models.StepDocument, notice), nil

	default:
		// The API contract never returns (nil, nil), but the port is
		// public; treat it as an unusable response rather than panicking.
		if err == nil {
			err = dErrors.New(dErrors.CodeUploadFailed, "submit returned no result")
		}
		opErr = err
		if f.metrics != nil {
			f.metrics.SubmitsByOutcome.WithLabelValues("error").Inc()
		}
		return f.failTo(models.StepDocument, err), nil
	}
}

// submitSession runs the scoring call under its own span so the submit
// phase is separable from the selfie upload in traces.
func (f *Flow) submitSession(ctx context.Context, sessionID string) (*models.Result, error) {
	ctx, span := f.tracer.Start(ctx, tracer.SpanSubmit,
		tracer.String(tracer.AttrSessionID, sessionID))
	result, err := f.api.Submit(ctx, sessionID)
	if result != nil {
		span.SetAttributes(
			tracer.Bool(tracer.AttrPassed, result.Passed),
			tracer.Float64(tracer.AttrScore, result.Score),
		)
	}
	span.End(err)
	return result, err
}

// Retry clears the displayed result and error and returns to the document
// step without any network round trip. The session id is retained so the
// next upload replaces documents on the existing session instead of
// creating a duplicate one. Retry is ignored in terminal states.
func (f *Flow) Retry() State {
	f.mu.Lock()
	if f.terminal != TerminalNone {
		state := f.snapshotLocked()
		f.mu.Unlock()
		return state
	}
	f.result = nil
	f.notice = nil
	f.setStepLocked(models.StepDocument, nil)
	state := f.snapshotLocked()
	f.mu.Unlock()
	f.flush()
	return state
}

// Back returns from the selfie step to the document step. Nothing is
// discarded: the session id is kept, and the backend replaces the document
// on the next upload.
func (f *Flow) Back() (State, error) {
	f.mu.Lock()
	if f.step != models.StepSelfie {
		state := f.snapshotLocked()
		f.mu.Unlock()
		return state, dErrors.New(dErrors.CodeConflict, "back is only available from the selfie step")
	}
	f.setStepLocked(models.StepDocument, nil)
	state := f.snapshotLocked()
	f.mu.Unlock()
	f.flush()
	return state, nil
}

// State returns a snapshot of the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// SessionID returns the current session id, which may change after a
// lookup adopts a child session.
func (f *Flow) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID
}

func (f *Flow) countSubmit(result *models.Result) {
	if f.metrics == nil {
		return
	}
	outcome := "failed"
	if result.Passed {
		outcome = "passed"
	}
	f.metrics.SubmitsByOutcome.WithLabelValues(outcome).Inc()
}

// failTo classifies err and regresses to the given step.
func (f *Flow) failTo(step models.Step, err error) State {
	return f.failWith(step, Classify(err.Error()))
}

func (f *Flow) failWith(step models.Step, notice Notice) State {
	f.logger.Warn("verification step failed",
		"step", string(step),
		"category", string(notice.Category),
	)
	f.mu.Lock()
	f.notice = &notice
	f.setStepLocked(step, &notice)
	state := f.snapshotLocked()
	f.mu.Unlock()
	f.flush()
	return state
}

// setStepLocked records a step entry and queues its transition for the
// observer. Callers hold f.mu.
func (f *Flow) setStepLocked(step models.Step, failure *Notice) {
	f.step = step
	if f.metrics != nil {
		f.metrics.StepTransitions.WithLabelValues(string(step)).Inc()
	}
	f.pending = append(f.pending, Transition{
		Step:    step,
		State:   f.snapshotLocked(),
		Failure: failure,
	})
}

func (f *Flow) enterTerminalLocked(kind TerminalKind) {
	f.terminal = kind
	f.step = models.StepFatal
}

func (f *Flow) snapshotLocked() State {
	var notice *Notice
	if f.notice != nil {
		n := *f.notice
		notice = &n
	}
	allowed := make([]models.DocumentType, len(f.allowed))
	copy(allowed, f.allowed)
	return State{
		Step:                 f.step,
		SessionID:            f.sessionID,
		Notice:               notice,
		Result:               f.result,
		Terminal:             f.terminal,
		TerminalMessage:      terminalMessages[f.terminal],
		AllowedDocumentTypes: allowed,
	}
}

// flush delivers queued transitions outside the lock, preserving order.
func (f *Flow) flush() {
	f.mu.Lock()
	queued := f.pending
	f.pending = nil
	f.mu.Unlock()
	if f.observer == nil {
		return
	}
	for _, t := range queued {
		f.observer.Transition(t)
	}
}
