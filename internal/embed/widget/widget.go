// Package widget is the embedded side of the messaging protocol: it binds
// the verification flow to a transport, translates step transitions into
// protocol events, and honors the host's close/retry commands.
package widget

import (
	"context"
	"log/slog"
	"sync"

	"veriflow/internal/embed/protocol"
	"veriflow/internal/embed/transport"
	"veriflow/internal/platform/metrics"
	"veriflow/internal/tracer"
	"veriflow/internal/verify/capture"
	"veriflow/internal/verify/flow"
	"veriflow/internal/verify/models"
	"veriflow/internal/verify/ports"
	dErrors "veriflow/pkg/domain-errors"
)

// Runtime hosts one verification flow behind a transport. Events are
// emitted in the same order as the underlying step transitions occur.
type Runtime struct {
	flow    *flow.Flow
	side    transport.WidgetSide
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer

	document capture.Provider
	selfie   capture.Provider

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// Option configures a Runtime.
type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Runtime) { r.tracer = t }
}

// New wires a flow to the widget end of a transport.
func New(api ports.API, side transport.WidgetSide, opts ...Option) (*Runtime, error) {
	if side == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "widget transport is required")
	}
	r := &Runtime{
		side:   side,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	flowOpts := []flow.Option{
		flow.WithLogger(r.logger),
		flow.WithObserver(flow.ObserverFunc(r.onTransition)),
	}
	if r.metrics != nil {
		flowOpts = append(flowOpts, flow.WithMetrics(r.metrics))
	}
	if r.tracer != nil {
		flowOpts = append(flowOpts, flow.WithTracer(r.tracer))
	}
	f, err := flow.New(api, flowOpts...)
	if err != nil {
		return nil, err
	}
	r.flow = f
	return r, nil
}

// Start initializes the flow from the inbound params, announces readiness
// (or the fatal condition), and begins serving inbound commands.
func (r *Runtime) Start(ctx context.Context, p Params) flow.State {
	state := r.flow.Init(ctx, flow.InitParams{
		Token:                p.Token,
		APIKey:               p.APIKey,
		User:                 p.User,
		AllowedDocumentTypes: p.AllowedDocumentTypes,
	})

	if state.Terminal != flow.TerminalNone {
		r.emit(protocol.EventError, protocol.ErrorData{
			Code:    string(state.Terminal),
			Message: state.TerminalMessage,
		})
	} else {
		r.emit(protocol.EventReady, protocol.ReadyData{SessionID: state.SessionID})
	}

	go r.commandLoop(ctx)
	return state
}

// SubmitDocument validates a document capture and, if acceptable, uploads
// it. Oversized or malformed input is rejected before any network call and
// the capture control is reset so the same file cannot be resubmitted.
func (r *Runtime) SubmitDocument(ctx context.Context, data []byte, contentType string, docType models.DocumentType, side models.DocumentSide) (flow.State, error) {
	a, err := capture.NewDocument(data, contentType, docType, side)
	if err = r.document.Accept(a, err); err != nil {
		if r.metrics != nil {
			r.metrics.CapturesRejected.Inc()
		}
		return r.flow.State(), err
	}
	a, err = r.document.Take()
	if err != nil {
		return r.flow.State(), err
	}
	return r.flow.SubmitDocument(ctx, a)
}

// SubmitSelfie validates the selfie capture and uploads it, chaining into
// submit on success.
func (r *Runtime) SubmitSelfie(ctx context.Context, data []byte, contentType string) (flow.State, error) {
	a, err := capture.NewSelfie(data, contentType)
	if err = r.selfie.Accept(a, err); err != nil {
		if r.metrics != nil {
			r.metrics.CapturesRejected.Inc()
		}
		return r.flow.State(), err
	}
	a, err = r.selfie.Take()
	if err != nil {
		return r.flow.State(), err
	}
	return r.flow.SubmitSelfie(ctx, a)
}

// Back is the user-initiated regression from selfie to document.
func (r *Runtime) Back() (flow.State, error) {
	return r.flow.Back()
}

// UserRetry is a retry initiated inside the widget. It announces the retry
// to the host and resets the flow without a network round trip.
func (r *Runtime) UserRetry() flow.State {
	r.emit(protocol.EventRetry, nil)
	return r.flow.Retry()
}

// UserClose is a close initiated inside the widget: announce and stop.
func (r *Runtime) UserClose() {
	r.emit(protocol.EventClose, nil)
	r.stop()
}

// State returns the current flow state.
func (r *Runtime) State() flow.State {
	return r.flow.State()
}

// Done is closed once the runtime has stopped serving commands.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

func (r *Runtime) commandLoop(ctx context.Context) {
	defer r.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-r.side.Commands():
			if !ok {
				return
			}
			switch cmd {
			case protocol.CommandClose:
				// Re-emit outward so the host's callbacks fire before it
				// tears the modal down.
				r.emit(protocol.EventClose, nil)
				return
			case protocol.CommandRetry:
				r.flow.Retry()
			}
		}
	}
}

func (r *Runtime) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	close(r.done)
}

// onTransition maps flow transitions onto the protocol vocabulary. The
// initial document entry is covered by ready, and entry into complete is
// covered by verification_success/verification_failed, so neither gets a
// separate step_change.
func (r *Runtime) onTransition(t flow.Transition) {
	if t.Failure != nil {
		r.emit(protocol.EventError, protocol.ErrorData{
			Code:    string(t.Failure.Category),
			Message: t.Failure.Message,
		})
	}

	switch t.Step {
	case models.StepComplete:
		result := t.State.Result
		if result == nil {
			return
		}
		if result.Passed {
			r.emit(protocol.EventSuccess, protocol.SuccessData{
				SessionID:     t.State.SessionID,
				Passed:        true,
				Score:         result.Score,
				ExtractedData: result.ExtractedData,
			})
		} else {
			r.emit(protocol.EventFailed, protocol.FailedData{
				SessionID:        t.State.SessionID,
				Passed:           false,
				Score:            result.Score,
				CanRetry:         result.CanRetry,
				RemainingRetries: result.RemainingRetries,
			})
		}
	case models.StepFatal:
		// Terminal display states carry no step_change.
	default:
		r.emit(protocol.EventStepChange, protocol.StepChangeData{Step: string(t.Step)})
	}
}

func (r *Runtime) emit(event protocol.EventType, data any) {
	env, err := protocol.NewEvent(event, data)
	if err != nil {
		r.logger.Error("encode protocol event failed", "event", string(event), "error", err)
		return
	}
	if err := r.side.Emit(env); err != nil {
		r.logger.Warn("emit protocol event failed", "event", string(event), "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.EventsEmitted.WithLabelValues(string(event)).Inc()
	}
}
