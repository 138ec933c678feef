package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veriflow/internal/tracer"
	"veriflow/internal/verify/capture"
	"veriflow/internal/verify/mocks"
	"veriflow/internal/verify/models"
	"veriflow/internal/verify/ports"
	dErrors "veriflow/pkg/domain-errors"
)

// recorder collects transitions in delivery order.
type recorder struct {
	mu          sync.Mutex
	transitions []Transition
}

func (r *recorder) Transition(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recorder) steps() []models.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Step, 0, len(r.transitions))
	for _, t := range r.transitions {
		out = append(out, t.Step)
	}
	return out
}

type FlowSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	api      *mocks.MockAPI
	recorder *recorder
	flow     *Flow
	ctx      context.Context
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockAPI(s.ctrl)
	s.recorder = &recorder{}
	s.ctx = context.Background()

	f, err := New(s.api, WithObserver(s.recorder))
	s.Require().NoError(err)
	s.flow = f
}

func (s *FlowSuite) document() capture.Artifact {
	a, err := capture.NewDocument([]byte("jpeg-bytes"), "image/jpeg", models.DocPassport, models.SideFront)
	s.Require().NoError(err)
	return a
}

func (s *FlowSuite) selfie() capture.Artifact {
	a, err := capture.NewSelfie([]byte("selfie-bytes"), "image/jpeg")
	s.Require().NoError(err)
	return a
}

func (s *FlowSuite) passedResult() *models.Result {
	return &models.Result{Passed: true, Score: 0.93, RiskLevel: models.RiskLow}
}

func (s *FlowSuite) TestNew() {
	_, err := New(nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *FlowSuite) TestInit() {
	s.Run("missing link when URL carried nothing", func() {
		state := s.flow.Init(s.ctx, InitParams{})
		s.Equal(TerminalMissingLink, state.Terminal)
		s.Equal(models.StepFatal, state.Step)
		s.NotEmpty(state.TerminalMessage)
	})

	s.Run("embed mode starts at document with no session", func() {
		s.SetupTest()
		state := s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
		s.Equal(TerminalNone, state.Terminal)
		s.Equal(models.StepDocument, state.Step)
		s.Empty(state.SessionID)
	})

	s.Run("decrypt failure is terminal and never retried", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "bad-token").
			Return("", dErrors.New(dErrors.CodeInvalidLink, "token decrypt failed"))

		state := s.flow.Init(s.ctx, InitParams{Token: "bad-token"})
		s.Equal(TerminalInvalidLink, state.Terminal)

		// Retry must not re-attempt the exchange.
		state = s.flow.Retry()
		s.Equal(TerminalInvalidLink, state.Terminal)
		s.Equal(models.StepFatal, state.Step)
	})

	s.Run("token mode adopts the session id the lookup returned", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "tok").Return("sess-parent", nil)
		s.api.EXPECT().GetSession(gomock.Any(), "sess-parent").
			Return(&models.Session{ID: "sess-child", Status: models.StatusPending, MaxRetries: 3}, nil)

		state := s.flow.Init(s.ctx, InitParams{Token: "tok"})
		s.Equal(models.StepDocument, state.Step)
		s.Equal("sess-child", state.SessionID)
		s.Equal("sess-child", s.flow.SessionID())
	})

	s.Run("completed session is terminal", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "tok").Return("sess-1", nil)
		s.api.EXPECT().GetSession(gomock.Any(), "sess-1").
			Return(&models.Session{ID: "sess-1", Status: models.StatusCompleted}, nil)

		state := s.flow.Init(s.ctx, InitParams{Token: "tok"})
		s.Equal(TerminalAlreadyCompleted, state.Terminal)
	})

	s.Run("failed session with exhausted retries is terminal", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "tok").Return("sess-1", nil)
		s.api.EXPECT().GetSession(gomock.Any(), "sess-1").
			Return(&models.Session{ID: "sess-1", Status: models.StatusFailed, RetryCount: 3, MaxRetries: 3}, nil)

		state := s.flow.Init(s.ctx, InitParams{Token: "tok"})
		s.Equal(TerminalRetriesExhausted, state.Terminal)
	})

	s.Run("failed session with retries left resumes at document", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "tok").Return("sess-1", nil)
		s.api.EXPECT().GetSession(gomock.Any(), "sess-1").
			Return(&models.Session{ID: "sess-1", Status: models.StatusFailed, RetryCount: 1, MaxRetries: 3}, nil)

		state := s.flow.Init(s.ctx, InitParams{Token: "tok"})
		s.Equal(TerminalNone, state.Terminal)
		s.Equal(models.StepDocument, state.Step)
	})

	s.Run("expired session is terminal", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "tok").Return("sess-1", nil)
		s.api.EXPECT().GetSession(gomock.Any(), "sess-1").
			Return(&models.Session{ID: "sess-1", Status: models.StatusExpired}, nil)

		state := s.flow.Init(s.ctx, InitParams{Token: "tok"})
		s.Equal(TerminalExpired, state.Terminal)
	})

	s.Run("session document types override the URL's", func() {
		s.SetupTest()
		s.api.EXPECT().DecryptToken(gomock.Any(), "tok").Return("sess-1", nil)
		s.api.EXPECT().GetSession(gomock.Any(), "sess-1").
			Return(&models.Session{
				ID:                   "sess-1",
				Status:               models.StatusPending,
				AllowedDocumentTypes: []models.DocumentType{models.DocPassport},
			}, nil)

		state := s.flow.Init(s.ctx, InitParams{
			Token:                "tok",
			AllowedDocumentTypes: []models.DocumentType{models.DocDriversLicense},
		})
		s.Equal([]models.DocumentType{models.DocPassport}, state.AllowedDocumentTypes)
	})
}

func (s *FlowSuite) TestSubmitDocument() {
	s.Run("creates the session lazily in embed mode", func() {
		s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
		s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(&models.Session{ID: "sess-new", Status: models.StatusPending}, nil)
		s.api.EXPECT().UploadDocument(gomock.Any(), "sess-new", gomock.Any()).
			Return(&ports.DocumentDetection{DetectedType: models.DocPassport}, nil)

		state, err := s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().NoError(err)
		s.Equal(models.StepSelfie, state.Step)
		s.Equal("sess-new", state.SessionID)
	})

	s.Run("session id survives a failed upload and is never created twice", func() {
		s.SetupTest()
		s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})

		s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(&models.Session{ID: "sess-1", Status: models.StatusPending}, nil).
			Times(1)
		s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUploadFailed, "image too blurry")).
			Times(1)
		s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
			Return(&ports.DocumentDetection{}, nil).
			Times(1)

		state, err := s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().NoError(err)
		s.Equal(models.StepDocument, state.Step)
		s.Require().NotNil(state.Notice)
		s.Equal(CategoryBlur, state.Notice.Category)
		s.Equal("sess-1", state.SessionID)

		state, err = s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().NoError(err)
		s.Equal(models.StepSelfie, state.Step)
	})

	s.Run("rejected outside the document step", func() {
		s.SetupTest()
		s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
		s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(&models.Session{ID: "sess-1"}, nil)
		s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
			Return(&ports.DocumentDetection{}, nil)

		_, err := s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().NoError(err)

		_, err = s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("session creation failure returns to document", func() {
		s.SetupTest()
		s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
		s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeTransport, "network error contacting verification API"))

		state, err := s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().NoError(err)
		s.Equal(models.StepDocument, state.Step)
		s.Require().NotNil(state.Notice)
		s.Equal(CategoryConnectivity, state.Notice.Category)
		s.Empty(state.SessionID)
	})
}

// seedToSelfie drives a fresh flow to the selfie step with session sess-1.
func (s *FlowSuite) seedToSelfie() {
	s.SetupTest()
	s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
	s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
		Return(&models.Session{ID: "sess-1", Status: models.StatusPending}, nil)
	s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
		Return(&ports.DocumentDetection{}, nil)
	_, err := s.flow.SubmitDocument(s.ctx, s.document())
	s.Require().NoError(err)
}

func (s *FlowSuite) TestSubmitSelfie() {
	s.Run("success completes the flow with the result", func() {
		s.seedToSelfie()
		s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
		s.api.EXPECT().Submit(gomock.Any(), "sess-1").Return(s.passedResult(), nil)

		state, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().NoError(err)
		s.Equal(models.StepComplete, state.Step)
		s.Require().NotNil(state.Result)
		s.True(state.Result.Passed)
	})

	s.Run("a result is a result regardless of transport-level failure", func() {
		// The backend conflates result and error envelopes; any response
		// carrying a defined passed field must complete the flow.
		s.seedToSelfie()
		s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
		failed := &models.Result{Passed: false, Score: 0.4, CanRetry: true, RemainingRetries: 2}
		s.api.EXPECT().Submit(gomock.Any(), "sess-1").Return(failed, nil)

		state, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().NoError(err)
		s.Equal(models.StepComplete, state.Step)
		s.Require().NotNil(state.Result)
		s.False(state.Result.Passed)
		s.True(state.Result.CanRetry)
	})

	s.Run("retry limit regresses to document with the dedicated notice", func() {
		s.seedToSelfie()
		s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
		s.api.EXPECT().Submit(gomock.Any(), "sess-1").
			Return(nil, dErrors.New(dErrors.CodeRetryLimit, "retry limit reached"))

		state, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().NoError(err)
		s.Equal(models.StepDocument, state.Step)
		s.Require().NotNil(state.Notice)
		s.Equal(CategoryRetryLimit, state.Notice.Category)
		s.Nil(state.Result)
	})

	s.Run("selfie upload failure regresses to selfie only", func() {
		s.seedToSelfie()
		s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).
			Return(dErrors.New(dErrors.CodeUploadFailed, "no face detected in upload"))

		state, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().NoError(err)
		s.Equal(models.StepSelfie, state.Step)
		s.Require().NotNil(state.Notice)
	})

	s.Run("rejected outside the selfie step", func() {
		s.SetupTest()
		s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
		_, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("nil result without an error is an unusable response", func() {
		s.seedToSelfie()
		s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
		s.api.EXPECT().Submit(gomock.Any(), "sess-1").Return(nil, nil)

		state, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().NoError(err)
		s.Equal(models.StepDocument, state.Step)
		s.Require().NotNil(state.Notice)
		s.Equal(CategoryProcessing, state.Notice.Category)
		s.Nil(state.Result)
	})
}

func (s *FlowSuite) TestRetryAndBack() {
	s.Run("retry clears result and notice and keeps the session", func() {
		s.seedToSelfie()
		s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
		failed := &models.Result{Passed: false, Score: 0.3, CanRetry: true, RemainingRetries: 2}
		s.api.EXPECT().Submit(gomock.Any(), "sess-1").Return(failed, nil)
		_, err := s.flow.SubmitSelfie(s.ctx, s.selfie())
		s.Require().NoError(err)

		state := s.flow.Retry()
		s.Equal(models.StepDocument, state.Step)
		s.Nil(state.Result)
		s.Nil(state.Notice)
		s.Equal("sess-1", state.SessionID)
	})

	s.Run("retry after retry reuses the session without creating another", func() {
		s.seedToSelfie()
		s.flow.Retry()

		// No CreateSession expectation: a second create would fail the test.
		s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
			Return(&ports.DocumentDetection{}, nil)
		state, err := s.flow.SubmitDocument(s.ctx, s.document())
		s.Require().NoError(err)
		s.Equal(models.StepSelfie, state.Step)
	})

	s.Run("back returns from selfie to document keeping the session", func() {
		s.seedToSelfie()
		state, err := s.flow.Back()
		s.Require().NoError(err)
		s.Equal(models.StepDocument, state.Step)
		s.Equal("sess-1", state.SessionID)
	})

	s.Run("back is rejected from any other step", func() {
		s.SetupTest()
		s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
		_, err := s.flow.Back()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// TestTransitionOrder pins the exact observer sequence for a full pass.
func (s *FlowSuite) TestTransitionOrder() {
	s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
	s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
		Return(&models.Session{ID: "sess-1"}, nil)
	s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
		Return(&ports.DocumentDetection{}, nil)
	s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
	s.api.EXPECT().Submit(gomock.Any(), "sess-1").Return(s.passedResult(), nil)

	_, err := s.flow.SubmitDocument(s.ctx, s.document())
	s.Require().NoError(err)
	_, err = s.flow.SubmitSelfie(s.ctx, s.selfie())
	s.Require().NoError(err)

	s.Equal([]models.Step{
		models.StepDocumentProcessing,
		models.StepSelfie,
		models.StepSelfieProcessing,
		models.StepProcessing,
		models.StepComplete,
	}, s.recorder.steps())
}

// spanRecorder implements tracer.Tracer, keeping the span names in start
// order along with the error each span ended with.
type spanRecorder struct {
	mu    sync.Mutex
	names []string
	errs  map[string]error
}

func (r *spanRecorder) Start(ctx context.Context, name string, _ ...tracer.Attribute) (context.Context, tracer.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return ctx, &recordedFlowSpan{rec: r, name: name}
}

type recordedFlowSpan struct {
	rec  *spanRecorder
	name string
}

func (sp *recordedFlowSpan) End(err error) {
	sp.rec.mu.Lock()
	defer sp.rec.mu.Unlock()
	if sp.rec.errs == nil {
		sp.rec.errs = make(map[string]error)
	}
	sp.rec.errs[sp.name] = err
}

func (sp *recordedFlowSpan) SetAttributes(...tracer.Attribute)    {}
func (sp *recordedFlowSpan) AddEvent(string, ...tracer.Attribute) {}

// TestSubmitTracing verifies scoring runs under its own span after the
// selfie upload span.
func (s *FlowSuite) TestSubmitTracing() {
	rec := &spanRecorder{}
	f, err := New(s.api, WithObserver(s.recorder), WithTracer(rec))
	s.Require().NoError(err)
	s.flow = f

	s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
	s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
		Return(&models.Session{ID: "sess-1"}, nil)
	s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
		Return(&ports.DocumentDetection{}, nil)
	s.api.EXPECT().UploadSelfie(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
	s.api.EXPECT().Submit(gomock.Any(), "sess-1").Return(s.passedResult(), nil)

	_, err = s.flow.SubmitDocument(s.ctx, s.document())
	s.Require().NoError(err)
	_, err = s.flow.SubmitSelfie(s.ctx, s.selfie())
	s.Require().NoError(err)

	s.Equal([]string{
		tracer.SpanFlowInit,
		tracer.SpanUploadDocument,
		tracer.SpanUploadSelfie,
		tracer.SpanSubmit,
	}, rec.names)
	s.NoError(rec.errs[tracer.SpanSubmit])
	s.NoError(rec.errs[tracer.SpanUploadSelfie])
}

// TestFailureTransitionCarriesNotice verifies error regressions reach the
// observer with the classified notice attached.
func (s *FlowSuite) TestFailureTransitionCarriesNotice() {
	s.flow.Init(s.ctx, InitParams{APIKey: "vk_test"})
	s.api.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
		Return(&models.Session{ID: "sess-1"}, nil)
	s.api.EXPECT().UploadDocument(gomock.Any(), "sess-1", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUploadFailed, "too much glare on the document"))

	_, err := s.flow.SubmitDocument(s.ctx, s.document())
	s.Require().NoError(err)

	steps := s.recorder.steps()
	s.Equal([]models.Step{models.StepDocumentProcessing, models.StepDocument}, steps)

	last := s.recorder.transitions[len(s.recorder.transitions)-1]
	s.Require().NotNil(last.Failure)
	s.Equal(CategoryGlare, last.Failure.Category)
}
