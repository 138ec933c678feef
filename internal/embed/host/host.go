// Package host is the lightweight SDK a partner page uses to run the
// verification widget: configuration, modal lifecycle, the single event
// listener, and the command channel back into the widget.
package host

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"veriflow/internal/embed/protocol"
	"veriflow/internal/embed/transport"
	"veriflow/internal/verify/models"
	dErrors "veriflow/pkg/domain-errors"
)

// DefaultWidgetURL is where the hosted widget lives unless overridden.
const DefaultWidgetURL = "https://widget.veriflow.io/embed"

const (
	defaultAutoCloseDelay    = 2 * time.Second
	defaultAnimationDuration = 300 * time.Millisecond
)

// Callbacks are the host page's hooks. Any nil callback is defaulted to a
// no-op at Init time.
type Callbacks struct {
	OnReady      func(sessionID string)
	OnSuccess    func(data protocol.SuccessData)
	OnFailure    func(data protocol.FailedData)
	OnError      func(data protocol.ErrorData)
	OnClose      func()
	OnStepChange func(step string)
}

// Config is the SDK configuration. AllowedDocumentTypes are passed through
// to the widget unvalidated; the widget intersects them with its known set.
type Config struct {
	APIKey               string
	WidgetURL            string
	Theme                string
	Locale               string
	ShowBranding         bool
	AllowedDocumentTypes []string
	Callbacks            Callbacks

	// AutoCloseDelay runs after a verification_success event; the modal
	// closes itself unless the host closed it earlier.
	AutoCloseDelay time.Duration
	// AnimationDuration is the modal in/out animation; teardown completes
	// after one duration.
	AnimationDuration time.Duration
}

// Client is the explicit object behind the SDK: configuration, the active
// modal if any, and the in-progress flag. One Client per host page.
type Client struct {
	surface Surface
	logger  *slog.Logger

	mu          sync.Mutex
	cfg         Config
	initialized bool
	inProgress  bool
	closing     bool
	modal       Modal
	side        transport.HostSide
	autoClose   *time.Timer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds an uninitialized SDK client over a rendering surface.
func NewClient(surface Surface, opts ...ClientOption) *Client {
	c := &Client{
		surface: surface,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init stores configuration and installs the page styles. It returns an
// error instead of panicking when the API key is missing. Repeat calls
// replace the configuration; the style block is injected at most once.
func (c *Client) Init(cfg Config) error {
	if cfg.APIKey == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "init requires an API key")
	}
	if cfg.WidgetURL == "" {
		cfg.WidgetURL = DefaultWidgetURL
	}
	if cfg.AutoCloseDelay <= 0 {
		cfg.AutoCloseDelay = defaultAutoCloseDelay
	}
	if cfg.AnimationDuration <= 0 {
		cfg.AnimationDuration = defaultAnimationDuration
	}
	cfg.Callbacks = defaultCallbacks(cfg.Callbacks)

	c.surface.InjectStyles(StyleID)

	c.mu.Lock()
	c.cfg = cfg
	c.initialized = true
	c.mu.Unlock()
	return nil
}

// StartVerification opens the modal and starts listening for widget
// events. It refuses to start a second verification while one is in
// progress.
func (c *Client) StartVerification(user *models.User) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "init must be called before startVerification")
	}
	if c.inProgress {
		c.mu.Unlock()
		c.logger.Warn("verification already in progress; ignoring start request")
		return dErrors.New(dErrors.CodeConflict, "verification already in progress")
	}
	cfg := c.cfg
	c.inProgress = true
	c.mu.Unlock()

	frameURL, err := BuildFrameURL(cfg.WidgetURL, cfg, user)
	if err != nil {
		c.clearInProgress()
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid widget URL")
	}

	modal, side, err := c.surface.OpenModal(frameURL)
	if err != nil {
		c.clearInProgress()
		return err
	}

	c.surface.LockScroll()
	modal.AnimateIn(cfg.AnimationDuration)

	c.mu.Lock()
	c.modal = modal
	c.side = side
	c.mu.Unlock()

	go c.listen(side, cfg.Callbacks, cfg.AutoCloseDelay)
	go c.watchCloseTriggers(modal)
	return nil
}

// Retry sends the retry command into the widget: it resets to the document
// step, clearing any displayed result or error, with no network call.
func (c *Client) Retry() error {
	c.mu.Lock()
	side := c.side
	c.mu.Unlock()
	if side == nil {
		return dErrors.New(dErrors.CodeConflict, "no verification open")
	}
	return side.Send(protocol.NewCommand(protocol.CommandRetry))
}

// Close reverses the open animation, then after its duration detaches the
// overlay, restores scroll, releases the frame references, and clears the
// in-progress flag. Closing when nothing is open is a safe no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.inProgress || c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	modal := c.modal
	side := c.side
	timer := c.autoClose
	c.autoClose = nil
	anim := c.cfg.AnimationDuration
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if modal == nil {
		c.finishClose(nil, side)
		return nil
	}

	modal.AnimateOut(anim)
	time.AfterFunc(anim, func() { c.finishClose(modal, side) })
	return nil
}

func (c *Client) finishClose(modal Modal, side transport.HostSide) {
	if modal != nil {
		modal.Detach()
	}
	c.surface.RestoreScroll()
	if side != nil {
		_ = side.Close()
	}
	c.mu.Lock()
	c.modal = nil
	c.side = nil
	c.inProgress = false
	c.closing = false
	c.mu.Unlock()
}

func (c *Client) clearInProgress() {
	c.mu.Lock()
	c.inProgress = false
	c.mu.Unlock()
}

// InProgress reports whether a verification modal is currently active.
func (c *Client) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

// listen is the single event listener for one open verification. Envelopes
// that fail strict decoding never reach it: the transport already drops
// non-protocol messages.
func (c *Client) listen(side transport.HostSide, cb Callbacks, autoClose time.Duration) {
	for env := range side.Events() {
		switch env.Event {
		case protocol.EventReady:
			var d protocol.ReadyData
			if decodeData(env.Data, &d) {
				cb.OnReady(d.SessionID)
			}
		case protocol.EventStepChange:
			var d protocol.StepChangeData
			if decodeData(env.Data, &d) {
				cb.OnStepChange(d.Step)
			}
		case protocol.EventSuccess:
			var d protocol.SuccessData
			if decodeData(env.Data, &d) {
				cb.OnSuccess(d)
			}
			c.scheduleAutoClose(autoClose)
		case protocol.EventFailed:
			var d protocol.FailedData
			if decodeData(env.Data, &d) {
				cb.OnFailure(d)
			}
		case protocol.EventError:
			var d protocol.ErrorData
			if decodeData(env.Data, &d) {
				cb.OnError(d)
			}
		case protocol.EventClose:
			cb.OnClose()
			_ = c.Close()
		case protocol.EventRetry:
			// Informational; the widget already reset itself.
		}
	}
}

// scheduleAutoClose arms the fixed post-success close. A host that closes
// earlier simply wins; the timer is stopped during teardown.
func (c *Client) scheduleAutoClose(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoClose != nil {
		c.autoClose.Stop()
	}
	c.autoClose = time.AfterFunc(delay, func() { _ = c.Close() })
}

// watchCloseTriggers forwards the modal's close triggers as close commands
// so the widget can re-emit close before the host tears down.
func (c *Client) watchCloseTriggers(modal Modal) {
	for range modal.CloseRequests() {
		c.mu.Lock()
		side := c.side
		c.mu.Unlock()
		if side == nil {
			return
		}
		if err := side.Send(protocol.NewCommand(protocol.CommandClose)); err != nil {
			// Channel already gone; tear down directly.
			_ = c.Close()
			return
		}
	}
}

func decodeData(raw json.RawMessage, into any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, into) == nil
}

func defaultCallbacks(cb Callbacks) Callbacks {
	if cb.OnReady == nil {
		cb.OnReady = func(string) {}
	}
	if cb.OnSuccess == nil {
		cb.OnSuccess = func(protocol.SuccessData) {}
	}
	if cb.OnFailure == nil {
		cb.OnFailure = func(protocol.FailedData) {}
	}
	if cb.OnError == nil {
		cb.OnError = func(protocol.ErrorData) {}
	}
	if cb.OnClose == nil {
		cb.OnClose = func() {}
	}
	if cb.OnStepChange == nil {
		cb.OnStepChange = func(string) {}
	}
	return cb
}
