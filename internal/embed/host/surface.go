package host

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"veriflow/internal/embed/transport"
	"veriflow/internal/embed/widget"
	"veriflow/internal/platform/metrics"
	"veriflow/internal/tracer"
	"veriflow/internal/verify/ports"
	dErrors "veriflow/pkg/domain-errors"
)

// StyleID keys the SDK's injected style block so repeated Init calls never
// duplicate it.
const StyleID = "veriflow-embed-styles"

// CloseTrigger names the three independent ways a user can dismiss the
// modal from the host page.
type CloseTrigger string

const (
	TriggerCloseButton CloseTrigger = "close_button"
	TriggerBackdrop    CloseTrigger = "backdrop"
	TriggerEscape      CloseTrigger = "escape"
)

// Modal is one open overlay+frame pair.
type Modal interface {
	AnimateIn(d time.Duration)
	AnimateOut(d time.Duration)
	// Detach removes the overlay from the page after the out animation.
	Detach()
	// CloseRequests delivers user close triggers until the modal detaches.
	CloseRequests() <-chan CloseTrigger
}

// Surface is the rendering boundary: it owns style injection, scroll
// locking, and modal construction. Visual specifics live behind it, which
// keeps the SDK testable and the transport swappable.
type Surface interface {
	// InjectStyles installs the style block for the given id at most once
	// per page.
	InjectStyles(id string)
	// OpenModal builds the overlay+modal+frame for the given frame URL and
	// returns the host end of the messaging channel.
	OpenModal(frameURL string) (Modal, transport.HostSide, error)
	LockScroll()
	RestoreScroll()
}

// EmbeddedSurface hosts the widget runtime in-process: the frame URL is
// parsed exactly as a remote widget would parse its query string, and the
// two ends are connected by an in-process transport pair. Used by the demo
// wiring and by tests that exercise the full host/widget round trip.
type EmbeddedSurface struct {
	api      ports.API
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	tracer   tracer.Tracer

	mu       sync.Mutex
	styles   map[string]int
	scrolled bool
}

// NewEmbeddedSurface builds a surface whose widgets talk to the given API.
// All widgets it boots share one metric registry and report spans through
// the global OpenTelemetry provider.
func NewEmbeddedSurface(api ports.API) *EmbeddedSurface {
	reg := prometheus.NewRegistry()
	return &EmbeddedSurface{
		api:      api,
		registry: reg,
		metrics:  metrics.New(reg),
		tracer:   tracer.NewOTel(),
		styles:   make(map[string]int),
	}
}

// Gatherer exposes the surface's metric registry for scraping.
func (s *EmbeddedSurface) Gatherer() prometheus.Gatherer {
	return s.registry
}

// InjectStyles records the injection; repeats with the same id are no-ops.
func (s *EmbeddedSurface) InjectStyles(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.styles[id] == 0 {
		s.styles[id] = 1
	}
}

// StyleInjections reports how many style blocks exist for an id (0 or 1).
func (s *EmbeddedSurface) StyleInjections(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.styles[id]
}

// OpenModal parses the frame URL, boots a widget runtime against it, and
// returns the host end of the pair.
func (s *EmbeddedSurface) OpenModal(frameURL string) (Modal, transport.HostSide, error) {
	u, err := url.Parse(frameURL)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid frame URL")
	}
	hostSide, widgetSide := transport.Pair(0)
	rt, err := widget.New(s.api, widgetSide,
		widget.WithMetrics(s.metrics),
		widget.WithTracer(s.tracer),
	)
	if err != nil {
		return nil, nil, err
	}
	rt.Start(context.Background(), widget.ParseParams(u.Query()))
	return NewHeadlessModal(), hostSide, nil
}

func (s *EmbeddedSurface) LockScroll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolled = true
}

func (s *EmbeddedSurface) RestoreScroll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolled = false
}

// ScrollLocked reports whether the page scroll is currently locked.
func (s *EmbeddedSurface) ScrollLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolled
}

// HeadlessModal is a Modal without a screen: it records lifecycle calls
// and lets tests fire the three close triggers.
type HeadlessModal struct {
	mu       sync.Mutex
	visible  bool
	detached bool
	closes   chan CloseTrigger
}

// NewHeadlessModal builds an idle headless modal.
func NewHeadlessModal() *HeadlessModal {
	return &HeadlessModal{closes: make(chan CloseTrigger, 4)}
}

func (m *HeadlessModal) AnimateIn(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = true
}

func (m *HeadlessModal) AnimateOut(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = false
}

func (m *HeadlessModal) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return
	}
	m.detached = true
	close(m.closes)
}

func (m *HeadlessModal) CloseRequests() <-chan CloseTrigger { return m.closes }

// Visible reports whether the modal is animated in.
func (m *HeadlessModal) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Detached reports whether the modal has been removed from the page.
func (m *HeadlessModal) Detached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detached
}

// ClickClose simulates the explicit close button.
func (m *HeadlessModal) ClickClose() { m.trigger(TriggerCloseButton) }

// ClickBackdrop simulates a click on the overlay outside the modal body.
func (m *HeadlessModal) ClickBackdrop() { m.trigger(TriggerBackdrop) }

// PressEscape simulates the Escape key.
func (m *HeadlessModal) PressEscape() { m.trigger(TriggerEscape) }

func (m *HeadlessModal) trigger(t CloseTrigger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return
	}
	select {
	case m.closes <- t:
	default:
	}
}
