package capture

import (
	"sync"

	dErrors "veriflow/pkg/domain-errors"
)

// Provider holds at most one pending artifact between capture and upload.
// A rejected input resets the provider so the same file cannot be silently
// resubmitted; the flow takes the artifact exactly once.
type Provider struct {
	mu      sync.Mutex
	pending *Artifact
}

// Accept stores a validated artifact as the pending capture. On validation
// failure the provider is reset and the error is returned for display.
func (p *Provider) Accept(a Artifact, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.pending = nil
		return err
	}
	p.pending = &a
	return nil
}

// Take removes and returns the pending artifact.
func (p *Provider) Take() (Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return Artifact{}, dErrors.New(dErrors.CodeInvalidInput, "no capture pending")
	}
	a := *p.pending
	p.pending = nil
	return a, nil
}

// Reset discards any pending artifact.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}

// HasPending reports whether an artifact is waiting to be taken.
func (p *Provider) HasPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}
