// Package events publishes verification lifecycle events to the partner
// event feed. Kafka is optional; without brokers the noop publisher keeps
// the backend self-contained.
package events

import (
	"context"
	"time"
)

// Event types on the feed.
const (
	TypeSessionCreated = "verification.session_created"
	TypeCompleted      = "verification.completed"
	TypeRetried        = "verification.retried"
)

// Event is one entry on the verification feed.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	PartnerID string    `json:"partnerId"`
	Passed    *bool     `json:"passed,omitempty"`
	Score     *float64  `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers feed events. Implementations must not block the
// request path on broker trouble.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher discards all events. Used when Kafka is not configured and
// in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
