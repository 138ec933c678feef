// Package store persists backend session records. The memory store is the
// default; the redis store mirrors it for deployments that need sessions
// to survive a process restart.
package store

import (
	"context"

	"veriflow/internal/backend/models"
)

// SessionStore is the persistence contract for session records.
type SessionStore interface {
	// Create inserts a new record; the id must not already exist.
	Create(ctx context.Context, rec *models.SessionRecord) error

	// Get returns the record for id without following child links.
	Get(ctx context.Context, id string) (*models.SessionRecord, error)

	// Update replaces an existing record.
	Update(ctx context.Context, rec *models.SessionRecord) error
}
