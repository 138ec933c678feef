package models

import "time"

// SessionRecord is the backend's view of one verification session.
type SessionRecord struct {
	ID                   string            `json:"id"`
	PartnerID            string            `json:"partnerId"`
	Status               string            `json:"status"`
	RetryCount           int               `json:"retryCount"`
	MaxRetries           int               `json:"maxRetries"`
	UserID               string            `json:"userId,omitempty"`
	UserEmail            string            `json:"userEmail,omitempty"`
	UserName             string            `json:"userName,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	AllowedDocumentTypes []string          `json:"allowedDocumentTypes,omitempty"`

	DocumentType string `json:"documentType,omitempty"`
	HasDocument  bool   `json:"hasDocument"`
	HasSelfie    bool   `json:"hasSelfie"`

	// ChildID points at the session a retry spawned; lookups follow it so
	// an old link resolves to the live attempt.
	ChildID  string `json:"childId,omitempty"`
	ParentID string `json:"parentId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session statuses. These mirror the client-visible enumeration.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusExpired   = "EXPIRED"
)

// DefaultMaxRetries applies when a partner does not configure a limit.
const DefaultMaxRetries = 3
