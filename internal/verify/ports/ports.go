// Package ports defines the interfaces the verification flow depends on.
// The HTTP API is an external collaborator; the flow only sees this contract.
package ports

import (
	"context"

	"veriflow/internal/verify/capture"
	"veriflow/internal/verify/models"
)

// CreateSessionRequest carries everything the backend needs to open a session.
type CreateSessionRequest struct {
	Type     string
	Metadata map[string]string
	User     *models.User
}

// DocumentDetection is the optional OCR hint returned by a document upload.
type DocumentDetection struct {
	DetectedType models.DocumentType
}

// PartnerInfo is the public branding record for a partner.
type PartnerInfo struct {
	CompanyName string
	LogoURL     string
}

// API is the verification backend contract. Implementations must follow the
// result-over-status rule: a submit response whose body parses to a result
// with a defined passed field is returned as a Result with a nil error,
// regardless of the HTTP status code.
type API interface {
	// CreateSession opens a new verification session and returns it with
	// its backend-assigned id.
	CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error)

	// UploadDocument attaches a document capture to the session. Uploading
	// again for the same session replaces the previous document.
	UploadDocument(ctx context.Context, sessionID string, artifact capture.Artifact) (*DocumentDetection, error)

	// UploadSelfie attaches the selfie capture to the session.
	UploadSelfie(ctx context.Context, sessionID string, artifact capture.Artifact) error

	// Submit asks the backend to score the session. A 429 response maps to
	// a domain error with CodeRetryLimit and never to a Result.
	Submit(ctx context.Context, sessionID string) (*models.Result, error)

	// GetSession fetches the full session record. The returned id may
	// differ from the requested one when a retry created a child session;
	// callers must adopt the returned id.
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// DecryptToken exchanges an encrypted verification-link token for a
	// session id. Failures are terminal; the flow never retries this call.
	DecryptToken(ctx context.Context, token string) (string, error)

	// PartnerInfo returns public branding for a partner.
	PartnerInfo(ctx context.Context, partnerID string) (*PartnerInfo, error)
}
