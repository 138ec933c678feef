package models

// Status is the backend-owned lifecycle state of a verification session.
// It is read-only for the client; Step tracks client-local progress.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

// RiskLevel buckets the backend's risk assessment of a completed verification.
// The zero value means the backend did not report one.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// DocumentSide distinguishes front and back captures of two-sided documents.
type DocumentSide string

const (
	SideFront DocumentSide = "front"
	SideBack  DocumentSide = "back"
)

// Session is one verification attempt tracked by both client and backend.
// The id is assigned by the backend and may be replaced mid-flow when a
// lookup returns a child session, so callers must treat it as mutable state.
type Session struct {
	ID                   string
	Status               Status
	RetryCount           int
	MaxRetries           int
	UserID               string
	PartnerID            string
	AllowedDocumentTypes []DocumentType
}

// RetriesExhausted reports whether a FAILED session has no attempts left.
func (s Session) RetriesExhausted() bool {
	return s.Status == StatusFailed && s.RetryCount >= s.MaxRetries
}

// CheckOutcome is one named backend check. Score is optional; some checks
// are boolean-only.
type CheckOutcome struct {
	Passed bool
	Score  *float64
}

// Checks is the fixed set of per-document and per-face checks the backend
// reports with every result.
type Checks struct {
	DocumentAuthentic CheckOutcome
	DocumentUnexpired CheckOutcome
	NoTampering       CheckOutcome
	FaceMatch         CheckOutcome
	NameMatch         CheckOutcome
}

// Result is the terminal outcome of one submit call. A new submit after a
// retry produces a new Result that replaces the old one; a Result is never
// mutated once produced.
type Result struct {
	Passed           bool
	Score            float64
	RiskLevel        RiskLevel
	Checks           Checks
	ExtractedData    map[string]string
	Flags            []string
	Warnings         []string
	CanRetry         bool
	RemainingRetries int
}

// User carries optional end-user identity hints passed through the embed URL.
type User struct {
	ID    string
	Email string
	Name  string
}
