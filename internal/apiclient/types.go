package apiclient

import "veriflow/internal/verify/models"

// Wire DTOs for the verification API. The backend owns this format; the
// client only depends on the fields below.

type createSessionRequest struct {
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
	User     *userPayload      `json:"user,omitempty"`
}

type userPayload struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type sessionResponse struct {
	ID                   string   `json:"id"`
	Status               string   `json:"status"`
	RetryCount           int      `json:"retryCount"`
	MaxRetries           int      `json:"maxRetries"`
	UserID               string   `json:"userId,omitempty"`
	PartnerID            string   `json:"partnerId,omitempty"`
	AllowedDocumentTypes []string `json:"allowedDocumentTypes,omitempty"`
}

func (r sessionResponse) toModel() *models.Session {
	return &models.Session{
		ID:                   r.ID,
		Status:               models.Status(r.Status),
		RetryCount:           r.RetryCount,
		MaxRetries:           r.MaxRetries,
		UserID:               r.UserID,
		PartnerID:            r.PartnerID,
		AllowedDocumentTypes: models.FilterDocumentTypes(r.AllowedDocumentTypes),
	}
}

type uploadDocumentResponse struct {
	Detection *struct {
		DetectedType string `json:"detectedType"`
	} `json:"detection,omitempty"`
	Error string `json:"error,omitempty"`
}

type checkPayload struct {
	Passed bool     `json:"passed"`
	Score  *float64 `json:"score,omitempty"`
}

// resultResponse doubles as the error envelope: a body with a defined
// passed field is a usable result no matter the HTTP status; a body with
// only an error string is not.
type resultResponse struct {
	Passed           *bool                   `json:"passed"`
	Score            float64                 `json:"score"`
	RiskLevel        string                  `json:"riskLevel"`
	Checks           map[string]checkPayload `json:"checks"`
	ExtractedData    map[string]string       `json:"extractedData"`
	Flags            []string                `json:"flags"`
	Warnings         []string                `json:"warnings"`
	CanRetry         bool                    `json:"canRetry"`
	RemainingRetries int                     `json:"remainingRetries"`
	Error            string                  `json:"error,omitempty"`
	Message          string                  `json:"message,omitempty"`
}

func (r resultResponse) toModel() *models.Result {
	toOutcome := func(key string) models.CheckOutcome {
		c, ok := r.Checks[key]
		if !ok {
			return models.CheckOutcome{}
		}
		return models.CheckOutcome{Passed: c.Passed, Score: c.Score}
	}
	return &models.Result{
		Passed:    *r.Passed,
		Score:     r.Score,
		RiskLevel: models.RiskLevel(r.RiskLevel),
		Checks: models.Checks{
			DocumentAuthentic: toOutcome("documentAuthentic"),
			DocumentUnexpired: toOutcome("documentUnexpired"),
			NoTampering:       toOutcome("noTampering"),
			FaceMatch:         toOutcome("faceMatch"),
			NameMatch:         toOutcome("nameMatch"),
		},
		ExtractedData:    r.ExtractedData,
		Flags:            r.Flags,
		Warnings:         r.Warnings,
		CanRetry:         r.CanRetry,
		RemainingRetries: r.RemainingRetries,
	}
}

type decryptResponse struct {
	VerificationID string `json:"verificationId"`
	Error          string `json:"error,omitempty"`
}

type partnerResponse struct {
	CompanyName string `json:"companyName"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
