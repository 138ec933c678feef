// Package handler exposes the verification backend over HTTP. The wire
// format here is the contract the embed client consumes; field names are
// frozen.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veriflow/internal/backend/auth"
	"veriflow/internal/backend/middleware"
	backendModels "veriflow/internal/backend/models"
	"veriflow/internal/backend/partners"
	"veriflow/internal/backend/service"
	"veriflow/internal/verify/models"
	dErrors "veriflow/pkg/domain-errors"
	httperrors "veriflow/pkg/http-errors"
)

// maxUploadBytes bounds an upload request body. Slightly above the 5MiB
// artifact limit to leave room for multipart framing.
const maxUploadBytes = 6 << 20

// maxArtifactBytes is the hard per-file limit enforced on uploads.
const maxArtifactBytes = 5 << 20

// Service is the backend domain surface the handlers drive.
type Service interface {
	CreateSession(ctx context.Context, partnerID string, req service.CreateSessionRequest) (*backendModels.SessionRecord, error)
	GetSession(ctx context.Context, id string) (*backendModels.SessionRecord, error)
	AttachDocument(ctx context.Context, id string, docType models.DocumentType) (*backendModels.SessionRecord, error)
	AttachSelfie(ctx context.Context, id string) (*backendModels.SessionRecord, error)
	Submit(ctx context.Context, id string) (*service.Result, error)
	IssueLink(ctx context.Context, id string) (string, error)
	Decrypt(ctx context.Context, linkToken string) (string, error)
}

// Handler wires the verification routes onto a chi router.
type Handler struct {
	logger   *slog.Logger
	svc      Service
	partners *partners.Registry
	jwt      *auth.JWTService
}

func New(svc Service, reg *partners.Registry, jwt *auth.JWTService, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		svc:      svc,
		partners: reg,
		jwt:      jwt,
	}
}

// Register mounts all backend routes. Session-scoped routes are reachable
// without an API key so link-token flows work; partner management routes
// require one.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.DeviceLog(h.logger))

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.PartnerAuth(h.partners))
			r.Post("/verifications", h.handleCreateSession)
			r.Post("/verifications/{id}/link", h.handleIssueLink)
			r.Post("/partners/token", h.handlePartnerToken)
		})

		r.Get("/verifications/{id}", h.handleGetSession)
		r.Post("/verifications/{id}/document", h.handleUploadDocument)
		r.Post("/verifications/{id}/selfie", h.handleUploadSelfie)
		r.Post("/verifications/{id}/submit", h.handleSubmit)
		r.Get("/tokens/decrypt", h.handleDecrypt)
		r.Get("/partners/{id}/public", h.handlePartnerPublic)
	})
}

type createSessionRequest struct {
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
	User     *struct {
		ID    string `json:"id,omitempty"`
		Email string `json:"email,omitempty"`
		Name  string `json:"name,omitempty"`
	} `json:"user,omitempty"`
	AllowedDocumentTypes []string `json:"allowedDocumentTypes,omitempty"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partner := middleware.PartnerFrom(ctx)
	if partner == nil {
		httperrors.Write(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	svcReq := service.CreateSessionRequest{
		Metadata:             req.Metadata,
		AllowedDocumentTypes: req.AllowedDocumentTypes,
	}
	if req.User != nil {
		svcReq.UserID = req.User.ID
		svcReq.UserEmail = req.User.Email
		svcReq.UserName = req.User.Name
	}

	rec, err := h.svc.CreateSession(ctx, partner.ID, svcReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "create session failed", "error", err.Error())
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(rec))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(rec))
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	docTypeRaw, err := h.readUpload(w, r, "documentType")
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	docType, ok := models.ParseDocumentType(docTypeRaw)
	if !ok {
		httperrors.Write(w, dErrors.New(dErrors.CodeValidation, "unknown document type: "+docTypeRaw))
		return
	}

	if _, err := h.svc.AttachDocument(ctx, id, docType); err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"detection": map[string]string{"detectedType": string(docType)},
	})
}

func (h *Handler) handleUploadSelfie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.readUpload(w, r, ""); err != nil {
		httperrors.Write(w, err)
		return
	}
	if _, err := h.svc.AttachSelfie(ctx, id); err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.svc.Submit(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultPayload(res))
}

func (h *Handler) handleIssueLink(w http.ResponseWriter, r *http.Request) {
	tok, err := h.svc.IssueLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (h *Handler) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		httperrors.Write(w, dErrors.New(dErrors.CodeInvalidLink, "missing token parameter"))
		return
	}
	id, err := h.svc.Decrypt(r.Context(), tok)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"verificationId": id})
}

func (h *Handler) handlePartnerPublic(w http.ResponseWriter, r *http.Request) {
	partner, err := h.partners.Get(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"companyName": partner.CompanyName,
		"logoUrl":     partner.LogoURL,
	})
}

func (h *Handler) handlePartnerToken(w http.ResponseWriter, r *http.Request) {
	partner := middleware.PartnerFrom(r.Context())
	if partner == nil {
		httperrors.Write(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	tok, err := h.jwt.GeneratePartnerToken(partner.ID, time.Hour)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "partner token generation failed", "error", err.Error())
		httperrors.Write(w, dErrors.New(dErrors.CodeInternal, "could not issue token"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

// readUpload validates the multipart body and returns the named form field.
// The file itself is drained and discarded; the sandbox backend never
// inspects pixels.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", dErrors.New(dErrors.CodeArtifactSize, "upload exceeds the size limit")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "missing file field")
	}
	defer file.Close()

	if header.Size == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "empty upload")
	}
	if header.Size > maxArtifactBytes {
		return "", dErrors.New(dErrors.CodeArtifactSize, "file exceeds the 5MB limit")
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read upload")
	}

	if field == "" {
		return "", nil
	}
	value := r.FormValue(field)
	if value == "" {
		return "", dErrors.New(dErrors.CodeValidation, "missing "+field+" field")
	}
	return value, nil
}

func sessionPayload(rec *backendModels.SessionRecord) map[string]any {
	out := map[string]any{
		"id":         rec.ID,
		"status":     rec.Status,
		"retryCount": rec.RetryCount,
		"maxRetries": rec.MaxRetries,
	}
	if rec.UserID != "" {
		out["userId"] = rec.UserID
	}
	if rec.PartnerID != "" {
		out["partnerId"] = rec.PartnerID
	}
	if len(rec.AllowedDocumentTypes) > 0 {
		out["allowedDocumentTypes"] = rec.AllowedDocumentTypes
	}
	return out
}

func resultPayload(res *service.Result) map[string]any {
	checks := make(map[string]any, len(res.Checks))
	for name, c := range res.Checks {
		checks[name] = map[string]any{"passed": c.Passed, "score": c.Score}
	}
	return map[string]any{
		"passed":           res.Passed,
		"score":            res.Score,
		"riskLevel":        string(res.RiskLevel),
		"checks":           checks,
		"extractedData":    res.ExtractedData,
		"flags":            res.Flags,
		"warnings":         res.Warnings,
		"canRetry":         res.CanRetry,
		"remainingRetries": res.RemainingRetries,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
