// Package service implements the verification backend's domain logic. The
// scoring engine is deterministic so the same inputs always produce the same
// outcome, which keeps partner sandboxes and tests reproducible.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"veriflow/internal/backend/events"
	"veriflow/internal/backend/models"
	"veriflow/internal/backend/partners"
	"veriflow/internal/backend/store"
	"veriflow/internal/backend/token"
	vmodels "veriflow/internal/verify/models"
	dErrors "veriflow/pkg/domain-errors"
)

// PassThreshold is the minimum score that counts as a passed verification.
const PassThreshold = 0.70

// Result is the outcome of a submitted verification session.
type Result struct {
	Passed           bool
	Score            float64
	RiskLevel        vmodels.RiskLevel
	Checks           map[string]CheckOutcome
	ExtractedData    map[string]string
	Flags            []string
	Warnings         []string
	CanRetry         bool
	RemainingRetries int
}

// CheckOutcome is one individual check inside a Result.
type CheckOutcome struct {
	Passed bool
	Score  float64
}

// Check names as they appear on the wire.
const (
	CheckDocumentAuthentic = "documentAuthentic"
	CheckDocumentUnexpired = "documentUnexpired"
	CheckNoTampering       = "noTampering"
	CheckFaceMatch         = "faceMatch"
	CheckNameMatch         = "nameMatch"
)

// CreateSessionRequest carries the fields a partner may set at creation.
type CreateSessionRequest struct {
	UserID               string
	UserEmail            string
	UserName             string
	Metadata             map[string]string
	AllowedDocumentTypes []string
}

// Service orchestrates session lifecycle against the store and publishes
// lifecycle events to the partner feed.
type Service struct {
	store     store.SessionStore
	sealer    *token.Sealer
	partners  *partners.Registry
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.SessionStore, sealer *token.Sealer, reg *partners.Registry, opts ...Option) *Service {
	s := &Service{
		store:     st,
		sealer:    sealer,
		partners:  reg,
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens a fresh pending session for the partner.
func (s *Service) CreateSession(ctx context.Context, partnerID string, req CreateSessionRequest) (*models.SessionRecord, error) {
	maxRetries := models.DefaultMaxRetries
	if partner, err := s.partners.Get(partnerID); err == nil && partner.MaxRetries > 0 {
		maxRetries = partner.MaxRetries
	}

	now := s.now().UTC()
	rec := &models.SessionRecord{
		ID:                   uuid.NewString(),
		PartnerID:            partnerID,
		Status:               models.StatusPending,
		MaxRetries:           maxRetries,
		UserID:               req.UserID,
		UserEmail:            req.UserEmail,
		UserName:             req.UserName,
		Metadata:             req.Metadata,
		AllowedDocumentTypes: req.AllowedDocumentTypes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeSessionCreated, rec, nil)
	s.logger.Info("session created",
		slog.String("session_id", rec.ID),
		slog.String("partner_id", partnerID))
	return rec, nil
}

// GetSession resolves a session by id, following retry links so callers
// always see the live session even when its id has changed.
func (s *Service) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	return s.resolve(ctx, id)
}

// AttachDocument records a captured document on the session. Re-uploading
// replaces the previous document. Uploading to a failed session with retries
// left transparently spawns a fresh linked session.
func (s *Service) AttachDocument(ctx context.Context, id string, docType vmodels.DocumentType) (*models.SessionRecord, error) {
	rec, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Status == models.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeConflict, "session already completed")
	}
	if rec.Status == models.StatusFailed {
		rec, err = s.spawnRetry(ctx, rec)
		if err != nil {
			return nil, err
		}
	}
	if len(rec.AllowedDocumentTypes) > 0 && !contains(rec.AllowedDocumentTypes, string(docType)) {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document type %s not allowed for this session", docType))
	}

	rec.DocumentType = string(docType)
	rec.HasDocument = true
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AttachSelfie records the selfie capture. A document must be attached first.
func (s *Service) AttachSelfie(ctx context.Context, id string) (*models.SessionRecord, error) {
	rec, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeConflict, "session already completed")
	}
	if !rec.HasDocument {
		return nil, dErrors.New(dErrors.CodeValidation, "document must be uploaded before selfie")
	}

	rec.HasSelfie = true
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Submit scores the session and finalizes its status. A failed session that
// has exhausted its retries gets CodeRetryLimit instead of a result.
func (s *Service) Submit(ctx context.Context, id string) (*Result, error) {
	rec, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeConflict, "session already completed")
	}
	if !rec.HasDocument || !rec.HasSelfie {
		return nil, dErrors.New(dErrors.CodeValidation, "document and selfie required before submit")
	}
	if rec.RetryCount >= rec.MaxRetries {
		return nil, dErrors.New(dErrors.CodeRetryLimit, "retry limit reached for this session")
	}

	score := scoreFor(rec)
	passed := score >= PassThreshold

	if passed {
		rec.Status = models.StatusCompleted
	} else {
		rec.Status = models.StatusFailed
		rec.RetryCount++
	}
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}

	res := buildResult(rec, score, passed)
	s.publish(ctx, events.TypeCompleted, rec, res)
	s.logger.Info("session submitted",
		slog.String("session_id", rec.ID),
		slog.Bool("passed", passed),
		slog.Float64("score", score))
	return res, nil
}

// IssueLink seals a session id into a shareable verification link token.
func (s *Service) IssueLink(ctx context.Context, id string) (string, error) {
	rec, err := s.resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return s.sealer.Seal(rec.ID, token.DefaultTTL)
}

// Decrypt opens a link token and returns the live session id behind it.
func (s *Service) Decrypt(ctx context.Context, linkToken string) (string, error) {
	id, err := s.sealer.Open(linkToken)
	if err != nil {
		return "", err
	}
	rec, err := s.resolve(ctx, id)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidLink, "link refers to unknown session")
	}
	return rec.ID, nil
}

// resolve walks the retry chain from id down to the live session.
func (s *Service) resolve(ctx context.Context, id string) (*models.SessionRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for rec.ChildID != "" {
		child, err := s.store.Get(ctx, rec.ChildID)
		if err != nil {
			return nil, err
		}
		rec = child
	}
	return rec, nil
}

// spawnRetry creates a linked child session carrying the parent's identity
// and retry budget. The parent keeps its failed status for audit.
func (s *Service) spawnRetry(ctx context.Context, parent *models.SessionRecord) (*models.SessionRecord, error) {
	if parent.RetryCount >= parent.MaxRetries {
		return nil, dErrors.New(dErrors.CodeRetryLimit, "retry limit reached for this session")
	}

	now := s.now().UTC()
	child := &models.SessionRecord{
		ID:                   uuid.NewString(),
		PartnerID:            parent.PartnerID,
		Status:               models.StatusPending,
		RetryCount:           parent.RetryCount,
		MaxRetries:           parent.MaxRetries,
		UserID:               parent.UserID,
		UserEmail:            parent.UserEmail,
		UserName:             parent.UserName,
		Metadata:             parent.Metadata,
		AllowedDocumentTypes: parent.AllowedDocumentTypes,
		ParentID:             parent.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.Create(ctx, child); err != nil {
		return nil, err
	}

	parent.ChildID = child.ID
	parent.UpdatedAt = now
	if err := s.store.Update(ctx, parent); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeRetried, child, nil)
	s.logger.Info("retry session spawned",
		slog.String("parent_id", parent.ID),
		slog.String("session_id", child.ID))
	return child, nil
}

func (s *Service) publish(ctx context.Context, eventType string, rec *models.SessionRecord, res *Result) {
	ev := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: rec.ID,
		PartnerID: rec.PartnerID,
		Timestamp: s.now().UTC(),
	}
	if res != nil {
		passed := res.Passed
		score := res.Score
		ev.Passed = &passed
		ev.Score = &score
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("event publish dropped",
			slog.String("type", eventType),
			slog.String("session_id", rec.ID),
			slog.String("error", err.Error()))
	}
}

// scoreFor derives a stable score from the session's identity. Emails
// containing "fail" force a failing score so sandbox flows can exercise the
// retry path on demand.
func scoreFor(rec *models.SessionRecord) float64 {
	if strings.Contains(strings.ToLower(rec.UserEmail), "fail") {
		return 0.41
	}
	seed := rec.UserEmail
	if seed == "" {
		seed = rec.ID
	}
	sum := sha256.Sum256([]byte(seed))
	raw := binary.BigEndian.Uint64(sum[:8])
	// Map into [0.5, 1.0) so organic sandbox traffic mostly passes.
	frac := float64(raw) / float64(math.MaxUint64)
	return math.Round((0.5+frac/2)*100) / 100
}

func buildResult(rec *models.SessionRecord, score float64, passed bool) *Result {
	checks := map[string]CheckOutcome{
		CheckDocumentAuthentic: {Passed: true, Score: clampScore(score + 0.05)},
		CheckDocumentUnexpired: {Passed: true, Score: 1},
		CheckNoTampering:       {Passed: true, Score: clampScore(score + 0.1)},
		CheckFaceMatch:         {Passed: passed, Score: score},
		CheckNameMatch:         {Passed: true, Score: clampScore(score + 0.02)},
	}

	extracted := map[string]string{"documentType": rec.DocumentType}
	if rec.UserName != "" {
		extracted["fullName"] = rec.UserName
	}

	res := &Result{
		Passed:           passed,
		Score:            score,
		RiskLevel:        riskFor(score),
		Checks:           checks,
		ExtractedData:    extracted,
		CanRetry:         !passed && rec.RetryCount < rec.MaxRetries,
		RemainingRetries: rec.MaxRetries - rec.RetryCount,
	}
	if !passed {
		res.Flags = append(res.Flags, "face_mismatch")
		res.Warnings = append(res.Warnings, "selfie did not match the document photo")
	}
	return res
}

func riskFor(score float64) vmodels.RiskLevel {
	switch {
	case score >= 0.85:
		return vmodels.RiskLow
	case score >= PassThreshold:
		return vmodels.RiskMedium
	case score >= 0.5:
		return vmodels.RiskHigh
	default:
		return vmodels.RiskCritical
	}
}

func clampScore(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
