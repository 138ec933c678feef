// Package apiclient is the HTTP implementation of the verification API
// contract. The backend owns the wire format; everything here converts it
// to and from the domain types the flow understands.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"veriflow/internal/tracer"
	"veriflow/internal/verify/capture"
	"veriflow/internal/verify/models"
	"veriflow/internal/verify/ports"
	dErrors "veriflow/pkg/domain-errors"
)

// Client talks to the verification backend over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tracer  tracer.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTracer attaches a tracer to all API calls.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// New builds a Client for the given backend base URL and partner API key.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "base URL is required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ ports.API = (*Client)(nil)

// CreateSession opens a new verification session.
func (c *Client) CreateSession(ctx context.Context, req ports.CreateSessionRequest) (*models.Session, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall, tracer.String("api.op", "create_session"))
	var opErr error
	defer func() { span.End(opErr) }()

	payload := createSessionRequest{Type: req.Type, Metadata: req.Metadata}
	if req.User != nil {
		payload.User = &userPayload{ID: req.User.ID, Email: req.User.Email, Name: req.User.Name}
	}

	var out sessionResponse
	if opErr = c.doJSON(ctx, http.MethodPost, "/v1/verifications", payload, &out); opErr != nil {
		return nil, opErr
	}
	return out.toModel(), nil
}

// UploadDocument sends the document capture as a multipart form.
func (c *Client) UploadDocument(ctx context.Context, sessionID string, artifact capture.Artifact) (*ports.DocumentDetection, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall,
		tracer.String("api.op", "upload_document"),
		tracer.String(tracer.AttrSessionID, sessionID),
	)
	var opErr error
	defer func() { span.End(opErr) }()

	fields := map[string]string{
		"documentType": string(artifact.DocumentType),
		"side":         string(artifact.Side),
	}
	body, err := c.doMultipart(ctx, "/v1/verifications/"+sessionID+"/document", artifact, fields)
	if err != nil {
		opErr = err
		return nil, err
	}

	var out uploadDocumentResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Detection == nil {
		return nil, nil
	}
	dt, ok := models.ParseDocumentType(out.Detection.DetectedType)
	if !ok {
		return nil, nil
	}
	return &ports.DocumentDetection{DetectedType: dt}, nil
}

// UploadSelfie sends the selfie capture as a multipart form.
func (c *Client) UploadSelfie(ctx context.Context, sessionID string, artifact capture.Artifact) error {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall,
		tracer.String("api.op", "upload_selfie"),
		tracer.String(tracer.AttrSessionID, sessionID),
	)
	var opErr error
	defer func() { span.End(opErr) }()

	_, opErr = c.doMultipart(ctx, "/v1/verifications/"+sessionID+"/selfie", artifact, nil)
	return opErr
}

// Submit asks the backend to score the session. Any response body that
// parses to a result with a defined passed field is returned as a usable
// Result regardless of the HTTP status code. A 429 with no usable body
// maps to CodeRetryLimit; other unusable responses surface the backend's
// error text for classification.
func (c *Client) Submit(ctx context.Context, sessionID string) (*models.Result, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall,
		tracer.String("api.op", "submit"),
		tracer.String(tracer.AttrSessionID, sessionID),
	)
	var opErr error
	defer func() { span.End(opErr) }()

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/verifications/"+sessionID+"/submit", nil)
	if err != nil {
		opErr = err
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		opErr = dErrors.Wrap(err, dErrors.CodeTransport, "network error calling verification API")
		return nil, opErr
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int64(tracer.AttrHTTPStatus, int64(resp.StatusCode)))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		opErr = dErrors.Wrap(err, dErrors.CodeTransport, "network error reading submit response")
		return nil, opErr
	}

	var out resultResponse
	if err := json.Unmarshal(body, &out); err == nil && out.Passed != nil {
		// The domain result wins over the transport status.
		return out.toModel(), nil
	}

	msg := out.Error
	if msg == "" {
		msg = out.Message
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if msg == "" {
			msg = "verification retry limit reached"
		}
		opErr = dErrors.New(dErrors.CodeRetryLimit, msg)
		return nil, opErr
	}
	if msg == "" {
		msg = fmt.Sprintf("submit failed with status %d", resp.StatusCode)
	}
	opErr = dErrors.New(dErrors.CodeUploadFailed, msg)
	return nil, opErr
}

// GetSession fetches the full session record.
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall,
		tracer.String("api.op", "get_session"),
		tracer.String(tracer.AttrSessionID, id),
	)
	var opErr error
	defer func() { span.End(opErr) }()

	var out sessionResponse
	if opErr = c.doJSON(ctx, http.MethodGet, "/v1/verifications/"+id, nil, &out); opErr != nil {
		return nil, opErr
	}
	return out.toModel(), nil
}

// DecryptToken exchanges an encrypted link token for a session id.
func (c *Client) DecryptToken(ctx context.Context, token string) (string, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall, tracer.String("api.op", "decrypt_token"))
	var opErr error
	defer func() { span.End(opErr) }()

	var out decryptResponse
	if opErr = c.doJSON(ctx, http.MethodGet, "/v1/tokens/decrypt?token="+url.QueryEscape(token), nil, &out); opErr != nil {
		return "", opErr
	}
	if out.VerificationID == "" {
		opErr = dErrors.New(dErrors.CodeInvalidLink, "decrypt returned no verification id")
		return "", opErr
	}
	return out.VerificationID, nil
}

// PartnerInfo returns public branding for a partner.
func (c *Client) PartnerInfo(ctx context.Context, partnerID string) (*ports.PartnerInfo, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanAPICall, tracer.String("api.op", "partner_info"))
	var opErr error
	defer func() { span.End(opErr) }()

	var out partnerResponse
	if opErr = c.doJSON(ctx, http.MethodGet, "/v1/partners/"+partnerID+"/public", nil, &out); opErr != nil {
		return nil, opErr
	}
	return &ports.PartnerInfo{CompanyName: out.CompanyName, LogoURL: out.LogoURL}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

// doJSON performs a JSON round trip. Non-2xx responses surface the
// backend's error text so the flow can classify it.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "network error calling verification API")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "network error reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.asError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decode response")
	}
	return nil
}

// doMultipart uploads one artifact plus form fields, returning the raw
// response body on success.
func (c *Client) doMultipart(ctx context.Context, path string, artifact capture.Artifact, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode form field")
		}
	}
	part, err := writer.CreateFormFile("file", "capture")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode form file")
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode form file")
	}
	if err := writer.Close(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "finish form")
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "network error calling verification API")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "network error reading response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.asError(resp.StatusCode, raw)
	}
	return raw, nil
}

// asError converts a non-2xx response into a domain error carrying the
// backend's raw message so substring classification keeps working.
func (c *Client) asError(status int, raw []byte) error {
	var e errorResponse
	_ = json.Unmarshal(raw, &e)
	msg := e.Error
	if msg == "" {
		msg = e.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("verification API returned status %d", status)
	}

	code := dErrors.CodeUploadFailed
	switch status {
	case http.StatusNotFound:
		code = dErrors.CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		code = dErrors.CodeUnauthorized
	case http.StatusBadRequest:
		code = dErrors.CodeBadRequest
	case http.StatusTooManyRequests:
		code = dErrors.CodeRetryLimit
	}
	return dErrors.New(code, msg)
}
