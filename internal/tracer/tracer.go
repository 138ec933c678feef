// Package tracer provides a lightweight tracing abstraction for the
// verification flow and API client.
//
// The interface keeps OpenTelemetry out of domain code: the flow and the
// API client start spans through it, and the binding to a real exporter
// happens once at wiring time.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans for distributed tracing.
// Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Span names used by the verification flow.
const (
	SpanFlowInit       = "flow.init"
	SpanUploadDocument = "flow.upload_document"
	SpanUploadSelfie   = "flow.upload_selfie"
	SpanSubmit         = "flow.submit"
	SpanAPICall        = "api.call"
)

// Attribute keys used by the verification flow.
const (
	AttrSessionID    = "session_id"
	AttrStep         = "step"
	AttrDocumentType = "document_type"
	AttrHTTPStatus   = "http.status_code"
	AttrPassed       = "result.passed"
	AttrScore        = "result.score"
)
