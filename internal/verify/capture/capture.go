// Package capture builds the binary artifacts the flow uploads: one
// document image (or PDF) and one selfie. Providers know nothing about
// verification state; they validate input and hand a sized artifact over.
package capture

import (
	"fmt"
	"strings"

	"veriflow/internal/verify/models"
	dErrors "veriflow/pkg/domain-errors"
)

// MaxArtifactSize bounds a single capture upload. Oversized input is
// rejected before any network call.
const MaxArtifactSize = 5 * 1024 * 1024

// Artifact is a single captured or uploaded image/PDF, plus its declared
// document type when it is a document capture.
type Artifact struct {
	Data         []byte
	ContentType  string
	DocumentType models.DocumentType
	Side         models.DocumentSide
}

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// NewDocument validates and wraps a document capture.
func NewDocument(data []byte, contentType string, docType models.DocumentType, side models.DocumentSide) (Artifact, error) {
	if err := validate(data, contentType); err != nil {
		return Artifact{}, err
	}
	if _, ok := models.ParseDocumentType(string(docType)); !ok {
		return Artifact{}, dErrors.New(dErrors.CodeInvalidInput, "unknown document type")
	}
	if side == "" {
		side = models.SideFront
	}
	return Artifact{Data: data, ContentType: contentType, DocumentType: docType, Side: side}, nil
}

// NewSelfie validates and wraps a selfie capture. PDFs are not a selfie.
func NewSelfie(data []byte, contentType string) (Artifact, error) {
	if contentType == "application/pdf" {
		return Artifact{}, dErrors.New(dErrors.CodeInvalidInput, "selfie must be an image")
	}
	if err := validate(data, contentType); err != nil {
		return Artifact{}, err
	}
	return Artifact{Data: data, ContentType: contentType}, nil
}

func validate(data []byte, contentType string) error {
	if len(data) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "empty capture")
	}
	if !allowedContentTypes[strings.ToLower(contentType)] {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported file type %q", contentType))
	}
	if len(data) > MaxArtifactSize {
		return dErrors.New(dErrors.CodeArtifactSize, OversizeMessage(len(data)))
	}
	return nil
}

// OversizeMessage formats the user-facing rejection for a too-large file.
// The size is reported in MB with two decimals, e.g. "6.10MB".
func OversizeMessage(size int) string {
	return fmt.Sprintf("File is too large (%.2fMB). Maximum size is 5MB.", float64(size)/(1024*1024))
}
