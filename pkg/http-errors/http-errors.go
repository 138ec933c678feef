// Package httperrors centralizes domain error translation to HTTP responses.
package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "veriflow/pkg/domain-errors"
)

// Write translates a domain error into the backend's JSON error envelope.
// Unknown errors become opaque 500s so internal detail never leaks.
func Write(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": string(dErrors.CodeInternal),
		})
		return
	}

	body := map[string]string{"error": string(domainErr.Code)}
	if domainErr.Message != "" {
		body["message"] = domainErr.Message
	}
	writeJSON(w, StatusFor(domainErr.Code), body)
}

// StatusFor maps domain error codes to HTTP status codes.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvalidLink, dErrors.CodeMissingLink:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeRetryLimit:
		return http.StatusTooManyRequests
	case dErrors.CodeSessionExpired:
		return http.StatusGone
	case dErrors.CodeArtifactSize:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
