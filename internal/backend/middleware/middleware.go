// Package middleware holds the HTTP middleware for the verification backend:
// partner API-key authentication and per-request device logging.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"veriflow/internal/backend/partners"
	dErrors "veriflow/pkg/domain-errors"
	httperrors "veriflow/pkg/http-errors"
)

type contextKey string

const partnerKey contextKey = "partner"

// PartnerFrom returns the authenticated partner stored on the request
// context, or nil when the route is unauthenticated.
func PartnerFrom(ctx context.Context) *partners.Partner {
	p, _ := ctx.Value(partnerKey).(*partners.Partner)
	return p
}

// PartnerAuth rejects requests without a valid X-API-Key and attaches the
// matching partner to the request context.
func PartnerAuth(reg *partners.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				httperrors.Write(w, dErrors.New(dErrors.CodeUnauthorized, "missing API key"))
				return
			}
			partner, err := reg.Authenticate(key)
			if err != nil {
				httperrors.Write(w, dErrors.New(dErrors.CodeUnauthorized, "invalid API key"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), partnerKey, partner)))
		})
	}
}

// DeviceLog logs a coarse device summary for each request. The raw
// user-agent string never leaves the process.
func DeviceLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			browser, os, platform := describeDevice(r.UserAgent())
			logger.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("browser", browser),
				slog.String("os", os),
				slog.String("platform", platform))
			next.ServeHTTP(w, r)
		})
	}
}

func describeDevice(userAgentString string) (browser, os, platform string) {
	if userAgentString == "" {
		return "unknown", "unknown", "unknown"
	}

	ua := useragent.New(userAgentString)
	browser, _ = ua.Browser()
	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os = strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}
	platform = "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}
	return browser, os, platform
}
