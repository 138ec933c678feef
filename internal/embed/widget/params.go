package widget

import (
	"net/url"
	"strings"

	"veriflow/internal/verify/models"
)

// Params is what the inbound URL (or iframe src query string) encodes.
type Params struct {
	Token                string
	APIKey               string
	Embed                bool
	Theme                string
	Locale               string
	ShowBranding         bool
	User                 *models.User
	AllowedDocumentTypes []models.DocumentType
}

// ParseParams decodes the embed query string. Unknown document types are
// silently dropped; an empty intersection leaves the selector unrestricted.
func ParseParams(q url.Values) Params {
	p := Params{
		Token:        q.Get("token"),
		APIKey:       q.Get("apiKey"),
		Embed:        q.Get("embed") == "true",
		Theme:        q.Get("theme"),
		Locale:       q.Get("locale"),
		ShowBranding: q.Get("showBranding") != "false",
	}

	if q.Get("userId") != "" || q.Get("userEmail") != "" || q.Get("userName") != "" {
		p.User = &models.User{
			ID:    q.Get("userId"),
			Email: q.Get("userEmail"),
			Name:  q.Get("userName"),
		}
	}

	if raw := q.Get("documentTypes"); raw != "" {
		p.AllowedDocumentTypes = models.FilterDocumentTypes(strings.Split(raw, ","))
	}

	return p
}
