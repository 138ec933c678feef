package host

import (
	"net/url"
	"strconv"
	"strings"

	"veriflow/internal/verify/models"
)

// BuildFrameURL query-encodes the embed parameters onto the widget base
// URL. These parameter names are part of the embed contract. Document
// types are passed through as given; the widget side intersects them with
// its known enumeration and drops anything unknown.
func BuildFrameURL(base string, cfg Config, user *models.User) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("apiKey", cfg.APIKey)
	q.Set("embed", "true")
	if cfg.Theme != "" {
		q.Set("theme", cfg.Theme)
	}
	if cfg.Locale != "" {
		q.Set("locale", cfg.Locale)
	}
	q.Set("showBranding", strconv.FormatBool(cfg.ShowBranding))
	if user != nil {
		if user.ID != "" {
			q.Set("userId", user.ID)
		}
		if user.Email != "" {
			q.Set("userEmail", user.Email)
		}
		if user.Name != "" {
			q.Set("userName", user.Name)
		}
	}
	if len(cfg.AllowedDocumentTypes) > 0 {
		q.Set("documentTypes", strings.Join(cfg.AllowedDocumentTypes, ","))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}
