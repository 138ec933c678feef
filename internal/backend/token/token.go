// Package token seals and opens the opaque verification-link tokens the
// backend hands to partners. A token is a chacha20poly1305 box around the
// session id and an expiry; clients treat it as an opaque string.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	dErrors "veriflow/pkg/domain-errors"
)

// DefaultTTL is how long a verification link stays valid.
const DefaultTTL = 24 * time.Hour

// Sealer seals and opens link tokens with a fixed symmetric key.
type Sealer struct {
	key []byte
}

// NewSealer builds a Sealer. The key must be exactly 32 bytes.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("link token key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Sealer{key: key}, nil
}

// Seal produces an opaque URL-safe token for the given session id.
func (s *Sealer) Seal(sessionID string, ttl time.Duration) (string, error) {
	if sessionID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	plaintext := sessionID + "|" + strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open validates a token and returns the session id it references.
// Expired, malformed, or tampered tokens all map to CodeInvalidLink.
func (s *Sealer) Open(tok string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidLink, "malformed verification link token")
	}

	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", dErrors.New(dErrors.CodeInvalidLink, "malformed verification link token")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidLink, "invalid verification link token")
	}

	sessionID, expiryRaw, ok := strings.Cut(string(plaintext), "|")
	if !ok || sessionID == "" {
		return "", dErrors.New(dErrors.CodeInvalidLink, "invalid verification link token")
	}
	expiry, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidLink, "invalid verification link token")
	}
	if time.Now().Unix() > expiry {
		return "", dErrors.New(dErrors.CodeInvalidLink, "verification link has expired")
	}
	return sessionID, nil
}
