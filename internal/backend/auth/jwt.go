// Package auth issues and validates the short-lived partner tokens used by
// the backend's dashboard endpoints.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "veriflow/pkg/domain-errors"
)

// Claims carries the partner identity inside a signed token.
type Claims struct {
	PartnerID string `json:"partner_id"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
}

// NewJWTService builds a service around an HMAC signing key.
func NewJWTService(signingKey string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     "veriflow-backend",
	}
}

// GeneratePartnerToken issues a token for the given partner.
func (s *JWTService) GeneratePartnerToken(partnerID string, expiresIn time.Duration) (string, error) {
	if partnerID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "partner id is required")
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PartnerID: partnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(s.signingKey)
}

// ValidatePartnerToken parses a token and returns the partner id it names.
func (s *JWTService) ValidatePartnerToken(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid partner token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.PartnerID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid partner token")
	}
	return claims.PartnerID, nil
}
