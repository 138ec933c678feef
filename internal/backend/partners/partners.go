// Package partners is the backend's registry of API consumers. API keys
// are generated once, returned to the caller, and stored only as bcrypt
// hashes.
package partners

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dErrors "veriflow/pkg/domain-errors"
)

// Partner is one registered API consumer.
type Partner struct {
	ID          string
	CompanyName string
	LogoURL     string
	MaxRetries  int

	keyHash []byte
}

// Registry holds partners in memory. The dev backend seeds it at startup.
type Registry struct {
	mu       sync.RWMutex
	partners map[string]*Partner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{partners: make(map[string]*Partner)}
}

// Register adds a partner and returns it along with its plaintext API key.
// The key is shown exactly once; only the hash is retained.
func (r *Registry) Register(companyName, logoURL string, maxRetries int) (*Partner, string, error) {
	if companyName == "" {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "company name is required")
	}

	apiKey, err := generateKey()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash API key: %w", err)
	}

	p := &Partner{
		ID:          uuid.NewString(),
		CompanyName: companyName,
		LogoURL:     logoURL,
		MaxRetries:  maxRetries,
		keyHash:     hash,
	}

	r.mu.Lock()
	r.partners[p.ID] = p
	r.mu.Unlock()
	return p, apiKey, nil
}

// Authenticate resolves an API key to its partner. The registry is small
// (dev backend), so comparing against every hash is acceptable.
func (r *Registry) Authenticate(apiKey string) (*Partner, error) {
	if apiKey == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing API key")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.partners {
		if bcrypt.CompareHashAndPassword(p.keyHash, []byte(apiKey)) == nil {
			return p, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown API key")
}

// Get returns a partner by id.
func (r *Registry) Get(id string) (*Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.partners[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "partner not found")
	}
	return p, nil
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate API key: %w", err)
	}
	return "vk_" + base64.RawURLEncoding.EncodeToString(buf), nil
}
