package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"veriflow/internal/backend/models"
	dErrors "veriflow/pkg/domain-errors"
)

const (
	sessionKeyPrefix = "veriflow:session:"
	sessionTTL       = 24 * time.Hour
)

// RedisSessionStore keeps records as JSON values with a 24h TTL, matching
// the lifetime of a verification link.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedis builds a redis-backed session store.
func NewRedis(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, rec *models.SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode session")
	}
	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+rec.ID, raw, sessionTTL).Result()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store session")
	}
	if !ok {
		return dErrors.New(dErrors.CodeConflict, "session already exists")
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load session")
	}
	var rec models.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode session")
	}
	return &rec, nil
}

func (s *RedisSessionStore) Update(ctx context.Context, rec *models.SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode session")
	}
	// KeepTTL preserves the original link lifetime across updates.
	set, err := s.client.SetXX(ctx, sessionKeyPrefix+rec.ID, raw, redis.KeepTTL).Result()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store session")
	}
	if !set {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	return nil
}

var _ SessionStore = (*RedisSessionStore)(nil)
