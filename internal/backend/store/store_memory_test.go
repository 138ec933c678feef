package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veriflow/internal/backend/models"
	dErrors "veriflow/pkg/domain-errors"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemorySessionStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRecord() *models.SessionRecord {
	return &models.SessionRecord{
		ID:         uuid.NewString(),
		PartnerID:  "p1",
		Status:     models.StatusPending,
		MaxRetries: models.DefaultMaxRetries,
	}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	s.Run("round trip", func() {
		rec := s.newRecord()
		s.Require().NoError(s.store.Create(s.ctx, rec))

		got, err := s.store.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec.ID, got.ID)
		s.Equal(models.StatusPending, got.Status)
	})

	s.Run("duplicate id conflicts", func() {
		rec := s.newRecord()
		s.Require().NoError(s.store.Create(s.ctx, rec))
		err := s.store.Create(s.ctx, rec)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Get(s.ctx, uuid.NewString())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MemoryStoreSuite) TestUpdate() {
	s.Run("persists changes", func() {
		rec := s.newRecord()
		s.Require().NoError(s.store.Create(s.ctx, rec))

		rec.Status = models.StatusFailed
		rec.RetryCount = 1
		s.Require().NoError(s.store.Update(s.ctx, rec))

		got, err := s.store.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusFailed, got.Status)
		s.Equal(1, got.RetryCount)
	})

	s.Run("unknown id is not found", func() {
		err := s.store.Update(s.ctx, s.newRecord())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestIsolation verifies callers cannot mutate stored state through
// returned pointers.
func (s *MemoryStoreSuite) TestIsolation() {
	rec := s.newRecord()
	s.Require().NoError(s.store.Create(s.ctx, rec))

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	got.Status = models.StatusExpired

	again, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, again.Status)
}
