package capture

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"veriflow/internal/verify/models"
	dErrors "veriflow/pkg/domain-errors"
)

type CaptureSuite struct {
	suite.Suite
}

func TestCaptureSuite(t *testing.T) {
	suite.Run(t, new(CaptureSuite))
}

func (s *CaptureSuite) TestNewDocument() {
	s.Run("accepts a valid jpeg", func() {
		a, err := NewDocument([]byte("data"), "image/jpeg", models.DocPassport, models.SideFront)
		s.Require().NoError(err)
		s.Equal(models.DocPassport, a.DocumentType)
		s.Equal(models.SideFront, a.Side)
	})

	s.Run("defaults the side to front", func() {
		a, err := NewDocument([]byte("data"), "image/png", models.DocNationalID, "")
		s.Require().NoError(err)
		s.Equal(models.SideFront, a.Side)
	})

	s.Run("accepts a pdf document", func() {
		_, err := NewDocument([]byte("data"), "application/pdf", models.DocPassport, models.SideFront)
		s.NoError(err)
	})

	s.Run("rejects an unknown document type", func() {
		_, err := NewDocument([]byte("data"), "image/jpeg", "VISA_UNKNOWN", models.SideFront)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects empty data", func() {
		_, err := NewDocument(nil, "image/jpeg", models.DocPassport, models.SideFront)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects an unsupported content type", func() {
		_, err := NewDocument([]byte("data"), "image/gif", models.DocPassport, models.SideFront)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *CaptureSuite) TestNewSelfie() {
	s.Run("accepts an image", func() {
		_, err := NewSelfie([]byte("data"), "image/webp")
		s.NoError(err)
	})

	s.Run("rejects a pdf", func() {
		_, err := NewSelfie([]byte("data"), "application/pdf")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *CaptureSuite) TestSizeBound() {
	s.Run("accepts exactly the maximum size", func() {
		_, err := NewDocument(bytes.Repeat([]byte("a"), MaxArtifactSize), "image/jpeg", models.DocPassport, models.SideFront)
		s.NoError(err)
	})

	s.Run("rejects oversized input with the formatted message", func() {
		oversized := bytes.Repeat([]byte("a"), 6*1024*1024+104858) // ~6.10MB
		_, err := NewSelfie(oversized, "image/jpeg")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeArtifactSize))
		s.Contains(err.Error(), "6.10MB")
		s.Contains(err.Error(), "Maximum size is 5MB")
	})
}

func (s *CaptureSuite) TestProvider() {
	s.Run("accept then take hands the artifact over once", func() {
		var p Provider
		a, err := NewSelfie([]byte("data"), "image/jpeg")
		s.Require().NoError(err)
		s.Require().NoError(p.Accept(a, nil))
		s.True(p.HasPending())

		got, err := p.Take()
		s.Require().NoError(err)
		s.Equal(a.Data, got.Data)
		s.False(p.HasPending())

		_, err = p.Take()
		s.Error(err)
	})

	s.Run("a rejected capture clears any pending artifact", func() {
		var p Provider
		a, err := NewSelfie([]byte("data"), "image/jpeg")
		s.Require().NoError(err)
		s.Require().NoError(p.Accept(a, nil))

		rejection := dErrors.New(dErrors.CodeArtifactSize, OversizeMessage(6*1024*1024))
		s.Error(p.Accept(Artifact{}, rejection))
		s.False(p.HasPending())
	})

	s.Run("reset drops the pending artifact", func() {
		var p Provider
		a, err := NewSelfie([]byte("data"), "image/jpeg")
		s.Require().NoError(err)
		s.Require().NoError(p.Accept(a, nil))
		p.Reset()
		s.False(p.HasPending())
	})
}
