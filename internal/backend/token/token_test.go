package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "veriflow/pkg/domain-errors"
)

type SealerSuite struct {
	suite.Suite
	sealer *Sealer
}

func TestSealerSuite(t *testing.T) {
	suite.Run(t, new(SealerSuite))
}

func (s *SealerSuite) SetupTest() {
	sealer, err := NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	s.Require().NoError(err)
	s.sealer = sealer
}

func (s *SealerSuite) TestNewSealer() {
	_, err := NewSealer([]byte("short"))
	s.Require().Error(err)
}

func (s *SealerSuite) TestRoundTrip() {
	tok, err := s.sealer.Seal("sess-1", time.Hour)
	s.Require().NoError(err)
	s.NotEmpty(tok)

	id, err := s.sealer.Open(tok)
	s.Require().NoError(err)
	s.Equal("sess-1", id)
}

func (s *SealerSuite) TestSealRequiresSessionID() {
	_, err := s.sealer.Seal("", time.Hour)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *SealerSuite) TestOpenRejections() {
	s.Run("malformed base64", func() {
		_, err := s.sealer.Open("!!not base64!!")
		s.requireInvalidLink(err)
	})

	s.Run("truncated ciphertext", func() {
		_, err := s.sealer.Open("c2hvcnQ")
		s.requireInvalidLink(err)
	})

	s.Run("tampered token", func() {
		tok, err := s.sealer.Seal("sess-1", time.Hour)
		s.Require().NoError(err)
		tampered := tok[:len(tok)-2] + "xx"
		_, err = s.sealer.Open(tampered)
		s.requireInvalidLink(err)
	})

	s.Run("wrong key", func() {
		other, err := NewSealer([]byte("ffffffffffffffffffffffffffffffff"))
		s.Require().NoError(err)
		tok, err := other.Seal("sess-1", time.Hour)
		s.Require().NoError(err)

		_, err = s.sealer.Open(tok)
		s.requireInvalidLink(err)
	})

	s.Run("expired token", func() {
		tok, err := s.sealer.Seal("sess-1", time.Nanosecond)
		s.Require().NoError(err)
		time.Sleep(1100 * time.Millisecond) // expiry has second resolution
		_, err = s.sealer.Open(tok)
		s.requireInvalidLink(err)
	})
}

func (s *SealerSuite) requireInvalidLink(err error) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidLink))
}

// TestTokensAreUnique verifies the random nonce keeps equal payloads from
// producing equal tokens.
func (s *SealerSuite) TestTokensAreUnique() {
	a, err := s.sealer.Seal("sess-1", time.Hour)
	s.Require().NoError(err)
	b, err := s.sealer.Seal("sess-1", time.Hour)
	s.Require().NoError(err)
	s.NotEqual(a, b)
}
