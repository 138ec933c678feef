package partners

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "veriflow/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite

	reg *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.reg = NewRegistry()
}

func (s *RegistrySuite) TestRegister() {
	s.Run("returns partner and plaintext key", func() {
		p, key, err := s.reg.Register("Acme", "https://acme.test/logo.png", 2)
		s.Require().NoError(err)
		s.NotEmpty(p.ID)
		s.Equal("Acme", p.CompanyName)
		s.Equal("https://acme.test/logo.png", p.LogoURL)
		s.Equal(2, p.MaxRetries)
		s.True(strings.HasPrefix(key, "vk_"), "key %q should carry the vk_ prefix", key)
	})

	s.Run("requires a company name", func() {
		_, _, err := s.reg.Register("", "", 0)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("keys are unique per partner", func() {
		_, keyA, err := s.reg.Register("A", "", 0)
		s.Require().NoError(err)
		_, keyB, err := s.reg.Register("B", "", 0)
		s.Require().NoError(err)
		s.NotEqual(keyA, keyB)
	})
}

func (s *RegistrySuite) TestAuthenticate() {
	p, key, err := s.reg.Register("Acme", "", 0)
	s.Require().NoError(err)

	s.Run("valid key resolves to its partner", func() {
		got, err := s.reg.Authenticate(key)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
	})

	s.Run("unknown key is rejected", func() {
		_, err := s.reg.Authenticate("vk_not-a-real-key")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("empty key is rejected", func() {
		_, err := s.reg.Authenticate("")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *RegistrySuite) TestGet() {
	p, _, err := s.reg.Register("Acme", "", 0)
	s.Require().NoError(err)

	got, err := s.reg.Get(p.ID)
	s.Require().NoError(err)
	s.Equal("Acme", got.CompanyName)

	_, err = s.reg.Get("missing")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
