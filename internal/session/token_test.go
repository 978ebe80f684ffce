package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	autherrors "tunegate/pkg/auth-errors"
)

const testSigningKey = "unit-test-signing-key-0123456789"

type TokenSuite struct {
	suite.Suite
	parser *TokenParser
}

func (s *TokenSuite) SetupTest() {
	s.parser = NewTokenParser(testSigningKey)
}

func (s *TokenSuite) mint(claims *Claims, key string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	s.Require().NoError(err)
	return token
}

func (s *TokenSuite) TestParseRoundTrip() {
	raw := s.mint(&Claims{
		Email:    "listener@example.com",
		Name:     "Test Listener",
		SSID:     "ssid-1234567890",
		Provider: "google",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSigningKey)

	claims, err := s.parser.Parse(raw)
	s.Require().NoError(err)
	s.Equal("listener@example.com", claims.Email)
	s.Equal("ssid-1234567890", claims.SSID)
	s.Equal("google", claims.Provider)

	sess := claims.Session()
	s.Require().NotNil(sess.User)
	s.Equal("listener@example.com", sess.User.Email)
	s.False(sess.Expires.IsZero())
}

func (s *TokenSuite) TestParseExpiredTokenStillDecodes() {
	// Expiry is the structural validator's job; the parser only checks the
	// signature, so an expired token must still come back as claims.
	raw := s.mint(&Claims{
		Email: "listener@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSigningKey)

	claims, err := s.parser.Parse(raw)
	s.Require().NoError(err)
	s.Equal("listener@example.com", claims.Email)
}

func (s *TokenSuite) TestParseWrongKey() {
	raw := s.mint(&Claims{Email: "listener@example.com"}, "another-key-entirely-0123456789")

	_, err := s.parser.Parse(raw)
	s.Require().Error(err)
	s.True(autherrors.HasCode(err, autherrors.CodeMalformedJWT))
}

func (s *TokenSuite) TestParseGarbage() {
	for _, raw := range []string{"", "   ", "not.a.jwt", "aaaa"} {
		_, err := s.parser.Parse(raw)
		s.Require().Error(err, "raw=%q", raw)
		s.True(autherrors.HasCode(err, autherrors.CodeMalformedJWT))
	}
}

func (s *TokenSuite) TestFromAuthHeader() {
	raw := s.mint(&Claims{Email: "listener@example.com"}, testSigningKey)

	claims, err := s.parser.FromAuthHeader("Bearer " + raw)
	s.Require().NoError(err)
	s.Equal("listener@example.com", claims.Email)

	// Scheme is case-insensitive.
	_, err = s.parser.FromAuthHeader("bearer " + raw)
	s.NoError(err)
}

func (s *TokenSuite) TestFromAuthHeaderMissing() {
	for _, header := range []string{"", "Bearer", "Basic dXNlcjpwYXNz"} {
		_, err := s.parser.FromAuthHeader(header)
		s.Require().Error(err, "header=%q", header)
		s.True(autherrors.HasCode(err, autherrors.CodeNoSession))
	}
}

func (s *TokenSuite) TestNilClaimsSession() {
	var claims *Claims
	s.Nil(claims.Session())
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}
