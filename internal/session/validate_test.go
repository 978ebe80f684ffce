package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	autherrors "tunegate/pkg/auth-errors"
)

type ValidateSuite struct {
	suite.Suite
	now time.Time
}

func (s *ValidateSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ValidateSuite) goodClaims() *Claims {
	return &Claims{
		Email:    "listener@example.com",
		Name:     "Test Listener",
		SSID:     "ssid-1234567890",
		Provider: "credentials",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Hour)),
		},
	}
}

func (s *ValidateSuite) goodSession() *Session {
	return &Session{
		User: &User{
			Name:     "Test Listener",
			Email:    "listener@example.com",
			SSID:     "ssid-1234567890",
			Provider: "credentials",
		},
		Expires: s.now.Add(time.Hour),
	}
}

func (s *ValidateSuite) TestTokenValid() {
	res := ValidateToken(s.goodClaims(), s.now)

	s.True(res.Valid)
	s.Empty(res.Errors)
	s.Empty(res.Warnings)
	s.ElementsMatch([]string{"email", "name", "ssid", "provider", "iat", "exp"}, res.Details.Present)
	s.NotEmpty(res.Details.ExpiresAt)
}

func (s *ValidateSuite) TestTokenNil() {
	res := ValidateToken(nil, s.now)

	s.False(res.Valid)
	s.Require().Len(res.Errors, 1)
	s.Equal(autherrors.CodeMalformedJWT, res.Errors[0].Code)
	s.Equal(SeverityCritical, res.Errors[0].Severity)
}

func (s *ValidateSuite) TestTokenMissingEmail() {
	claims := s.goodClaims()
	claims.Email = ""

	res := ValidateToken(claims, s.now)

	s.False(res.Valid)
	s.Require().Len(res.Errors, 1)
	s.Equal(autherrors.CodeJWTMissingClaims, res.Errors[0].Code)
	s.Contains(res.Details.MissingRequired, "email")
}

func (s *ValidateSuite) TestTokenMissingSSIDWarnsOnly() {
	claims := s.goodClaims()
	claims.SSID = ""

	res := ValidateToken(claims, s.now)

	// Structurally valid without ssid, but flagged for backend callers.
	s.True(res.Valid)
	s.Require().Len(res.Warnings, 1)
	s.Equal(autherrors.CodeNoSSID, res.Warnings[0].Code)
	s.Equal(SeverityHigh, res.Warnings[0].Severity)
	s.Contains(res.Details.MissingOptional, "ssid")
}

func (s *ValidateSuite) TestTokenExpired() {
	claims := s.goodClaims()
	claims.ExpiresAt = jwt.NewNumericDate(s.now.Add(-time.Minute))

	res := ValidateToken(claims, s.now)

	s.False(res.Valid)
	s.Require().Len(res.Errors, 1)
	s.Equal(autherrors.CodeExpiredJWT, res.Errors[0].Code)
}

func (s *ValidateSuite) TestTokenWhitespaceSSIDIsError() {
	claims := s.goodClaims()
	claims.SSID = "   "

	res := ValidateToken(claims, s.now)

	s.False(res.Valid)
	s.Require().Len(res.Errors, 1)
	s.Equal(autherrors.CodeInvalidSSID, res.Errors[0].Code)
}

func (s *ValidateSuite) TestTokenShortSSIDWarns() {
	claims := s.goodClaims()
	claims.SSID = "abc"

	res := ValidateToken(claims, s.now)

	s.True(res.Valid)
	s.Require().Len(res.Warnings, 1)
	s.Equal(autherrors.CodeInvalidSSID, res.Warnings[0].Code)
	s.Contains(res.Warnings[0].Message, "too short")
}

func (s *ValidateSuite) TestTokenBadEmailWarnsLow() {
	claims := s.goodClaims()
	claims.Email = "not-an-email"

	res := ValidateToken(claims, s.now)

	s.True(res.Valid)
	s.Require().Len(res.Warnings, 1)
	s.Equal(SeverityLow, res.Warnings[0].Severity)
}

func (s *ValidateSuite) TestTokenAccumulatesIndependentIssues() {
	claims := s.goodClaims()
	claims.ExpiresAt = jwt.NewNumericDate(s.now.Add(-time.Minute))
	claims.SSID = "abc"
	claims.Email = "nope"

	res := ValidateToken(claims, s.now)

	s.False(res.Valid)
	s.Len(res.Errors, 1)
	s.Len(res.Warnings, 2)
}

func (s *ValidateSuite) TestSessionValid() {
	res := ValidateSession(s.goodSession(), DefaultPolicy(), s.now)

	s.True(res.Valid)
	s.Empty(res.Errors)
	s.Empty(res.Warnings)
}

func (s *ValidateSuite) TestSessionNil() {
	res := ValidateSession(nil, DefaultPolicy(), s.now)

	s.False(res.Valid)
	s.Require().Len(res.Errors, 1)
	s.Equal(autherrors.CodeNoSession, res.Errors[0].Code)
}

func (s *ValidateSuite) TestSessionNoUser() {
	res := ValidateSession(&Session{}, DefaultPolicy(), s.now)

	s.False(res.Valid)
	s.Require().Len(res.Errors, 1)
	s.Equal(autherrors.CodeNoUser, res.Errors[0].Code)
}

func (s *ValidateSuite) TestSessionMissingSSIDByPolicy() {
	sess := s.goodSession()
	sess.User.SSID = ""

	strict := ValidateSession(sess, Policy{RequireSSID: true}, s.now)
	s.False(strict.Valid)
	s.Equal(autherrors.CodeNoSSID, strict.Errors[0].Code)

	lax := ValidateSession(sess, Policy{RequireSSID: false}, s.now)
	s.True(lax.Valid)
	s.Require().Len(lax.Warnings, 1)
	s.Equal(autherrors.CodeNoSSID, lax.Warnings[0].Code)
}

func (s *ValidateSuite) TestSessionExpired() {
	sess := s.goodSession()
	sess.Expires = s.now.Add(-time.Second)

	res := ValidateSession(sess, DefaultPolicy(), s.now)

	s.False(res.Valid)
	s.Equal(autherrors.CodeExpiredJWT, res.Errors[0].Code)
}

func (s *ValidateSuite) TestSessionExpiresSoonWarns() {
	sess := s.goodSession()
	sess.Expires = s.now.Add(2 * time.Minute)

	res := ValidateSession(sess, DefaultPolicy(), s.now)

	s.True(res.Valid)
	s.Require().Len(res.Warnings, 1)
	s.Equal(SeverityMedium, res.Warnings[0].Severity)
	s.Contains(res.Warnings[0].Message, "expires soon")
}

func (s *ValidateSuite) TestSessionZeroExpiryNeverFlagged() {
	sess := s.goodSession()
	sess.Expires = time.Time{}

	res := ValidateSession(sess, DefaultPolicy(), s.now)

	s.True(res.Valid)
	s.Empty(res.Warnings)
	s.Empty(res.Details.ExpiresAt)
}

func (s *ValidateSuite) TestSessionOverlongSSIDWarns() {
	sess := s.goodSession()
	sess.User.SSID = strings.Repeat("x", MaxSSIDLength+1)

	res := ValidateSession(sess, DefaultPolicy(), s.now)

	s.True(res.Valid)
	s.Require().Len(res.Warnings, 1)
	s.Contains(res.Warnings[0].Message, "unusually long")
}

func (s *ValidateSuite) TestMostSevereError() {
	res := newResult()
	res.addError(autherrors.CodeJWTMissingClaims, SeverityHigh, "high first")
	res.addError(autherrors.CodeExpiredJWT, SeverityCritical, "critical later")
	res.addError(autherrors.CodeInvalidSSID, SeverityCritical, "critical last")

	worst, ok := res.MostSevereError()
	s.Require().True(ok)
	// Critical beats high; earlier wins the tie.
	s.Equal(autherrors.CodeExpiredJWT, worst.Code)
}

func (s *ValidateSuite) TestIsSessionValid() {
	s.True(IsSessionValid(s.goodSession()))
	s.False(IsSessionValid(nil))
	s.False(IsSessionValid(&Session{}))

	sess := s.goodSession()
	sess.User.Email = ""
	s.False(IsSessionValid(sess))

	sess = s.goodSession()
	sess.User.SSID = "   "
	s.False(IsSessionValid(sess))
}

func TestValidateSuite(t *testing.T) {
	suite.Run(t, new(ValidateSuite))
}
