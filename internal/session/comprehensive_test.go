package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	autherrors "tunegate/pkg/auth-errors"
)

type countingObserver struct {
	passed int
	failed map[string]int
}

func (o *countingObserver) SessionValidationPassed() { o.passed++ }
func (o *countingObserver) SessionValidationFailed(code string) {
	if o.failed == nil {
		o.failed = map[string]int{}
	}
	o.failed[code]++
}

type ComprehensiveSuite struct {
	suite.Suite
	now      time.Time
	observer *countingObserver
	v        *Validator
}

func (s *ComprehensiveSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.observer = &countingObserver{}
	s.v = NewValidator(autherrors.Policy{},
		WithObserver(s.observer),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ComprehensiveSuite) validSession() *Session {
	return &Session{
		User: &User{
			Email: "listener@example.com",
			SSID:  "ssid-1234567890",
		},
		Expires: s.now.Add(time.Hour),
	}
}

func (s *ComprehensiveSuite) TestValidSessionPasses() {
	res := s.v.Validate(context.Background(), s.validSession(), "/api/user/init", DefaultOptions())

	s.True(res.Valid)
	s.NotNil(res.Session)
	s.Nil(res.ErrorResponse)
	s.Equal(1, s.observer.passed)
}

func (s *ComprehensiveSuite) TestNilSessionFailsAtExistence() {
	res := s.v.Validate(context.Background(), nil, "/api/user/init", DefaultOptions())

	s.False(res.Valid)
	s.Equal(autherrors.CodeNoSession, res.ErrorCode)
	s.Equal(401, res.StatusCode)
	s.Require().NotNil(res.ErrorResponse)
	s.True(res.ErrorResponse.Logout)
	s.Require().NotNil(res.Feedback)
	s.True(res.Feedback.ActionRequired)
	s.Equal(1, s.observer.failed["NO_SESSION"])
}

func (s *ComprehensiveSuite) TestStructureFailureSurfacesMostSevere() {
	sess := s.validSession()
	sess.User = nil

	res := s.v.Validate(context.Background(), sess, "/api/user/init", DefaultOptions())

	s.False(res.Valid)
	s.Equal(autherrors.CodeNoUser, res.ErrorCode)
	s.Require().NotNil(res.Report)
	s.False(res.Report.Valid)
}

func (s *ComprehensiveSuite) TestMissingSSIDUnderDefaultOptions() {
	sess := s.validSession()
	sess.User.SSID = ""

	res := s.v.Validate(context.Background(), sess, "/api/user/init", DefaultOptions())

	s.False(res.Valid)
	s.Equal(autherrors.CodeNoSSID, res.ErrorCode)
}

func (s *ComprehensiveSuite) TestMissingSSIDAllowedWhenNotRequired() {
	sess := s.validSession()
	sess.User.SSID = ""

	res := s.v.Validate(context.Background(), sess, "/api/user/init", Options{RequireSSID: false})

	s.True(res.Valid)
}

func (s *ComprehensiveSuite) TestExpiredSessionFailsAtExpiry() {
	sess := s.validSession()
	sess.Expires = s.now.Add(-time.Minute)

	res := s.v.Validate(context.Background(), sess, "/api/user/init", DefaultOptions())

	s.False(res.Valid)
	s.Equal(autherrors.CodeExpiredJWT, res.ErrorCode)
}

func (s *ComprehensiveSuite) TestAllowExpiredSkipsExpiryStep() {
	sess := s.validSession()
	sess.Expires = s.now.Add(-time.Minute)

	res := s.v.Validate(context.Background(), sess, "/api/user/init", Options{
		RequireSSID:         true,
		AllowExpiredSession: true,
	})

	s.True(res.Valid)
}

func (s *ComprehensiveSuite) TestOrderingExistenceBeforeStructure() {
	// A nil session must report NO_SESSION, never a structure-level code,
	// even though structure checks would also fail.
	res := s.v.Validate(context.Background(), nil, "/x", DefaultOptions())
	s.Equal(autherrors.CodeNoSession, res.ErrorCode)
}

func (s *ComprehensiveSuite) TestRequestIDPropagatesToEnvelope() {
	res := s.v.Validate(context.Background(), nil, "/x", Options{
		RequireSSID: true,
		RequestID:   "req-42",
	})

	s.Require().NotNil(res.ErrorResponse)
	s.Equal("req-42", res.ErrorResponse.RequestID)
}

func (s *ComprehensiveSuite) TestDebugInfoGatedOnPolicy() {
	prod := s.v.Validate(context.Background(), nil, "/x", DefaultOptions())
	s.Nil(prod.DebugInfo)
	s.Nil(prod.ErrorResponse.Debug)

	dbg := NewValidator(autherrors.Policy{Debug: true},
		WithClock(func() time.Time { return s.now }),
	)
	res := dbg.Validate(context.Background(), nil, "/x", DefaultOptions())
	s.NotNil(res.DebugInfo)
	s.Equal("existence", res.DebugInfo["step"])
	s.NotNil(res.ErrorResponse.Debug)
}

func (s *ComprehensiveSuite) TestFallbackRecommendations() {
	cases := map[autherrors.Code]FallbackResult{
		autherrors.CodeNoSession:           {Action: ActionRedirectToLogin},
		autherrors.CodeNoUser:              {Action: ActionClearSessionAndLogin},
		autherrors.CodeInvalidSSID:         {Action: ActionClearSessionAndLogin},
		autherrors.CodeMalformedJWT:        {Action: ActionClearSessionAndLogin},
		autherrors.CodeInvalidJWTStructure: {Action: ActionClearSessionAndLogin},
		autherrors.CodeExpiredJWT:          {Action: ActionRefreshSession, CanRetry: true},
		autherrors.CodeNoSSID:              {Action: ActionRefreshToken, CanRetry: true},
		autherrors.CodeJWTMissingClaims:    {Action: ActionRefreshToken, CanRetry: true},
		autherrors.CodeBackendUnavailable:  {Action: ActionGenericRetry, CanRetry: true},
	}
	for code, want := range cases {
		s.Equal(want, recommendFallback(code), "code=%s", code)
	}
}

func (s *ComprehensiveSuite) TestValidateWithFallbackOnFailure() {
	res := s.v.ValidateWithFallback(context.Background(), nil, "/x", DefaultOptions())

	s.False(res.Valid)
	s.True(res.FallbackAttempted)
	s.Require().NotNil(res.Fallback)
	s.Equal(ActionRedirectToLogin, res.Fallback.Action)
	s.False(res.Fallback.CanRetry)
}

func (s *ComprehensiveSuite) TestValidateWithFallbackOnSuccess() {
	res := s.v.ValidateWithFallback(context.Background(), s.validSession(), "/x", DefaultOptions())

	s.True(res.Valid)
	s.False(res.FallbackAttempted)
	s.Nil(res.Fallback)
}

func TestComprehensiveSuite(t *testing.T) {
	suite.Run(t, new(ComprehensiveSuite))
}
