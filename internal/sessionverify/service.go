// Package sessionverify is the lightweight freshness check: one call against
// the critical isLogged endpoint, with transport status and logical success
// coupled 1:1 (unlike the aggregator, which decouples them).
package sessionverify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"tunegate/internal/backend"
	"tunegate/internal/session"
	autherrors "tunegate/pkg/auth-errors"
)

const pathIsLogged = "/auth/isLogged"

// Data is the payload of a successful verification.
type Data struct {
	IsNewbie bool `json:"isNewbie"`
}

// Verification is the success body. Timestamp is always present, matching
// the failure envelope.
type Verification struct {
	Success   bool   `json:"success"`
	Data      *Data  `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Outcome carries either the success body or the failure envelope together
// with the HTTP status the transport should answer with.
type Outcome struct {
	StatusCode int
	OK         *Verification
	Err        *autherrors.Envelope
}

// Service performs the freshness check. Concurrent checks for the same SSID
// are collapsed into a single backend call via singleflight; every waiter
// receives the shared outcome.
type Service struct {
	client backend.Caller
	policy autherrors.Policy
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the verify service. A nil client marks the backend origin as
// unconfigured; Verify then fails with MISSING_CONFIG before attempting any
// call.
func New(client backend.Caller, policy autherrors.Policy, opts ...Option) *Service {
	s := &Service{
		client: client,
		policy: policy,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Verify checks session freshness against the backend. The session is
// expected to be already validated; only the bearer credential is used.
func (s *Service) Verify(ctx context.Context, sess *session.Session, reqCtx string) Outcome {
	if s.client == nil {
		return s.failure(autherrors.CodeMissingConfig, reqCtx)
	}
	if sess == nil || sess.User == nil || sess.User.SSID == "" {
		return s.failure(autherrors.CodeNoSSID, reqCtx)
	}

	shared, _, _ := s.group.Do(sess.User.SSID, func() (any, error) {
		return s.verifyOnce(ctx, sess.User.SSID, reqCtx), nil
	})
	return shared.(Outcome)
}

func (s *Service) verifyOnce(ctx context.Context, ssid, reqCtx string) Outcome {
	res := s.client.Get(ctx, "verify", pathIsLogged, ssid)
	if !res.OK {
		code := CodeForClass(res.Err)
		s.logger.WarnContext(ctx, "session verify failed",
			"class", string(res.Err.Class),
			"status", res.Err.Status,
			"code", string(code),
		)
		return s.failure(code, reqCtx)
	}

	var payload struct {
		IsNewbie bool `json:"isNewbie"`
	}
	if err := res.Decode(&payload); err != nil {
		// A 2xx body that does not decode counts as backend unavailability.
		return s.failure(autherrors.CodeBackendUnavailable, reqCtx)
	}

	return Outcome{
		StatusCode: http.StatusOK,
		OK: &Verification{
			Success:   true,
			Data:      &Data{IsNewbie: payload.IsNewbie},
			Timestamp: s.now().UTC().Format(time.RFC3339),
		},
	}
}

func (s *Service) failure(code autherrors.Code, reqCtx string) Outcome {
	return Outcome{
		StatusCode: autherrors.StatusCode(code),
		Err:        autherrors.NewErrorResponse(s.policy, code, reqCtx, nil, nil),
	}
}

// CodeForClass maps a classified call failure onto the taxonomy following
// the status-family rules: 403 stays forbidden, any 5xx and every transport
// failure surface as backend unavailability.
func CodeForClass(callErr *backend.CallError) autherrors.Code {
	switch callErr.Class {
	case backend.ClassAuthentication:
		return autherrors.CodeBackendAuthFailed
	case backend.ClassAuthorization:
		return autherrors.CodeBackendForbidden
	case backend.ClassServerError:
		return autherrors.CodeBackendServerError
	case backend.ClassTimeout:
		return autherrors.CodeNetworkTimeout
	case backend.ClassNetwork:
		return autherrors.CodeNetworkError
	case backend.ClassParseError:
		return autherrors.CodeBackendUnavailable
	default:
		return autherrors.CodeBackendUnavailable
	}
}
