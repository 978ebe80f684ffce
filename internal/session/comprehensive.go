package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tunegate/internal/platform/middleware/clientmeta"
	autherrors "tunegate/pkg/auth-errors"
)

// Options controls a comprehensive validation pass.
type Options struct {
	// RequireSSID demands a usable backend credential. Defaults to true.
	RequireSSID bool
	// AllowExpiredSession skips the expiry step. Defaults to false.
	AllowExpiredSession bool
	// RequestID correlates audit entries and the envelope with the inbound
	// request. Generated when empty.
	RequestID string
}

// DefaultOptions matches the hot path: SSID required, expiry enforced.
func DefaultOptions() Options {
	return Options{RequireSSID: true}
}

// CheckResult is the outcome of the ordered validation pipeline. On failure
// it carries everything the transport layer needs: the surfaced code, the
// HTTP status, a complete envelope, and user-facing feedback.
type CheckResult struct {
	Valid         bool
	Session       *Session
	ErrorCode     autherrors.Code
	StatusCode    int
	ErrorResponse *autherrors.Envelope
	Feedback      *autherrors.Feedback
	Report        *Result
	DebugInfo     map[string]any
}

// Observer receives validation outcomes for metrics.
type Observer interface {
	SessionValidationPassed()
	SessionValidationFailed(code string)
}

// Validator runs the multi-step session validation pipeline: existence,
// structure, SSID defense-in-depth, expiry. Cheaper and more fundamental
// checks run first so an absent session never reaches SSID-format checks.
type Validator struct {
	policy   autherrors.Policy
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLogger sets the audit logger.
func WithLogger(l *slog.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = l }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) ValidatorOption {
	return func(v *Validator) { v.observer = o }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator creates a Validator under the given response policy.
func NewValidator(policy autherrors.Policy, opts ...ValidatorOption) *Validator {
	v := &Validator{
		policy: policy,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate runs the pipeline in strict order, stopping at the first failing
// step. Each step emits an audit entry carrying the request ID and any client
// metadata resolved by the transport middleware.
func (v *Validator) Validate(ctx context.Context, sess *Session, reqCtx string, opts Options) *CheckResult {
	if opts.RequestID == "" {
		opts.RequestID = uuid.New().String()
	}
	now := v.now()

	// Step 1: existence.
	if sess == nil {
		v.audit(ctx, reqCtx, opts.RequestID, "existence", false, autherrors.CodeNoSession)
		return v.fail(sess, reqCtx, opts, autherrors.CodeNoSession, nil, map[string]any{
			"step": "existence",
		})
	}
	v.audit(ctx, reqCtx, opts.RequestID, "existence", true, "")

	// Step 2: structural validation.
	report := ValidateSession(sess, Policy{RequireSSID: opts.RequireSSID}, now)
	if opts.AllowExpiredSession {
		demoteExpiryErrors(report)
	}
	if !report.Valid {
		worst, _ := report.MostSevereError()
		v.audit(ctx, reqCtx, opts.RequestID, "structure", false, worst.Code)
		return v.fail(sess, reqCtx, opts, worst.Code, report, map[string]any{
			"step":     "structure",
			"errors":   len(report.Errors),
			"warnings": len(report.Warnings),
		})
	}
	v.audit(ctx, reqCtx, opts.RequestID, "structure", true, "")

	// Step 3: SSID defense in depth. Step 2 already covers this when
	// RequireSSID is set; re-checking keeps the pipeline safe against
	// future report-level policy changes.
	if opts.RequireSSID {
		code, ok := checkSSID(sess)
		if !ok {
			v.audit(ctx, reqCtx, opts.RequestID, "ssid", false, code)
			return v.fail(sess, reqCtx, opts, code, report, map[string]any{
				"step": "ssid",
			})
		}
		v.audit(ctx, reqCtx, opts.RequestID, "ssid", true, "")
	}

	// Step 4: expiry.
	if !opts.AllowExpiredSession && !sess.Expires.IsZero() && sess.Expires.Before(now) {
		v.audit(ctx, reqCtx, opts.RequestID, "expiry", false, autherrors.CodeExpiredJWT)
		return v.fail(sess, reqCtx, opts, autherrors.CodeExpiredJWT, report, map[string]any{
			"step":      "expiry",
			"expiresAt": sess.Expires.UTC().Format(time.RFC3339),
		})
	}
	v.audit(ctx, reqCtx, opts.RequestID, "expiry", true, "")

	if v.observer != nil {
		v.observer.SessionValidationPassed()
	}
	return &CheckResult{
		Valid:   true,
		Session: sess,
		Report:  report,
	}
}

// demoteExpiryErrors turns expiry errors in a structural report into
// warnings so AllowExpiredSession tolerates stale sessions at every step,
// not just the dedicated expiry one.
func demoteExpiryErrors(report *Result) {
	kept := report.Errors[:0]
	for _, iss := range report.Errors {
		if iss.Code == autherrors.CodeExpiredJWT {
			report.Warnings = append(report.Warnings, iss)
			continue
		}
		kept = append(kept, iss)
	}
	report.Errors = kept
	report.Valid = len(report.Errors) == 0
}

func checkSSID(sess *Session) (autherrors.Code, bool) {
	if sess.User == nil || sess.User.SSID == "" {
		return autherrors.CodeNoSSID, false
	}
	if !IsSessionValid(sess) {
		return autherrors.CodeInvalidSSID, false
	}
	return "", true
}

func (v *Validator) fail(sess *Session, reqCtx string, opts Options, code autherrors.Code, report *Result, debug map[string]any) *CheckResult {
	if v.observer != nil {
		v.observer.SessionValidationFailed(string(code))
	}
	res := &CheckResult{
		Valid:      false,
		Session:    sess,
		ErrorCode:  code,
		StatusCode: autherrors.StatusCode(code),
		ErrorResponse: autherrors.NewErrorResponse(v.policy, code, reqCtx, nil, debug,
			autherrors.WithRequestID(opts.RequestID)),
		Feedback: autherrors.UserFeedback(v.policy, code, reqCtx),
		Report:   report,
	}
	if v.policy.Debug {
		res.DebugInfo = debug
	}
	return res
}

// audit emits one step-level log entry, success or failure, with whatever
// client metadata the transport middleware resolved.
func (v *Validator) audit(ctx context.Context, reqCtx, requestID, step string, ok bool, code autherrors.Code) {
	attrs := []any{
		"context", reqCtx,
		"request_id", requestID,
		"step", step,
		"ok", ok,
	}
	if code != "" {
		attrs = append(attrs, "code", string(code))
	}
	if meta, found := clientmeta.FromContext(ctx); found {
		attrs = append(attrs, "client", meta.Summary())
	}
	if ok {
		v.logger.InfoContext(ctx, "session validation step", attrs...)
		return
	}
	v.logger.WarnContext(ctx, "session validation step failed", attrs...)
}

// FallbackAction is the recovery recommendation computed for a failed
// validation, independent of the error envelope, so callers can decide
// between a retry affordance and a forced re-login.
type FallbackAction string

const (
	ActionRedirectToLogin      FallbackAction = "redirect_to_login"
	ActionClearSessionAndLogin FallbackAction = "clear_session_and_login"
	ActionRefreshSession       FallbackAction = "refresh_session"
	ActionRefreshToken         FallbackAction = "refresh_token"
	ActionGenericRetry         FallbackAction = "generic_retry"
)

// FallbackResult pairs the recommended action with a retry hint.
type FallbackResult struct {
	Action   FallbackAction `json:"action"`
	CanRetry bool           `json:"canRetry"`
}

// recommendFallback maps a primary error code to a recovery recommendation.
func recommendFallback(code autherrors.Code) FallbackResult {
	switch code {
	case autherrors.CodeNoSession:
		return FallbackResult{Action: ActionRedirectToLogin}
	case autherrors.CodeNoUser, autherrors.CodeInvalidSSID, autherrors.CodeMalformedJWT,
		autherrors.CodeInvalidJWTStructure:
		return FallbackResult{Action: ActionClearSessionAndLogin}
	case autherrors.CodeExpiredJWT:
		return FallbackResult{Action: ActionRefreshSession, CanRetry: true}
	case autherrors.CodeNoSSID, autherrors.CodeJWTMissingClaims:
		return FallbackResult{Action: ActionRefreshToken, CanRetry: true}
	default:
		return FallbackResult{Action: ActionGenericRetry, CanRetry: true}
	}
}

// FallbackCheckResult is a CheckResult augmented with the recovery
// recommendation.
type FallbackCheckResult struct {
	*CheckResult
	FallbackAttempted bool
	Fallback          *FallbackResult
}

// ValidateWithFallback runs the pipeline and, on failure, additionally
// computes the recovery recommendation for the surfaced error code.
func (v *Validator) ValidateWithFallback(ctx context.Context, sess *Session, reqCtx string, opts Options) *FallbackCheckResult {
	res := v.Validate(ctx, sess, reqCtx, opts)
	out := &FallbackCheckResult{CheckResult: res}
	if !res.Valid {
		out.FallbackAttempted = true
		fb := recommendFallback(res.ErrorCode)
		out.Fallback = &fb
	}
	return out
}
