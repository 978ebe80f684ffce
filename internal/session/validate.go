package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	autherrors "tunegate/pkg/auth-errors"
)

// Structural limits for session fields.
const (
	// MinSSIDLength is the shortest backend credential considered healthy.
	// Shorter values still validate but draw a warning.
	MinSSIDLength = 8

	// MaxSSIDLength bounds the credential to a reasonable length.
	MaxSSIDLength = 512

	// ExpiryWarningWindow is how close to expiry a session may get before
	// validation attaches an "expires soon" warning.
	ExpiryWarningWindow = 5 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// requiredClaims must be present for a token to validate. Optional claims are
// tracked as present/missing without affecting validity.
var (
	requiredClaims = []string{"email"}
	optionalClaims = []string{"name", "ssid", "provider", "iat", "exp"}
)

// ValidateToken structurally validates a JWT claims bag against the required
// and optional claim sets, expiry, and SSID shape. A nil claims bag
// short-circuits to a single critical error. The now parameter makes expiry
// checks deterministic for tests.
func ValidateToken(claims *Claims, now time.Time) *Result {
	res := newResult()

	if claims == nil {
		res.addError(autherrors.CodeMalformedJWT, SeverityCritical, "token is missing or not an object")
		return res
	}

	present := map[string]bool{
		"email":    claims.Email != "",
		"name":     claims.Name != "",
		"ssid":     claims.SSID != "",
		"provider": claims.Provider != "",
		"iat":      claims.IssuedAt != nil,
		"exp":      claims.ExpiresAt != nil,
	}

	for _, claim := range requiredClaims {
		if present[claim] {
			res.Details.Present = append(res.Details.Present, claim)
			continue
		}
		res.Details.MissingRequired = append(res.Details.MissingRequired, claim)
		res.addError(autherrors.CodeJWTMissingClaims, SeverityCritical,
			fmt.Sprintf("required claim %q is missing", claim))
	}

	for _, claim := range optionalClaims {
		if present[claim] {
			res.Details.Present = append(res.Details.Present, claim)
			continue
		}
		res.Details.MissingOptional = append(res.Details.MissingOptional, claim)
		if claim == "ssid" {
			// Backend calls need the SSID, but the token is still
			// structurally valid without it.
			res.addWarning(autherrors.CodeNoSSID, SeverityHigh,
				"token has no ssid; backend calls will fail")
		}
	}

	if claims.ExpiresAt != nil {
		res.Details.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
		if claims.ExpiresAt.Before(now) {
			res.addError(autherrors.CodeExpiredJWT, SeverityCritical, "token exp is in the past")
		}
	}

	if claims.SSID != "" {
		validateSSIDShape(res, claims.SSID, true)
	}

	if claims.Email != "" && !emailPattern.MatchString(claims.Email) {
		res.addWarning(autherrors.CodeJWTMissingClaims, SeverityLow,
			"email does not look like local@domain.tld")
	}

	return res
}

// Policy controls session-level validation strictness.
type Policy struct {
	// RequireSSID demands a usable backend credential. When false, SSID
	// problems degrade from errors to warnings.
	RequireSSID bool
}

// DefaultPolicy matches the hot path: backend calls need the SSID.
func DefaultPolicy() Policy {
	return Policy{RequireSSID: true}
}

// ValidateSession structurally validates a session object. Only the top-level
// nil checks short-circuit; beyond those, every independent problem is
// recorded so the report is complete.
func ValidateSession(sess *Session, policy Policy, now time.Time) *Result {
	res := newResult()

	if sess == nil {
		res.addError(autherrors.CodeNoSession, SeverityCritical, "session is missing or not an object")
		return res
	}
	if sess.User == nil {
		res.addError(autherrors.CodeNoUser, SeverityCritical, "session has no user object")
		return res
	}

	if sess.User.Email == "" {
		res.Details.MissingRequired = append(res.Details.MissingRequired, "email")
		res.addError(autherrors.CodeJWTMissingClaims, SeverityHigh, "session user has no email")
	} else if !emailPattern.MatchString(sess.User.Email) {
		res.addWarning(autherrors.CodeJWTMissingClaims, SeverityLow,
			"email does not look like local@domain.tld")
	}

	switch {
	case sess.User.SSID == "":
		if policy.RequireSSID {
			res.addError(autherrors.CodeNoSSID, SeverityCritical, "session user has no ssid")
		} else {
			res.addWarning(autherrors.CodeNoSSID, SeverityHigh, "session user has no ssid")
		}
	default:
		validateSSIDShape(res, sess.User.SSID, policy.RequireSSID)
	}

	if !sess.Expires.IsZero() {
		res.Details.ExpiresAt = sess.Expires.UTC().Format(time.RFC3339)
		switch {
		case sess.Expires.Before(now):
			res.addError(autherrors.CodeExpiredJWT, SeverityCritical, "session expires is in the past")
		case sess.Expires.Sub(now) <= ExpiryWarningWindow:
			res.addWarning(autherrors.CodeExpiredJWT, SeverityMedium,
				fmt.Sprintf("session expires soon (within %s)", ExpiryWarningWindow))
		}
	}

	return res
}

// validateSSIDShape records issues for a present SSID. Whitespace-only values
// are treated as invalid; short and overlong values only warn.
func validateSSIDShape(res *Result, ssid string, required bool) {
	if strings.TrimSpace(ssid) == "" {
		if required {
			res.addError(autherrors.CodeInvalidSSID, SeverityCritical, "ssid is empty or whitespace")
		} else {
			res.addWarning(autherrors.CodeInvalidSSID, SeverityMedium, "ssid is empty or whitespace")
		}
		return
	}
	if len(ssid) < MinSSIDLength {
		res.addWarning(autherrors.CodeInvalidSSID, SeverityMedium,
			fmt.Sprintf("ssid is too short (%d chars, expected at least %d)", len(ssid), MinSSIDLength))
	}
	if len(ssid) > MaxSSIDLength {
		res.addWarning(autherrors.CodeInvalidSSID, SeverityMedium,
			fmt.Sprintf("ssid is unusually long (%d chars)", len(ssid)))
	}
}

// IsSessionValid is the fast boolean-only check for hot paths where the full
// report is unnecessary: object session, object user, non-empty email, and a
// non-blank ssid.
func IsSessionValid(sess *Session) bool {
	return sess != nil &&
		sess.User != nil &&
		sess.User.Email != "" &&
		strings.TrimSpace(sess.User.SSID) != ""
}
