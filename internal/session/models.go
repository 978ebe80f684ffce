// Package session implements validation of the storefront's NextAuth-style
// sessions and tokens: structural checks, the ordered comprehensive pipeline,
// and the fallback recommendation used by the transport layer.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	autherrors "tunegate/pkg/auth-errors"
)

// User is the principal carried inside a session. Email is the identity
// anchor; SSID is the bearer credential for backend calls.
type User struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	SSID     string `json:"ssid,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Session is the authenticated principal as resolved by the external identity
// layer. Read-only to this service; never persisted here.
type Session struct {
	User    *User     `json:"user"`
	Expires time.Time `json:"expires,omitzero"`
}

// Claims is the JWT-shaped claims bag produced by the identity layer. It is
// the flat counterpart of Session.User plus the registered timestamp claims.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	SSID     string `json:"ssid,omitempty"`
	Provider string `json:"provider,omitempty"`
	SocialID string `json:"socialId,omitempty"`
	jwt.RegisteredClaims
}

// Session flattens the claims into the session shape used by validation and
// aggregation.
func (c *Claims) Session() *Session {
	if c == nil {
		return nil
	}
	sess := &Session{
		User: &User{
			Name:     c.Name,
			Email:    c.Email,
			SSID:     c.SSID,
			Provider: c.Provider,
		},
	}
	if c.ExpiresAt != nil {
		sess.Expires = c.ExpiresAt.Time
	}
	return sess
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Issue is a single validation error or warning.
type Issue struct {
	Code     autherrors.Code `json:"code"`
	Message  string          `json:"message"`
	Severity Severity        `json:"severity"`
}

// Details carries the per-field breakdown of a validation pass.
type Details struct {
	MissingRequired []string `json:"missingRequired,omitempty"`
	MissingOptional []string `json:"missingOptional,omitempty"`
	Present         []string `json:"present,omitempty"`
	ExpiresAt       string   `json:"expiresAt,omitempty"`
}

// Result is the report of one validation pass. It is created fresh per call
// and never mutated after return. Valid is true exactly when Errors is empty.
type Result struct {
	Valid    bool    `json:"isValid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Details  Details `json:"details"`
}

func newResult() *Result {
	return &Result{Valid: true, Errors: []Issue{}, Warnings: []Issue{}}
}

func (r *Result) addError(code autherrors.Code, sev Severity, msg string) {
	r.Errors = append(r.Errors, Issue{Code: code, Message: msg, Severity: sev})
	r.Valid = false
}

func (r *Result) addWarning(code autherrors.Code, sev Severity, msg string) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Message: msg, Severity: sev})
}

// MostSevereError returns the highest-severity error, preferring earlier
// issues on ties so the pipeline surfaces the most fundamental failure.
func (r *Result) MostSevereError() (Issue, bool) {
	if len(r.Errors) == 0 {
		return Issue{}, false
	}
	best := r.Errors[0]
	for _, iss := range r.Errors[1:] {
		if severityRank(iss.Severity) > severityRank(best.Severity) {
			best = iss
		}
	}
	return best, true
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}
