package autherrors

// Feedback is the user-facing guidance block attached to validation failures:
// what happened, how severe it is, and what the user should do about it.
type Feedback struct {
	Message          string   `json:"message"`
	Severity         string   `json:"severity"`
	ActionRequired   bool     `json:"actionRequired"`
	Instructions     []string `json:"instructions"`
	TechnicalDetails string   `json:"technicalDetails,omitempty"`
}

// UserFeedback builds the feedback block for an error code from the fixed
// policy table: session-fatal codes demand a full re-login, backend
// availability codes are retry-friendly with no action required.
// TechnicalDetails is populated only under a non-production policy.
func UserFeedback(policy Policy, code Code, ctx string) *Feedback {
	fb := &Feedback{Message: message(code)}

	switch code {
	case CodeNoSession, CodeNoUser, CodeNoSSID, CodeInvalidSSID,
		CodeExpiredJWT, CodeMalformedJWT, CodeBackendAuthFailed:
		fb.Severity = "critical"
		fb.ActionRequired = true
		fb.Instructions = []string{
			"Sign out of your account.",
			"Clear your browser session for this site.",
			"Sign in again.",
		}
	case CodeInvalidJWTStructure, CodeJWTMissingClaims:
		fb.Severity = "high"
		fb.ActionRequired = true
		fb.Instructions = []string{
			"Sign in again to refresh your session.",
		}
	case CodeBackendUnavailable, CodeBackendServerError,
		CodeNetworkTimeout, CodeNetworkError:
		fb.Severity = "medium"
		fb.ActionRequired = false
		fb.Instructions = []string{
			"Wait a moment and try again.",
			"If the problem persists, check the service status page.",
		}
	case CodeBackendForbidden:
		fb.Severity = "high"
		fb.ActionRequired = false
		fb.Instructions = []string{
			"This account does not have access to the requested resource.",
		}
	case CodeMissingConfig, CodeInvalidConfig:
		fb.Severity = "critical"
		fb.ActionRequired = false
		fb.Instructions = []string{
			"This is a service-side problem. Please try again later.",
		}
	default:
		fb.Severity = "high"
		fb.ActionRequired = false
		fb.Instructions = []string{
			"Try again. If the problem persists, contact support.",
		}
	}

	if policy.Debug {
		fb.TechnicalDetails = "code=" + string(code) + " context=" + ctx
	}
	return fb
}
