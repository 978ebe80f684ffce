package autherrors

import "net/http"

// Code represents a stable authentication/aggregation error category
// independent of the transport layer. Codes are wire-visible: clients and
// monitoring match on them, so values never change.
type Code string

const (
	// Session structure problems.
	CodeNoSession   Code = "NO_SESSION"
	CodeNoUser      Code = "NO_USER"
	CodeNoSSID      Code = "NO_SSID"
	CodeInvalidSSID Code = "INVALID_SSID"

	// Token problems.
	CodeMalformedJWT        Code = "MALFORMED_JWT"
	CodeExpiredJWT          Code = "EXPIRED_JWT"
	CodeInvalidJWTStructure Code = "INVALID_JWT_STRUCTURE"
	CodeJWTMissingClaims    Code = "JWT_MISSING_CLAIMS"

	// Configuration problems.
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Backend problems.
	CodeBackendUnavailable Code = "BACKEND_UNAVAILABLE"
	CodeBackendAuthFailed  Code = "BACKEND_AUTH_FAILED"
	CodeBackendForbidden   Code = "BACKEND_FORBIDDEN"
	CodeBackendServerError Code = "BACKEND_SERVER_ERROR"

	// Network problems.
	CodeNetworkTimeout Code = "NETWORK_TIMEOUT"
	CodeNetworkError   Code = "NETWORK_ERROR"

	// Anything uncaught.
	CodeFatal Code = "FATAL_ERROR"
)

// logoutCodes is the fixed "must re-authenticate" set: envelopes built for
// these codes instruct the client to discard its local session state.
var logoutCodes = map[Code]bool{
	CodeNoSession:         true,
	CodeNoUser:            true,
	CodeNoSSID:            true,
	CodeInvalidSSID:       true,
	CodeExpiredJWT:        true,
	CodeMalformedJWT:      true,
	CodeBackendAuthFailed: true,
}

// RequiresLogout reports whether the code belongs to the fixed
// must-re-authenticate set.
func RequiresLogout(code Code) bool {
	return logoutCodes[code]
}

// StatusCode maps an error code to the HTTP status the transport layer
// should answer with. Unmapped codes fall through to 500.
func StatusCode(code Code) int {
	switch code {
	case CodeNoSession, CodeNoUser, CodeNoSSID, CodeInvalidSSID,
		CodeExpiredJWT, CodeMalformedJWT, CodeInvalidJWTStructure,
		CodeJWTMissingClaims, CodeBackendAuthFailed:
		return http.StatusUnauthorized
	case CodeBackendForbidden:
		return http.StatusForbidden
	case CodeBackendUnavailable, CodeBackendServerError,
		CodeNetworkTimeout, CodeNetworkError:
		return http.StatusServiceUnavailable
	case CodeMissingConfig, CodeInvalidConfig, CodeFatal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorType groups codes into the coarse errorType field of the envelope.
func errorType(code Code) string {
	switch code {
	case CodeNoSession, CodeNoUser, CodeNoSSID, CodeInvalidSSID:
		return "session"
	case CodeMalformedJWT, CodeExpiredJWT, CodeInvalidJWTStructure, CodeJWTMissingClaims:
		return "token"
	case CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeBackendUnavailable, CodeBackendAuthFailed, CodeBackendForbidden, CodeBackendServerError:
		return "backend"
	case CodeNetworkTimeout, CodeNetworkError:
		return "network"
	default:
		return "fatal"
	}
}

// message returns the plain-language description for a code.
func message(code Code) string {
	switch code {
	case CodeNoSession:
		return "No active session was found. Please sign in."
	case CodeNoUser:
		return "The session does not contain user information. Please sign in again."
	case CodeNoSSID:
		return "The session is missing its backend credential. Please sign in again."
	case CodeInvalidSSID:
		return "The session credential is invalid. Please sign in again."
	case CodeMalformedJWT:
		return "The session token could not be read. Please sign in again."
	case CodeExpiredJWT:
		return "The session has expired. Please sign in again."
	case CodeInvalidJWTStructure:
		return "The session token has an unexpected structure."
	case CodeJWTMissingClaims:
		return "The session token is missing required information."
	case CodeMissingConfig:
		return "The service is misconfigured. Please try again later."
	case CodeInvalidConfig:
		return "The service configuration is invalid. Please try again later."
	case CodeBackendUnavailable:
		return "The account service is temporarily unavailable. Please try again."
	case CodeBackendAuthFailed:
		return "The account service rejected the session. Please sign in again."
	case CodeBackendForbidden:
		return "Access to this resource is forbidden."
	case CodeBackendServerError:
		return "The account service encountered an error. Please try again."
	case CodeNetworkTimeout:
		return "The request to the account service timed out. Please try again."
	case CodeNetworkError:
		return "A network error occurred while contacting the account service."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
