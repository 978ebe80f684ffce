package autherrors

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
)

// Kind is the coarse classification a caller can act on: whether to retry,
// re-authenticate, or give up.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindFormat      Kind = "format"
	KindPermission  Kind = "permission"
	KindNotFound    Kind = "notfound"
	KindTimeout     Kind = "timeout"
	KindUnsupported Kind = "unsupported"
	KindResource    Kind = "resource"
	KindUnknown     Kind = "unknown"
)

// Info is the outcome of classifying an arbitrary error.
type Info struct {
	Kind        Kind   `json:"type"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
	Recoverable bool   `json:"recoverable"`
	Retryable   bool   `json:"retryable"`
	Context     string `json:"context,omitempty"`
}

// StatusError is a structured transport error carrying the HTTP status of a
// failed backend call. The HTTP client layer produces these so that
// classification can branch on the status instead of message text.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unexpected backend status"
}

// Categorize classifies an arbitrary error into a Kind plus retry/recovery
// hints. Structured errors (status errors, context/net errors, taxonomy
// errors, JSON decode errors) are matched first; the substring heuristics at
// the end exist only as a fallback adapter for opaque errors from third-party
// code. Categorize is a pure function and never panics: a nil error yields
// the unknown/recoverable bucket.
func Categorize(err error, ctx string) Info {
	if err == nil {
		return info(KindUnknown, "unknown error", ctx)
	}

	// Structured matches first.
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Status == 403:
			return infoMsg(KindPermission, err.Error(), ctx)
		case statusErr.Status == 404:
			return infoMsg(KindNotFound, err.Error(), ctx)
		case statusErr.Status == 0 || statusErr.Status >= 400:
			return infoMsg(KindNetwork, err.Error(), ctx)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return infoMsg(KindTimeout, err.Error(), ctx)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return infoMsg(KindTimeout, err.Error(), ctx)
		}
		return infoMsg(KindNetwork, err.Error(), ctx)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return infoMsg(KindFormat, err.Error(), ctx)
	}
	var taxErr *Error
	if errors.As(err, &taxErr) {
		if k, ok := kindForCode(taxErr.Code); ok {
			return infoMsg(k, err.Error(), ctx)
		}
	}

	// Fallback adapter: substring heuristics over the stringified error for
	// opaque failures arriving from third-party libraries.
	return categorizeByMessage(err.Error(), ctx)
}

// kindForCode maps taxonomy codes onto classification kinds where a clean
// mapping exists.
func kindForCode(code Code) (Kind, bool) {
	switch code {
	case CodeNetworkTimeout:
		return KindTimeout, true
	case CodeNetworkError, CodeBackendUnavailable:
		return KindNetwork, true
	case CodeBackendForbidden:
		return KindPermission, true
	case CodeMalformedJWT, CodeInvalidJWTStructure:
		return KindFormat, true
	default:
		return KindUnknown, false
	}
}

func categorizeByMessage(msg, ctx string) Info {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, "network", "fetch", "connection refused", "no such host"):
		return infoMsg(KindNetwork, msg, ctx)
	case containsAny(lower, "format", "decode", "corrupt", "invalid character", "unmarshal"):
		return infoMsg(KindFormat, msg, ctx)
	case containsAny(lower, "permission", "access", "forbidden"):
		return infoMsg(KindPermission, msg, ctx)
	case strings.Contains(lower, "not found"):
		return infoMsg(KindNotFound, msg, ctx)
	case containsAny(lower, "timeout", "timed out", "abort", "deadline"):
		return infoMsg(KindTimeout, msg, ctx)
	case containsAny(lower, "unsupported", "capability", "not implemented"):
		return infoMsg(KindUnsupported, msg, ctx)
	case containsAny(lower, "memory", "resource", "too many"):
		return infoMsg(KindResource, msg, ctx)
	default:
		return infoMsg(KindUnknown, msg, ctx)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func info(kind Kind, msg, ctx string) Info {
	return infoMsg(kind, msg, ctx)
}

func infoMsg(kind Kind, msg, ctx string) Info {
	out := Info{
		Kind:    kind,
		Message: msg,
		Context: ctx,
	}
	switch kind {
	case KindNetwork:
		out.UserMessage = "A network problem interrupted the request. Please check your connection and try again."
		out.Recoverable, out.Retryable = true, true
	case KindFormat:
		out.UserMessage = "The response could not be read. Please contact support if this keeps happening."
		out.Recoverable, out.Retryable = false, false
	case KindPermission:
		out.UserMessage = "You do not have permission to access this resource."
		out.Recoverable, out.Retryable = false, false
	case KindNotFound:
		out.UserMessage = "The requested resource could not be found."
		out.Recoverable, out.Retryable = false, false
	case KindTimeout:
		out.UserMessage = "The request took too long. Please try again."
		out.Recoverable, out.Retryable = true, true
	case KindUnsupported:
		out.UserMessage = "This operation is not supported."
		out.Recoverable, out.Retryable = false, false
	case KindResource:
		out.UserMessage = "The service is under heavy load. Please try again shortly."
		out.Recoverable, out.Retryable = true, true
	default:
		out.UserMessage = "Something went wrong. Please try again."
		out.Recoverable, out.Retryable = true, false
	}
	return out
}
