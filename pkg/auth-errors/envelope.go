package autherrors

import (
	"time"

	"github.com/google/uuid"
)

// Policy carries the response-shaping switches that used to be ambient
// environment state. It is passed explicitly so tests can exercise both the
// production and development shapes deterministically.
type Policy struct {
	// Debug enables the debug block and technical details in responses.
	// Never set in production.
	Debug bool
}

// Envelope is the standardized JSON error body returned by every failed
// request. Field names are wire-stable: client tooling matches on them.
type Envelope struct {
	Success   bool           `json:"success"`
	Error     string         `json:"error"`
	ErrorCode Code           `json:"errorCode"`
	ErrorType string         `json:"errorType"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"requestId"`
	Context   string         `json:"context"`
	Logout    bool           `json:"logout,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Debug     map[string]any `json:"debug,omitempty"`
}

// NewErrorResponse builds a fully-stamped error envelope for the given code.
// The context string names the operation that failed (typically the request
// path). Extra details are merged into the Details block. The debug block is
// attached only under a non-production policy and only when debugInfo is
// non-empty. A fresh request ID is generated when the caller does not supply
// one via WithRequestID.
func NewErrorResponse(policy Policy, code Code, ctx string, details, debugInfo map[string]any, opts ...EnvelopeOption) *Envelope {
	env := &Envelope{
		Success:   false,
		Error:     string(code),
		ErrorCode: code,
		ErrorType: errorType(code),
		Message:   message(code),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: uuid.New().String(),
		Context:   ctx,
		Logout:    RequiresLogout(code),
	}
	if len(details) > 0 {
		env.Details = details
	}
	if policy.Debug && len(debugInfo) > 0 {
		env.Debug = debugInfo
	}
	for _, opt := range opts {
		if opt != nil {
			opt(env)
		}
	}
	return env
}

// EnvelopeOption customizes a built envelope.
type EnvelopeOption func(*Envelope)

// WithRequestID reuses a caller-supplied request ID instead of generating one,
// keeping the envelope correlated with the request log line.
func WithRequestID(id string) EnvelopeOption {
	return func(e *Envelope) {
		if id != "" {
			e.RequestID = id
		}
	}
}

// FatalEnvelope builds the distinct envelope for uncaught internal errors so
// monitoring can separate known degradation from unknown bugs. The generated
// errorId is carried in Details.
func FatalEnvelope(ctx string) *Envelope {
	return &Envelope{
		Success:   false,
		Error:     string(CodeFatal),
		ErrorCode: CodeFatal,
		ErrorType: errorType(CodeFatal),
		Message:   message(CodeFatal),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: uuid.New().String(),
		Context:   ctx,
		Details:   map[string]any{"errorId": uuid.New().String()},
	}
}
