// Package backend is the HTTP client layer for the account/catalog
// microservices: bearer-authorized JSON calls with per-call timeouts, outcome
// classification, and a per-endpoint circuit breaker.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Class is the single classification assigned to every finished backend
// call. Aggregation and metrics both key on it.
type Class string

const (
	ClassSuccess        Class = "success"
	ClassAuthentication Class = "authentication"
	ClassAuthorization  Class = "authorization"
	ClassNotFound       Class = "notfound"
	ClassServerError    Class = "server_error"
	ClassTimeout        Class = "timeout"
	ClassNetwork        Class = "network"
	ClassParseError     Class = "parse_error"
)

// CallError describes one failed backend call in the shape the aggregate
// response exposes per field.
type CallError struct {
	Class   Class  `json:"type"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

// Result is the settled outcome of one backend call, keyed by the endpoint
// that produced it so merge order never matters.
type Result struct {
	Key  string
	OK   bool
	Data json.RawMessage
	Err  *CallError
}

// Decode unmarshals the payload of a successful result into out.
func (r Result) Decode(out any) error {
	if !r.OK {
		return errors.New("cannot decode a failed result")
	}
	return json.Unmarshal(r.Data, out)
}

// classifyStatus maps a non-2xx HTTP status onto its class.
func classifyStatus(status int) Class {
	switch {
	case status == http.StatusUnauthorized:
		return ClassAuthentication
	case status == http.StatusForbidden:
		return ClassAuthorization
	case status == http.StatusNotFound:
		return ClassNotFound
	case status >= 500:
		return ClassServerError
	default:
		return ClassNetwork
	}
}

// classifyTransportError maps a transport-level failure (no HTTP status
// available) onto its class. Structured error types are inspected before any
// message text.
func classifyTransportError(err error) Class {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	// Fallback for opaque transport errors.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") {
		return ClassTimeout
	}
	return ClassNetwork
}
