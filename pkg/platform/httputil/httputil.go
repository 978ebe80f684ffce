// Package httputil centralizes JSON response writing and error translation
// for the HTTP layer.
package httputil

import (
	"encoding/json"
	"net/http"

	autherrors "tunegate/pkg/auth-errors"
)

// WriteJSON writes a JSON response with the given status. Errors after
// WriteHeader cannot change the status code, so encoding errors are ignored;
// the headers are already sent.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// WriteEnvelope writes an error envelope with the status its code maps to.
func WriteEnvelope(w http.ResponseWriter, env *autherrors.Envelope) {
	WriteJSON(w, autherrors.StatusCode(env.ErrorCode), env)
}

// WriteError translates a taxonomy error into a standardized envelope under
// the given policy. Errors from outside the taxonomy surface as FATAL_ERROR.
func WriteError(w http.ResponseWriter, policy autherrors.Policy, err error, reqCtx string) {
	code := autherrors.CodeOf(err)
	env := autherrors.NewErrorResponse(policy, code, reqCtx, nil, nil)
	WriteJSON(w, autherrors.StatusCode(code), env)
}

// DecodeJSON decodes a JSON request body into the target type. On failure it
// returns false; the caller decides which envelope to answer with.
func DecodeJSON[T any](r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, false
	}
	return &req, true
}
