package httptransport

import (
	"net/http"
	"time"

	"tunegate/internal/platform/middleware"
	"tunegate/internal/session"
	"tunegate/internal/sessionverify"
	autherrors "tunegate/pkg/auth-errors"
	"tunegate/pkg/platform/httputil"
)

// handleSessionVerify is the lightweight freshness check. Unlike the
// aggregator it couples the HTTP status to the logical result 1:1, so a
// failed backend check answers with the mapped error status directly.
func (h *Handler) handleSessionVerify(w http.ResponseWriter, r *http.Request) {
	const reqCtx = "/api/auth/session-verify"
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	sess, ok := h.resolveSession(w, r, reqCtx)
	if !ok {
		return
	}

	// Cheap structural gate before spending a backend round trip.
	if !session.IsSessionValid(sess) {
		httputil.WriteEnvelope(w, autherrors.NewErrorResponse(
			h.cfg.Policy(), autherrors.CodeNoSSID, reqCtx, nil, nil,
			autherrors.WithRequestID(requestID)))
		return
	}

	if h.verify == nil {
		h.writeMissingConfig(w, reqCtx, requestID)
		return
	}

	out := h.verify.Verify(ctx, sess, reqCtx)
	if out.Err != nil {
		httputil.WriteJSON(w, out.StatusCode, out.Err)
		return
	}
	httputil.WriteJSON(w, out.StatusCode, out.OK)
}

// registerRequest is the account creation body proxied to the backend.
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Provider string `json:"provider" validate:"omitempty,oneof=credentials google kakao"`
}

// registerResponse relays the backend's registration result.
type registerResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"userId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// handleRegister proxies account creation to the backend. No session is
// required; the caller is by definition not signed in yet.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const reqCtx = "/api/auth/register"
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.client == nil {
		h.writeMissingConfig(w, reqCtx, requestID)
		return
	}

	req, decoded := httputil.DecodeJSON[registerRequest](r)
	if !decoded {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid_request",
			"message": "request body must be valid JSON",
		})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "validation_failed",
			"message": err.Error(),
		})
		return
	}

	res := h.client.Post(ctx, "register", "/auth/register", "", req)
	if !res.OK {
		code := sessionverify.CodeForClass(res.Err)
		httputil.WriteEnvelope(w, autherrors.NewErrorResponse(
			h.cfg.Policy(), code, reqCtx, nil, nil,
			autherrors.WithRequestID(requestID)))
		return
	}

	var payload struct {
		UserID string `json:"userId"`
	}
	// Registration without a readable body is still a success; the user
	// exists either way.
	_ = res.Decode(&payload)

	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Success:   true,
		UserID:    payload.UserID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
