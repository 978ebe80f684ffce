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

// validationFailureBody is the failure shape for session validation: the
// standard envelope plus the user feedback and recovery recommendation.
type validationFailureBody struct {
	*autherrors.Envelope
	UserFeedback *autherrors.Feedback    `json:"userFeedback,omitempty"`
	Fallback     *session.FallbackResult `json:"fallback,omitempty"`
}

// handleUserInit runs the full pipeline: resolve token, validate session,
// fan out to the backend, answer with the aggregate. The HTTP status stays
// 200 for aggregation results even when the logical success flag is false;
// only validation and configuration failures map onto error statuses.
func (h *Handler) handleUserInit(w http.ResponseWriter, r *http.Request) {
	const reqCtx = "/api/user/init"
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	// Unexpected failures anywhere below become the distinct fatal
	// envelope, so monitoring separates degradation from bugs.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(ctx, "user init panicked",
				"panic", rec,
				"request_id", requestID,
			)
			httputil.WriteJSON(w, http.StatusInternalServerError, autherrors.FatalEnvelope(reqCtx))
		}
	}()

	sess, ok := h.resolveSession(w, r, reqCtx)
	if !ok {
		return
	}

	if h.userInit == nil {
		h.writeMissingConfig(w, reqCtx, requestID)
		return
	}

	check := h.validator.ValidateWithFallback(ctx, sess, reqCtx, session.Options{
		RequireSSID:         h.cfg.RequireSSID,
		AllowExpiredSession: h.cfg.AllowExpiredSession,
		RequestID:           requestID,
	})
	if !check.Valid {
		httputil.WriteJSON(w, check.StatusCode, validationFailureBody{
			Envelope:     check.ErrorResponse,
			UserFeedback: check.Feedback,
			Fallback:     check.Fallback,
		})
		return
	}

	resp := h.userInit.Init(ctx, check.Session)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// newbieConfirmRequest is the POST body confirming the first-visit flow has
// been completed.
type newbieConfirmRequest struct {
	Confirmed bool `json:"confirmed" validate:"required"`
}

// newbieConfirmResponse mirrors the verify response shape.
type newbieConfirmResponse struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
}

// handleNewbieConfirm marks the user as no longer new via the backend verify
// endpoint.
func (h *Handler) handleNewbieConfirm(w http.ResponseWriter, r *http.Request) {
	const reqCtx = "/api/user/newbie-confirm"
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	sess, ok := h.resolveSession(w, r, reqCtx)
	if !ok {
		return
	}
	if h.client == nil {
		h.writeMissingConfig(w, reqCtx, requestID)
		return
	}
	if !session.IsSessionValid(sess) {
		httputil.WriteEnvelope(w, autherrors.NewErrorResponse(
			h.cfg.Policy(), autherrors.CodeNoSSID, reqCtx, nil, nil,
			autherrors.WithRequestID(requestID)))
		return
	}

	req, decoded := httputil.DecodeJSON[newbieConfirmRequest](r)
	if !decoded || h.validate.Struct(req) != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid_request",
			"message": "body must be {\"confirmed\": true}",
		})
		return
	}

	res := h.client.Post(ctx, "newbieConfirm", "/auth/verify", sess.User.SSID, req)
	if !res.OK {
		code := sessionverify.CodeForClass(res.Err)
		httputil.WriteEnvelope(w, autherrors.NewErrorResponse(
			h.cfg.Policy(), code, reqCtx, nil, nil,
			autherrors.WithRequestID(requestID)))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newbieConfirmResponse{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// resolveSession extracts and parses the bearer token, answering with the
// appropriate envelope on failure.
func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request, reqCtx string) (*session.Session, bool) {
	claims, err := h.parser.FromAuthHeader(r.Header.Get("Authorization"))
	if err != nil {
		code := autherrors.CodeOf(err)
		httputil.WriteEnvelope(w, autherrors.NewErrorResponse(
			h.cfg.Policy(), code, reqCtx, nil, nil,
			autherrors.WithRequestID(middleware.GetRequestID(r.Context()))))
		return nil, false
	}
	return claims.Session(), true
}

func (h *Handler) writeMissingConfig(w http.ResponseWriter, reqCtx, requestID string) {
	httputil.WriteEnvelope(w, autherrors.NewErrorResponse(
		h.cfg.Policy(), autherrors.CodeMissingConfig, reqCtx, nil, nil,
		autherrors.WithRequestID(requestID)))
}
