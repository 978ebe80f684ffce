// Package httptransport is the thin HTTP layer. Handlers resolve the session
// token, delegate to the validation and aggregation services, and translate
// their results into JSON responses; business logic stays in the services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tunegate/internal/backend"
	"tunegate/internal/platform/config"
	"tunegate/internal/platform/health"
	"tunegate/internal/platform/metrics"
	"tunegate/internal/platform/middleware"
	"tunegate/internal/platform/middleware/clientmeta"
	"tunegate/internal/session"
	"tunegate/internal/sessionverify"
	"tunegate/internal/userinit"
)

// Handler is the HTTP layer. The userInit and verify services are nil when
// the backend origin is unconfigured; handlers then answer MISSING_CONFIG.
type Handler struct {
	cfg       config.Server
	logger    *slog.Logger
	validator *session.Validator
	parser    *session.TokenParser
	userInit  *userinit.Service
	verify    *sessionverify.Service
	client    backend.Caller
	validate  *validator.Validate
}

// Deps bundles the services the handler delegates to.
type Deps struct {
	Config    config.Server
	Logger    *slog.Logger
	Validator *session.Validator
	Parser    *session.TokenParser
	UserInit  *userinit.Service
	Verify    *sessionverify.Service
	Client    backend.Caller
}

// NewHandler wires the HTTP layer.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		cfg:       deps.Config,
		logger:    deps.Logger,
		validator: deps.Validator,
		parser:    deps.Parser,
		userInit:  deps.UserInit,
		verify:    deps.Verify,
		client:    deps.Client,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NewRouter wires all public endpoints with the middleware stack. A nil
// health handler gets a fresh one with no readiness checks.
func NewRouter(h *Handler, logger *slog.Logger, m *metrics.Metrics, hc *health.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(clientmeta.Middleware)

	if hc == nil {
		hc = health.New("gateway")
	}
	hc.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/user/init", h.instrumented(m, "user_init", h.handleUserInit))
		r.Get("/auth/session-verify", h.instrumented(m, "session_verify", h.handleSessionVerify))
		r.Post("/user/newbie-confirm", h.instrumented(m, "newbie_confirm", h.handleNewbieConfirm))
		r.Post("/auth/register", h.instrumented(m, "register", h.handleRegister))
	})

	return r
}

// instrumented wraps a handler with endpoint latency observation.
func (h *Handler) instrumented(m *metrics.Metrics, name string, fn http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return fn
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		fn(w, r)
		m.ObserveEndpointLatency(name, time.Since(start))
	}
}
