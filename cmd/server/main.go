package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"tunegate/internal/backend"
	"tunegate/internal/platform/config"
	"tunegate/internal/platform/health"
	"tunegate/internal/platform/httpserver"
	"tunegate/internal/platform/logger"
	"tunegate/internal/platform/metrics"
	"tunegate/internal/session"
	"tunegate/internal/sessionverify"
	httptransport "tunegate/internal/transport/http"
	"tunegate/internal/userinit"
	autherrors "tunegate/pkg/auth-errors"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing tunegate",
		"addr", cfg.Addr,
		"backend_configured", cfg.BackendBaseURL != "",
		"debug", cfg.Debug,
	)

	m := metrics.New()

	validator := session.NewValidator(cfg.Policy(),
		session.WithLogger(log),
		session.WithObserver(m),
	)
	parser := session.NewTokenParser(cfg.SigningKey)

	// Without a backend origin the gateway still serves session validation;
	// aggregation and verification answer MISSING_CONFIG.
	var (
		client   backend.Caller
		initSvc  *userinit.Service
		verifier *sessionverify.Service
	)
	if cfg.BackendBaseURL != "" {
		bc := backend.New(cfg.BackendBaseURL,
			backend.WithCallTimeout(cfg.CallTimeout),
			backend.WithLogger(log),
			backend.WithObserver(m),
		)
		client = bc
		initSvc = userinit.New(bc,
			userinit.WithLogger(log),
			userinit.WithObserver(m),
		)
		verifier = sessionverify.New(bc, cfg.Policy(),
			sessionverify.WithLogger(log),
		)
	}

	healthHandler := health.New("gateway")
	if cfg.BackendBaseURL != "" {
		probe := backendProbe(cfg.BackendBaseURL, cfg.CallTimeout)
		healthHandler.RegisterCheck("backend", probe)

		// Startup connectivity check. A transiently unreachable backend is
		// not fatal; retryable failures get one delayed re-probe so the log
		// tells whether the condition cleared.
		if err := probe(); err != nil {
			inf := autherrors.Categorize(err, "startup backend probe")
			log.Warn("backend unreachable at startup",
				"kind", string(inf.Kind),
				"retryable", inf.Retryable,
				"error", err,
			)
			autherrors.ScheduleRetry(context.Background(), inf, 10*time.Second, func() {
				if err := probe(); err != nil {
					log.Warn("backend still unreachable", "error", err)
					return
				}
				log.Info("backend reachable")
			})
		}
	}

	handler := httptransport.NewHandler(httptransport.Deps{
		Config:    cfg,
		Logger:    log,
		Validator: validator,
		Parser:    parser,
		UserInit:  initSvc,
		Verify:    verifier,
		Client:    client,
	})
	router := httptransport.NewRouter(handler, log, m, healthHandler)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// backendProbe reports whether the backend origin answers on its health
// endpoint. 4xx still counts as reachable.
func backendProbe(baseURL string, timeout time.Duration) health.CheckFunc {
	client := &http.Client{Timeout: timeout}
	return func() error {
		resp, err := client.Get(baseURL + "/health")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return &autherrors.StatusError{
				Status:  resp.StatusCode,
				Message: "backend health answered " + resp.Status,
			}
		}
		return nil
	}
}
