// Package config builds the service configuration from the environment so
// main stays lean and every policy switch is an explicit parameter instead of
// ambient global state.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	autherrors "tunegate/pkg/auth-errors"
)

// Server captures the full configuration surface of the gateway.
type Server struct {
	// Addr is the listen address.
	Addr string `validate:"required"`

	// BackendBaseURL is the origin of the account/catalog backend. Its
	// absence is a MISSING_CONFIG condition surfaced per request, so it is
	// deliberately not required here.
	BackendBaseURL string `validate:"omitempty,url"`

	// SigningKey verifies the HS256 session tokens minted by the identity
	// layer.
	SigningKey string `validate:"required,min=16"`

	// Debug enables debug blocks in error responses. Never in production.
	Debug bool

	// CallTimeout bounds each individual backend call.
	CallTimeout time.Duration `validate:"required"`

	// RequireSSID demands a backend credential during session validation.
	RequireSSID bool

	// AllowExpiredSession skips the expiry step during validation. Only
	// meant for local development.
	AllowExpiredSession bool
}

// Policy derives the response-shaping policy from the config.
func (s Server) Policy() autherrors.Policy {
	return autherrors.Policy{Debug: s.Debug}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the assembled configuration. An invalid configuration is an
// INVALID_CONFIG error; the server refuses to start on it.
func (s Server) Validate() error {
	if err := validate.Struct(s); err != nil {
		return autherrors.Wrap(err, autherrors.CodeInvalidConfig, "invalid server configuration")
	}
	return nil
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                envOr("TUNEGATE_ADDR", ":8080"),
		BackendBaseURL:      os.Getenv("TUNEGATE_BACKEND_URL"),
		SigningKey:          envOr("TUNEGATE_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Debug:               os.Getenv("TUNEGATE_DEBUG") == "true",
		CallTimeout:         5 * time.Second,
		RequireSSID:         os.Getenv("TUNEGATE_REQUIRE_SSID") != "false",
		AllowExpiredSession: os.Getenv("TUNEGATE_ALLOW_EXPIRED") == "true",
	}
	if raw := os.Getenv("TUNEGATE_CALL_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.CallTimeout = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
