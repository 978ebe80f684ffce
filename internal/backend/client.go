package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultCallTimeout bounds each individual backend call. A timed-out
	// call settles as a timeout outcome without cancelling siblings.
	DefaultCallTimeout = 5 * time.Second

	// maxResponseBody caps how much of a backend response is read.
	maxResponseBody = 1 << 20
)

// Caller is the narrow client surface consumed by the aggregation services.
// Every call settles into a Result; Caller implementations never return Go
// errors, classification happens inside.
type Caller interface {
	Get(ctx context.Context, key, path, bearer string) Result
	Post(ctx context.Context, key, path, bearer string, body any) Result
}

// Observer receives the classified outcome of every backend call.
type Observer interface {
	BackendCall(endpoint string, class Class, duration time.Duration)
}

// Client performs bearer-authorized JSON calls against the backend origin.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	callTimeout time.Duration
	logger      *slog.Logger
	observer    Observer
	tracer      trace.Tracer
	breakers    *breakerSet
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithBreaker tunes the per-endpoint circuit breaker.
func WithBreaker(failureThreshold int, cooldown time.Duration) Option {
	return func(c *Client) {
		c.breakers = newBreakerSet(func() *breaker {
			return newBreaker(failureThreshold, cooldown, nil)
		})
	}
}

// New creates a backend client for the given origin.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		callTimeout: DefaultCallTimeout,
		logger:      slog.Default(),
		tracer:      otel.Tracer("tunegate/backend"),
		breakers: newBreakerSet(func() *breaker {
			return newBreaker(5, 30*time.Second, nil)
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get issues a GET call and classifies its outcome under key.
func (c *Client) Get(ctx context.Context, key, path, bearer string) Result {
	return c.do(ctx, http.MethodGet, key, path, bearer, nil)
}

// Post issues a POST call with a JSON body and classifies its outcome.
func (c *Client) Post(ctx context.Context, key, path, bearer string, body any) Result {
	return c.do(ctx, http.MethodPost, key, path, bearer, body)
}

func (c *Client) do(ctx context.Context, method, key, path, bearer string, body any) (res Result) {
	res = Result{Key: key}
	start := time.Now()

	br := c.breakers.get(key)
	if !br.allow() {
		res.Err = &CallError{
			Class:   ClassServerError,
			Status:  http.StatusServiceUnavailable,
			Message: "circuit open for endpoint",
		}
		c.observe(key, res, start)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "backend."+key, trace.WithAttributes(
		attribute.String("backend.endpoint", key),
		attribute.String("backend.path", path),
		attribute.String("http.method", method),
	))
	defer func() {
		if res.Err != nil {
			span.SetAttributes(
				attribute.String("backend.class", string(res.Err.Class)),
				attribute.Int("http.status_code", res.Err.Status),
			)
			span.SetStatus(codes.Error, res.Err.Message)
		} else {
			span.SetAttributes(attribute.String("backend.class", string(ClassSuccess)))
		}
		span.End()
	}()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			res.Err = &CallError{Class: ClassParseError, Message: "could not encode request body"}
			c.settle(ctx, key, br, res, start)
			return res
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		res.Err = &CallError{Class: ClassNetwork, Message: err.Error()}
		c.settle(ctx, key, br, res, start)
		return res
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Err = &CallError{
			Class:   classifyTransportError(err),
			Message: err.Error(),
		}
		c.settle(ctx, key, br, res, start)
		return res
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		res.Err = &CallError{Class: classifyTransportError(err), Message: err.Error()}
		c.settle(ctx, key, br, res, start)
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = &CallError{
			Class:   classifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("backend answered %d", resp.StatusCode),
		}
		c.settle(ctx, key, br, res, start)
		return res
	}

	if !json.Valid(payload) {
		res.Err = &CallError{
			Class:   ClassParseError,
			Status:  resp.StatusCode,
			Message: "backend response is not valid JSON",
		}
		c.settle(ctx, key, br, res, start)
		return res
	}

	res.OK = true
	res.Data = payload
	c.settle(ctx, key, br, res, start)
	return res
}

// settle records breaker state and metrics for a finished call.
func (c *Client) settle(ctx context.Context, key string, br *breaker, res Result, start time.Time) {
	if res.OK {
		br.recordSuccess()
	} else {
		if opened := br.recordFailure(); opened {
			c.logger.ErrorContext(ctx, "circuit breaker opened",
				"endpoint", key,
				"class", string(res.Err.Class),
			)
		}
		c.logger.WarnContext(ctx, "backend call failed",
			"endpoint", key,
			"class", string(res.Err.Class),
			"status", res.Err.Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	c.observe(key, res, start)
}

func (c *Client) observe(key string, res Result, start time.Time) {
	if c.observer == nil {
		return
	}
	class := ClassSuccess
	if res.Err != nil {
		class = res.Err.Class
	}
	c.observer.BackendCall(key, class, time.Since(start))
}
