// Package clientmeta resolves a coarse client description from the
// User-Agent header so validation audit entries can name the device class
// without logging the raw header.
package clientmeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Meta is the parsed client summary attached to the request context.
type Meta struct {
	Browser        string
	BrowserVersion string
	OS             string
	Platform       string
}

// Summary renders the metadata as a single log-friendly token, e.g.
// "chrome/126 macos desktop".
func (m Meta) Summary() string {
	return fmt.Sprintf("%s/%s %s %s", m.Browser, m.BrowserVersion, m.OS, m.Platform)
}

type metaKey struct{}

// FromContext retrieves the client metadata resolved by Middleware.
func FromContext(ctx context.Context) (Meta, bool) {
	m, ok := ctx.Value(metaKey{}).(Meta)
	return m, ok
}

// WithMeta attaches client metadata to a context. Exposed for tests.
func WithMeta(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// Middleware parses the User-Agent header into a Meta and stores it on the
// request context. Requests without a User-Agent pass through untouched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithMeta(r.Context(), Parse(raw))))
	})
}

// Parse summarizes a User-Agent string. Only the browser family, major
// version, OS, and device class are kept; the raw string is discarded.
func Parse(raw string) Meta {
	ua := useragent.New(raw)
	browser, version := ua.Browser()

	major := "unknown"
	if version != "" {
		if parts := strings.Split(version, "."); len(parts) > 0 && parts[0] != "" {
			major = parts[0]
		}
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	} else if ua.Bot() {
		platform = "bot"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}

	return Meta{
		Browser:        browser,
		BrowserVersion: major,
		OS:             os,
		Platform:       platform,
	}
}
