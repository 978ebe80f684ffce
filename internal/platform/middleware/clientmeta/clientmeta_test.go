package clientmeta

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

func TestParseDesktopBrowser(t *testing.T) {
	m := Parse(chromeUA)

	assert.Equal(t, "chrome", m.Browser)
	assert.Equal(t, "126", m.BrowserVersion)
	assert.Equal(t, "desktop", m.Platform)
	assert.NotEqual(t, "unknown", m.OS)
}

func TestParseMobile(t *testing.T) {
	m := Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")

	assert.Equal(t, "mobile", m.Platform)
}

func TestParseBot(t *testing.T) {
	m := Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	assert.Equal(t, "bot", m.Platform)
}

func TestParseGarbage(t *testing.T) {
	m := Parse("???")

	assert.Equal(t, "unknown", m.Browser)
	assert.Equal(t, "unknown", m.BrowserVersion)
	assert.NotPanics(t, func() { _ = m.Summary() })
}

func TestMiddlewareAttachesMeta(t *testing.T) {
	var got Meta
	var found bool
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", chromeUA)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	assert.Equal(t, "chrome", got.Browser)
}

func TestMiddlewareWithoutUserAgent(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found := FromContext(r.Context())
		assert.False(t, found)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Del("User-Agent")
	h.ServeHTTP(httptest.NewRecorder(), req)
}
