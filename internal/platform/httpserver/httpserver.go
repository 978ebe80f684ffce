// Package httpserver wraps the standard http.Server with the timeouts the
// gateway runs with, keeping main small.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server with sane production timeouts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
