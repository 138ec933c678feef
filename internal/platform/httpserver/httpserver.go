package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server tuned for the verification backend. Capture
// uploads run to several megabytes over slow mobile links, so the body
// timeouts are far more generous than the header timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
