// The function binary serves the same application behind a request-scoped
// runtime (Cloud Run, Lambda-via-gateway and similar). The app is built
// lazily on the first request so cold starts that never hit the API don't
// pay for the database handshake, and a failed build is retried on the next
// request instead of wedging the instance.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"speakeasy.club/internal/app"
	"speakeasy.club/internal/config"
	"speakeasy.club/internal/obs"
)

var version = "1.2.0"

type lazyHandler struct {
	mu      sync.Mutex
	handler http.Handler
}

func (l *lazyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	h := l.handler
	if h == nil {
		cfg, err := config.Load()
		if err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
			var application *app.App
			application, err = app.Build(ctx, cfg, version)
			cancel()
			if err == nil {
				h = application.API.Handler()
				l.handler = h
			}
		}
		if err != nil {
			l.mu.Unlock()
			obs.Warn("app build failed", map[string]any{"error": err.Error()})
			http.Error(w, "service initializing", http.StatusServiceUnavailable)
			return
		}
	}
	l.mu.Unlock()
	h.ServeHTTP(w, r)
}

func main() {
	obs.Init()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           &lazyHandler{},
		ReadHeaderTimeout: 15 * time.Second,
	}
	log.Printf("Starting speakeasy-function %s on %s", version, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("listen: %v", err)
	}
}
