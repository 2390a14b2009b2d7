// Package api contains the HTTP server for the print gateway.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/printrelay/printgw/pkg/api/v1"
	authmw "github.com/printrelay/printgw/pkg/auth/middleware"
	"github.com/printrelay/printgw/pkg/logger"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ServerConfig carries the settings the HTTP server needs.
type ServerConfig struct {
	// Address is the host:port to bind to.
	Address string

	// RequiredScope is the scope every API caller must present.
	RequiredScope string

	// CORSOrigins lists the origins allowed to call the API from a
	// browser. "*" allows any origin.
	CORSOrigins []string

	// Debug enables verbose error responses.
	Debug bool
}

// requestLogger logs every request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets the CORS headers for browser callers. Only origins on
// the configured list are echoed back; "*" allows any origin.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(origins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter assembles the gateway's routes and middleware. The health
// endpoint is unauthenticated; everything under /api requires a validated
// token carrying the required scope.
func NewRouter(cfg ServerConfig, validator authmw.TokenValidator, service v1.PrintService) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger,
		middleware.Timeout(middlewareTimeout),
		headersMiddleware,
		corsMiddleware(cfg.CORSOrigins),
	)

	r.Mount("/health", v1.HealthcheckRouter())

	r.Route("/api", func(api chi.Router) {
		api.Use(
			authmw.Authenticator(validator),
			authmw.RequireScope(cfg.RequiredScope),
		)
		api.Mount("/printers", v1.PrintersRouter(service, cfg.Debug))
		api.Mount("/print-jobs", v1.PrintJobsRouter(service, cfg.Debug))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Route not found"})
	})

	return r
}

// Serve starts the server on the configured address and blocks until the
// context is cancelled, then shuts down gracefully. It is assumed that the
// caller sets up appropriate signal handling.
func Serve(ctx context.Context, cfg ServerConfig, validator authmw.TokenValidator, service v1.PrintService) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              cfg.Address,
		Handler:           NewRouter(cfg, validator, service),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}

	logger.Infof("starting HTTP server on %s", cfg.Address)

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("server stopped with error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Infof("HTTP server stopped")
	return nil
}
