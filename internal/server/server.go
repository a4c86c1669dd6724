// Package server exposes the status and metrics HTTP surface: health,
// readiness, version, session status, and the Prometheus endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/lens/internal/config"
)

// StatusFunc returns a snapshot of pipeline state for the status
// endpoint. It must be safe to call from any goroutine.
type StatusFunc func() interface{}

// Server is the HTTP status server.
type Server struct {
	config     *config.Config
	router     *mux.Router
	httpServer *http.Server
	logger     *logrus.Logger
	status     StatusFunc

	ready func() bool
}

// New creates a server. status may be nil, in which case the status
// endpoint reports an empty object; ready may be nil, in which case the
// server is always ready.
func New(cfg *config.Config, log *logrus.Logger, status StatusFunc) *Server {
	s := &Server{
		config: cfg,
		router: mux.NewRouter(),
		logger: log,
		status: status,
	}
	s.setupRoutes()
	return s
}

// SetReadyCheck installs the readiness probe callback.
func (s *Server) SetReadyCheck(ready func() bool) {
	s.ready = ready
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.ListenAddr, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.logger.WithField("addr", addr).Info("Starting status server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down status server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Status server shutdown complete")
	return nil
}

// setupRoutes configures middleware and routes.
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.metricsMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	s.router.HandleFunc("/ready", s.handleReady).Methods("GET")
	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, promhttp.Handler()).Methods("GET")
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Router returns the router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}
