package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Pulsar1722/homeIoTServer/internal/api"
	domain "github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	"github.com/Pulsar1722/homeIoTServer/internal/version"
)

const (
	// readHeaderTimeout bounds how long a client may take to send headers.
	readHeaderTimeout = 10 * time.Second
	// idleTimeout closes idle keep-alive connections.
	idleTimeout = 60 * time.Second
)

// Dispatcher abstracts the automation operations the transport layer depends on.
type Dispatcher interface {
	OnArrive(ctx context.Context, name string)
	OnDepart(ctx context.Context, name string)
	OnLeftWorkplace(ctx context.Context, name string)
	HomeStatus(ctx context.Context) *domain.Snapshot
}

// Server serves the trigger routes.
type Server struct {
	// ctx carries the process logger into requests.
	ctx context.Context //nolint:containedctx // Logger carrier only, never cancelled by requests.
	// dispatcher handles the triggers.
	dispatcher Dispatcher
	// token is the shared trigger token, empty to disable auth.
	token string
	// server is the underlying HTTP server.
	server *http.Server
}

// NewServer wires the dispatcher into an HTTP handler.
func NewServer(ctx context.Context, dispatcher Dispatcher, token string) *Server {
	s := &Server{
		ctx:        logger.WithName(ctx, "http"),
		dispatcher: dispatcher,
		token:      token,
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s
}

// Handler builds the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/arrivedHome/{name}", s.trigger(s.dispatcher.OnArrive))
		r.Get("/leftHome/{name}", s.trigger(s.dispatcher.OnDepart))
		r.Get("/leftWorkplace/{name}", s.trigger(s.dispatcher.OnLeftWorkplace))
		r.Get("/homeStatus", s.handleHomeStatus)
	})

	return r
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	logger.InfoKV(s.ctx, "HTTP server listening", "listen_address", ln.Addr().String())

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info(s.ctx, "Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shut down HTTP server: %w", err)
	}

	return nil
}

// trigger adapts a dispatcher method to a route handler.
// The dispatcher runs detached from the request so a dropped client
// cannot abort a scene sequence halfway.
func (s *Server) trigger(run func(ctx context.Context, name string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "member name is required")

			return
		}

		ctx := context.WithoutCancel(r.Context())

		run(ctx, name)

		writeJSON(w, http.StatusOK, api.NewStatusView(s.dispatcher.HomeStatus(ctx)))
	}
}

// handleHomeStatus returns the household status.
func (s *Server) handleHomeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.NewStatusView(s.dispatcher.HomeStatus(r.Context())))
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Short(),
	})
}
