package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bazuu/investorconnect/internal/accounts"
	"github.com/bazuu/investorconnect/internal/admin"
	"github.com/bazuu/investorconnect/internal/chat"
	"github.com/bazuu/investorconnect/internal/db"
	"github.com/bazuu/investorconnect/internal/jobs"
	"github.com/bazuu/investorconnect/internal/logging"
	"github.com/bazuu/investorconnect/internal/payments"
	"github.com/bazuu/investorconnect/internal/pitches"
	"github.com/bazuu/investorconnect/internal/scheduler"
)

// Services are the domain services behind the HTTP API.
type Services struct {
	Accounts  *accounts.Service
	Pitches   *pitches.Service
	Jobs      *jobs.Service
	Chat      *chat.Service
	Payments  *payments.Service
	Admin     *admin.Service
	Scheduler scheduler.Scheduler
	RunLogs   db.RunLogStore
}

// Server exposes the platform over JSON HTTP and websockets.
type Server struct {
	svc      Services
	logger   *slog.Logger
	upgrader websocket.Upgrader
	now      func() time.Time
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new API server.
func NewServer(svc Services, logger *slog.Logger) *Server {
	return &Server{
		svc:      svc,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now: time.Now,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.routeAccounts(mux)
	s.routePitches(mux)
	s.routeJobs(mux)
	s.routeChat(mux)
	s.routePayments(mux)
	s.routeAdmin(mux)

	return logging.Middleware(s.logger, mux)
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
