package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"linguaflow/internal/cache"
	"linguaflow/internal/config"
	"linguaflow/internal/importer"
	"linguaflow/internal/logging"
	"linguaflow/internal/queue"
	"linguaflow/internal/store"
	"linguaflow/internal/worker"
	"linguaflow/internal/workflow"
)

// Version is reported by the status endpoint.
const Version = "0.1.0"

// Server exposes the sync, bulk-upload, and queue surfaces over HTTP.
type Server struct {
	bind     string
	token    string
	logger   *slog.Logger
	store    *store.Store
	queue    *queue.Store
	importer *importer.Engine
	workflow *workflow.Engine
	enqueuer *worker.Enqueuer
	cache    cache.Cache

	listener net.Listener
	server   *http.Server
}

// New assembles the HTTP server. The cache may be nil to disable pull
// caching.
func New(
	cfg *config.Config,
	st *store.Store,
	qs *queue.Store,
	imp *importer.Engine,
	wf *workflow.Engine,
	enqueuer *worker.Enqueuer,
	c cache.Cache,
	logger *slog.Logger,
) *Server {
	srv := &Server{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		token:    strings.TrimSpace(cfg.Paths.APIToken),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		store:    st,
		queue:    qs,
		importer: imp,
		workflow: wf,
		enqueuer: enqueuer,
		cache:    c,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", srv.auth(srv.handleStatus))
	mux.HandleFunc("GET /sync", srv.auth(srv.handlePull))
	mux.HandleFunc("POST /sync", srv.auth(srv.handlePush))
	mux.HandleFunc("POST /projects/{id}/bulk-upload", srv.auth(srv.handleBulkUpload))
	mux.HandleFunc("POST /queue", srv.auth(srv.handleEnqueue))
	mux.HandleFunc("GET /queue/health", srv.auth(srv.handleQueueHealth))
	mux.HandleFunc("POST /translations/{id}/approve", srv.auth(srv.handleApprove))
	mux.HandleFunc("POST /translations/{id}/reject", srv.auth(srv.handleReject))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving and returns once the listener is bound. The server
// shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listener address, for tests using port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// auth validates bearer tokens. An empty configured token disables
// authentication.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
