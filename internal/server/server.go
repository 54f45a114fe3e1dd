// Package server exposes the execution API over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coldbrew-labs/runlet/internal/config"
	"github.com/coldbrew-labs/runlet/internal/runtime"
	"github.com/coldbrew-labs/runlet/types"
)

// ExecuteRequest is the JSON body of POST /execute.
type ExecuteRequest struct {
	URL string `json:"url"`
}

// Server is the HTTP front of the execution service.
type Server struct {
	cfg    *config.Config
	exec   *runtime.Executor
	router chi.Router
	http   *http.Server
	logger *slog.Logger
}

// New wires the router. The executor carries its own isolation per request,
// so the server itself holds no per-execution state.
func New(cfg *config.Config, exec *runtime.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		exec:   exec,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/execute", s.handleExecute)
}

// Handler returns the root http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving the API until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", s.cfg.Server.Listen)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, http.StatusBadRequest, types.InternalError{Msg: "invalid request body: " + err.Error()})
		return
	}
	if req.URL == "" {
		s.renderError(w, http.StatusBadRequest, types.InternalError{Msg: "missing required field: url"})
		return
	}

	resp, err := s.exec.Execute(r.Context(), req.URL)
	if err != nil {
		var app types.AppError
		if !errors.As(err, &app) {
			app = types.InternalError{Msg: err.Error()}
		}
		s.renderError(w, app.HTTPStatus(), app)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// renderError emits the fixed-shape error envelope so clients never branch
// on anything beyond the HTTP status class.
func (s *Server) renderError(w http.ResponseWriter, status int, err types.AppError) {
	s.logger.Warn("request failed", "status", status, "error", err)
	writeJSON(w, status, types.ErrorResponse(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
