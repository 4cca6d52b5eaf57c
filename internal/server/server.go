// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selimozcann/LinkGuard/internal/engine"
	"github.com/selimozcann/LinkGuard/internal/logging"
	"github.com/selimozcann/LinkGuard/internal/ratelimit"
	"github.com/selimozcann/LinkGuard/internal/securitylog"
)

const maxBody = 64 << 10

// Server wraps the HTTP API.
type Server struct {
	engine *engine.Engine
	router *mux.Router
	logger *slog.Logger
}

func New(e *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{engine: e, router: mux.NewRouter(), logger: logging.OrDefault(logger)}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/v1/review", s.handleReview).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/gate", s.handleGate).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/feedback", s.handleFeedback).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/pin", s.handlePIN(s.engine.PIN.CheckRateLimit)).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/pin/failure", s.handlePIN(s.engine.PIN.RecordFailedAttempt)).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/pin/success", s.handlePIN(s.engine.PIN.RecordSuccessfulAttempt)).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/pin/unlock", s.handlePIN(s.engine.PIN.ForceUnlock)).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type urlRequest struct {
	URL string `json:"url"`
}

type feedbackRequest struct {
	Domain string `json:"domain"`
	Safe   *bool  `json:"safe"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Review(r.Context(), req.URL))
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.CheckGate(req.URL))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Domain == "" || req.Safe == nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "domain and safe are required"})
		return
	}
	rec, err := s.engine.Feedback(req.Domain, *req.Safe)
	if err != nil && rec.Domain == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "feedback recorded but not persisted"})
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePIN(op func() ratelimit.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := op()
		status := http.StatusOK
		if !res.Allowed {
			status = http.StatusLocked
		}
		s.writeJSON(w, status, res)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f securitylog.Filter
	for _, raw := range q["type"] {
		for _, name := range strings.Split(raw, ",") {
			t, ok := securitylog.ParseEventType(strings.TrimSpace(name))
			if !ok {
				s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown event type " + name})
				return
			}
			f.Types = append(f.Types, t)
		}
	}
	if v := q.Get("min_severity"); v != "" {
		sev, ok := securitylog.ParseSeverity(v)
		if !ok {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown severity " + v})
			return
		}
		f.MinSeverity = sev
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		f.Limit = n
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since must be RFC3339"})
			return
		}
		f.Since = t
	}
	s.writeJSON(w, http.StatusOK, s.engine.Events.GetEvents(f))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "err", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(raw, '\n'))
}
