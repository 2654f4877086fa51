// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/dojo/internal/adapters/repository"
	service "github.com/okian/dojo/internal/app"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context, req types.CreateSessionRequest) (string, error)
	DeleteSession(ctx context.Context, id string) error
	SetRoles(ctx context.Context, id string, req types.RoleRequest) error

	// SubmitFrames queues frames for async processing. Returns
	// service.ErrBackpressure when a shard queue is full.
	SubmitFrames(ctx context.Context, id string, frames []model.Frame) (types.FramesResponse, error)
	Reset(ctx context.Context, id string) error
	End(ctx context.Context, id string) (session.Report, error)

	// Read operations expose session output.
	Report(ctx context.Context, id string) (session.Report, error)
	Events(ctx context.Context, id string, since uint64, limit int) ([]repository.Record, error)
	Subscribe(ctx context.Context, id string) (<-chan repository.Record, func(), error)
	SessionStats(ctx context.Context, id string) (session.Stats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	streamHandler  *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...StreamOption) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sessionHandler: NewSessionHandler(deps),
		streamHandler:  NewStreamHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	sh := s.sessionHandler

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleStats, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(sh.HandleDelete, "session"))
	mux.HandleFunc("POST /sessions/{id}/defender", MetricsMiddleware(sh.HandleDefender, "defender"))
	mux.HandleFunc("POST /sessions/{id}/frames", MetricsMiddleware(sh.HandleFrames, "frames"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(sh.HandleReset, "reset"))
	mux.HandleFunc("POST /sessions/{id}/end", MetricsMiddleware(sh.HandleEnd, "end"))
	mux.HandleFunc("GET /sessions/{id}/events", MetricsMiddleware(sh.HandleEvents, "events"))
	mux.HandleFunc("GET /sessions/{id}/report", MetricsMiddleware(sh.HandleReport, "report"))
	mux.HandleFunc("GET /sessions/{id}/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrSessionExists):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrNoReport):
		writeError(w, http.StatusConflict, "no_report", err)
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
