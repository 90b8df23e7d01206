// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/fila/internal/adapters/repository"
	service "github.com/okian/fila/internal/app"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyst session and availability.
	Authenticate(ctx context.Context, id int64, secret string) (service.Session, error)
	SetAvailability(ctx context.Context, id int64, online bool) error

	// Read operations expose the roster and per-analyst views.
	Team(ctx context.Context) ([]model.Worker, error)
	Desk(ctx context.Context, id int64) ([]model.Assignment, error)
	QueuePositions(ctx context.Context, id int64) (map[category.ID]int, error)
	WorkerMetrics(ctx context.Context, id int64) (service.Metrics, error)

	// Case completion.
	Complete(ctx context.Context, caseID, outcome string) (model.HistoryEntry, error)

	// Management operations.
	Overview(ctx context.Context) (service.Overview, error)
	CreateAnalyst(ctx context.Context, p repository.Profile) (model.Worker, error)
	UpdateAnalyst(ctx context.Context, id int64, p repository.Patch) (model.Worker, error)
	DeleteAnalyst(ctx context.Context, id int64) error
	Redistribute(ctx context.Context, requestID string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	authHandler      *AuthHandler
	analystsHandler  *AnalystsHandler
	deskHandler      *DeskHandler
	managerHandler   *ManagerHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		authHandler:      NewAuthHandler(deps),
		analystsHandler:  NewAnalystsHandler(deps),
		deskHandler:      NewDeskHandler(deps),
		managerHandler:   NewManagerHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/login", MetricsMiddleware(s.authHandler.HandleLogin, "login"))
	mux.HandleFunc("/api/analyst/queue-status", MetricsMiddleware(s.authHandler.HandleQueueStatus, "queue_status"))

	mux.HandleFunc("/api/categories", MetricsMiddleware(s.analystsHandler.HandleCategories, "categories"))
	mux.HandleFunc("/api/analysts", MetricsMiddleware(s.analystsHandler.HandleList, "analysts"))

	mux.HandleFunc("/api/desk/", MetricsMiddleware(s.deskHandler.HandleDesk, "desk"))
	mux.HandleFunc("/api/queue/", MetricsMiddleware(s.deskHandler.HandleQueue, "queue"))
	mux.HandleFunc("/api/metrics/", MetricsMiddleware(s.deskHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/api/complete", MetricsMiddleware(s.deskHandler.HandleComplete, "complete"))

	mux.HandleFunc("/api/manager/overview", MetricsMiddleware(s.managerHandler.HandleOverview, "overview"))
	mux.HandleFunc("/api/manager/analysts", MetricsMiddleware(s.managerHandler.HandleAnalysts, "manager_analysts"))
	mux.HandleFunc("/api/manager/analysts/", MetricsMiddleware(s.managerHandler.HandleAnalystByID, "manager_analyst"))
	mux.HandleFunc("/api/manager/redistribute", MetricsMiddleware(s.managerHandler.HandleRedistribute, "redistribute"))
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

// writeDomainError translates service-layer errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", Wrap(op, err))
	case errors.Is(err, service.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// pathID parses the numeric id that follows prefix in the request path.
func pathID(r *http.Request, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
