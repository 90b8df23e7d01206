// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/okian/fila/internal/app"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// Default outcome recorded when a completion omits one.
const defaultOutcome = "done"

// DeskDependencies defines the interface for per-analyst operations.
type DeskDependencies interface {
	Desk(ctx context.Context, id int64) ([]model.Assignment, error)
	QueuePositions(ctx context.Context, id int64) (map[category.ID]int, error)
	WorkerMetrics(ctx context.Context, id int64) (service.Metrics, error)
	Complete(ctx context.Context, caseID, outcome string) (model.HistoryEntry, error)
}

// DeskHandler handles desk, queue position and completion requests.
type DeskHandler struct {
	deps DeskDependencies
}

// NewDeskHandler creates a new desk handler.
func NewDeskHandler(deps DeskDependencies) *DeskHandler {
	return &DeskHandler{deps: deps}
}

// HandleDesk handles GET /api/desk/{id} requests.
func (h *DeskHandler) HandleDesk(w http.ResponseWriter, r *http.Request) {
	const op = "api.desk"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r, "/api/desk/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	desk, err := h.deps.Desk(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentViewsOf(desk))
}

type queueResponse struct {
	AnalystID int64               `json:"analyst_id"`
	Positions map[category.ID]int `json:"positions"`
}

// HandleQueue handles GET /api/queue/{id} requests. Positions are
// 1-based per category; categories the analyst may not handle are absent.
func (h *DeskHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r, "/api/queue/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	positions, err := h.deps.QueuePositions(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{AnalystID: id, Positions: positions})
}

type metricsResponse struct {
	AnalystID      int64 `json:"analyst_id"`
	CompletedToday int   `json:"completed_today"`
	CompletedYear  int   `json:"completed_year"`
}

// HandleMetrics handles GET /api/metrics/{id} requests.
func (h *DeskHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "api.metrics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r, "/api/metrics/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	m, err := h.deps.WorkerMetrics(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, metricsResponse{
		AnalystID:      id,
		CompletedToday: m.Today,
		CompletedYear:  m.Year,
	})
}

type completeRequest struct {
	CaseID  string `json:"case_id"`
	Outcome string `json:"outcome"`
}

// HandleComplete handles POST /api/complete requests.
func (h *DeskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.complete"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.CaseID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if req.Outcome == "" {
		req.Outcome = defaultOutcome
	}
	if req.Outcome != "done" && req.Outcome != "pending" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	entry, err := h.deps.Complete(r.Context(), req.CaseID, req.Outcome)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, historyViewOf(entry))
}
