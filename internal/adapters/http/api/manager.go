// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/fila/internal/adapters/repository"
	service "github.com/okian/fila/internal/app"
	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// ManagerDependencies defines the interface for management operations.
type ManagerDependencies interface {
	Overview(ctx context.Context) (service.Overview, error)
	CreateAnalyst(ctx context.Context, p repository.Profile) (model.Worker, error)
	UpdateAnalyst(ctx context.Context, id int64, p repository.Patch) (model.Worker, error)
	DeleteAnalyst(ctx context.Context, id int64) error
	Redistribute(ctx context.Context, requestID string) error
}

// ManagerHandler handles management requests.
type ManagerHandler struct {
	deps ManagerDependencies
}

// NewManagerHandler creates a new manager handler.
func NewManagerHandler(deps ManagerDependencies) *ManagerHandler {
	return &ManagerHandler{deps: deps}
}

// HandleOverview handles GET /api/manager/overview requests.
func (h *ManagerHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	const op = "api.overview"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	o, err := h.deps.Overview(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, overviewViewOf(o))
}

type createAnalystRequest struct {
	Name       string        `json:"name"`
	Password   string        `json:"password"`
	Categories []category.ID `json:"categories"`
}

// HandleAnalysts handles POST /api/manager/analysts requests.
func (h *ManagerHandler) HandleAnalysts(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_analyst"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req createAnalystRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	for _, cat := range req.Categories {
		if !category.Known(cat) {
			writeError(w, http.StatusBadRequest, "unknown_category", NewKind(op, ErrBadRequest))
			return
		}
	}

	created, err := h.deps.CreateAnalyst(r.Context(), repository.Profile{
		Name:      req.Name,
		Secret:    req.Password,
		Permitted: req.Categories,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, analystViewOf(created))
}

type updateAnalystRequest struct {
	Name       *string        `json:"name"`
	Password   *string        `json:"password"`
	Categories *[]category.ID `json:"categories"`
	Active     *bool          `json:"active"`
}

// HandleAnalystByID handles PATCH and DELETE /api/manager/analysts/{id}.
func (h *ManagerHandler) HandleAnalystByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyst_by_id"
	id, ok := pathID(r, "/api/manager/analysts/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req updateAnalystRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if req.Categories != nil {
			for _, cat := range *req.Categories {
				if !category.Known(cat) {
					writeError(w, http.StatusBadRequest, "unknown_category", NewKind(op, ErrBadRequest))
					return
				}
			}
		}
		updated, err := h.deps.UpdateAnalyst(r.Context(), id, repository.Patch{
			Name:      req.Name,
			Secret:    req.Password,
			Permitted: req.Categories,
			Active:    req.Active,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, analystViewOf(updated))

	case http.MethodDelete:
		if err := h.deps.DeleteAnalyst(r.Context(), id); err != nil {
			writeDomainError(w, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

type redistributeRequest struct {
	RequestID string `json:"request_id"`
}

// HandleRedistribute handles POST /api/manager/redistribute requests.
func (h *ManagerHandler) HandleRedistribute(w http.ResponseWriter, r *http.Request) {
	const op = "api.redistribute"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req redistributeRequest
	if r.Body != nil {
		// An empty body means no duplicate guard; that is allowed.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.deps.Redistribute(r.Context(), req.RequestID); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "redistributed"})
}
