// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
)

// AnalystsDependencies defines the interface for roster reads.
type AnalystsDependencies interface {
	Team(ctx context.Context) ([]model.Worker, error)
}

// AnalystsHandler handles roster and category listing requests.
type AnalystsHandler struct {
	deps AnalystsDependencies
}

// NewAnalystsHandler creates a new analysts handler.
func NewAnalystsHandler(deps AnalystsDependencies) *AnalystsHandler {
	return &AnalystsHandler{deps: deps}
}

// HandleList handles GET /api/analysts requests.
func (h *AnalystsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_analysts"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	team, err := h.deps.Team(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, analystViewsOf(team))
}

// HandleCategories handles GET /api/categories requests. The category
// table is static, so the payload is built from the domain directly.
func (h *AnalystsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	infos := category.All()
	views := make([]categoryView, len(infos))
	for i, info := range infos {
		views[i] = categoryView{
			ID:         info.ID,
			Label:      info.Label,
			Text:       info.Text,
			Background: info.Background,
		}
	}
	writeJSON(w, http.StatusOK, views)
}
