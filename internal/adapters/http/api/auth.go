// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/fila/internal/app"
)

// AuthDependencies defines the interface for session operations.
type AuthDependencies interface {
	Authenticate(ctx context.Context, id int64, secret string) (service.Session, error)
	SetAvailability(ctx context.Context, id int64, online bool) error
}

// AuthHandler handles login and availability requests.
type AuthHandler struct {
	deps AuthDependencies
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps AuthDependencies) *AuthHandler {
	return &AuthHandler{deps: deps}
}

type loginRequest struct {
	ID       int64  `json:"id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string      `json:"token"`
	Analyst analystView `json:"analyst"`
}

// HandleLogin handles POST /api/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.ID < 1 || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	sess, err := h.deps.Authenticate(r.Context(), req.ID, req.Password)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:   sess.Token,
		Analyst: analystViewOf(sess.Worker),
	})
}

type queueStatusRequest struct {
	ID     int64 `json:"id"`
	Online bool  `json:"online"`
}

type queueStatusResponse struct {
	ID     int64 `json:"id"`
	Online bool  `json:"online"`
}

// HandleQueueStatus handles POST /api/analyst/queue-status requests.
// Flips whether the analyst takes part in the distribution queues.
func (h *AuthHandler) HandleQueueStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.queue_status"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req queueStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.ID < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if err := h.deps.SetAvailability(r.Context(), req.ID, req.Online); err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, queueStatusResponse{ID: req.ID, Online: req.Online})
}
