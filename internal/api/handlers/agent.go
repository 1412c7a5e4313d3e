package handlers

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type AgentHandler struct {
	svc *service.AgentService
}

func NewAgentHandler(svc *service.AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

type synthesizeRequest struct {
	Description string `json:"description"`
}

// createAgentRequest accepts either an explicit config or a description to
// synthesize one from.
type createAgentRequest struct {
	Description string              `json:"description"`
	Config      *domain.AgentConfig `json:"config"`
}

func (h *AgentHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	cfg, err := h.svc.Synthesize(r.Context(), req.Description)
	if err != nil {
		writeServiceError(w, err, "failed to synthesize agent")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		agent *domain.AgentRecord
		err   error
	)
	switch {
	case req.Config != nil:
		agent, err = h.svc.Deploy(r.Context(), *req.Config)
	case strings.TrimSpace(req.Description) != "":
		agent, err = h.svc.DeployFromDescription(r.Context(), req.Description)
	default:
		writeError(w, http.StatusBadRequest, "config or description is required")
		return
	}
	if err != nil {
		writeServiceError(w, err, "failed to create agent")
		return
	}

	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list agents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (h *AgentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	agent, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "failed to get agent")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "failed to delete agent")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
