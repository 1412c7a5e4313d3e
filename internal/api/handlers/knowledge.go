package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type KnowledgeHandler struct {
	svc *service.EvolutionService
}

func NewKnowledgeHandler(svc *service.EvolutionService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type updateMemoryRequest struct {
	History   []domain.Message `json:"history"`
	Intent    string           `json:"intent"`
	Username  string           `json:"username"`
	ContextID string           `json:"context_id"`
}

type evolveRequest struct {
	Intent       string `json:"intent"`
	Conversation string `json:"conversation"`
	Cycles       int    `json:"cycles"`
}

type evolveResponse struct {
	Intent       string   `json:"intent"`
	FactsAdded   int      `json:"facts_added"`
	Facts        []string `json:"facts"`
	FactText     string   `json:"fact_text"`
	CyclesRun    int      `json:"cycles_run"`
	StoppedEarly bool     `json:"stopped_early"`
}

// UpdateMemory returns 200 for a rate-limited skip too; the body carries
// skipped and retry_after_seconds.
func (h *KnowledgeHandler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	var req updateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.History) == 0 {
		writeError(w, http.StatusBadRequest, "history is required")
		return
	}

	res, err := h.svc.UpdateMemory(r.Context(), chi.URLParam(r, "id"), service.UpdateRequest{
		History:   req.History,
		Intent:    req.Intent,
		Username:  req.Username,
		ContextID: req.ContextID,
	})
	if err != nil {
		writeServiceError(w, err, "failed to update memory")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *KnowledgeHandler) Evolve(w http.ResponseWriter, r *http.Request) {
	var req evolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent := service.NormalizeIntent(req.Intent)
	res, err := h.svc.Evolve(r.Context(), chi.URLParam(r, "id"), intent, req.Conversation, req.Cycles)
	if err != nil {
		writeServiceError(w, err, "failed to evolve knowledge")
		return
	}

	writeJSON(w, http.StatusOK, evolveResponse{
		Intent:       intent,
		FactsAdded:   res.Added,
		Facts:        domain.SplitFacts(res.Facts),
		FactText:     res.Facts,
		CyclesRun:    res.CyclesRun,
		StoppedEarly: res.StoppedEarly,
	})
}

func (h *KnowledgeHandler) Status(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st, err := h.svc.Status(r.Context(), chi.URLParam(r, "id"), q.Get("intent"), q.Get("username"))
	if err != nil {
		writeServiceError(w, err, "failed to get knowledge")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
