package handlers

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/mindforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type ConversationHandler struct {
	svc *service.ConversationService
}

func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type converseRequest struct {
	Message   string `json:"message"`
	ContextID string `json:"context_id"`
	Username  string `json:"username"`
}

func (h *ConversationHandler) Converse(w http.ResponseWriter, r *http.Request) {
	var req converseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	res, err := h.svc.Converse(r.Context(), chi.URLParam(r, "id"), service.ConverseRequest{
		Message:   req.Message,
		ContextID: req.ContextID,
		Username:  req.Username,
	})
	if err != nil {
		writeServiceError(w, err, "failed to converse")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
