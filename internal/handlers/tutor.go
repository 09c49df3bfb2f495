package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"smartstudy-backend/internal/middleware"
	"smartstudy-backend/internal/models"
)

type tutorService interface {
	Ask(ctx context.Context, userID uuid.UUID, req models.AskTutorRequest) (*models.AIInteraction, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AIInteraction, error)
}

type TutorHandler struct {
	service tutorService
}

func NewTutorHandler(service tutorService) *TutorHandler {
	return &TutorHandler{service: service}
}

func (h *TutorHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskTutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	interaction, err := h.service.Ask(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, interaction)
}

func (h *TutorHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a non-negative integer", r))
		return
	}

	history, err := h.service.History(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.AIInteraction{}
	}
	writeJSON(w, http.StatusOK, history)
}
