package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"smartstudy-backend/internal/middleware"
	"smartstudy-backend/internal/models"
)

type quizService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.Quiz, error)
	Get(ctx context.Context, userID, quizID uuid.UUID) (*models.Quiz, error)
	Create(ctx context.Context, userID uuid.UUID, req models.CreateQuizRequest) (*models.Quiz, error)
	RecordAttempt(ctx context.Context, userID, quizID uuid.UUID, req models.QuizAttemptRequest) (*models.QuizAttempt, error)
}

type QuizHandler struct {
	service quizService
}

func NewQuizHandler(service quizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if quizzes == nil {
		quizzes = []*models.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), quizID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	quiz, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	var req models.QuizAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	attempt, err := h.service.RecordAttempt(r.Context(), middleware.GetUserID(r.Context()), quizID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}
