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

type studyPlanService interface {
	CreateTopic(ctx context.Context, userID uuid.UUID, req models.CreateTopicRequest) (*models.StudyTopic, error)
	ListTopics(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudyTopic, error)
	GetTopic(ctx context.Context, userID, topicID uuid.UUID) (*models.StudyTopic, error)
	DeleteTopic(ctx context.Context, userID, topicID uuid.UUID) error
	DueRevisions(ctx context.Context, userID uuid.UUID, on string) ([]*models.StudyTopic, error)
	CreateSession(ctx context.Context, userID uuid.UUID, topicID *uuid.UUID, req models.StudySessionRequest) (*models.SessionWithTopic, error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error)
	ListSessions(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudySession, error)
	UpdateSession(ctx context.Context, userID, sessionID uuid.UUID, req models.StudySessionRequest) (*models.StudySession, error)
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

type StudyPlanHandler struct {
	service studyPlanService
}

func NewStudyPlanHandler(service studyPlanService) *StudyPlanHandler {
	return &StudyPlanHandler{service: service}
}

func (h *StudyPlanHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	topic, err := h.service.CreateTopic(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (h *StudyPlanHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	topics, err := h.service.ListTopics(r.Context(), middleware.GetUserID(r.Context()), skip, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if topics == nil {
		topics = []*models.StudyTopic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *StudyPlanHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic ID", r))
		return
	}

	topic, err := h.service.GetTopic(r.Context(), middleware.GetUserID(r.Context()), topicID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *StudyPlanHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	topicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic ID", r))
		return
	}

	if err := h.service.DeleteTopic(r.Context(), middleware.GetUserID(r.Context()), topicID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Study topic deleted"})
}

func (h *StudyPlanHandler) DueRevisions(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.DueRevisions(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("on"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if topics == nil {
		topics = []*models.StudyTopic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

// CreateSession records a session. A topic_id query parameter takes
// precedence over the one in the body.
func (h *StudyPlanHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var topicID *uuid.UUID
	if raw := r.URL.Query().Get("topic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic ID", r))
			return
		}
		topicID = &id
	}

	var req models.StudySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.service.CreateSession(r.Context(), middleware.GetUserID(r.Context()), topicID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *StudyPlanHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), middleware.GetUserID(r.Context()), skip, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*models.StudySession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *StudyPlanHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, err := h.service.GetSession(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *StudyPlanHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.StudySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.service.UpdateSession(r.Context(), middleware.GetUserID(r.Context()), sessionID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *StudyPlanHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.service.DeleteSession(r.Context(), middleware.GetUserID(r.Context()), sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Study session deleted"})
}
