package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartstudy-backend/internal/models"
	"smartstudy-backend/internal/repository"
)

type quizStore interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetVisible(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*models.Quiz, error)
	ListVisible(ctx context.Context, ownerIDs []uuid.UUID) ([]*models.Quiz, error)
	ExistsByTitle(ctx context.Context, userID uuid.UUID, title string) (bool, error)
	LatestAttempts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]*models.QuizAttempt, error)
	LatestAttemptForUpdate(ctx context.Context, userID, quizID uuid.UUID) (*models.QuizAttempt, error)
	CreateAttempt(ctx context.Context, a *models.QuizAttempt) error
	UpdateAttempt(ctx context.Context, a *models.QuizAttempt) error
}

var quizDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// QuizService serves a shared quiz catalogue, owned by catalogOwner, together
// with each user's own quizzes. Attempt state is per user.
type QuizService struct {
	tx           txRunner
	quizzes      quizStore
	catalogOwner uuid.UUID
	now          func() time.Time
}

func NewQuizService(tx txRunner, quizzes quizStore, catalogOwner uuid.UUID) *QuizService {
	return &QuizService{tx: tx, quizzes: quizzes, catalogOwner: catalogOwner, now: time.Now}
}

func (s *QuizService) owners(userID uuid.UUID) []uuid.UUID {
	if s.catalogOwner == uuid.Nil || s.catalogOwner == userID {
		return []uuid.UUID{userID}
	}
	return []uuid.UUID{s.catalogOwner, userID}
}

func applyAttempt(q *models.Quiz, a *models.QuizAttempt) {
	q.Status = models.QuizNotStarted
	q.Score = nil
	q.LastAttempt = nil
	if a == nil {
		return
	}
	q.Status = a.Status
	q.Score = a.Score
	q.LastAttempt = a.CompletedAt
}

func (s *QuizService) List(ctx context.Context, userID uuid.UUID) ([]*models.Quiz, error) {
	quizzes, err := s.quizzes.ListVisible(ctx, s.owners(userID))
	if err != nil {
		return nil, err
	}
	attempts, err := s.quizzes.LatestAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, q := range quizzes {
		applyAttempt(q, attempts[q.ID])
	}
	return quizzes, nil
}

func (s *QuizService) Get(ctx context.Context, userID, quizID uuid.UUID) (*models.Quiz, error) {
	q, err := s.quizzes.GetVisible(ctx, quizID, s.owners(userID))
	if err != nil {
		return nil, notFoundAs(err, "Quiz not found")
	}
	attempts, err := s.quizzes.LatestAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyAttempt(q, attempts[q.ID])
	return q, nil
}

func validateQuiz(req models.CreateQuizRequest) map[string]string {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fieldErrors["title"] = "Title is required"
	}
	if strings.TrimSpace(req.Subject) == "" {
		fieldErrors["subject"] = "Subject is required"
	}
	if strings.TrimSpace(req.Topic) == "" {
		fieldErrors["topic"] = "Topic is required"
	}
	if req.Difficulty != "" && !quizDifficulties[req.Difficulty] {
		fieldErrors["difficulty"] = "Difficulty must be easy, medium or hard"
	}
	if req.TimeLimit < 0 {
		fieldErrors["time_limit"] = "Time limit cannot be negative"
	}
	for _, q := range req.Questions {
		if strings.TrimSpace(q.QuestionText) == "" || len(q.Options) < 2 {
			fieldErrors["questions"] = "Each question needs text and at least two options"
			break
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			fieldErrors["questions"] = "Correct answer must reference one of the options"
			break
		}
	}
	return fieldErrors
}

func (s *QuizService) Create(ctx context.Context, userID uuid.UUID, req models.CreateQuizRequest) (*models.Quiz, error) {
	if fieldErrors := validateQuiz(req); len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	title := strings.TrimSpace(req.Title)
	duplicate := &ValidationError{Fields: map[string]string{"title": "A quiz with this title already exists"}}
	exists, err := s.quizzes.ExistsByTitle(ctx, userID, title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicate
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	q := &models.Quiz{
		UserID:      userID,
		Title:       title,
		Description: req.Description,
		Subject:     strings.TrimSpace(req.Subject),
		Topic:       strings.TrimSpace(req.Topic),
		Difficulty:  difficulty,
		Questions:   req.Questions,
		TimeLimit:   req.TimeLimit,
	}
	if err := s.quizzes.Create(ctx, q); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, duplicate
		}
		return nil, err
	}
	applyAttempt(q, nil)
	return q, nil
}

// RecordAttempt updates the user's unfinished attempt, or starts a new one
// when there is none or the latest was completed.
func (s *QuizService) RecordAttempt(ctx context.Context, userID, quizID uuid.UUID, req models.QuizAttemptRequest) (*models.QuizAttempt, error) {
	if !req.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "Status must be not-started, in-progress or completed"}}
	}
	if req.Score != nil && *req.Score < 0 {
		return nil, &ValidationError{Fields: map[string]string{"score": "Score cannot be negative"}}
	}
	if _, err := s.quizzes.GetVisible(ctx, quizID, s.owners(userID)); err != nil {
		return nil, notFoundAs(err, "Quiz not found")
	}

	completedAt := req.CompletedAt
	if req.Status == models.QuizCompleted && completedAt == nil {
		now := s.now().UTC()
		completedAt = &now
	}

	var attempt *models.QuizAttempt
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		latest, err := s.quizzes.LatestAttemptForUpdate(ctx, userID, quizID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if latest != nil && latest.Status != models.QuizCompleted {
			latest.Status = req.Status
			latest.Score = req.Score
			latest.CompletedAt = completedAt
			attempt = latest
			return s.quizzes.UpdateAttempt(ctx, latest)
		}
		attempt = &models.QuizAttempt{
			UserID:      userID,
			QuizID:      quizID,
			Status:      req.Status,
			Score:       req.Score,
			StartedAt:   s.now().UTC(),
			CompletedAt: completedAt,
		}
		return s.quizzes.CreateAttempt(ctx, attempt)
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}
