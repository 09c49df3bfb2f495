package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartstudy-backend/internal/models"
)

const (
	tutorSystemPrompt = "You are an AI Tutor helping with GATE preparation. Provide concise, accurate, and complete answers suitable for exam study, ensuring all key points are covered."
	tutorMaxTokens    = 300
	tutorTemperature  = 0.7

	tutorEmptyReply    = "I'm sorry, I couldn't generate a response. Please try rephrasing your question."
	tutorFallbackReply = "I'm sorry, there was an error generating a response. Please try again later."

	maxTutorQueryLen = 4000
	maxHistoryLimit  = 100
)

// TutorProvider answers a single study question.
type TutorProvider interface {
	Name() string
	Answer(ctx context.Context, question string) (string, error)
}

type interactionStore interface {
	Create(ctx context.Context, i *models.AIInteraction) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AIInteraction, error)
}

// TutorService asks each provider in order, retrying each a few times, and
// stores a canned apology when every attempt fails.
type TutorService struct {
	providers    []TutorProvider
	interactions interactionStore
	maxRetries   int
	retryDelay   time.Duration
	logger       *slog.Logger
}

func NewTutorService(providers []TutorProvider, interactions interactionStore, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *TutorService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TutorService{
		providers:    providers,
		interactions: interactions,
		maxRetries:   maxRetries,
		retryDelay:   retryDelay,
		logger:       logger,
	}
}

func (s *TutorService) Ask(ctx context.Context, userID uuid.UUID, req models.AskTutorRequest) (*models.AIInteraction, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &ValidationError{Fields: map[string]string{"query": "Query is required"}}
	}
	if len(query) > maxTutorQueryLen {
		return nil, &ValidationError{Fields: map[string]string{"query": "Query is too long"}}
	}

	s.logger.Info("ai tutor request", "user_id", userID)
	answer, provider := s.answer(ctx, query)

	interaction := &models.AIInteraction{
		UserID:   userID,
		Query:    query,
		Response: answer,
		Provider: provider,
	}
	// the fallback answer is still recorded when the client has gone away
	if err := s.interactions.Create(context.WithoutCancel(ctx), interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

func (s *TutorService) answer(ctx context.Context, query string) (string, string) {
	for _, p := range s.providers {
		for attempt := 1; attempt <= s.maxRetries; attempt++ {
			reply, err := p.Answer(ctx, query)
			if err == nil {
				reply = strings.TrimSpace(reply)
				if reply == "" {
					reply = tutorEmptyReply
				}
				return reply, p.Name()
			}
			s.logger.Error("ai tutor attempt failed",
				"provider", p.Name(), "attempt", attempt, "max_attempts", s.maxRetries, "error", err)

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return tutorFallbackReply, ""
			}
			if attempt < s.maxRetries && !sleepCtx(ctx, s.retryDelay) {
				return tutorFallbackReply, ""
			}
		}
	}
	return tutorFallbackReply, ""
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *TutorService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AIInteraction, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.interactions.ListByUser(ctx, userID, limit)
}
