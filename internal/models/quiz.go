package models

import (
	"time"

	"github.com/google/uuid"
)

type QuizStatus string

const (
	QuizNotStarted QuizStatus = "not-started"
	QuizInProgress QuizStatus = "in-progress"
	QuizCompleted  QuizStatus = "completed"
)

func (s QuizStatus) Valid() bool {
	switch s {
	case QuizNotStarted, QuizInProgress, QuizCompleted:
		return true
	}
	return false
}

// Quiz is a multiple-choice test. Status, Score and LastAttempt are not stored
// on the quiz; they are filled from the requesting user's latest attempt.
type Quiz struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Subject     string         `json:"subject"`
	Topic       string         `json:"topic"`
	Difficulty  string         `json:"difficulty"`
	Questions   []QuizQuestion `json:"questions"`
	TimeLimit   int            `json:"time_limit"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Status      QuizStatus     `json:"status"`
	Score       *int           `json:"score"`
	LastAttempt *time.Time     `json:"last_attempt"`
}

type QuizQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Marks         float64  `json:"marks"`
	NegativeMarks float64  `json:"negative_marks"`
}

type QuizAttempt struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	QuizID      uuid.UUID  `json:"quiz_id"`
	Status      QuizStatus `json:"status"`
	Score       *int       `json:"score"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type CreateQuizRequest struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Subject     string         `json:"subject"`
	Topic       string         `json:"topic"`
	Difficulty  string         `json:"difficulty"`
	TimeLimit   int            `json:"time_limit"`
	Questions   []QuizQuestion `json:"questions"`
}

type QuizAttemptRequest struct {
	Status      QuizStatus `json:"status"`
	Score       *int       `json:"score"`
	CompletedAt *time.Time `json:"completed_at"`
}
