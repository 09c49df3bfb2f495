package models

import (
	"time"

	"github.com/google/uuid"
)

// AIInteraction is one stored question/answer exchange with the AI tutor.
type AIInteraction struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// AskTutorRequest is the payload sent to the tutor endpoint.
type AskTutorRequest struct {
	Query string `json:"query"`
}
