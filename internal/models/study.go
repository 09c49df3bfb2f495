package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// Date is a calendar day without a time-of-day component. It serializes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type TopicStatus string

const (
	TopicNotStarted TopicStatus = "not-started"
	TopicInProgress TopicStatus = "in-progress"
	TopicCompleted  TopicStatus = "completed"
)

type StudyTopic struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	Title          string      `json:"title"`
	Subject        string      `json:"subject"`
	EstimatedHours float64     `json:"estimated_hours"`
	ActualHours    float64     `json:"actual_hours"`
	Status         TopicStatus `json:"status"`
	LastStudied    *Date       `json:"last_studied"`
	NextRevision   *Date       `json:"next_revision"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// StudySession is one study event. StartTime and EndTime hold HH:MM:SS strings.
type StudySession struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	TopicID            *uuid.UUID `json:"topic_id"`
	Title              string     `json:"title"`
	Date               *Date      `json:"date"`
	StartTime          *string    `json:"start_time"`
	EndTime            *string    `json:"end_time"`
	Subject            *string    `json:"subject"`
	Topic              *string    `json:"topic"`
	Priority           *string    `json:"priority"`
	Completed          bool       `json:"completed"`
	ComprehensionLevel *int       `json:"comprehension_level"`
	Notes              *string    `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type CreateTopicRequest struct {
	Title          string  `json:"title"`
	Subject        string  `json:"subject"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// StudySessionRequest is the payload for creating or replacing a study session.
// Date and times arrive as raw strings so that malformed values can be handled
// by the service rather than rejected by the decoder.
type StudySessionRequest struct {
	Title              string     `json:"title"`
	Date               *string    `json:"date"`
	StartTime          *string    `json:"start_time"`
	EndTime            *string    `json:"end_time"`
	Subject            *string    `json:"subject"`
	Topic              *string    `json:"topic"`
	Priority           *string    `json:"priority"`
	Completed          bool       `json:"completed"`
	ComprehensionLevel *int       `json:"comprehension_level"`
	Notes              *string    `json:"notes"`
	TopicID            *uuid.UUID `json:"topic_id"`
}

type SessionWithTopic struct {
	Session *StudySession `json:"session"`
	Topic   *StudyTopic   `json:"topic"`
}

type TopicProgressEvent struct {
	Topic     *StudyTopic `json:"topic"`
	SessionID uuid.UUID   `json:"session_id"`
}
