package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"smartstudy-backend/internal/models"
	"smartstudy-backend/internal/repository"
	"smartstudy-backend/internal/revision"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 100
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type topicStore interface {
	Create(ctx context.Context, t *models.StudyTopic) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudyTopic, error)
	GetByIDForUpdate(ctx context.Context, id, userID uuid.UUID) (*models.StudyTopic, error)
	ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudyTopic, error)
	ListDue(ctx context.Context, userID uuid.UUID, on models.Date) ([]*models.StudyTopic, error)
	UpdateProgress(ctx context.Context, t *models.StudyTopic) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type sessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudySession, error)
	Update(ctx context.Context, s *models.StudySession) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ProgressPublisher pushes topic progress to the user's live connections.
type ProgressPublisher interface {
	PublishTopicProgress(ctx context.Context, userID uuid.UUID, event models.TopicProgressEvent) error
}

// ErrSessionNotCreated is returned when the session and topic writes could
// not be committed.
var ErrSessionNotCreated = errors.New("could not create study session")

type StudyPlanService struct {
	tx        txRunner
	topics    topicStore
	sessions  sessionStore
	predictor revision.DayPredictor
	publisher ProgressPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewStudyPlanService(
	tx txRunner,
	topics topicStore,
	sessions sessionStore,
	predictor revision.DayPredictor,
	publisher ProgressPublisher,
	logger *slog.Logger,
) *StudyPlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyPlanService{
		tx:        tx,
		topics:    topics,
		sessions:  sessions,
		predictor: predictor,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *StudyPlanService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}

// Topics

func (s *StudyPlanService) CreateTopic(ctx context.Context, userID uuid.UUID, req models.CreateTopicRequest) (*models.StudyTopic, error) {
	fieldErrors := make(map[string]string)
	title := strings.TrimSpace(req.Title)
	subject := strings.TrimSpace(req.Subject)
	if title == "" {
		fieldErrors["title"] = "Title is required"
	} else if hasControlChars(title) {
		fieldErrors["title"] = "Title must not contain control characters"
	}
	if subject == "" {
		fieldErrors["subject"] = "Subject is required"
	}
	if !(req.EstimatedHours > 0) {
		fieldErrors["estimated_hours"] = "Estimated hours must be greater than 0"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	topic := &models.StudyTopic{
		UserID:         userID,
		Title:          title,
		Subject:        subject,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    0,
		Status:         revision.DeriveStatus(0, req.EstimatedHours),
	}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *StudyPlanService) ListTopics(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudyTopic, error) {
	skip, limit = normalizePage(skip, limit)
	return s.topics.ListByUser(ctx, userID, skip, limit)
}

func (s *StudyPlanService) GetTopic(ctx context.Context, userID, topicID uuid.UUID) (*models.StudyTopic, error) {
	topic, err := s.topics.GetByID(ctx, topicID, userID)
	if err != nil {
		return nil, notFoundAs(err, "Study topic not found")
	}
	return topic, nil
}

func (s *StudyPlanService) DeleteTopic(ctx context.Context, userID, topicID uuid.UUID) error {
	return notFoundAs(s.topics.Delete(ctx, topicID, userID), "Study topic not found")
}

// DueRevisions lists topics whose next revision is on or before on. An empty
// on means today.
func (s *StudyPlanService) DueRevisions(ctx context.Context, userID uuid.UUID, on string) ([]*models.StudyTopic, error) {
	day := s.today()
	if on != "" {
		parsed, err := models.ParseDate(on)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"on": "Date must be in YYYY-MM-DD format"}}
		}
		day = parsed
	}
	return s.topics.ListDue(ctx, userID, day)
}

// Sessions

// buildSession validates req and converts it into a session record. Malformed
// times are not errors: they are logged and dropped.
func (s *StudyPlanService) buildSession(req models.StudySessionRequest) (*models.StudySession, error) {
	fieldErrors := make(map[string]string)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fieldErrors["title"] = "Title is required"
	} else if hasControlChars(title) {
		fieldErrors["title"] = "Title must not contain control characters"
	}

	var date models.Date
	if req.Date == nil || strings.TrimSpace(*req.Date) == "" {
		date = s.today()
	} else {
		parsed, err := models.ParseDate(strings.TrimSpace(*req.Date))
		if err != nil {
			fieldErrors["date"] = "Date must be in YYYY-MM-DD format"
		}
		date = parsed
	}

	if req.ComprehensionLevel != nil {
		lvl := *req.ComprehensionLevel
		if lvl < revision.MinComprehension || lvl > revision.MaxComprehension {
			fieldErrors["comprehension_level"] = fmt.Sprintf("Comprehension level must be between %d and %d",
				revision.MinComprehension, revision.MaxComprehension)
		}
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	return &models.StudySession{
		Title:              title,
		Date:               &date,
		StartTime:          s.cleanTime("start_time", req.StartTime),
		EndTime:            s.cleanTime("end_time", req.EndTime),
		Subject:            req.Subject,
		Topic:              req.Topic,
		Priority:           req.Priority,
		Completed:          req.Completed,
		ComprehensionLevel: req.ComprehensionLevel,
		Notes:              req.Notes,
	}, nil
}

func (s *StudyPlanService) cleanTime(field string, v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := revision.ParseTimeOfDay(*v); err != nil {
		s.logger.Warn("discarding malformed session time", "field", field, "value", *v)
		return nil
	}
	return v
}

// hasControlChars reports whether s holds characters such as CR or LF. Titles
// end up in mail headers.
func hasControlChars(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// CreateSession records a study session and, when it qualifies, advances the
// linked topic's progress and revision schedule. Both writes commit together.
// topicID overrides the topic_id carried in the body.
func (s *StudyPlanService) CreateSession(ctx context.Context, userID uuid.UUID, topicID *uuid.UUID, req models.StudySessionRequest) (*models.SessionWithTopic, error) {
	session, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	if topicID == nil {
		topicID = req.TopicID
	}
	session.UserID = userID
	session.TopicID = topicID

	// buildSession already dropped and logged malformed times
	minutes := revision.DurationMinutes(session.StartTime, session.EndTime)

	var result models.SessionWithTopic
	var writes revision.Writes
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var topic *models.StudyTopic
		if topicID != nil {
			t, err := s.topics.GetByIDForUpdate(ctx, *topicID, userID)
			if err != nil {
				return notFoundAs(err, "Study topic not found")
			}
			topic = t
		}

		writes = revision.PlanSession(session, topic, minutes, s.predictor)
		if err := s.sessions.Create(ctx, writes.Session); err != nil {
			return err
		}
		if writes.Topic != nil {
			if err := s.topics.UpdateProgress(ctx, writes.Topic); err != nil {
				return err
			}
			topic = writes.Topic
		}

		result = models.SessionWithTopic{Session: writes.Session, Topic: topic}
		return nil
	})
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		s.logger.Error("study session creation rolled back", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSessionNotCreated, err)
	}

	if writes.Skip != nil {
		s.logger.Debug("topic progress not updated", "session_id", session.ID, "reason", writes.Skip)
	} else {
		s.publishProgress(ctx, userID, session.ID, writes.Topic)
	}
	return &result, nil
}

func (s *StudyPlanService) publishProgress(ctx context.Context, userID, sessionID uuid.UUID, topic *models.StudyTopic) {
	if s.publisher == nil || topic == nil {
		return
	}
	event := models.TopicProgressEvent{Topic: topic, SessionID: sessionID}
	if err := s.publisher.PublishTopicProgress(ctx, userID, event); err != nil {
		s.logger.Warn("failed to publish topic progress", "user_id", userID, "topic_id", topic.ID, "error", err)
	}
}

func (s *StudyPlanService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, notFoundAs(err, "Study session not found")
	}
	return session, nil
}

func (s *StudyPlanService) ListSessions(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudySession, error) {
	skip, limit = normalizePage(skip, limit)
	return s.sessions.ListByUser(ctx, userID, skip, limit)
}

// UpdateSession replaces a session's own fields. The linked topic keeps the
// progress it had.
func (s *StudyPlanService) UpdateSession(ctx context.Context, userID, sessionID uuid.UUID, req models.StudySessionRequest) (*models.StudySession, error) {
	existing, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, notFoundAs(err, "Study session not found")
	}

	updated, err := s.buildSession(req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.TopicID = existing.TopicID
	updated.CreatedAt = existing.CreatedAt

	if err := s.sessions.Update(ctx, updated); err != nil {
		return nil, notFoundAs(err, "Study session not found")
	}
	return updated, nil
}

func (s *StudyPlanService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return notFoundAs(s.sessions.Delete(ctx, sessionID, userID), "Study session not found")
}

// notFoundAs converts repository.ErrNotFound into a NotFoundError with msg.
func notFoundAs(err error, msg string) error {
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: msg}
	}
	return err
}
