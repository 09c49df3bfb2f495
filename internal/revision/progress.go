package revision

import (
	"errors"

	"smartstudy-backend/internal/models"
)

var (
	ErrNoTopic         = errors.New("session is not linked to a topic")
	ErrNoComprehension = errors.New("session has no comprehension level")
	ErrNoEffort        = errors.New("session duration is not positive")
	ErrNoDate          = errors.New("session has no date")
)

// DayPredictor maps a session to a revision interval in days.
type DayPredictor interface {
	NextRevisionDays(comprehension int, minutes float64) int
}

// DeriveStatus computes a topic's status from its accumulated and target hours.
func DeriveStatus(actual, estimated float64) models.TopicStatus {
	switch {
	case actual >= estimated:
		return models.TopicCompleted
	case actual > 0:
		return models.TopicInProgress
	default:
		return models.TopicNotStarted
	}
}

// Writes describes what persisting a new session should store. Topic is nil
// when the progress update was skipped, in which case Skip says why.
type Writes struct {
	Session *models.StudySession
	Topic   *models.StudyTopic
	Skip    error
}

// PlanSession decides the writes for a newly created session. It has no side
// effects: topic is copied, never modified in place. All progress fields are
// updated together or not at all.
func PlanSession(session *models.StudySession, topic *models.StudyTopic, minutes float64, predictor DayPredictor) Writes {
	w := Writes{Session: session}
	switch {
	case topic == nil:
		w.Skip = ErrNoTopic
	case session.ComprehensionLevel == nil:
		w.Skip = ErrNoComprehension
	case !(minutes > 0):
		w.Skip = ErrNoEffort
	case session.Date == nil:
		w.Skip = ErrNoDate
	}
	if w.Skip != nil {
		return w
	}

	updated := *topic
	updated.ActualHours = topic.ActualHours + minutes/60
	updated.Status = DeriveStatus(updated.ActualHours, updated.EstimatedHours)

	studied := *session.Date
	next := studied.AddDays(predictor.NextRevisionDays(*session.ComprehensionLevel, minutes))
	updated.LastStudied = &studied
	updated.NextRevision = &next

	w.Topic = &updated
	return w
}
