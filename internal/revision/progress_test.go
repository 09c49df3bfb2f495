package revision

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstudy-backend/internal/models"
)

type fixedDays int

func (f fixedDays) NextRevisionDays(int, float64) int { return int(f) }

func intp(i int) *int { return &i }

func newTopic(estimated float64) *models.StudyTopic {
	return &models.StudyTopic{
		ID:             uuid.New(),
		Title:          "Graph Theory",
		EstimatedHours: estimated,
		Status:         models.TopicNotStarted,
	}
}

func newSession(date models.Date, level *int) *models.StudySession {
	return &models.StudySession{ID: uuid.New(), Title: "session", Date: &date, ComprehensionLevel: level}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.TopicNotStarted, DeriveStatus(0, 2))
	assert.Equal(t, models.TopicInProgress, DeriveStatus(1.5, 2))
	assert.Equal(t, models.TopicCompleted, DeriveStatus(2, 2))
	assert.Equal(t, models.TopicCompleted, DeriveStatus(3, 2))
}

func TestPlanSession_FirstSession(t *testing.T) {
	p := seededPredictor(t)
	topic := newTopic(2.0)
	date := models.NewDate(2024, 1, 10)
	session := newSession(date, intp(3))

	minutes := DurationMinutes(strp("09:00:00"), strp("10:30:00"))
	w := PlanSession(session, topic, minutes, p)
	require.NoError(t, w.Skip)
	require.NotNil(t, w.Topic)

	assert.Equal(t, 1.5, w.Topic.ActualHours)
	assert.Equal(t, models.TopicInProgress, w.Topic.Status)
	assert.Equal(t, "2024-01-10", w.Topic.LastStudied.String())

	gap := int(w.Topic.NextRevision.Sub(w.Topic.LastStudied.Time).Hours() / 24)
	assert.GreaterOrEqual(t, gap, 2)
	assert.LessOrEqual(t, gap, 5)

	// input topic is untouched
	assert.Equal(t, 0.0, topic.ActualHours)
	assert.Nil(t, topic.LastStudied)
}

func TestPlanSession_CompletesTopic(t *testing.T) {
	topic := newTopic(2.0)
	topic.ActualHours = 1.5
	topic.Status = models.TopicInProgress

	session := newSession(models.NewDate(2024, 1, 11), intp(4))
	minutes := DurationMinutes(strp("10:00:00"), strp("10:30:00"))
	w := PlanSession(session, topic, minutes, fixedDays(7))

	require.NotNil(t, w.Topic)
	assert.Equal(t, 2.0, w.Topic.ActualHours)
	assert.Equal(t, models.TopicCompleted, w.Topic.Status)
	assert.Equal(t, "2024-01-18", w.Topic.NextRevision.String())
}

func TestPlanSession_Skips(t *testing.T) {
	date := models.NewDate(2024, 1, 10)
	tests := []struct {
		name    string
		session *models.StudySession
		topic   *models.StudyTopic
		minutes float64
		want    error
	}{
		{"no topic", newSession(date, intp(3)), nil, 60, ErrNoTopic},
		{"no comprehension", newSession(date, nil), newTopic(2), 60, ErrNoComprehension},
		{"zero duration", newSession(date, intp(3)), newTopic(2), 0, ErrNoEffort},
		{"no date", &models.StudySession{ComprehensionLevel: intp(3)}, newTopic(2), 60, ErrNoDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before models.StudyTopic
			if tt.topic != nil {
				before = *tt.topic
			}
			w := PlanSession(tt.session, tt.topic, tt.minutes, fixedDays(3))
			assert.ErrorIs(t, w.Skip, tt.want)
			assert.Nil(t, w.Topic)
			assert.Same(t, tt.session, w.Session)
			if tt.topic != nil {
				assert.Equal(t, before, *tt.topic)
			}
		})
	}
}

func TestPlanSession_OvernightSession(t *testing.T) {
	topic := newTopic(10)
	session := newSession(models.NewDate(2024, 3, 1), intp(2))
	minutes := DurationMinutes(strp("23:30:00"), strp("00:15:00"))
	require.Equal(t, 45.0, minutes)

	w := PlanSession(session, topic, minutes, fixedDays(2))
	require.NotNil(t, w.Topic)
	assert.Equal(t, 0.75, w.Topic.ActualHours)
}
