package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstudy-backend/internal/models"
	"smartstudy-backend/internal/repository"
)

type stubRecipients struct {
	list []repository.RevisionRecipient
	err  error
	days []models.Date
}

func (s *stubRecipients) ListRecipientsDueOn(ctx context.Context, on models.Date) ([]repository.RevisionRecipient, error) {
	s.days = append(s.days, on)
	return s.list, s.err
}

type sentMail struct {
	to     string
	topics []string
}

type stubSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]error
}

func (s *stubSender) SendRevisionReminderEmail(to, name string, topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[to]; err != nil {
		return err
	}
	s.sent = append(s.sent, sentMail{to: to, topics: topics})
	return nil
}

func newReminderFixture(list []repository.RevisionRecipient) (*RevisionReminderScheduler, *stubRecipients, *stubSender, *fakeRedis) {
	src := &stubRecipients{list: list}
	sender := &stubSender{fail: map[string]error{}}
	rdb := newFakeRedis()
	s := NewRevisionReminderScheduler(src, sender, rdb, time.Hour, quietLogger())
	s.now = func() time.Time { return time.Date(2024, 1, 13, 8, 0, 0, 0, time.UTC) }
	return s, src, sender, rdb
}

func TestRunOnce_SendsOncePerDay(t *testing.T) {
	a := repository.RevisionRecipient{UserID: uuid.New(), Email: "a@example.com", Name: "A", DueTopics: []string{"Graphs"}}
	b := repository.RevisionRecipient{UserID: uuid.New(), Email: "b@example.com", Name: "B", DueTopics: []string{"DP", "Trees"}}
	s, src, sender, rdb := newReminderFixture([]repository.RevisionRecipient{a, b})
	ctx := context.Background()

	assert.Equal(t, 2, s.RunOnce(ctx))
	require.Len(t, src.days, 1)
	assert.Equal(t, "2024-01-13", src.days[0].String())
	assert.True(t, rdb.has("revision_reminder:"+a.UserID.String()+":2024-01-13"))
	assert.Equal(t, reminderMarkerTTL, rdb.ttls[reminderKey(b.UserID, models.NewDate(2024, 1, 13))])

	assert.Equal(t, 0, s.RunOnce(ctx))
	assert.Len(t, sender.sent, 2)

	s.now = func() time.Time { return time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC) }
	assert.Equal(t, 2, s.RunOnce(ctx))
}

func TestRunOnce_ReleasesMarkerOnFailure(t *testing.T) {
	a := repository.RevisionRecipient{UserID: uuid.New(), Email: "a@example.com", DueTopics: []string{"Graphs"}}
	s, _, sender, rdb := newReminderFixture([]repository.RevisionRecipient{a})
	sender.fail["a@example.com"] = errBoom
	ctx := context.Background()

	assert.Equal(t, 0, s.RunOnce(ctx))
	assert.False(t, rdb.has(reminderKey(a.UserID, models.NewDate(2024, 1, 13))))

	delete(sender.fail, "a@example.com")
	assert.Equal(t, 1, s.RunOnce(ctx))
}

func TestRunOnce_SkipsAndErrors(t *testing.T) {
	empty := repository.RevisionRecipient{UserID: uuid.New(), Email: "e@example.com"}
	s, src, sender, rdb := newReminderFixture([]repository.RevisionRecipient{empty})
	ctx := context.Background()

	assert.Equal(t, 0, s.RunOnce(ctx))
	assert.Empty(t, sender.sent)

	src.err = errBoom
	assert.Equal(t, 0, s.RunOnce(ctx))

	src.err = nil
	src.list = []repository.RevisionRecipient{{UserID: uuid.New(), Email: "x@example.com", DueTopics: []string{"T"}}}
	rdb.err = errBoom
	assert.Equal(t, 0, s.RunOnce(ctx))
	assert.Empty(t, sender.sent)
}

func TestScheduler_StartStop(t *testing.T) {
	a := repository.RevisionRecipient{UserID: uuid.New(), Email: "a@example.com", DueTopics: []string{"Graphs"}}
	s, _, sender, _ := newReminderFixture([]repository.RevisionRecipient{a})

	s.Start()
	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.sent) == 1
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
}
