package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartstudy-backend/internal/models"
	"smartstudy-backend/internal/repository"
)

// A marker lives slightly longer than a day so a late poll on the next day
// cannot resend.
const reminderMarkerTTL = 36 * time.Hour

type dueRecipientSource interface {
	ListRecipientsDueOn(ctx context.Context, on models.Date) ([]repository.RevisionRecipient, error)
}

// markerStore is the subset of the Redis client used for send-once markers.
type markerStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type reminderSender interface {
	SendRevisionReminderEmail(to, name string, topics []string) error
}

// RevisionReminderScheduler e-mails each user whose topics are due for
// revision today, at most once per user per day.
type RevisionReminderScheduler struct {
	topics   dueRecipientSource
	email    reminderSender
	redis    markerStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewRevisionReminderScheduler(topics dueRecipientSource, email reminderSender, rdb markerStore, interval time.Duration, logger *slog.Logger) *RevisionReminderScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RevisionReminderScheduler{
		topics:   topics,
		email:    email,
		redis:    rdb,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *RevisionReminderScheduler) Start() {
	go s.loop()
	s.logger.Info("revision reminder scheduler started", "interval", s.interval)
}

// Stop ends the loop and waits for an in-flight run to finish.
func (s *RevisionReminderScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

func (s *RevisionReminderScheduler) loop() {
	defer close(s.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run on startup as well as by interval.
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func reminderKey(userID uuid.UUID, day models.Date) string {
	return fmt.Sprintf("revision_reminder:%s:%s", userID, day)
}

// RunOnce sends today's reminders and returns how many were sent.
func (s *RevisionReminderScheduler) RunOnce(ctx context.Context) int {
	today := models.DateOf(s.now().UTC())
	recipients, err := s.topics.ListRecipientsDueOn(ctx, today)
	if err != nil {
		s.logger.Error("revision reminders: failed to list recipients", "error", err)
		return 0
	}

	sent := 0
	for _, r := range recipients {
		if len(r.DueTopics) == 0 {
			continue
		}

		key := reminderKey(r.UserID, today)
		claimed, err := s.redis.SetNX(ctx, key, s.now().UTC().Format(time.RFC3339), reminderMarkerTTL).Result()
		if err != nil {
			s.logger.Error("revision reminders: failed to claim marker", "user_id", r.UserID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.email.SendRevisionReminderEmail(r.Email, r.Name, r.DueTopics); err != nil {
			s.logger.Error("revision reminders: failed to send", "user_id", r.UserID, "error", err)
			// release so the next poll can retry
			s.redis.Del(ctx, key)
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.Info("revision reminders sent", "count", sent, "date", today.String())
	}
	return sent
}
