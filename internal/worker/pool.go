package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ReminderQueue = "queue:revision-reminders"

	defaultMaxAttempts = 3
	pollTimeout        = 5 * time.Second
	jobLockTTL         = 10 * time.Minute
)

// ReminderJob is one queued revision reminder e-mail.
type ReminderJob struct {
	ID       uuid.UUID `json:"id"`
	To       string    `json:"to"`
	Name     string    `json:"name"`
	Topics   []string  `json:"topics"`
	Attempts int       `json:"attempts"`
}

type queueClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type mailer interface {
	SendRevisionReminderEmail(to, name string, topics []string) error
}

// Pool delivers queued reminders (LPUSH in, BRPOP out) with a fixed number of
// workers. Failed deliveries are requeued until maxAttempts is reached.
type Pool struct {
	redis       queueClient
	email       mailer
	workerCount int
	maxAttempts int
	logger      *slog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPool(redisClient queueClient, email mailer, workerCount int, logger *slog.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		redis:       redisClient,
		email:       email,
		workerCount: workerCount,
		maxAttempts: defaultMaxAttempts,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// SendRevisionReminderEmail queues the reminder; a worker sends it.
func (p *Pool) SendRevisionReminderEmail(to, name string, topics []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.enqueue(ctx, ReminderJob{ID: uuid.New(), To: to, Name: name, Topics: topics})
}

func (p *Pool) enqueue(ctx context.Context, job ReminderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode reminder job: %w", err)
	}
	if err := p.redis.LPush(ctx, ReminderQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to queue reminder job: %w", err)
	}
	return nil
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("reminder workers started", "count", p.workerCount)
}

// Stop signals the workers and waits for them to finish their current job.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-p.stopChan:
			p.logger.Debug("reminder worker shutting down", "worker", id)
			return
		default:
		}

		result, err := p.redis.BRPop(ctx, pollTimeout, ReminderQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.logger.Warn("reminder queue poll failed", "worker", id, "error", err)
				time.Sleep(time.Second)
			}
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		p.handle(ctx, result[1])
	}
}

// handle processes one queued payload. It reports whether an e-mail was sent.
func (p *Pool) handle(ctx context.Context, payload string) bool {
	var job ReminderJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		p.logger.Error("failed to parse reminder job", "error", err)
		return false
	}

	// Try to acquire lock
	lockKey := fmt.Sprintf("job_lock:%s:%d", job.ID, job.Attempts)
	locked, err := p.redis.SetNX(ctx, lockKey, "1", jobLockTTL).Result()
	if err != nil {
		// the job is already off the queue; put it back untouched
		p.logger.Error("failed to lock reminder job, requeueing", "job_id", job.ID, "error", err)
		if err := p.enqueue(ctx, job); err != nil {
			p.logger.Error("failed to requeue reminder job", "job_id", job.ID, "error", err)
		}
		return false
	}
	if !locked {
		return false // Another worker has this job
	}

	if err := p.email.SendRevisionReminderEmail(job.To, job.Name, job.Topics); err != nil {
		job.Attempts++
		if job.Attempts >= p.maxAttempts {
			p.logger.Error("reminder delivery abandoned", "job_id", job.ID, "attempts", job.Attempts, "error", err)
			return false
		}
		p.logger.Warn("reminder delivery failed, requeueing", "job_id", job.ID, "attempts", job.Attempts, "error", err)
		if err := p.enqueue(ctx, job); err != nil {
			p.logger.Error("failed to requeue reminder job", "job_id", job.ID, "error", err)
		}
		return false
	}
	return true
}
