package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartstudy-backend/internal/models"
	"smartstudy-backend/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func notFound(entity string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", entity, id, repository.ErrNotFound)
}

// memStudyPlan is an in-memory topic and session store. fakeTx snapshots it
// so a failed transaction leaves no trace.
type memStudyPlan struct {
	mu       sync.Mutex
	topics   map[uuid.UUID]models.StudyTopic
	sessions map[uuid.UUID]models.StudySession

	failSessionCreate error
	failTopicUpdate   error
	lockedTopics      []uuid.UUID
}

func newMemStudyPlan() *memStudyPlan {
	return &memStudyPlan{
		topics:   make(map[uuid.UUID]models.StudyTopic),
		sessions: make(map[uuid.UUID]models.StudySession),
	}
}

func (m *memStudyPlan) snapshot() (map[uuid.UUID]models.StudyTopic, map[uuid.UUID]models.StudySession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := make(map[uuid.UUID]models.StudyTopic, len(m.topics))
	for k, v := range m.topics {
		t[k] = v
	}
	s := make(map[uuid.UUID]models.StudySession, len(m.sessions))
	for k, v := range m.sessions {
		s[k] = v
	}
	return t, s
}

func (m *memStudyPlan) restore(t map[uuid.UUID]models.StudyTopic, s map[uuid.UUID]models.StudySession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics, m.sessions = t, s
}

type fakeTx struct {
	plan  *memStudyPlan
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.plan == nil {
		return fn(ctx)
	}
	topics, sessions := f.plan.snapshot()
	if err := fn(ctx); err != nil {
		f.plan.restore(topics, sessions)
		return err
	}
	return nil
}

type memTopics struct{ *memStudyPlan }

func (m memTopics) Create(ctx context.Context, t *models.StudyTopic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.topics[t.ID] = *t
	return nil
}

func (m memTopics) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudyTopic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[id]
	if !ok || t.UserID != userID {
		return nil, notFound("study topic", id)
	}
	return &t, nil
}

func (m memTopics) GetByIDForUpdate(ctx context.Context, id, userID uuid.UUID) (*models.StudyTopic, error) {
	t, err := m.GetByID(ctx, id, userID)
	if err == nil {
		m.mu.Lock()
		m.lockedTopics = append(m.lockedTopics, id)
		m.mu.Unlock()
	}
	return t, err
}

func (m memTopics) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudyTopic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.StudyTopic
	for _, t := range m.topics {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if skip > len(out) {
		return []*models.StudyTopic{}, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memTopics) ListDue(ctx context.Context, userID uuid.UUID, on models.Date) ([]*models.StudyTopic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.StudyTopic{}
	for _, t := range m.topics {
		if t.UserID == userID && t.NextRevision != nil && !t.NextRevision.After(on.Time) {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m memTopics) UpdateProgress(ctx context.Context, t *models.StudyTopic) error {
	if m.failTopicUpdate != nil {
		return m.failTopicUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.topics[t.ID]; !ok {
		return notFound("study topic", t.ID)
	}
	m.topics[t.ID] = *t
	return nil
}

func (m memTopics) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[id]
	if !ok || t.UserID != userID {
		return notFound("study topic", id)
	}
	delete(m.topics, id)
	return nil
}

type memSessions struct{ *memStudyPlan }

func (m memSessions) Create(ctx context.Context, s *models.StudySession) error {
	if m.failSessionCreate != nil {
		return m.failSessionCreate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.sessions[s.ID] = *s
	return nil
}

func (m memSessions) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, notFound("study session", id)
	}
	return &s, nil
}

func (m memSessions) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.StudySession{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			s := s
			out = append(out, &s)
		}
	}
	return out, nil
}

func (m memSessions) Update(ctx context.Context, s *models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sessions[s.ID]
	if !ok || existing.UserID != s.UserID {
		return notFound("study session", s.ID)
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m memSessions) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return notFound("study session", id)
	}
	delete(m.sessions, id)
	return nil
}

type recordingPublisher struct {
	events []models.TopicProgressEvent
	err    error
}

func (p *recordingPublisher) PublishTopicProgress(ctx context.Context, userID uuid.UUID, event models.TopicProgressEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// fakeRedis implements the narrow Redis interfaces with go-redis result
// constructors.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) GetDel(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.values, key)
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user: %w", repository.ErrAlreadyExists)
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, notFound("user", uuid.Nil)
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	c := *u
	return &c, nil
}

var errBoom = errors.New("boom")
