package revision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrModelNotFound = errors.New("revision model not found")

// ModelStore persists a fitted Model so that it is trained once and loaded on
// every later start.
type ModelStore interface {
	Load(ctx context.Context) (*Model, error)
	Save(ctx context.Context, m *Model) error
}

func decodeModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FileModelStore keeps the model as a JSON file on local disk.
type FileModelStore struct {
	path string
}

func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{path: path}
}

func (s *FileModelStore) Load(ctx context.Context) (*Model, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return decodeModel(data)
}

// Save writes to a temporary file and renames it so readers never observe a
// partially written model.
func (s *FileModelStore) Save(ctx context.Context, m *Model) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".revision-model-*")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}
	return nil
}

// modelKV is the subset of the Redis client RedisModelStore needs.
type modelKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisModelStore keeps the model as a JSON string under a single key, so
// that every API replica shares the same fit.
type RedisModelStore struct {
	rdb modelKV
	key string
}

func NewRedisModelStore(rdb modelKV, key string) *RedisModelStore {
	return &RedisModelStore{rdb: rdb, key: key}
}

func (s *RedisModelStore) Load(ctx context.Context) (*Model, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("get model: %w", err)
	}
	return decodeModel(data)
}

func (s *RedisModelStore) Save(ctx context.Context, m *Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set model: %w", err)
	}
	return nil
}

// Bootstrap fits and saves a model when the store has none yet. An existing
// model, even a corrupt one, is left alone; the Predictor falls back for it.
func Bootstrap(ctx context.Context, store ModelStore, samples []Sample) error {
	_, err := store.Load(ctx)
	if err == nil || !errors.Is(err, ErrModelNotFound) {
		return nil
	}
	m, err := Fit(samples)
	if err != nil {
		return fmt.Errorf("fit revision model: %w", err)
	}
	if err := store.Save(ctx, m); err != nil {
		return err
	}
	slog.Info("revision model trained",
		"samples", m.Samples,
		"intercept", m.Intercept,
		"comprehension_coef", m.ComprehensionCoef,
		"duration_coef", m.DurationCoef,
	)
	return nil
}
