// Package cache wraps a habit store with a Redis read-through cache for the
// per-user habit list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/metrics"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/storage"
)

// Store caches LoadHabits results. Any write for a user drops that user's
// entry. Redis failures are logged and served from the inner store.
type Store struct {
	inner storage.Provider
	rdb   redis.Cmdable
	ttl   time.Duration
}

var _ storage.Provider = (*Store)(nil)

// New wraps inner. A non-positive ttl falls back to the default.
func New(inner storage.Provider, rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	return &Store{inner: inner, rdb: rdb, ttl: ttl}
}

// NewClient builds the Redis client used by New.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Key returns the cache key holding userID's habit list.
func Key(userID string) string {
	return constants.AppName + ":habits:" + userID
}

func (s *Store) Init() error           { return s.inner.Init() }
func (s *Store) Load() error           { return s.inner.Load() }
func (s *Store) Close() error          { return s.inner.Close() }
func (s *Store) GetConfigPath() string { return s.inner.GetConfigPath() }

// Inner returns the wrapped store.
func (s *Store) Inner() storage.Provider { return s.inner }

func (s *Store) LoadHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	key := Key(userID)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var habits []models.Habit
		jerr := json.Unmarshal(data, &habits)
		if jerr == nil {
			metrics.RecordCacheLookup("hit")
			return habits, nil
		}
		logger.Warn("Discarding unreadable cache entry", "key", key, "error", jerr)
		metrics.RecordCacheLookup("miss")
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("error")
		logger.Warn("Habit cache read failed, using store", "key", key, "error", err)
	}

	habits, err := s.inner.LoadHabits(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			logger.Warn("Habit cache write failed", "key", key, "error", err)
		}
	}
	return habits, nil
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	return s.inner.GetHabit(ctx, userID, habitID)
}

func (s *Store) CreateHabit(ctx context.Context, userID string, habit models.Habit) (models.Habit, error) {
	h, err := s.inner.CreateHabit(ctx, userID, habit)
	if err != nil {
		return models.Habit{}, err
	}
	s.invalidate(ctx, userID)
	return h, nil
}

func (s *Store) SaveHabit(ctx context.Context, userID string, habit models.Habit) error {
	if err := s.inner.SaveHabit(ctx, userID, habit); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, userID, habitID string) error {
	if err := s.inner.DeleteHabit(ctx, userID, habitID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Store) LoadEnrollments(ctx context.Context, userID string) ([]challenge.Enrollment, error) {
	return s.inner.LoadEnrollments(ctx, userID)
}

func (s *Store) GetEnrollment(ctx context.Context, userID, challengeID string) (challenge.Enrollment, error) {
	return s.inner.GetEnrollment(ctx, userID, challengeID)
}

func (s *Store) CreateEnrollment(ctx context.Context, userID string, e challenge.Enrollment, habits []models.Habit) ([]models.Habit, error) {
	created, err := s.inner.CreateEnrollment(ctx, userID, e, habits)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return created, nil
}

func (s *Store) AddChallengeHabits(ctx context.Context, userID string, habits []models.Habit) ([]models.Habit, error) {
	created, err := s.inner.AddChallengeHabits(ctx, userID, habits)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return created, nil
}

// ApplyEvaluation drops the cached list only when habits were deleted.
func (s *Store) ApplyEvaluation(ctx context.Context, userID string, e challenge.Enrollment, lifeLost bool) (int, error) {
	deleted, err := s.inner.ApplyEvaluation(ctx, userID, e, lifeLost)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.invalidate(ctx, userID)
	}
	return deleted, nil
}

func (s *Store) TakeLifeLostNotices(ctx context.Context, userID string) ([]string, error) {
	return s.inner.TakeLifeLostNotices(ctx, userID)
}

func (s *Store) invalidate(ctx context.Context, userID string) {
	if err := s.rdb.Del(ctx, Key(userID)).Err(); err != nil {
		logger.Warn("Habit cache invalidation failed", "user", userID, "error", err)
	}
}
