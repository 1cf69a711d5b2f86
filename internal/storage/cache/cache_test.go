package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/storage/sqlite"
)

// unreachableClient points at a port nothing listens on so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestKey(t *testing.T) {
	assert.Equal(t, "habithero:habits:user-1", Key("user-1"))
}

func TestFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	inner := sqlite.NewStore(filepath.Join(t.TempDir(), "habithero.db"))
	store := New(inner, unreachableClient(t), 0)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	created, err := store.CreateHabit(ctx, "user-1", models.NewHabit("Learn a new word", "Learning & Growth"))
	require.NoError(t, err)

	habits, err := store.LoadHabits(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, created.ID, habits[0].ID)

	created.Completed = true
	created.StreakCount = 1
	created.LongestStreak = 1
	created.CompletionCount = 1
	created.CompletionDates = []string{"2024-01-01"}
	require.NoError(t, store.SaveHabit(ctx, "user-1", created))

	got, err := store.GetHabit(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StreakCount)

	require.NoError(t, store.DeleteHabit(ctx, "user-1", created.ID))
	habits, err = store.LoadHabits(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func TestChallengeCallsPassThrough(t *testing.T) {
	ctx := context.Background()
	inner := sqlite.NewStore(filepath.Join(t.TempDir(), "habithero.db"))
	store := New(inner, unreachableClient(t), 0)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	catalog, err := challenge.Load()
	require.NoError(t, err)
	ch, err := catalog.Get("morning_warrior")
	require.NoError(t, err)
	h, err := ch.Habits[0].Habit(ch.ID)
	require.NoError(t, err)

	e := challenge.NewEnrollment(ch, "user-1", "2024-03-01")
	created, err := store.CreateEnrollment(ctx, "user-1", e, []models.Habit{h})
	require.NoError(t, err)
	require.Len(t, created, 1)

	got, err := store.GetEnrollment(ctx, "user-1", ch.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	e.Status = challenge.StatusFailed
	e.Lives = 0
	e.MissedDays = 3
	deleted, err := store.ApplyEvaluation(ctx, "user-1", e, true)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	notices, err := store.TakeLifeLostNotices(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{ch.ID}, notices)

	enrollments, err := store.LoadEnrollments(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, challenge.StatusFailed, enrollments[0].Status)
}

func TestLifecyclePassThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habithero.db")
	inner := sqlite.NewStore(path)
	store := New(inner, unreachableClient(t), time.Minute)

	assert.Equal(t, path, store.GetConfigPath())
	assert.Same(t, inner, store.Inner())
	require.NoError(t, store.Init())
	require.NoError(t, store.Load())
	require.NoError(t, store.Close())
}
