package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/events"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/storage"
	"github.com/julianstephens/habithero/internal/storage/sqlite"
	"github.com/julianstephens/habithero/internal/streak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	svc    *HabitService
	store  *sqlite.Store
	events *events.Memory
	now    time.Time
}

func (f *fixture) set(day string, hour, minute int) {
	d, err := time.ParseInLocation(constants.DateFormat, day, time.UTC)
	if err != nil {
		panic(err)
	}
	f.now = d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newFixture(t *testing.T, user identity.Provider) *fixture {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habithero.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, events: &events.Memory{}}
	f.set("2024-01-01", 9, 0)
	svc, err := New(store, user, streak.New(time.UTC),
		WithClock(func() time.Time { return f.now }),
		WithPublisher(f.events),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestHabitWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	h, err := f.svc.Create(ctx, CreateInput{Name: "Meditate", Category: "mindfulness & well-being", Deadline: "20:00"})
	require.NoError(t, err)
	assert.Equal(t, "Mindfulness & Well-being", h.Category)
	assert.Equal(t, "user-1", h.UserID)

	f.set("2024-01-01", 14, 0)
	res, err := f.svc.Complete(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, string(streak.OutcomeOnTime), res.Status)
	assert.Equal(t, 1, res.Habit.StreakCount)
	assert.Equal(t, 1, res.Habit.CompletionCount)

	// Second completion on the same day is informational.
	f.set("2024-01-01", 18, 0)
	again, err := f.svc.Complete(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyCompleted, again.Status)
	assert.Equal(t, 1, again.Habit.StreakCount)
	assert.Equal(t, 1, again.Habit.CompletionCount)

	// The next day the habit is pending again but keeps its streak.
	f.set("2024-01-02", 8, 0)
	views, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Completed)
	assert.Equal(t, streak.StatusPending, views[0].Status)
	assert.Equal(t, 1, views[0].StreakCount)
	assert.True(t, views[0].DueToday)

	// Reconciliation was persisted.
	got, err := f.svc.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	f.set("2024-01-02", 21, 0)
	late, err := f.svc.Complete(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, string(streak.OutcomeLate), late.Status)
	assert.Equal(t, 0, late.Habit.StreakCount)
	assert.Equal(t, 2, late.Habit.CompletionCount)
	assert.Equal(t, 1, late.Habit.LongestStreak)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, late.Habit.CompletionDates)

	assert.Equal(t, []string{
		constants.EventHabitCreated,
		constants.EventHabitCompleted,
		constants.EventHabitCompleted,
	}, f.events.RoutingKeys())
}

func TestCreateAppliesCatalogDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	h, err := f.svc.Create(ctx, CreateInput{Name: "Go for a 30-minute walk", Category: "Health & Fitness"})
	require.NoError(t, err)
	assert.Equal(t, "icons/health.png", h.IconRef)
	assert.Equal(t, constants.DefaultDeadlineHour, h.DeadlineHour)
	assert.Equal(t, constants.FrequencyDaily, h.Schedule.Frequency)

	custom, err := f.svc.Create(ctx, CreateInput{Name: "Call grandma", IconRef: "icons/phone.png"})
	require.NoError(t, err)
	assert.Equal(t, constants.CustomCategory, custom.Category)
	assert.Equal(t, "icons/phone.png", custom.IconRef)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Name: "  "}},
		{"weekly without weekday", CreateInput{Name: "Run", Frequency: "weekly"}},
		{"unknown frequency", CreateInput{Name: "Run", Frequency: "hourly"}},
		{"bad deadline", CreateInput{Name: "Run", Deadline: "9pm"}},
		{"bad reminder", CreateInput{Name: "Run", ReminderTimes: []string{"25:00"}}},
		{"negative target", CreateInput{Name: "Run", DailyCompletionTarget: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, f.events.Messages())
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	_, err := f.svc.Create(ctx, CreateInput{Name: "First"})
	require.NoError(t, err)
	f.set("2024-01-01", 10, 0)
	_, err = f.svc.Create(ctx, CreateInput{Name: "Second"})
	require.NoError(t, err)

	views, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Second", views[0].Name)
	assert.Equal(t, "First", views[1].Name)
}

func TestRequiresUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static(""))

	_, err := f.svc.List(ctx)
	assert.ErrorIs(t, err, identity.ErrNoUser)
	_, err = f.svc.Create(ctx, CreateInput{Name: "Run"})
	assert.ErrorIs(t, err, identity.ErrNoUser)
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.ContextProvider{})

	alice := identity.WithUserID(ctx, "alice")
	bob := identity.WithUserID(ctx, "bob")

	h, err := f.svc.Create(alice, CreateInput{Name: "Journal"})
	require.NoError(t, err)

	views, err := f.svc.List(bob)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.svc.Complete(bob, h.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	h, err := f.svc.Create(ctx, CreateInput{Name: "Read"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, h.ID))

	_, err = f.svc.Get(ctx, h.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, h.ID), storage.ErrNotFound)
	assert.Equal(t, []string{constants.EventHabitCreated, constants.EventHabitDeleted}, f.events.RoutingKeys())
}

func TestCalendar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	h, err := f.svc.Create(ctx, CreateInput{Name: "Stretch"})
	require.NoError(t, err)
	for _, day := range []string{"2024-01-30", "2024-01-31", "2024-02-01"} {
		f.set(day, 7, 0)
		_, err := f.svc.Complete(ctx, h.ID)
		require.NoError(t, err)
	}

	jan, err := f.svc.Calendar(ctx, h.ID, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-30", "2024-01-31"}, jan.Days)

	current, err := f.svc.Calendar(ctx, h.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-02", current.Month)
	assert.Equal(t, []string{"2024-02-01"}, current.Days)

	empty, err := f.svc.Calendar(ctx, h.ID, "2023-12")
	require.NoError(t, err)
	assert.NotNil(t, empty.Days)
	assert.Empty(t, empty.Days)

	_, err = f.svc.Calendar(ctx, h.ID, "January")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))

	h, err := f.svc.Create(ctx, CreateInput{Name: "Walk", Category: "Health & Fitness"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateInput{Name: "Sketch", Category: "Creativity & Expression"})
	require.NoError(t, err)

	for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		f.set(day, 7, 0)
		_, err := f.svc.Complete(ctx, h.ID)
		require.NoError(t, err)
	}

	report, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Stats.TotalCompleted)
	assert.Equal(t, 2, report.Stats.ActiveHabits)
	assert.Equal(t, 3, report.Stats.BestStreak)
	assert.Equal(t, 1, report.Stats.CategoryCounts["Health & Fitness"])

	earned := map[string]bool{}
	for _, b := range report.Badges {
		earned[b.ID] = b.Earned
	}
	assert.True(t, earned["streak_3"])
	assert.False(t, earned["streak_7"])
	assert.False(t, earned["active_3"])
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) error {
	return errors.New("broker unavailable")
}

func TestPublishFailureDoesNotFailAction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))
	f.svc.publisher = failingPublisher{}

	h, err := f.svc.Create(ctx, CreateInput{Name: "Water plants"})
	require.NoError(t, err)
	res, err := f.svc.Complete(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Habit.CompletionCount)
}
