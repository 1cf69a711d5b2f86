package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/storage"
)

const morningWarrior = "morning_warrior"

func newChallenges(t *testing.T, f *fixture) *ChallengeService {
	t.Helper()
	cs, err := NewChallenges(f.store, f.svc, nil)
	require.NoError(t, err)
	return cs
}

func (f *fixture) completeAll(t *testing.T, ids []string) {
	t.Helper()
	for _, id := range ids {
		_, err := f.svc.Complete(context.Background(), id)
		require.NoError(t, err)
	}
}

func TestChallengeLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))
	cs := newChallenges(t, f)

	joined, err := cs.Join(ctx, morningWarrior)
	require.NoError(t, err)
	require.Len(t, joined.Habits, 5)
	require.NotNil(t, joined.Challenge.Enrollment)
	assert.Equal(t, "2024-01-01", joined.Challenge.Enrollment.StartDate)
	assert.Equal(t, challenge.DefaultLives, joined.Challenge.Enrollment.Lives)
	assert.Equal(t, 1, joined.Challenge.CurrentDay)
	assert.InDelta(t, 1.0/21, joined.Challenge.Progress, 1e-9)
	assert.Empty(t, joined.Challenge.MissingTemplates)
	assert.False(t, joined.Challenge.CompletedToday)

	keys := f.events.RoutingKeys()
	require.Len(t, keys, 6)
	assert.Equal(t, constants.EventChallengeEnrolled, keys[0])

	_, err = cs.Join(ctx, morningWarrior)
	assert.ErrorIs(t, err, challenge.ErrAlreadyEnrolled)

	ids := make([]string, len(joined.Habits))
	for i, h := range joined.Habits {
		ids[i] = h.ID
		assert.Equal(t, morningWarrior, h.SourceChallengeID)
	}

	// Day one: everything done.
	f.completeAll(t, ids)
	view, err := cs.Get(ctx, morningWarrior)
	require.NoError(t, err)
	assert.True(t, view.CompletedToday)

	// Day two: one habit skipped.
	f.set("2024-01-02", 10, 0)
	views, err := cs.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, morningWarrior, views[0].ID)
	require.NotNil(t, views[0].Enrollment)
	assert.Equal(t, 1, views[0].Enrollment.SuccessDays)
	assert.Equal(t, 2, views[0].CurrentDay)
	assert.Nil(t, views[1].Enrollment, "not joined")
	f.completeAll(t, ids[1:])

	f.set("2024-01-03", 10, 0)
	reports, err := cs.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, EvaluationReport{
		ChallengeID: morningWarrior,
		Status:      challenge.StatusActive,
		Lives:       2,
		LivesLost:   1,
	}, reports[0])
	assert.Contains(t, f.events.RoutingKeys(), constants.EventChallengeLifeLost)

	again, err := cs.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, again, "second evaluation on the same day")

	notices, err := cs.LifeLostNotices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{morningWarrior}, notices)
	notices, err = cs.LifeLostNotices(ctx)
	require.NoError(t, err)
	assert.Empty(t, notices)

	// Two more idle days use up the remaining lives.
	f.set("2024-01-05", 10, 0)
	reports, err = cs.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, challenge.StatusFailed, reports[0].Status)
	assert.Equal(t, 0, reports[0].Lives)
	assert.Equal(t, 5, reports[0].HabitsDeleted)
	assert.Contains(t, f.events.RoutingKeys(), constants.EventChallengeFailed)

	habits, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, habits)

	_, err = cs.AddMissing(ctx, morningWarrior)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// A failed challenge can be started over.
	rejoined, err := cs.Join(ctx, morningWarrior)
	require.NoError(t, err)
	assert.Len(t, rejoined.Habits, 5)
	assert.Equal(t, "2024-01-05", rejoined.Challenge.Enrollment.StartDate)
	assert.Equal(t, challenge.DefaultLives, rejoined.Challenge.Enrollment.Lives)
	assert.Zero(t, rejoined.Challenge.Enrollment.MissedDays)
}

func TestChallengeCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))
	cs := newChallenges(t, f)

	joined, err := cs.Join(ctx, morningWarrior)
	require.NoError(t, err)
	ids := make([]string, len(joined.Habits))
	for i, h := range joined.Habits {
		ids[i] = h.ID
	}

	f.completeAll(t, ids)
	for day := 2; day <= 21; day++ {
		f.set(fmt.Sprintf("2024-01-%02d", day), 10, 0)
		f.completeAll(t, ids)
	}

	f.set("2024-01-22", 10, 0)
	reports, err := cs.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, challenge.StatusCompleted, reports[0].Status)
	assert.Zero(t, reports[0].HabitsDeleted)
	assert.Contains(t, f.events.RoutingKeys(), constants.EventChallengeCompleted)

	view, err := cs.Get(ctx, morningWarrior)
	require.NoError(t, err)
	assert.Equal(t, 21, view.Enrollment.SuccessDays)
	assert.InDelta(t, 1.0, view.Progress, 1e-9)

	// Completed challenges keep their habits.
	habits, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, habits, 5)
}

func TestAddMissingChallengeHabits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))
	cs := newChallenges(t, f)

	joined, err := cs.Join(ctx, morningWarrior)
	require.NoError(t, err)
	deleted := joined.Habits[2]
	require.NoError(t, f.svc.Delete(ctx, deleted.ID))

	view, err := cs.Get(ctx, morningWarrior)
	require.NoError(t, err)
	assert.Equal(t, []string{deleted.SourceTemplateID}, view.MissingTemplates)

	added, err := cs.AddMissing(ctx, morningWarrior)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, deleted.Name, added[0].Name)
	assert.Equal(t, deleted.SourceTemplateID, added[0].SourceTemplateID)

	added, err = cs.AddMissing(ctx, morningWarrior)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestChallengeErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, identity.Static("user-1"))
	cs := newChallenges(t, f)

	_, err := cs.Join(ctx, "couch_potato")
	assert.ErrorIs(t, err, challenge.ErrUnknownChallenge)
	_, err = cs.Get(ctx, "couch_potato")
	assert.ErrorIs(t, err, challenge.ErrUnknownChallenge)

	_, err = cs.AddMissing(ctx, morningWarrior)
	assert.ErrorIs(t, err, storage.ErrEnrollmentNotFound)

	view, err := cs.Get(ctx, morningWarrior)
	require.NoError(t, err)
	assert.Nil(t, view.Enrollment)
	assert.Zero(t, view.CurrentDay)

	signedOut := newFixture(t, identity.Static(""))
	_, err = newChallenges(t, signedOut).List(ctx)
	assert.ErrorIs(t, err, identity.ErrNoUser)
}
