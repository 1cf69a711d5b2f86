package challenge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habithero/internal/models"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	var ids []string
	for _, ch := range c.Challenges {
		ids = append(ids, ch.ID)
		assert.Len(t, ch.Habits, 5, "challenge %s", ch.ID)
	}
	if diff := cmp.Diff([]string{"morning_warrior", "productivity_master"}, ids); diff != "" {
		t.Errorf("challenge ids mismatch (-want +got):\n%s", diff)
	}

	mw, err := c.Get("morning_warrior")
	require.NoError(t, err)
	assert.Equal(t, 21, mw.DurationDays)
	assert.Equal(t, "meditate", mw.Habits[0].ID)

	_, err = c.Get("couch_potato")
	assert.ErrorIs(t, err, ErrUnknownChallenge)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := map[string]string{
		"duplicate id": `
challenges:
  - {id: a, duration_days: 3, habits: [{id: x, name: X, deadline: "08:00"}]}
  - {id: a, duration_days: 3, habits: [{id: x, name: X, deadline: "08:00"}]}
`,
		"zero duration": `
challenges:
  - {id: a, duration_days: 0, habits: [{id: x, name: X, deadline: "08:00"}]}
`,
		"no habits": `
challenges:
  - {id: a, duration_days: 3}
`,
		"duplicate template": `
challenges:
  - {id: a, duration_days: 3, habits: [{id: x, name: X, deadline: "08:00"}, {id: x, name: Y, deadline: "09:00"}]}
`,
		"bad deadline": `
challenges:
  - {id: a, duration_days: 3, habits: [{id: x, name: X, deadline: "8am"}]}
`,
		"not yaml": `challenges: [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestTemplateHabit(t *testing.T) {
	tpl := Template{ID: "plan_day", Name: "Plan Your Day", Category: "Productivity", Emoji: "📅", Deadline: "08:15"}
	h, err := tpl.Habit("productivity_master")
	require.NoError(t, err)

	assert.Equal(t, "Plan Your Day", h.Name)
	assert.Equal(t, 8, h.DeadlineHour)
	assert.Equal(t, 15, h.DeadlineMinute)
	assert.Equal(t, "📅", h.IconRef)
	assert.Equal(t, "productivity_master", h.SourceChallengeID)
	assert.Equal(t, "plan_day", h.SourceTemplateID)
	require.NoError(t, h.Validate())
}

func TestMissingTemplates(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	ch, err := c.Get("productivity_master")
	require.NoError(t, err)

	var habits []models.Habit
	for _, tpl := range ch.Habits[1:] {
		h, err := tpl.Habit(ch.ID)
		require.NoError(t, err)
		habits = append(habits, h)
	}
	// Same template ID under another challenge does not count.
	other, err := ch.Habits[0].Habit("morning_warrior")
	require.NoError(t, err)
	habits = append(habits, other)

	missing := ch.MissingTemplates(habits)
	require.Len(t, missing, 1)
	assert.Equal(t, "plan_day", missing[0].ID)

	assert.Len(t, ch.MissingTemplates(nil), len(ch.Habits))
}
