package stats

import (
	"fmt"
	"sort"
)

// Badge groups.
const (
	GroupStreaks   = "Streaks"
	GroupActive    = "Active Habits"
	GroupCompleted = "Completed Habits"
)

// Badge is an achievement unlocked when every criterion is met.
type Badge struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Group       string         `json:"group"`
	SortOrder   int            `json:"sort_order"`
	Criteria    map[string]int `json:"criteria"`
}

// BadgeState pairs a badge with whether the user holds it.
type BadgeState struct {
	Badge
	Earned bool `json:"earned"`
}

var (
	streakThresholds    = []int{1, 3, 7, 14, 30, 100, 365}
	activeThresholds    = []int{1, 3, 5, 7, 10}
	completedThresholds = []int{1, 10, 25, 50, 100, 500, 1000}
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Catalog returns every badge, grouped and in display order.
func Catalog() []Badge {
	var badges []Badge
	for i, n := range streakThresholds {
		badges = append(badges, Badge{
			ID:          fmt.Sprintf("streak_%d", n),
			Name:        fmt.Sprintf("Streak %d %s", n, plural(n, "Day", "Days")),
			Description: fmt.Sprintf("Achieve a %d-day streak.", n),
			Group:       GroupStreaks,
			SortOrder:   i + 1,
			Criteria:    map[string]int{KeyBestStreak: n},
		})
	}
	for i, n := range activeThresholds {
		badges = append(badges, Badge{
			ID:          fmt.Sprintf("active_%d", n),
			Name:        fmt.Sprintf("%d Active %s", n, plural(n, "Habit", "Habits")),
			Description: fmt.Sprintf("Have %d active %s.", n, plural(n, "habit", "habits")),
			Group:       GroupActive,
			SortOrder:   i + 1,
			Criteria:    map[string]int{KeyActiveHabits: n},
		})
	}
	for i, n := range completedThresholds {
		badges = append(badges, Badge{
			ID:          fmt.Sprintf("complete_%d", n),
			Name:        fmt.Sprintf("%d %s Completed", n, plural(n, "Habit", "Habits")),
			Description: fmt.Sprintf("Complete habits %d %s.", n, plural(n, "time", "times")),
			Group:       GroupCompleted,
			SortOrder:   i + 1,
			Criteria:    map[string]int{KeyTotalCompleted: n},
		})
	}
	return badges
}

// Evaluate reports whether s meets every criterion of b. A badge without
// criteria is never earned.
func Evaluate(s UserStats, b Badge) bool {
	if len(b.Criteria) == 0 {
		return false
	}
	for key, required := range b.Criteria {
		if s.Value(key) < required {
			return false
		}
	}
	return true
}

// Badges evaluates the full catalog against s.
func Badges(s UserStats) []BadgeState {
	catalog := Catalog()
	states := make([]BadgeState, len(catalog))
	for i, b := range catalog {
		states[i] = BadgeState{Badge: b, Earned: Evaluate(s, b)}
	}
	sort.SliceStable(states, func(i, j int) bool {
		if states[i].Group != states[j].Group {
			return groupRank(states[i].Group) < groupRank(states[j].Group)
		}
		return states[i].SortOrder < states[j].SortOrder
	})
	return states
}

func groupRank(group string) int {
	switch group {
	case GroupStreaks:
		return 0
	case GroupActive:
		return 1
	default:
		return 2
	}
}

// Earned filters states down to the badges the user holds.
func Earned(states []BadgeState) []Badge {
	var out []Badge
	for _, s := range states {
		if s.Earned {
			out = append(out, s.Badge)
		}
	}
	return out
}
