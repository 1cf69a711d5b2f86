// Package stats aggregates a user's habits into the numbers shown on the
// rewards screen and decides which badges they have earned.
package stats

import (
	"github.com/julianstephens/habithero/internal/models"
)

// Stat keys used in badge criteria.
const (
	KeyTotalCompleted = "totalCompleted"
	KeyHabitsCreated  = "habitsCreated"
	KeyActiveHabits   = "activeHabits"
	KeyCurrentStreak  = "currentStreak"
	KeyBestStreak     = "bestStreak"
)

// UserStats summarises all habits of one user.
type UserStats struct {
	TotalCompleted int            `json:"total_completed"`
	HabitsCreated  int            `json:"habits_created"`
	ActiveHabits   int            `json:"active_habits"`
	CurrentStreak  int            `json:"current_streak"`
	BestStreak     int            `json:"best_streak"`
	CategoryCounts map[string]int `json:"category_counts"`
}

// Compute derives stats from the stored habits. Deleted habits are gone from
// the store, so HabitsCreated equals ActiveHabits.
func Compute(habits []models.Habit) UserStats {
	s := UserStats{
		HabitsCreated:  len(habits),
		ActiveHabits:   len(habits),
		CategoryCounts: make(map[string]int),
	}
	for _, h := range habits {
		s.TotalCompleted += h.CompletionCount
		s.CurrentStreak = max(s.CurrentStreak, h.StreakCount)
		s.BestStreak = max(s.BestStreak, h.LongestStreak, h.StreakCount)
		s.CategoryCounts[h.Category]++
	}
	return s
}

// Value returns the stat named by key, or 0 for an unknown key.
func (s UserStats) Value(key string) int {
	switch key {
	case KeyTotalCompleted:
		return s.TotalCompleted
	case KeyHabitsCreated:
		return s.HabitsCreated
	case KeyActiveHabits:
		return s.ActiveHabits
	case KeyCurrentStreak:
		return s.CurrentStreak
	case KeyBestStreak:
		return s.BestStreak
	default:
		return 0
	}
}
