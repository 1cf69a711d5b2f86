package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habithero/internal/constants"
)

// Habit represents a recurring practice a user tracks
type Habit struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Name                  string    `json:"name"`
	Category              string    `json:"category"`
	IconRef               string    `json:"icon_ref,omitempty"`
	Schedule              Schedule  `json:"schedule"`
	DeadlineHour          int       `json:"deadline_hour"`
	DeadlineMinute        int       `json:"deadline_minute"`
	DailyCompletionTarget int       `json:"daily_completion_target"`
	ReminderTimes         []string  `json:"reminder_times,omitempty"` // HH:MM format
	Completed             bool      `json:"completed"`
	StreakCount           int       `json:"streak_count"`
	LongestStreak         int       `json:"longest_streak"`
	CompletionCount       int       `json:"completion_count"`
	CompletionDates       []string  `json:"completion_dates"` // YYYY-MM-DD format, ascending
	CreatedAt             time.Time `json:"created_at"`
	// SourceChallengeID and SourceTemplateID link a habit to the challenge
	// template it was created from. Both are empty for user habits.
	SourceChallengeID string `json:"source_challenge_id,omitempty"`
	SourceTemplateID  string `json:"source_template_id,omitempty"`
}

// NewHabit returns a habit with the creation defaults applied.
func NewHabit(name, category string) Habit {
	return Habit{
		Name:                  strings.TrimSpace(name),
		Category:              strings.TrimSpace(category),
		Schedule:              NewDailySchedule(),
		DeadlineHour:          constants.DefaultDeadlineHour,
		DeadlineMinute:        constants.DefaultDeadlineMinute,
		DailyCompletionTarget: constants.DefaultDailyCompletionTarget,
		CompletionDates:       []string{},
	}
}

// Validate checks the field ranges and completion history invariants.
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("habit name cannot be empty")
	}
	if h.DeadlineHour < 0 || h.DeadlineHour > 23 {
		return fmt.Errorf("deadline hour must be between 0 and 23, got %d", h.DeadlineHour)
	}
	if h.DeadlineMinute < 0 || h.DeadlineMinute > 59 {
		return fmt.Errorf("deadline minute must be between 0 and 59, got %d", h.DeadlineMinute)
	}
	if h.DailyCompletionTarget < 1 {
		return fmt.Errorf("daily completion target must be at least 1, got %d", h.DailyCompletionTarget)
	}
	if err := h.Schedule.Validate(); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	for _, rt := range h.ReminderTimes {
		if _, err := time.Parse(constants.TimeFormat, rt); err != nil {
			return fmt.Errorf("invalid reminder time %q (expected HH:MM): %w", rt, err)
		}
	}
	if h.StreakCount < 0 || h.CompletionCount < 0 || h.LongestStreak < 0 {
		return fmt.Errorf("streak and completion counters cannot be negative")
	}

	prev := ""
	for _, day := range h.CompletionDates {
		if _, err := time.Parse(constants.DateFormat, day); err != nil {
			return fmt.Errorf("invalid completion date %q (expected YYYY-MM-DD): %w", day, err)
		}
		// Dates are fixed-width, so string order is chronological order
		if day <= prev {
			return fmt.Errorf("completion dates must be strictly increasing: %s follows %s", day, prev)
		}
		prev = day
	}

	return nil
}

// LastCompletionDate returns the most recent completion date, if any.
func (h *Habit) LastCompletionDate() (string, bool) {
	if len(h.CompletionDates) == 0 {
		return "", false
	}
	return h.CompletionDates[len(h.CompletionDates)-1], true
}

// Deadline returns the daily cutoff formatted as HH:MM.
func (h *Habit) Deadline() string {
	return fmt.Sprintf("%02d:%02d", h.DeadlineHour, h.DeadlineMinute)
}

// CompletedBetween returns the completion dates within [startDay, endDay].
func (h *Habit) CompletedBetween(startDay, endDay string) []string {
	var days []string
	for _, day := range h.CompletionDates {
		if day >= startDay && day <= endDay {
			days = append(days, day)
		}
	}
	return days
}
