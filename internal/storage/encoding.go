package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habithero/internal/models"
)

var (
	// ErrNotFound is returned when a habit does not exist for the user.
	ErrNotFound = errors.New("habit not found")
	// ErrEnrollmentNotFound is returned when the user has not joined a challenge.
	ErrEnrollmentNotFound = errors.New("challenge enrollment not found")
	// ErrNotInitialized is returned by Load when the database was never created.
	ErrNotInitialized = errors.New("storage not initialized, run 'habithero init' first")
)

// PrepareNew stamps a habit for insertion: fresh ID, owner and creation time.
// Missing collections are normalised so the stored row never holds null.
func PrepareNew(userID string, h models.Habit, now time.Time) (models.Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Habit{}, fmt.Errorf("user id cannot be empty")
	}
	h.ID = uuid.New().String()
	h.UserID = userID
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	// Microseconds is the finest precision both backends keep.
	h.CreatedAt = h.CreatedAt.UTC().Truncate(time.Microsecond)
	if h.CompletionDates == nil {
		h.CompletionDates = []string{}
	}
	if err := h.Validate(); err != nil {
		return models.Habit{}, fmt.Errorf("invalid habit: %w", err)
	}
	return h, nil
}

// EncodeWeekdays stores a weekday set as a JSON array of day numbers.
func EncodeWeekdays(days []time.Weekday) (string, error) {
	if days == nil {
		days = []time.Weekday{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("failed to encode weekdays: %w", err)
	}
	return string(b), nil
}

// DecodeWeekdays is the inverse of EncodeWeekdays.
func DecodeWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	var days []time.Weekday
	if err := json.Unmarshal([]byte(s), &days); err != nil {
		return nil, fmt.Errorf("failed to decode weekdays %q: %w", s, err)
	}
	if len(days) == 0 {
		return nil, nil
	}
	return days, nil
}

// EncodeStrings stores a string list as a JSON array.
func EncodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

// DecodeStrings is the inverse of EncodeStrings.
func DecodeStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("failed to decode list %q: %w", s, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// Record is the column form of a habit shared by the SQL backends. Completion
// dates and the creation time are stored by each backend in its own types.
type Record struct {
	ID                    string
	UserID                string
	Name                  string
	Category              string
	IconRef               string
	Frequency             string
	Weekdays              string
	DeadlineHour          int
	DeadlineMinute        int
	DailyCompletionTarget int
	ReminderTimes         string
	Completed             bool
	StreakCount           int
	LongestStreak         int
	CompletionCount       int
	SourceChallengeID     string
	SourceTemplateID      string
}

// EncodeHabit flattens h into its column form.
func EncodeHabit(h models.Habit) (Record, error) {
	weekdays, err := EncodeWeekdays(h.Schedule.Weekdays)
	if err != nil {
		return Record{}, err
	}
	reminders, err := EncodeStrings(h.ReminderTimes)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:                    h.ID,
		UserID:                h.UserID,
		Name:                  h.Name,
		Category:              h.Category,
		IconRef:               h.IconRef,
		Frequency:             string(h.Schedule.Frequency),
		Weekdays:              weekdays,
		DeadlineHour:          h.DeadlineHour,
		DeadlineMinute:        h.DeadlineMinute,
		DailyCompletionTarget: h.DailyCompletionTarget,
		ReminderTimes:         reminders,
		Completed:             h.Completed,
		StreakCount:           h.StreakCount,
		LongestStreak:         h.LongestStreak,
		CompletionCount:       h.CompletionCount,
		SourceChallengeID:     h.SourceChallengeID,
		SourceTemplateID:      h.SourceTemplateID,
	}, nil
}

// Decode rebuilds the habit from its columns plus the backend-specific parts.
func (r Record) Decode(createdAt time.Time, completionDates []string) (models.Habit, error) {
	weekdays, err := DecodeWeekdays(r.Weekdays)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", r.ID, err)
	}
	schedule, err := models.ParseSchedule(r.Frequency, weekdays)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", r.ID, err)
	}
	reminders, err := DecodeStrings(r.ReminderTimes)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", r.ID, err)
	}
	if completionDates == nil {
		completionDates = []string{}
	}
	return models.Habit{
		ID:                    r.ID,
		UserID:                r.UserID,
		Name:                  r.Name,
		Category:              r.Category,
		IconRef:               r.IconRef,
		Schedule:              schedule,
		DeadlineHour:          r.DeadlineHour,
		DeadlineMinute:        r.DeadlineMinute,
		DailyCompletionTarget: r.DailyCompletionTarget,
		ReminderTimes:         reminders,
		Completed:             r.Completed,
		StreakCount:           r.StreakCount,
		LongestStreak:         r.LongestStreak,
		CompletionCount:       r.CompletionCount,
		CompletionDates:       completionDates,
		CreatedAt:             createdAt,
		SourceChallengeID:     r.SourceChallengeID,
		SourceTemplateID:      r.SourceTemplateID,
	}, nil
}
