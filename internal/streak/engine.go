// Package streak owns the habit completion lifecycle: deciding whether a
// completion is on time, moving the streak counters, refusing a second
// completion on one calendar date, and clearing a stale completed flag once
// the period has rolled over.
//
// The engine is pure. It never performs I/O and never mutates the habit it is
// given; every operation returns a new value for the caller to persist.
package streak

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/utils"
)

var (
	// ErrAlreadyCompletedToday is returned when the habit already has a
	// completion on the current calendar date. It is an expected outcome.
	ErrAlreadyCompletedToday = errors.New("habit already completed today")
	// ErrInvalidPrecondition is returned when the engine is handed a habit
	// that was never persisted.
	ErrInvalidPrecondition = errors.New("habit has no identifier")
	// ErrCompletionAhead is returned when the history already holds a date
	// after the current calendar date, as happens when the clock or the
	// configured timezone moves backwards.
	ErrCompletionAhead = errors.New("habit has a completion dated after today")
)

// Outcome classifies an accepted completion.
type Outcome string

const (
	OutcomeOnTime Outcome = "on_time"
	OutcomeLate   Outcome = "late"
)

// Status is the derived per-day state shown when listing habits.
type Status string

const (
	StatusPending         Status = "pending"
	StatusCompletedOnTime Status = "completed_on_time"
	StatusCompletedLate   Status = "completed_late"
)

// Result is the outcome of a successful Complete call.
type Result struct {
	Habit    models.Habit
	Outcome  Outcome
	Deadline time.Time
}

// Engine applies the streak rules. Calendar dates are taken in loc.
type Engine struct {
	loc *time.Location
}

// New creates an engine whose calendar dates are computed in loc.
// A nil location means UTC.
func New(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location returns the timezone used for calendar dates.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// CalendarDate returns t's date in the engine location as YYYY-MM-DD.
func (e *Engine) CalendarDate(t time.Time) string {
	return t.In(e.loc).Format(constants.DateFormat)
}

// LastCompletionDate returns the most recent completion date of h, if any.
func (e *Engine) LastCompletionDate(h models.Habit) (string, bool) {
	return h.LastCompletionDate()
}

// ComputeDeadline returns the next deadline at or after ref: the habit's
// HH:MM on ref's date, pushed one calendar day forward when that instant is
// already behind ref.
func (e *Engine) ComputeDeadline(h models.Habit, ref time.Time) time.Time {
	local := ref.In(e.loc)
	deadline := time.Date(local.Year(), local.Month(), local.Day(), h.DeadlineHour, h.DeadlineMinute, 0, 0, e.loc)
	if deadline.Before(local) {
		deadline = time.Date(local.Year(), local.Month(), local.Day()+1, h.DeadlineHour, h.DeadlineMinute, 0, 0, e.loc)
	}
	return deadline
}

// Evaluate reconciles h against today (YYYY-MM-DD). A habit marked completed
// whose last completion is not today has rolled over and becomes pending.
// The second return value reports whether anything changed.
func (e *Engine) Evaluate(h models.Habit, today string) (models.Habit, bool) {
	if !h.Completed {
		return h, false
	}
	if last, ok := h.LastCompletionDate(); ok && last == today {
		return h, false
	}
	h.Completed = false
	return h, true
}

// Complete records a completion of h at now.
//
// The completion is on time when now is strictly before the deadline of the
// completion day. On-time completions extend the streak; late ones reset it.
// Both count toward the total.
func (e *Engine) Complete(h models.Habit, now time.Time) (Result, error) {
	if h.ID == "" {
		return Result{}, ErrInvalidPrecondition
	}

	today := e.CalendarDate(now)
	if last, ok := h.LastCompletionDate(); ok {
		switch {
		case last == today:
			return Result{}, ErrAlreadyCompletedToday
		case last > today:
			return Result{}, fmt.Errorf("%w: last completion %s, today %s", ErrCompletionAhead, last, today)
		}
	}

	deadline := e.ComputeDeadline(h, utils.StartOfDay(now.In(e.loc)))

	outcome := OutcomeOnTime
	if now.Before(deadline) {
		h.StreakCount++
	} else {
		outcome = OutcomeLate
		h.StreakCount = 0
	}
	h.CompletionCount++
	h.LongestStreak = max(h.LongestStreak, h.StreakCount)
	h.Completed = true

	// Copy so the caller's slice is never written through.
	dates := make([]string, 0, len(h.CompletionDates)+1)
	dates = append(dates, h.CompletionDates...)
	h.CompletionDates = append(dates, today)
	h.ReminderTimes = slices.Clone(h.ReminderTimes)
	h.Schedule.Weekdays = slices.Clone(h.Schedule.Weekdays)

	return Result{Habit: h, Outcome: outcome, Deadline: deadline}, nil
}

// Status derives the display state of h for the day containing now.
func (e *Engine) Status(h models.Habit, now time.Time) Status {
	last, ok := h.LastCompletionDate()
	if !ok || last != e.CalendarDate(now) {
		return StatusPending
	}
	if h.StreakCount == 0 {
		return StatusCompletedLate
	}
	return StatusCompletedOnTime
}

// IsDue reports whether h is scheduled on the calendar date containing now.
func (e *Engine) IsDue(h models.Habit, now time.Time) bool {
	return h.Schedule.IsDueOn(now.In(e.loc).Weekday())
}
