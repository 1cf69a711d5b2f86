// Package challenge holds the multi-day challenges a user can join and the
// lives rule that ends a challenge after too many missed days.
package challenge

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/models"
)

// Status is the lifecycle state of an enrollment.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultLives is the number of lives a new enrollment starts with.
const DefaultLives = 3

var (
	ErrUnknownChallenge = errors.New("unknown challenge")
	ErrAlreadyEnrolled  = errors.New("already enrolled in challenge")
)

// Enrollment is one user's run through a challenge.
type Enrollment struct {
	ChallengeID  string `json:"challenge_id"`
	UserID       string `json:"user_id"`
	Status       Status `json:"status"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	DurationDays int    `json:"duration_days"`
	SuccessDays  int    `json:"success_days"`
	MissedDays   int    `json:"missed_days"`
	Lives        int    `json:"lives"`
	// LastEvaluatedDate is the calendar date of the last evaluation. Days
	// before it have been judged.
	LastEvaluatedDate string `json:"last_evaluated_date,omitempty"`
}

// NewEnrollment starts ch on today with a full set of lives.
func NewEnrollment(ch Challenge, userID, today string) Enrollment {
	return Enrollment{
		ChallengeID:  ch.ID,
		UserID:       userID,
		Status:       StatusActive,
		StartDate:    today,
		DurationDays: ch.DurationDays,
		Lives:        DefaultLives,
	}
}

// Validate checks field ranges and date formats.
func (e Enrollment) Validate() error {
	if e.ChallengeID == "" {
		return fmt.Errorf("enrollment has no challenge id")
	}
	switch e.Status {
	case StatusActive, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("unknown enrollment status %q", e.Status)
	}
	if _, err := time.Parse(constants.DateFormat, e.StartDate); err != nil {
		return fmt.Errorf("invalid start date %q: %w", e.StartDate, err)
	}
	if e.LastEvaluatedDate != "" {
		if _, err := time.Parse(constants.DateFormat, e.LastEvaluatedDate); err != nil {
			return fmt.Errorf("invalid last evaluated date %q: %w", e.LastEvaluatedDate, err)
		}
	}
	if e.DurationDays < 1 {
		return fmt.Errorf("duration must be at least one day, got %d", e.DurationDays)
	}
	if e.Lives < 0 || e.Lives > DefaultLives {
		return fmt.Errorf("lives must be between 0 and %d, got %d", DefaultLives, e.Lives)
	}
	if e.SuccessDays < 0 || e.MissedDays < 0 {
		return fmt.Errorf("day counters cannot be negative")
	}
	return nil
}

// CurrentDay is the 1-based day of the challenge that today falls on,
// clamped to [1, DurationDays].
func (e Enrollment) CurrentDay(today string) int {
	n, err := daysBetween(e.StartDate, today)
	if err != nil || n < 0 {
		return 1
	}
	return min(n+1, e.DurationDays)
}

// Progress is CurrentDay as a fraction of the duration.
func (e Enrollment) Progress(today string) float64 {
	if e.DurationDays < 1 {
		return 0
	}
	if e.Status == StatusCompleted {
		return 1
	}
	return float64(e.CurrentDay(today)) / float64(e.DurationDays)
}

// Linked returns the habits created from the enrollment's challenge.
func (e Enrollment) Linked(habits []models.Habit) []models.Habit {
	var linked []models.Habit
	for _, h := range habits {
		if h.SourceChallengeID == e.ChallengeID {
			linked = append(linked, h)
		}
	}
	return linked
}

// Evaluation is the outcome of judging the days since the last evaluation.
type Evaluation struct {
	Enrollment Enrollment
	// Judged is the number of calendar days decided by this evaluation.
	Judged    int
	LivesLost int
	Failed    bool
	Completed bool
}

// Changed reports whether the enrollment needs to be stored.
func (ev Evaluation) Changed() bool {
	return ev.Judged > 0
}

// Evaluate judges every day from the last evaluation (or the start date) up
// to but excluding today. A day succeeds when the challenge has linked habits
// and every one of them was completed on it; any other day costs a life. The
// enrollment fails when its lives run out and completes once DurationDays
// days have been judged. Inactive enrollments and a second evaluation on the
// same day are returned unchanged.
func Evaluate(e Enrollment, habits []models.Habit, today string) (Evaluation, error) {
	ev := Evaluation{Enrollment: e}
	if e.Status != StatusActive || e.LastEvaluatedDate == today {
		return ev, nil
	}

	from := e.StartDate
	if e.LastEvaluatedDate != "" {
		from = e.LastEvaluatedDate
	}
	day, err := time.Parse(constants.DateFormat, from)
	if err != nil {
		return ev, fmt.Errorf("invalid evaluation start %q: %w", from, err)
	}
	end, err := time.Parse(constants.DateFormat, today)
	if err != nil {
		return ev, fmt.Errorf("invalid date %q: %w", today, err)
	}
	if !day.Before(end) {
		// Nothing to judge yet, or the clock moved backwards.
		return ev, nil
	}

	linked := e.Linked(habits)
	for ; day.Before(end); day = day.AddDate(0, 0, 1) {
		ev.Judged++
		if allCompletedOn(linked, day.Format(constants.DateFormat)) {
			e.SuccessDays++
		} else {
			e.MissedDays++
			e.Lives--
			ev.LivesLost++
		}
		if e.Lives <= 0 {
			e.Lives = 0
			e.Status = StatusFailed
			ev.Failed = true
			break
		}
		if e.SuccessDays+e.MissedDays >= e.DurationDays {
			e.Status = StatusCompleted
			ev.Completed = true
			break
		}
	}
	e.LastEvaluatedDate = today
	ev.Enrollment = e
	return ev, nil
}

func allCompletedOn(habits []models.Habit, day string) bool {
	if len(habits) == 0 {
		return false
	}
	for _, h := range habits {
		if _, found := slices.BinarySearch(h.CompletionDates, day); !found {
			return false
		}
	}
	return true
}

func daysBetween(from, to string) (int, error) {
	a, err := time.Parse(constants.DateFormat, from)
	if err != nil {
		return 0, err
	}
	b, err := time.Parse(constants.DateFormat, to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}
