// Package service ties the streak engine to persistence, identity and event
// publishing. The CLI and the HTTP API both drive habits through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habithero/internal/catalog"
	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/events"
	"github.com/julianstephens/habithero/internal/identity"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/metrics"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/stats"
	"github.com/julianstephens/habithero/internal/storage"
	"github.com/julianstephens/habithero/internal/streak"
	"github.com/julianstephens/habithero/internal/utils"
)

// ErrInvalidInput marks user input that failed validation.
var ErrInvalidInput = errors.New("invalid input")

// StatusAlreadyCompleted is reported when a habit was already completed on
// the current calendar date. The habit is returned unchanged.
const StatusAlreadyCompleted = "already_completed"

// HabitView is a habit as shown on the home screen.
type HabitView struct {
	models.Habit
	Status       streak.Status `json:"status"`
	DueToday     bool          `json:"due_today"`
	NextDeadline time.Time     `json:"next_deadline"`
}

// CreateInput carries the user-editable fields of a new habit. Zero values
// take the creation defaults.
type CreateInput struct {
	Name                  string         `json:"name"`
	Category              string         `json:"category"`
	IconRef               string         `json:"icon_ref,omitempty"`
	Frequency             string         `json:"frequency,omitempty"`
	Weekdays              []time.Weekday `json:"weekdays,omitempty"`
	Deadline              string         `json:"deadline,omitempty"` // HH:MM
	DailyCompletionTarget int            `json:"daily_completion_target,omitempty"`
	ReminderTimes         []string       `json:"reminder_times,omitempty"`
}

// CompletionResult reports what a completion request did.
type CompletionResult struct {
	// Status is on_time, late or already_completed.
	Status   string       `json:"status"`
	Habit    models.Habit `json:"habit"`
	Deadline time.Time    `json:"deadline,omitzero"`
}

// Calendar lists the completion dates of one habit within a month.
type Calendar struct {
	HabitID string   `json:"habit_id"`
	Month   string   `json:"month"`
	Days    []string `json:"days"`
}

// Report is the rewards screen: aggregate stats and every badge.
type Report struct {
	Stats  stats.UserStats    `json:"stats"`
	Badges []stats.BadgeState `json:"badges"`
}

type HabitService struct {
	store     storage.HabitStore
	users     identity.Provider
	engine    *streak.Engine
	catalog   *catalog.Catalog
	publisher events.Publisher
	now       func() time.Time
}

type Option func(*HabitService)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *HabitService) { s.now = now }
}

// WithPublisher sets where habit events are sent. Defaults to events.Nop.
func WithPublisher(p events.Publisher) Option {
	return func(s *HabitService) { s.publisher = p }
}

// WithCatalog replaces the built-in category catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *HabitService) { s.catalog = c }
}

// New creates a habit service. The built-in catalog must parse.
func New(store storage.HabitStore, users identity.Provider, engine *streak.Engine, opts ...Option) (*HabitService, error) {
	s := &HabitService{
		store:     store,
		users:     users,
		engine:    engine,
		publisher: events.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = streak.New(nil)
	}
	if s.catalog == nil {
		c, err := catalog.Load()
		if err != nil {
			return nil, err
		}
		s.catalog = c
	}
	return s, nil
}

// Catalog returns the category catalog in use.
func (s *HabitService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Engine returns the streak engine in use.
func (s *HabitService) Engine() *streak.Engine {
	return s.engine
}

func (s *HabitService) userID(ctx context.Context) (string, error) {
	id, err := s.users.CurrentUserID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve current user: %w", err)
	}
	return id, nil
}

// reconcile clears a stale completed flag and persists the change.
func (s *HabitService) reconcile(ctx context.Context, userID string, h models.Habit, today string) (models.Habit, error) {
	updated, changed := s.engine.Evaluate(h, today)
	if !changed {
		return h, nil
	}
	if err := s.store.SaveHabit(ctx, userID, updated); err != nil {
		return h, fmt.Errorf("failed to save reconciled habit %s: %w", h.ID, err)
	}
	logger.Debug("Habit reset to pending", "habit", h.ID, "today", today)
	metrics.RecordReconciliations(1)
	return updated, nil
}

func (s *HabitService) view(h models.Habit, now time.Time) HabitView {
	return HabitView{
		Habit:        h,
		Status:       s.engine.Status(h, now),
		DueToday:     s.engine.IsDue(h, now),
		NextDeadline: s.engine.ComputeDeadline(h, now),
	}
}

// List returns the current user's habits, newest first, after reconciling
// each against today.
func (s *HabitService) List(ctx context.Context) ([]HabitView, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	habits, err := s.store.LoadHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	now := s.now()
	today := s.engine.CalendarDate(now)
	views := make([]HabitView, 0, len(habits))
	for _, h := range habits {
		h, err = s.reconcile(ctx, userID, h, today)
		if err != nil {
			return nil, err
		}
		views = append(views, s.view(h, now))
	}
	return views, nil
}

// Get returns one reconciled habit.
func (s *HabitService) Get(ctx context.Context, habitID string) (HabitView, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return HabitView{}, err
	}
	h, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return HabitView{}, fmt.Errorf("failed to load habit %s: %w", habitID, err)
	}
	now := s.now()
	h, err = s.reconcile(ctx, userID, h, s.engine.CalendarDate(now))
	if err != nil {
		return HabitView{}, err
	}
	return s.view(h, now), nil
}

// Build turns input into a validated, unsaved habit.
func (s *HabitService) Build(in CreateInput) (models.Habit, error) {
	h := models.NewHabit(in.Name, s.catalog.Normalize(in.Category))

	schedule, err := models.ParseSchedule(in.Frequency, in.Weekdays)
	if err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	h.Schedule = schedule

	if d := strings.TrimSpace(in.Deadline); d != "" {
		hour, minute, err := utils.ParseHourMinute(d)
		if err != nil {
			return models.Habit{}, fmt.Errorf("%w: invalid deadline: %v", ErrInvalidInput, err)
		}
		h.DeadlineHour, h.DeadlineMinute = hour, minute
	}
	if in.DailyCompletionTarget != 0 {
		h.DailyCompletionTarget = in.DailyCompletionTarget
	}
	h.ReminderTimes = in.ReminderTimes
	h.IconRef = strings.TrimSpace(in.IconRef)
	if h.IconRef == "" {
		h.IconRef = s.catalog.IconFor(h.Category)
	}

	if err := h.Validate(); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return h, nil
}

// Create stores a new habit for the current user.
func (s *HabitService) Create(ctx context.Context, in CreateInput) (models.Habit, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	h, err := s.Build(in)
	if err != nil {
		return models.Habit{}, err
	}
	h.CreatedAt = s.now()
	created, err := s.store.CreateHabit(ctx, userID, h)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to create habit: %w", err)
	}
	logger.Info("Habit created", "habit", created.ID, "category", created.Category)

	s.publish(ctx, constants.EventHabitCreated, s.event(created, ""))
	return created, nil
}

// Complete records a completion of habitID at the current time. A repeat on
// the same calendar date is not an error: it reports StatusAlreadyCompleted
// and leaves the habit untouched.
func (s *HabitService) Complete(ctx context.Context, habitID string) (CompletionResult, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return CompletionResult{}, err
	}
	h, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to load habit %s: %w", habitID, err)
	}

	now := s.now()
	h, err = s.reconcile(ctx, userID, h, s.engine.CalendarDate(now))
	if err != nil {
		return CompletionResult{}, err
	}

	res, err := s.engine.Complete(h, now)
	if errors.Is(err, streak.ErrAlreadyCompletedToday) {
		metrics.RecordCompletion(StatusAlreadyCompleted)
		logger.Debug("Habit already completed today", "habit", h.ID)
		return CompletionResult{Status: StatusAlreadyCompleted, Habit: h}, nil
	}
	if err != nil {
		return CompletionResult{}, fmt.Errorf("failed to complete habit %s: %w", habitID, err)
	}

	if err := s.store.SaveHabit(ctx, userID, res.Habit); err != nil {
		return CompletionResult{}, fmt.Errorf("failed to save habit %s: %w", habitID, err)
	}
	metrics.RecordCompletion(string(res.Outcome))
	logger.Info("Habit completed", "habit", h.ID, "outcome", res.Outcome, "streak", res.Habit.StreakCount)

	evt := s.event(res.Habit, res.Outcome)
	evt.Day = s.engine.CalendarDate(now)
	s.publish(ctx, constants.EventHabitCompleted, evt)

	return CompletionResult{Status: string(res.Outcome), Habit: res.Habit, Deadline: res.Deadline}, nil
}

// Delete removes a habit and its history.
func (s *HabitService) Delete(ctx context.Context, habitID string) error {
	userID, err := s.userID(ctx)
	if err != nil {
		return err
	}
	h, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return fmt.Errorf("failed to load habit %s: %w", habitID, err)
	}
	if err := s.store.DeleteHabit(ctx, userID, habitID); err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", habitID, err)
	}
	logger.Info("Habit deleted", "habit", habitID)

	s.publish(ctx, constants.EventHabitDeleted, s.event(h, ""))
	return nil
}

// Calendar returns the completion dates of habitID in month (YYYY-MM). An
// empty month means the current one.
func (s *HabitService) Calendar(ctx context.Context, habitID, month string) (Calendar, error) {
	if month == "" {
		month = s.now().In(s.engine.Location()).Format(constants.MonthFormat)
	}
	first, last, err := utils.MonthBounds(month)
	if err != nil {
		return Calendar{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	userID, err := s.userID(ctx)
	if err != nil {
		return Calendar{}, err
	}
	h, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to load habit %s: %w", habitID, err)
	}
	days := h.CompletedBetween(first, last)
	if days == nil {
		days = []string{}
	}
	return Calendar{HabitID: h.ID, Month: month, Days: days}, nil
}

// Stats aggregates the current user's habits and evaluates every badge.
func (s *HabitService) Stats(ctx context.Context) (Report, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return Report{}, err
	}
	habits, err := s.store.LoadHabits(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load habits: %w", err)
	}
	us := stats.Compute(habits)
	return Report{Stats: us, Badges: stats.Badges(us)}, nil
}

func (s *HabitService) event(h models.Habit, outcome streak.Outcome) events.HabitEvent {
	return events.HabitEvent{
		HabitID:         h.ID,
		UserID:          h.UserID,
		Name:            h.Name,
		Category:        h.Category,
		Outcome:         string(outcome),
		StreakCount:     h.StreakCount,
		CompletionCount: h.CompletionCount,
		OccurredAt:      s.now().UTC(),
	}
}

// publish never fails the caller; the habit change is already stored.
func (s *HabitService) publish(ctx context.Context, routingKey string, evt events.HabitEvent) {
	err := s.publisher.Publish(ctx, routingKey, evt)
	metrics.RecordEventPublished(routingKey, err)
	if err != nil {
		logger.Warn("Failed to publish event", "routing_key", routingKey, "habit", evt.HabitID, "err", err)
	}
}
