package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/constants"
	"github.com/julianstephens/habithero/internal/events"
	"github.com/julianstephens/habithero/internal/logger"
	"github.com/julianstephens/habithero/internal/metrics"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/storage"
)

// ChallengeView is a catalog challenge with the user's progress in it.
type ChallengeView struct {
	challenge.Challenge
	Enrollment *challenge.Enrollment `json:"enrollment,omitempty"`
	CurrentDay int                   `json:"current_day,omitempty"`
	Progress   float64               `json:"progress"`
	// CompletedToday is set when every linked habit is done today.
	CompletedToday bool `json:"completed_today"`
	// MissingTemplates lists templates with no linked habit, typically
	// because the user deleted it.
	MissingTemplates []string `json:"missing_templates,omitempty"`
}

// JoinResult reports an enrollment and the habits it added.
type JoinResult struct {
	Challenge ChallengeView  `json:"challenge"`
	Habits    []models.Habit `json:"habits"`
}

// EvaluationReport is what one evaluation did to one enrollment.
type EvaluationReport struct {
	ChallengeID   string           `json:"challenge_id"`
	Status        challenge.Status `json:"status"`
	Lives         int              `json:"lives"`
	LivesLost     int              `json:"lives_lost"`
	HabitsDeleted int              `json:"habits_deleted,omitempty"`
}

// ChallengeService runs challenges on top of the habit service's clock,
// identity and publisher.
type ChallengeService struct {
	habits  *HabitService
	store   storage.Store
	catalog *challenge.Catalog
}

// NewChallenges creates a challenge service. A nil catalog loads the
// built-in challenges.
func NewChallenges(store storage.Store, habits *HabitService, catalog *challenge.Catalog) (*ChallengeService, error) {
	if catalog == nil {
		c, err := challenge.Load()
		if err != nil {
			return nil, err
		}
		catalog = c
	}
	return &ChallengeService{habits: habits, store: store, catalog: catalog}, nil
}

// Catalog returns the challenges on offer.
func (s *ChallengeService) Catalog() *challenge.Catalog {
	return s.catalog
}

func (s *ChallengeService) today() string {
	return s.habits.engine.CalendarDate(s.habits.now())
}

// Evaluate judges every active enrollment of the current user against the
// days since it was last evaluated. Running it again on the same day does
// nothing.
func (s *ChallengeService) Evaluate(ctx context.Context) ([]EvaluationReport, error) {
	userID, err := s.habits.userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, userID)
}

func (s *ChallengeService) evaluate(ctx context.Context, userID string) ([]EvaluationReport, error) {
	enrollments, err := s.store.LoadEnrollments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}
	var habits []models.Habit
	today := s.today()
	reports := []EvaluationReport{}
	for _, e := range enrollments {
		if e.Status != challenge.StatusActive || e.LastEvaluatedDate == today {
			continue
		}
		if habits == nil {
			if habits, err = s.store.LoadHabits(ctx, userID); err != nil {
				return nil, fmt.Errorf("failed to load habits: %w", err)
			}
		}

		ev, err := challenge.Evaluate(e, habits, today)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate challenge %s: %w", e.ChallengeID, err)
		}
		if !ev.Changed() {
			continue
		}
		deleted, err := s.store.ApplyEvaluation(ctx, userID, ev.Enrollment, ev.LivesLost > 0)
		if err != nil {
			return nil, fmt.Errorf("failed to save evaluation of %s: %w", e.ChallengeID, err)
		}
		metrics.RecordChallengeEvaluation(ev.Judged, ev.LivesLost)
		logger.Info("Challenge evaluated", "challenge", e.ChallengeID, "days", ev.Judged,
			"lives_lost", ev.LivesLost, "lives", ev.Enrollment.Lives, "status", ev.Enrollment.Status)

		if ev.LivesLost > 0 {
			s.publish(ctx, constants.EventChallengeLifeLost, ev.Enrollment)
		}
		switch {
		case ev.Failed:
			s.publish(ctx, constants.EventChallengeFailed, ev.Enrollment)
		case ev.Completed:
			s.publish(ctx, constants.EventChallengeCompleted, ev.Enrollment)
		}
		reports = append(reports, EvaluationReport{
			ChallengeID:   e.ChallengeID,
			Status:        ev.Enrollment.Status,
			Lives:         ev.Enrollment.Lives,
			LivesLost:     ev.LivesLost,
			HabitsDeleted: deleted,
		})
		if deleted > 0 {
			habits = nil
		}
	}
	return reports, nil
}

// List evaluates the user's enrollments and returns every catalog challenge
// with its progress.
func (s *ChallengeService) List(ctx context.Context) ([]ChallengeView, error) {
	userID, err := s.habits.userID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.evaluate(ctx, userID); err != nil {
		return nil, err
	}
	enrollments, err := s.store.LoadEnrollments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}
	habits, err := s.store.LoadHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	today := s.today()
	views := make([]ChallengeView, 0, len(s.catalog.Challenges))
	for _, ch := range s.catalog.Challenges {
		var enrollment *challenge.Enrollment
		if i := slices.IndexFunc(enrollments, func(e challenge.Enrollment) bool { return e.ChallengeID == ch.ID }); i >= 0 {
			enrollment = &enrollments[i]
		}
		views = append(views, s.view(ch, enrollment, habits, today))
	}
	return views, nil
}

// Get evaluates and returns one challenge.
func (s *ChallengeService) Get(ctx context.Context, challengeID string) (ChallengeView, error) {
	ch, err := s.catalog.Get(challengeID)
	if err != nil {
		return ChallengeView{}, err
	}
	userID, err := s.habits.userID(ctx)
	if err != nil {
		return ChallengeView{}, err
	}
	if _, err := s.evaluate(ctx, userID); err != nil {
		return ChallengeView{}, err
	}
	return s.load(ctx, userID, ch)
}

func (s *ChallengeService) load(ctx context.Context, userID string, ch challenge.Challenge) (ChallengeView, error) {
	var enrollment *challenge.Enrollment
	e, err := s.store.GetEnrollment(ctx, userID, ch.ID)
	switch {
	case err == nil:
		enrollment = &e
	case errors.Is(err, storage.ErrEnrollmentNotFound):
	default:
		return ChallengeView{}, fmt.Errorf("failed to load enrollment %s: %w", ch.ID, err)
	}
	habits, err := s.store.LoadHabits(ctx, userID)
	if err != nil {
		return ChallengeView{}, fmt.Errorf("failed to load habits: %w", err)
	}
	return s.view(ch, enrollment, habits, s.today()), nil
}

func (s *ChallengeService) view(ch challenge.Challenge, e *challenge.Enrollment, habits []models.Habit, today string) ChallengeView {
	v := ChallengeView{Challenge: ch, Enrollment: e}
	if e == nil {
		return v
	}
	v.CurrentDay = e.CurrentDay(today)
	v.Progress = e.Progress(today)

	linked := e.Linked(habits)
	v.CompletedToday = len(linked) > 0
	for _, h := range linked {
		if last, ok := h.LastCompletionDate(); !ok || last != today {
			v.CompletedToday = false
		}
	}
	if e.Status == challenge.StatusActive {
		for _, t := range ch.MissingTemplates(habits) {
			v.MissingTemplates = append(v.MissingTemplates, t.ID)
		}
	}
	return v
}

// Join enrolls the current user in challengeID starting today and adds its
// habits. Rejoining a failed or completed challenge starts it over and only
// recreates the habits that are gone.
func (s *ChallengeService) Join(ctx context.Context, challengeID string) (JoinResult, error) {
	ch, err := s.catalog.Get(challengeID)
	if err != nil {
		return JoinResult{}, err
	}
	userID, err := s.habits.userID(ctx)
	if err != nil {
		return JoinResult{}, err
	}
	habits, err := s.store.LoadHabits(ctx, userID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("failed to load habits: %w", err)
	}
	toCreate, err := s.build(ch, ch.MissingTemplates(habits))
	if err != nil {
		return JoinResult{}, err
	}

	e := challenge.NewEnrollment(ch, userID, s.today())
	created, err := s.store.CreateEnrollment(ctx, userID, e, toCreate)
	if err != nil {
		return JoinResult{}, fmt.Errorf("failed to join challenge %s: %w", ch.ID, err)
	}
	logger.Info("Challenge joined", "challenge", ch.ID, "habits", len(created))
	s.publish(ctx, constants.EventChallengeEnrolled, e)
	for _, h := range created {
		s.habits.publish(ctx, constants.EventHabitCreated, s.habits.event(h, ""))
	}

	view, err := s.load(ctx, userID, ch)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Challenge: view, Habits: created}, nil
}

// AddMissing recreates the habits of an active challenge that the user
// deleted. It returns the habits added.
func (s *ChallengeService) AddMissing(ctx context.Context, challengeID string) ([]models.Habit, error) {
	ch, err := s.catalog.Get(challengeID)
	if err != nil {
		return nil, err
	}
	userID, err := s.habits.userID(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.store.GetEnrollment(ctx, userID, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment %s: %w", ch.ID, err)
	}
	if e.Status != challenge.StatusActive {
		return nil, fmt.Errorf("%w: challenge %s is %s", ErrInvalidInput, ch.ID, e.Status)
	}
	habits, err := s.store.LoadHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	missing := ch.MissingTemplates(habits)
	if len(missing) == 0 {
		return []models.Habit{}, nil
	}
	toCreate, err := s.build(ch, missing)
	if err != nil {
		return nil, err
	}
	created, err := s.store.AddChallengeHabits(ctx, userID, toCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to add habits for %s: %w", ch.ID, err)
	}
	logger.Info("Challenge habits restored", "challenge", ch.ID, "habits", len(created))
	for _, h := range created {
		s.habits.publish(ctx, constants.EventHabitCreated, s.habits.event(h, ""))
	}
	return created, nil
}

// build turns templates into habits, normalising categories and icons the
// way user-created habits are.
func (s *ChallengeService) build(ch challenge.Challenge, templates []challenge.Template) ([]models.Habit, error) {
	habits := make([]models.Habit, 0, len(templates))
	for _, t := range templates {
		h, err := t.Habit(ch.ID)
		if err != nil {
			return nil, err
		}
		h.Category = s.habits.catalog.Normalize(h.Category)
		if h.IconRef == "" {
			h.IconRef = s.habits.catalog.IconFor(h.Category)
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// LifeLostNotices returns the challenges that cost the user a life since the
// last call. Each notice is returned once.
func (s *ChallengeService) LifeLostNotices(ctx context.Context) ([]string, error) {
	userID, err := s.habits.userID(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.store.TakeLifeLostNotices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read notices: %w", err)
	}
	return ids, nil
}

func (s *ChallengeService) publish(ctx context.Context, routingKey string, e challenge.Enrollment) {
	evt := events.ChallengeEvent{
		ChallengeID: e.ChallengeID,
		UserID:      e.UserID,
		Status:      string(e.Status),
		Lives:       e.Lives,
		SuccessDays: e.SuccessDays,
		MissedDays:  e.MissedDays,
		OccurredAt:  s.habits.now().UTC(),
	}
	err := s.habits.publisher.Publish(ctx, routingKey, evt)
	metrics.RecordEventPublished(routingKey, err)
	if err != nil {
		logger.Warn("Failed to publish event", "routing_key", routingKey, "challenge", e.ChallengeID, "err", err)
	}
}
