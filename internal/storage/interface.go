package storage

import (
	"context"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/models"
)

// HabitStore is the persistence contract the habit service depends on.
// Every operation is scoped to an explicit user ID.
type HabitStore interface {
	// LoadHabits returns the user's habits, newest CreatedAt first.
	LoadHabits(ctx context.Context, userID string) ([]models.Habit, error)
	GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error)
	// CreateHabit assigns ID, UserID and CreatedAt and returns the stored habit.
	CreateHabit(ctx context.Context, userID string, habit models.Habit) (models.Habit, error)
	// SaveHabit replaces the stored state of an existing habit, including its
	// completion history.
	SaveHabit(ctx context.Context, userID string, habit models.Habit) error
	DeleteHabit(ctx context.Context, userID, habitID string) error
}

// ChallengeStore persists challenge enrollments and the life-lost notices
// shown to the user once.
type ChallengeStore interface {
	LoadEnrollments(ctx context.Context, userID string) ([]challenge.Enrollment, error)
	// GetEnrollment returns ErrEnrollmentNotFound when the user never joined.
	GetEnrollment(ctx context.Context, userID, challengeID string) (challenge.Enrollment, error)
	// CreateEnrollment stores e and its habits in one transaction and
	// returns the stored habits. A finished enrollment for the same challenge
	// is replaced; an active one is reported as challenge.ErrAlreadyEnrolled.
	CreateEnrollment(ctx context.Context, userID string, e challenge.Enrollment, habits []models.Habit) ([]models.Habit, error)
	// AddChallengeHabits stores habits recreated for an existing enrollment.
	AddChallengeHabits(ctx context.Context, userID string, habits []models.Habit) ([]models.Habit, error)
	// ApplyEvaluation saves e. A failed enrollment takes its linked habits
	// with it; the number deleted is returned. When lifeLost is set a notice
	// is queued for the challenge.
	ApplyEvaluation(ctx context.Context, userID string, e challenge.Enrollment, lifeLost bool) (int, error)
	// TakeLifeLostNotices returns the challenges with a pending notice and
	// clears them.
	TakeLifeLostNotices(ctx context.Context, userID string) ([]string, error)
}

// Store is the full persistence contract of the services.
type Store interface {
	HabitStore
	ChallengeStore
}

// Provider is a Store backed by a database with an explicit lifecycle.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	HabitStore
	ChallengeStore

	// Utils
	GetConfigPath() string
}
