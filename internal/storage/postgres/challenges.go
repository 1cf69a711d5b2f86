package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/habithero/internal/challenge"
	"github.com/julianstephens/habithero/internal/metrics"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/storage"
)

// Dates are rendered as text so enrollments match the SQLite form.
const enrollmentColumns = `challenge_id, user_id, status, to_char(start_date, 'YYYY-MM-DD'), duration_days,
	success_days, missed_days, lives, COALESCE(to_char(last_evaluated_date, 'YYYY-MM-DD'), '')`

const lifeLostKind = "life_lost"

func scanEnrollment(row scanner) (challenge.Enrollment, error) {
	var e challenge.Enrollment
	var status string
	err := row.Scan(&e.ChallengeID, &e.UserID, &status, &e.StartDate, &e.DurationDays,
		&e.SuccessDays, &e.MissedDays, &e.Lives, &e.LastEvaluatedDate)
	e.Status = challenge.Status(status)
	return e, err
}

// nullDate maps the empty date to NULL.
func nullDate(day string) sql.NullString {
	return sql.NullString{String: day, Valid: day != ""}
}

func (s *Store) LoadEnrollments(ctx context.Context, userID string) ([]challenge.Enrollment, error) {
	defer metrics.ObserveStoreOperation("load_enrollments", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT `+enrollmentColumns+`
		FROM challenge_enrollments WHERE user_id = $1
		ORDER BY start_date, challenge_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []challenge.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (s *Store) GetEnrollment(ctx context.Context, userID, challengeID string) (challenge.Enrollment, error) {
	defer metrics.ObserveStoreOperation("get_enrollment", time.Now())

	row := s.db.QueryRowContext(ctx, `SELECT `+enrollmentColumns+`
		FROM challenge_enrollments WHERE user_id = $1 AND challenge_id = $2`, userID, challengeID)
	e, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return challenge.Enrollment{}, storage.ErrEnrollmentNotFound
		}
		return challenge.Enrollment{}, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

func (s *Store) CreateEnrollment(ctx context.Context, userID string, e challenge.Enrollment, habits []models.Habit) ([]models.Habit, error) {
	defer metrics.ObserveStoreOperation("create_enrollment", time.Now())

	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid enrollment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO challenge_enrollments (challenge_id, user_id, status, start_date, duration_days,
			success_days, missed_days, lives, last_evaluated_date)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9::date)
		ON CONFLICT (user_id, challenge_id) DO UPDATE SET
			status = excluded.status, start_date = excluded.start_date,
			duration_days = excluded.duration_days, success_days = excluded.success_days,
			missed_days = excluded.missed_days, lives = excluded.lives,
			last_evaluated_date = excluded.last_evaluated_date
		WHERE challenge_enrollments.status <> 'active'`,
		e.ChallengeID, userID, string(e.Status), e.StartDate, e.DurationDays,
		e.SuccessDays, e.MissedDays, e.Lives, nullDate(e.LastEvaluatedDate))
	if err != nil {
		return nil, fmt.Errorf("failed to insert enrollment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to check enrollment insert: %w", err)
	} else if n == 0 {
		return nil, challenge.ErrAlreadyEnrolled
	}

	created, err := insertHabits(ctx, tx, userID, habits)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit enrollment: %w", err)
	}
	return created, nil
}

func (s *Store) AddChallengeHabits(ctx context.Context, userID string, habits []models.Habit) ([]models.Habit, error) {
	defer metrics.ObserveStoreOperation("add_challenge_habits", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := insertHabits(ctx, tx, userID, habits)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit habits: %w", err)
	}
	return created, nil
}

func (s *Store) ApplyEvaluation(ctx context.Context, userID string, e challenge.Enrollment, lifeLost bool) (int, error) {
	defer metrics.ObserveStoreOperation("apply_evaluation", time.Now())

	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("invalid enrollment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE challenge_enrollments SET status = $1, success_days = $2, missed_days = $3,
			lives = $4, last_evaluated_date = $5::date
		WHERE user_id = $6 AND challenge_id = $7`,
		string(e.Status), e.SuccessDays, e.MissedDays, e.Lives, nullDate(e.LastEvaluatedDate),
		userID, e.ChallengeID)
	if err != nil {
		return 0, fmt.Errorf("failed to update enrollment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to check enrollment update: %w", err)
	} else if n == 0 {
		return 0, storage.ErrEnrollmentNotFound
	}

	deleted := 0
	if e.Status == challenge.StatusFailed {
		// habit_completions rows follow through ON DELETE CASCADE.
		res, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE user_id = $1 AND source_challenge_id = $2`,
			userID, e.ChallengeID)
		if err != nil {
			return 0, fmt.Errorf("failed to delete challenge habits: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check challenge habit delete: %w", err)
		}
		deleted = int(n)
	}

	if lifeLost {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO challenge_events (user_id, challenge_id, kind) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, userID, e.ChallengeID, lifeLostKind); err != nil {
			return 0, fmt.Errorf("failed to record life lost: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit evaluation: %w", err)
	}
	return deleted, nil
}

// TakeLifeLostNotices deletes and returns the pending notices in one statement.
func (s *Store) TakeLifeLostNotices(ctx context.Context, userID string) ([]string, error) {
	defer metrics.ObserveStoreOperation("take_notices", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM challenge_events WHERE user_id = $1 AND kind = $2
		RETURNING challenge_id`, userID, lifeLostKind)
	if err != nil {
		return nil, fmt.Errorf("failed to take notices: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

// insertHabits gives each habit its own creation time so a batch keeps its
// order in the newest-first list.
func insertHabits(ctx context.Context, tx *sql.Tx, userID string, habits []models.Habit) ([]models.Habit, error) {
	now := time.Now()
	created := make([]models.Habit, 0, len(habits))
	for i, h := range habits {
		h, err := insertHabit(ctx, tx, userID, h, now.Add(-time.Duration(i)*time.Microsecond))
		if err != nil {
			return nil, err
		}
		created = append(created, h)
	}
	return created, nil
}
