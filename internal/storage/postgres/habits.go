package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habithero/internal/metrics"
	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/storage"
)

const habitColumns = `id, user_id, name, category, icon_ref, frequency, weekdays,
	deadline_hour, deadline_minute, daily_completion_target, reminder_times,
	completed, streak_count, longest_streak, completion_count, created_at,
	source_challenge_id, source_template_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (storage.Record, time.Time, error) {
	var rec storage.Record
	var createdAt time.Time
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Category, &rec.IconRef,
		&rec.Frequency, &rec.Weekdays, &rec.DeadlineHour, &rec.DeadlineMinute,
		&rec.DailyCompletionTarget, &rec.ReminderTimes, &rec.Completed,
		&rec.StreakCount, &rec.LongestStreak, &rec.CompletionCount, &createdAt,
		&rec.SourceChallengeID, &rec.SourceTemplateID)
	return rec, createdAt.UTC(), err
}

func (s *Store) LoadHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	defer metrics.ObserveStoreOperation("load_habits", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.habit_id, to_char(c.day, 'YYYY-MM-DD') FROM habit_completions c
		JOIN habits h ON h.id = c.habit_id
		WHERE h.user_id = $1
		ORDER BY c.habit_id, c.day`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	dates := make(map[string][]string)
	for rows.Next() {
		var habitID, day string
		if err := rows.Scan(&habitID, &day); err != nil {
			rows.Close()
			return nil, err
		}
		dates[habitID] = append(dates[habitID], day)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+habitColumns+`
		FROM habits WHERE user_id = $1
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		rec, created, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		h, err := rec.Decode(created, dates[rec.ID])
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	defer metrics.ObserveStoreOperation("get_habit", time.Now())

	row := s.db.QueryRowContext(ctx, `SELECT `+habitColumns+`
		FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID)
	rec, created, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, storage.ErrNotFound
		}
		return models.Habit{}, fmt.Errorf("failed to get habit: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD') FROM habit_completions
		WHERE habit_id = $1 ORDER BY day`, habitID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return models.Habit{}, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return models.Habit{}, err
	}
	return rec.Decode(created, days)
}

func (s *Store) CreateHabit(ctx context.Context, userID string, habit models.Habit) (models.Habit, error) {
	defer metrics.ObserveStoreOperation("create_habit", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	h, err := insertHabit(ctx, tx, userID, habit, time.Now())
	if err != nil {
		return models.Habit{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Habit{}, fmt.Errorf("failed to commit habit: %w", err)
	}
	return h, nil
}

// insertHabit stamps habit with PrepareNew and writes it with its history.
func insertHabit(ctx context.Context, tx *sql.Tx, userID string, habit models.Habit, now time.Time) (models.Habit, error) {
	h, err := storage.PrepareNew(userID, habit, now)
	if err != nil {
		return models.Habit{}, err
	}
	rec, err := storage.EncodeHabit(h)
	if err != nil {
		return models.Habit{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rec.ID, rec.UserID, rec.Name, rec.Category, rec.IconRef, rec.Frequency, rec.Weekdays,
		rec.DeadlineHour, rec.DeadlineMinute, rec.DailyCompletionTarget, rec.ReminderTimes,
		rec.Completed, rec.StreakCount, rec.LongestStreak, rec.CompletionCount, h.CreatedAt,
		rec.SourceChallengeID, rec.SourceTemplateID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to insert habit: %w", err)
	}
	if err := insertCompletions(ctx, tx, h.ID, h.CompletionDates); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) SaveHabit(ctx context.Context, userID string, habit models.Habit) error {
	defer metrics.ObserveStoreOperation("save_habit", time.Now())

	if err := habit.Validate(); err != nil {
		return fmt.Errorf("invalid habit: %w", err)
	}
	rec, err := storage.EncodeHabit(habit)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE habits SET name = $1, category = $2, icon_ref = $3, frequency = $4, weekdays = $5,
			deadline_hour = $6, deadline_minute = $7, daily_completion_target = $8, reminder_times = $9,
			completed = $10, streak_count = $11, longest_streak = $12, completion_count = $13
		WHERE id = $14 AND user_id = $15`,
		rec.Name, rec.Category, rec.IconRef, rec.Frequency, rec.Weekdays,
		rec.DeadlineHour, rec.DeadlineMinute, rec.DailyCompletionTarget, rec.ReminderTimes,
		rec.Completed, rec.StreakCount, rec.LongestStreak, rec.CompletionCount,
		rec.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	} else if n == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_completions WHERE habit_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear completions: %w", err)
	}
	if err := insertCompletions(ctx, tx, rec.ID, habit.CompletionDates); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit habit: %w", err)
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, userID, habitID string) error {
	defer metrics.ObserveStoreOperation("delete_habit", time.Now())

	// habit_completions rows follow through ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// insertCompletions writes all days in one statement by unnesting an array.
func insertCompletions(ctx context.Context, tx *sql.Tx, habitID string, days []string) error {
	if len(days) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO habit_completions (habit_id, day)
		SELECT $1, d::date FROM unnest($2::text[]) AS d`,
		habitID, pq.Array(days))
	if err != nil {
		return fmt.Errorf("failed to insert completions: %w", err)
	}
	return nil
}
