package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var progressColumns = []string{"task_id", "session_id", "quiz_passed", "exercises_completed", "updated_at"}

// progressRepo implements ProgressRepo.
type progressRepo struct {
	s *Store
}

func (r *progressRepo) selectRow(taskID, sessionID string) (string, []any) {
	return r.s.builder().
		Select(progressColumns...).
		From(entsql.Table("task_progress")).
		Where(entsql.And(
			entsql.EQ("task_id", taskID),
			entsql.EQ("session_id", sessionID),
		)).
		Query()
}

func (r *progressRepo) Get(ctx context.Context, taskID, sessionID string) (*Progress, error) {
	query, args := r.selectRow(taskID, sessionID)

	var p Progress
	if err := r.s.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return &p, nil
}

func (r *progressRepo) SetQuizPassed(ctx context.Context, taskID, sessionID string, at time.Time) error {
	now := NewTime(at)
	query, args := r.s.builder().
		Insert("task_progress").
		Columns(progressColumns...).
		Values(taskID, sessionID, true, 0, now).
		OnConflict(
			entsql.ConflictColumns("task_id", "session_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Set("quiz_passed", true)
				u.Set("updated_at", now)
			}),
		).
		Query()

	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert quiz progress: %w", err)
	}
	return nil
}

// incrementExercisesSQL bumps the counter in one statement so concurrent
// completions cannot read the same value and both write n+1. The existing
// row is referenced by table name, which both SQLite and Postgres accept.
const incrementExercisesSQL = `INSERT INTO task_progress (task_id, session_id, quiz_passed, exercises_completed, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (task_id, session_id) DO UPDATE SET
	exercises_completed = CASE
		WHEN task_progress.exercises_completed < ? THEN task_progress.exercises_completed + 1
		ELSE ? END,
	updated_at = excluded.updated_at
RETURNING exercises_completed`

func (r *progressRepo) IncrementExercises(ctx context.Context, taskID, sessionID string, max int, at time.Time) (int, error) {
	var count int
	query := r.s.db.Rebind(incrementExercisesSQL)
	err := r.s.db.GetContext(ctx, &count, query,
		taskID, sessionID, false, min(1, max), NewTime(at), max, max)
	if err != nil {
		return 0, fmt.Errorf("write exercise progress: %w", err)
	}
	return count, nil
}

func (r *progressRepo) ByPlan(ctx context.Context, planID, sessionID string) ([]Progress, error) {
	b := r.s.builder()
	taskIDs := b.Select("id").
		From(entsql.Table("learning_tasks")).
		Where(entsql.EQ("plan_id", planID))

	query, args := b.Select(progressColumns...).
		From(entsql.Table("task_progress")).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.In("task_id", taskIDs),
		)).
		Query()

	var rows []Progress
	if err := r.s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query plan progress: %w", err)
	}
	return rows, nil
}
