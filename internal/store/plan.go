package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

var (
	planColumns = []string{"id", "session_id", "grade", "topic_id", "topic_name", "test_date", "source", "created_at"}
	taskColumns = []string{"id", "plan_id", "day_number", "scheduled_date", "title", "description", "task_type", "is_completed", "completed_at"}
)

// planRepo implements PlanRepo.
type planRepo struct {
	s *Store
}

func (r *planRepo) BySession(ctx context.Context, sessionID string) (*Plan, error) {
	query, args := r.s.builder().
		Select(planColumns...).
		From(entsql.Table("learning_plans")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()

	var p Plan
	if err := r.s.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query plan: %w", err)
	}
	return &p, nil
}

func (r *planRepo) Insert(ctx context.Context, p *Plan) error {
	query, args := r.s.builder().
		Insert("learning_plans").
		Columns(planColumns...).
		Values(p.ID, p.SessionID, p.Grade, p.TopicID, p.TopicName, p.TestDate, p.Source, p.CreatedAt).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *planRepo) InsertTasks(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ins := r.s.builder().Insert("learning_tasks").Columns(taskColumns...)
	for _, t := range tasks {
		ins.Values(t.ID, t.PlanID, t.DayNumber, t.ScheduledDate, t.Title, t.Description, t.TaskType, t.IsCompleted, t.CompletedAt)
	}
	query, args := ins.Query()

	return r.s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		return nil
	})
}

func (r *planRepo) Delete(ctx context.Context, planID string) error {
	return r.s.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.deletePlan(ctx, tx, planID)
	})
}

func (r *planRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	query, args := r.s.builder().
		Select("id").
		From(entsql.Table("learning_plans")).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	return r.s.inTx(ctx, func(tx *sqlx.Tx) error {
		var ids []string
		if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
			return fmt.Errorf("query plans: %w", err)
		}
		for _, id := range ids {
			if err := r.deletePlan(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// deletePlan removes progress, tasks and the plan row explicitly so the
// cascade does not depend on the foreign_keys setting of the connection.
func (r *planRepo) deletePlan(ctx context.Context, tx *sqlx.Tx, planID string) error {
	b := r.s.builder()
	taskIDs := b.Select("id").
		From(entsql.Table("learning_tasks")).
		Where(entsql.EQ("plan_id", planID))

	steps := []struct {
		name string
		del  *entsql.DeleteBuilder
	}{
		{"progress", b.Delete("task_progress").Where(entsql.In("task_id", taskIDs))},
		{"tasks", b.Delete("learning_tasks").Where(entsql.EQ("plan_id", planID))},
		{"plan", b.Delete("learning_plans").Where(entsql.EQ("id", planID))},
	}
	for _, st := range steps {
		query, args := st.del.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete %s: %w", st.name, err)
		}
	}
	return nil
}

func (r *planRepo) Tasks(ctx context.Context, planID string) ([]Task, error) {
	query, args := r.s.builder().
		Select(taskColumns...).
		From(entsql.Table("learning_tasks")).
		Where(entsql.EQ("plan_id", planID)).
		OrderBy(entsql.Asc("day_number")).
		Query()

	var tasks []Task
	if err := r.s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return tasks, nil
}

func (r *planRepo) Task(ctx context.Context, taskID string) (*Task, error) {
	query, args := r.s.builder().
		Select(taskColumns...).
		From(entsql.Table("learning_tasks")).
		Where(entsql.EQ("id", taskID)).
		Query()

	var t Task
	if err := r.s.db.GetContext(ctx, &t, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return &t, nil
}

func (r *planRepo) CompleteTask(ctx context.Context, taskID string, at time.Time) (bool, error) {
	query, args := r.s.builder().
		Update("learning_tasks").
		Set("is_completed", true).
		Set("completed_at", NewTime(at)).
		Where(entsql.And(
			entsql.EQ("id", taskID),
			entsql.EQ("is_completed", false),
		)).
		Query()

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete task: %w", err)
	}
	return n == 1, nil
}

func (r *planRepo) All(ctx context.Context) ([]Plan, error) {
	query, args := r.s.builder().
		Select(planColumns...).
		From(entsql.Table("learning_plans")).
		OrderBy(entsql.Asc("created_at")).
		Query()

	var plans []Plan
	if err := r.s.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	return plans, nil
}
