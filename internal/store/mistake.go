package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var mistakeColumns = []string{"id", "session_id", "kind", "problem", "topic_id", "topic_label", "detail", "occurred_at"}

// mistakeRepo implements MistakeRepo.
type mistakeRepo struct {
	s *Store
}

func (r *mistakeRepo) Append(ctx context.Context, m *Mistake) error {
	query, args := r.s.builder().
		Insert("mistakes").
		Columns(mistakeColumns...).
		Values(m.ID, m.SessionID, m.Kind, m.Problem, m.TopicID, m.TopicLabel, m.Detail, m.OccurredAt).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert mistake: %w", err)
	}
	return nil
}

func (r *mistakeRepo) List(ctx context.Context, sessionID string, q MistakeQuery) ([]Mistake, error) {
	preds := []*entsql.Predicate{entsql.EQ("session_id", sessionID)}
	if q.TopicID != "" {
		preds = append(preds, entsql.EQ("topic_id", q.TopicID))
	}
	if !q.Since.IsZero() {
		preds = append(preds, entsql.GTE("occurred_at", NewTime(q.Since)))
	}

	query, args := r.s.builder().
		Select(mistakeColumns...).
		From(entsql.Table("mistakes")).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("occurred_at")).
		Query()

	var out []Mistake
	if err := r.s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	return out, nil
}

func (r *mistakeRepo) Delete(ctx context.Context, sessionID, id string) error {
	query, args := r.s.builder().
		Delete("mistakes").
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.EQ("id", id),
		)).
		Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete mistake: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mistakeRepo) Clear(ctx context.Context, sessionID, topicID string) (int64, error) {
	pred := entsql.EQ("session_id", sessionID)
	if topicID != "" {
		pred = entsql.And(pred, entsql.EQ("topic_id", topicID))
	}
	query, args := r.s.builder().Delete("mistakes").Where(pred).Query()

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear mistakes: %w", err)
	}
	return res.RowsAffected()
}
