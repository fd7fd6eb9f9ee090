package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
)

// TaskProgress tracks the quiz gate and exercise count of a task for one
// session. Keyed by (task_id, session_id).
type TaskProgress struct {
	ent.Schema
}

func (TaskProgress) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Annotation{Table: "task_progress"}}
}

func (TaskProgress) Fields() []ent.Field {
	return []ent.Field{
		field.String("task_id").
			NotEmpty(),
		field.String("session_id").
			NotEmpty(),
		field.Bool("quiz_passed").
			Default(false),
		field.Int("exercises_completed").
			Default(0).
			Max(4),
		field.Time("updated_at"),
	}
}
