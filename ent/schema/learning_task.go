package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LearningTask is one day of a plan.
type LearningTask struct {
	ent.Schema
}

func (LearningTask) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Annotation{Table: "learning_tasks"}}
}

func (LearningTask) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("plan_id").
			NotEmpty().
			Comment("Deleted with the plan"),
		field.Int("day_number").
			Positive().
			Comment("1-based, unique within a plan"),
		field.String("scheduled_date").
			Comment("YYYY-MM-DD"),
		field.String("title"),
		field.String("description"),
		field.String("task_type").
			Comment("theory, practice or review"),
		field.Bool("is_completed").
			Default(false),
		field.Time("completed_at").
			Optional().
			Nillable(),
	}
}

func (LearningTask) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("plan_id", "day_number").Unique(),
	}
}
