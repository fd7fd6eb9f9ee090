package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LearningPlan is a session's study plan toward one test date.
type LearningPlan struct {
	ent.Schema
}

func (LearningPlan) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Annotation{Table: "learning_plans"}}
}

func (LearningPlan) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedMixin{}}
}

func (LearningPlan) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable().
			Comment("UUID"),
		field.String("session_id").
			NotEmpty(),
		field.String("grade").
			NotEmpty(),
		field.String("topic_id").
			NotEmpty().
			Comment("Catalog topic id, or a custom topic id"),
		field.String("topic_name").
			NotEmpty(),
		field.String("test_date").
			Comment("YYYY-MM-DD"),
		field.String("source").
			Default("local").
			Comment("local or remote"),
	}
}

func (LearningPlan) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
	}
}
