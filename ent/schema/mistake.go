package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Mistake is one logged quiz, exercise or practice mistake.
type Mistake struct {
	ent.Schema
}

func (Mistake) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Annotation{Table: "mistakes"}}
}

func (Mistake) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("session_id").
			NotEmpty(),
		field.Enum("kind").
			Values("quiz", "exercise", "practice"),
		field.String("problem"),
		field.String("topic_id"),
		field.String("topic_label"),
		field.String("detail").
			Comment("JSON encoded kind specific detail"),
		field.Time("occurred_at"),
	}
}

func (Mistake) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "occurred_at"),
	}
}
