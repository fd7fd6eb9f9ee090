// Package schema declares the tables the store migrations create. The SQL
// in internal/store/migrations is authoritative; these declarations are
// checked against it by the store tests.
package schema

import "entgo.io/ent"

// Tables lists every declared table schema.
func Tables() []ent.Interface {
	return []ent.Interface{
		LearningPlan{},
		LearningTask{},
		TaskProgress{},
		Mistake{},
		LLMRequestEvent{},
	}
}
