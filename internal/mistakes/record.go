// Package mistakes keeps the per-session log of wrong answers and flagged
// solution steps, and the analytics computed over it.
package mistakes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathtutor/internal/store"
)

// Kind is what the learner got wrong.
type Kind string

const (
	KindQuiz     Kind = "quiz"
	KindExercise Kind = "exercise"
	KindPractice Kind = "practice"
)

// Kinds lists every kind in display order.
func Kinds() []Kind { return []Kind{KindQuiz, KindExercise, KindPractice} }

func (k Kind) valid() bool {
	switch k {
	case KindQuiz, KindExercise, KindPractice:
		return true
	}
	return false
}

// StepDetail is the text of a flagged solution step.
type StepDetail struct {
	Step        string `json:"step"`
	Explanation string `json:"explanation"`
}

// Detail is the kind specific part of a record.
type Detail struct {
	// quiz
	ChosenAnswer  string `json:"chosen_answer,omitempty"`
	CorrectAnswer string `json:"correct_answer,omitempty"`

	// exercise
	IncorrectSteps []int        `json:"incorrect_steps,omitempty"`
	StepDetails    []StepDetail `json:"step_details,omitempty"`

	// practice
	Attempts int `json:"attempts,omitempty"`
}

// Record is one logged mistake.
type Record struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"-"`
	Kind       Kind      `json:"kind"`
	Problem    string    `json:"problem"`
	TopicID    string    `json:"topic_id"`
	TopicLabel string    `json:"topic_label"`
	Detail     Detail    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ErrInvalidRecord reports a record that cannot be stored.
var ErrInvalidRecord = errors.New("invalid mistake record")

// Validate checks the fields every record needs.
func (r Record) Validate() error {
	switch {
	case !r.Kind.valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecord, r.Kind)
	case strings.TrimSpace(r.Problem) == "":
		return fmt.Errorf("%w: problem is required", ErrInvalidRecord)
	case strings.TrimSpace(r.TopicID) == "":
		return fmt.Errorf("%w: topic_id is required", ErrInvalidRecord)
	case r.Detail.Attempts < 0:
		return fmt.Errorf("%w: negative attempts", ErrInvalidRecord)
	}
	return nil
}

func (r Record) toRow() (*store.Mistake, error) {
	detail, err := json.Marshal(r.Detail)
	if err != nil {
		return nil, fmt.Errorf("encode detail: %w", err)
	}
	return &store.Mistake{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Kind:       string(r.Kind),
		Problem:    r.Problem,
		TopicID:    r.TopicID,
		TopicLabel: r.TopicLabel,
		Detail:     string(detail),
		OccurredAt: store.NewTime(r.OccurredAt),
	}, nil
}

func fromRow(m store.Mistake) (Record, error) {
	r := Record{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Kind:       Kind(m.Kind),
		Problem:    m.Problem,
		TopicID:    m.TopicID,
		TopicLabel: m.TopicLabel,
		OccurredAt: m.OccurredAt.Time,
	}
	if m.Detail != "" {
		if err := json.Unmarshal([]byte(m.Detail), &r.Detail); err != nil {
			return Record{}, fmt.Errorf("decode detail of %s: %w", m.ID, err)
		}
	}
	return r, nil
}
