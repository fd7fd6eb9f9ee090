// Package plan turns a grade, topic and test date into a day-by-day study
// plan and persists it.
package plan

import (
	"context"
	"time"

	"github.com/abhisek/mathtutor/internal/store"
)

// Task types.
const (
	TaskTheory   = "theory"
	TaskQuiz     = "quiz"
	TaskPractice = "practice"
	TaskReview   = "review"
)

// Source records which generator authored a plan.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Request asks for a new plan.
type Request struct {
	Grade     string
	TopicID   string
	TopicName string // optional; defaults to the catalog name
	TestDate  store.Date
	SessionID string

	// Replace deletes an existing plan. When false an existing plan is kept
	// and Generate reports success without creating anything.
	Replace bool
}

// Result describes a completed generation.
type Result struct {
	PlanID    string `json:"planId"`
	TaskCount int    `json:"taskCount"`
	Source    Source `json:"source"`
	Existing  bool   `json:"existing,omitempty"`
}

// Draft is a task before it is bound to a stored plan.
type Draft struct {
	DayNumber     int
	ScheduledDate store.Date
	Title         string
	Description   string
	TaskType      string
}

// Input is what a generator sees after validation.
type Input struct {
	Today         store.Date
	DaysUntilTest int
	Grade         string
	TopicID       string
	TopicName     string
	TestDate      store.Date
	Subtopics     []string
}

// Generator authors the task list for a plan.
type Generator interface {
	Generate(ctx context.Context, in Input) ([]Draft, error)
}

// Repository is the persistence surface the service needs.
type Repository interface {
	BySession(ctx context.Context, sessionID string) (*store.Plan, error)
	Insert(ctx context.Context, p *store.Plan) error
	InsertTasks(ctx context.Context, tasks []store.Task) error
	Delete(ctx context.Context, planID string) error
	DeleteBySession(ctx context.Context, sessionID string) error
	Tasks(ctx context.Context, planID string) ([]store.Task, error)
}

// Clock returns the current time.
type Clock func() time.Time
