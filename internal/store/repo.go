package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id > After
	Before int64     // id < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Plan is a learner's study schedule for one topic.
type Plan struct {
	ID        string `db:"id" json:"id"`
	SessionID string `db:"session_id" json:"session_id"`
	Grade     string `db:"grade" json:"grade"`
	TopicID   string `db:"topic_id" json:"topic_id"`
	TopicName string `db:"topic_name" json:"topic_name"`
	TestDate  Date   `db:"test_date" json:"test_date"`
	Source    string `db:"source" json:"source"`
	CreatedAt Time   `db:"created_at" json:"created_at"`
}

// Task is one scheduled day of study within a plan.
type Task struct {
	ID            string `db:"id" json:"id"`
	PlanID        string `db:"plan_id" json:"plan_id"`
	DayNumber     int    `db:"day_number" json:"day_number"`
	ScheduledDate Date   `db:"scheduled_date" json:"scheduled_date"`
	Title         string `db:"title" json:"title"`
	Description   string `db:"description" json:"description"`
	TaskType      string `db:"task_type" json:"task_type"`
	IsCompleted   bool   `db:"is_completed" json:"is_completed"`
	CompletedAt   Time   `db:"completed_at" json:"completed_at,omitzero"`
}

// Progress is the per-task, per-session quiz and exercise record.
type Progress struct {
	TaskID             string `db:"task_id" json:"task_id"`
	SessionID          string `db:"session_id" json:"session_id"`
	QuizPassed         bool   `db:"quiz_passed" json:"quiz_passed"`
	ExercisesCompleted int    `db:"exercises_completed" json:"exercises_completed"`
	UpdatedAt          Time   `db:"updated_at" json:"updated_at"`
}

// Mistake is one logged incorrect answer or flagged step. Detail holds
// the kind specific payload as JSON.
type Mistake struct {
	ID         string `db:"id" json:"id"`
	SessionID  string `db:"session_id" json:"session_id"`
	Kind       string `db:"kind" json:"kind"`
	Problem    string `db:"problem" json:"problem"`
	TopicID    string `db:"topic_id" json:"topic_id"`
	TopicLabel string `db:"topic_label" json:"topic_label"`
	Detail     string `db:"detail" json:"detail"`
	OccurredAt Time   `db:"occurred_at" json:"occurred_at"`
}

// MistakeQuery filters mistake listings. Zero values match everything.
type MistakeQuery struct {
	TopicID string
	Since   time.Time
}

// PlanRepo persists plans and their tasks.
type PlanRepo interface {
	// BySession returns the session's plan or ErrNotFound.
	BySession(ctx context.Context, sessionID string) (*Plan, error)

	// Insert stores a new plan.
	Insert(ctx context.Context, p *Plan) error

	// InsertTasks stores all tasks in one transaction.
	InsertTasks(ctx context.Context, tasks []Task) error

	// Delete removes a plan with its tasks and their progress rows.
	Delete(ctx context.Context, planID string) error

	// DeleteBySession removes the session's plan, if any, with its tasks
	// and progress rows.
	DeleteBySession(ctx context.Context, sessionID string) error

	// Tasks returns a plan's tasks ordered by day number.
	Tasks(ctx context.Context, planID string) ([]Task, error)

	// Task returns one task or ErrNotFound.
	Task(ctx context.Context, taskID string) (*Task, error)

	// CompleteTask marks the task complete. It reports whether this call
	// changed the flag.
	CompleteTask(ctx context.Context, taskID string, at time.Time) (bool, error)

	// All returns every stored plan.
	All(ctx context.Context) ([]Plan, error)
}

// ProgressRepo persists task progress rows.
type ProgressRepo interface {
	// Get returns the progress row or ErrNotFound.
	Get(ctx context.Context, taskID, sessionID string) (*Progress, error)

	// SetQuizPassed upserts quiz_passed = true.
	SetQuizPassed(ctx context.Context, taskID, sessionID string, at time.Time) error

	// IncrementExercises adds one completed exercise, saturating at max,
	// and returns the new count.
	IncrementExercises(ctx context.Context, taskID, sessionID string, max int, at time.Time) (int, error)

	// ByPlan returns all progress rows for a plan's tasks.
	ByPlan(ctx context.Context, planID, sessionID string) ([]Progress, error)
}

// MistakeRepo persists the append-only mistake log.
type MistakeRepo interface {
	Append(ctx context.Context, m *Mistake) error
	List(ctx context.Context, sessionID string, q MistakeQuery) ([]Mistake, error)
	Delete(ctx context.Context, sessionID, id string) error
	Clear(ctx context.Context, sessionID, topicID string) (int64, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID           int64  `db:"id"`
	Timestamp    Time   `db:"created_at"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	ErrorMessage string `db:"error_message"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
}

// LLMUsage aggregates LLM events by a grouping key.
type LLMUsage struct {
	Purpose      string `db:"purpose"`
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int64  `db:"avg_latency_ms"`
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil when it does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
