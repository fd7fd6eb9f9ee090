package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathtutor/internal/llm"
)

// PlanSchema is the structured output contract for AI-authored plans.
var PlanSchema = &llm.Schema{
	Name:        "create_learning_plan",
	Description: "Generate a structured learning plan with daily tasks",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tasks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"day_number": map[string]any{
							"type":        "integer",
							"description": "Day number (1 to N)",
						},
						"title": map[string]any{
							"type":        "string",
							"description": "Task title",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "Task description",
						},
						"task_type": map[string]any{
							"type": "string",
							"enum": []any{TaskTheory, TaskQuiz, TaskPractice, TaskReview},
						},
					},
					"required":             []any{"day_number", "title", "description", "task_type"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"tasks"},
		"additionalProperties": false,
	},
}

const remoteSystemPrompt = `You are an expert math educator creating personalized study plans. Generate a day-by-day learning plan that:
- Breaks down the topic into logical steps
- Follows the progression: theory, quiz, practice (easy), practice (hard), review
- Spaces out learning appropriately given available days
- Includes rest/review days before the exam
- Adapts to the student's grade level

Each task should have:
- A clear, actionable title
- A brief description of what to study/practice
- A task type: 'theory', 'quiz', 'practice', or 'review'`

// RemoteGenerator asks an LLM to author the plan.
type RemoteGenerator struct {
	provider  llm.Provider
	timeout   time.Duration
	maxTokens int
}

// NewRemoteGenerator returns a generator bounded by timeout.
func NewRemoteGenerator(provider llm.Provider, timeout time.Duration) *RemoteGenerator {
	return &RemoteGenerator{provider: provider, timeout: timeout, maxTokens: 4096}
}

type remoteTask struct {
	DayNumber   int    `json:"day_number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TaskType    string `json:"task_type"`
}

// Generate implements Generator. Every failure is a
// KindRemoteGenerationFailed error.
func (g *RemoteGenerator) Generate(ctx context.Context, in Input) ([]Draft, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	// Any failure falls back to the local plan, so the call is never retried.
	ctx = llm.WithSingleShot(llm.WithPurpose(ctx, llm.PurposePlan))

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:    remoteSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildPlanPrompt(in)}},
		Schema:    PlanSchema,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return nil, newError(KindRemoteGenerationFailed, err)
	}

	var out struct {
		Tasks []remoteTask `json:"tasks"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, newError(KindRemoteGenerationFailed, fmt.Errorf("parse plan: %w", err))
	}
	if err := validateRemote(out.Tasks, in.DaysUntilTest); err != nil {
		return nil, newError(KindRemoteGenerationFailed, err)
	}

	drafts := make([]Draft, len(out.Tasks))
	for i, t := range out.Tasks {
		drafts[i] = Draft{
			DayNumber:     t.DayNumber,
			ScheduledDate: in.Today.AddDays(t.DayNumber - 1),
			Title:         strings.TrimSpace(t.Title),
			Description:   strings.TrimSpace(t.Description),
			TaskType:      t.TaskType,
		}
	}
	return drafts, nil
}

func buildPlanPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day study plan for:\n", in.DaysUntilTest)
	fmt.Fprintf(&b, "- Grade: %s\n", in.Grade)
	fmt.Fprintf(&b, "- Topic: %s\n", in.TopicName)
	fmt.Fprintf(&b, "- Test Date: %s\n", in.TestDate)
	if len(in.Subtopics) > 0 {
		fmt.Fprintf(&b, "- Suggested subtopics: %s\n", strings.Join(in.Subtopics, "; "))
	}
	b.WriteString("\nGenerate tasks for each day leading up to the test. Make it engaging and achievable.")
	return b.String()
}

// validateRemote rejects plans the rest of the system cannot schedule.
func validateRemote(tasks []remoteTask, daysUntilTest int) error {
	if len(tasks) == 0 {
		return errors.New("plan has no tasks")
	}
	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if t.DayNumber < 1 || t.DayNumber > daysUntilTest {
			return fmt.Errorf("day_number %d outside 1..%d", t.DayNumber, daysUntilTest)
		}
		if seen[t.DayNumber] {
			return fmt.Errorf("duplicate day_number %d", t.DayNumber)
		}
		seen[t.DayNumber] = true
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("day %d has no title", t.DayNumber)
		}
		switch t.TaskType {
		case TaskTheory, TaskQuiz, TaskPractice, TaskReview:
		default:
			return fmt.Errorf("day %d has unknown task_type %q", t.DayNumber, t.TaskType)
		}
	}
	return nil
}
