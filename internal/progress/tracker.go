package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/retry"
	"github.com/abhisek/mathtutor/internal/store"
)

// ErrQuizNotPassed is returned for exercise completions before the quiz
// gate opens.
var ErrQuizNotPassed = errors.New("quiz not passed")

// Tasks is the task persistence the tracker needs.
type Tasks interface {
	Task(ctx context.Context, taskID string) (*store.Task, error)
	CompleteTask(ctx context.Context, taskID string, at time.Time) (bool, error)
}

// Tracker advances the per-task state machine.
type Tracker struct {
	tasks    Tasks
	progress store.ProgressRepo
	now      func() time.Time
	policy   retry.Policy
	log      *logger.Logger
}

// NewTracker returns a Tracker. log may be nil.
func NewTracker(tasks Tasks, progress store.ProgressRepo, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{
		tasks:    tasks,
		progress: progress,
		now:      time.Now,
		policy:   retry.DefaultPolicy(),
		log:      log,
	}
}

// WithClock returns a copy of t that reads time from now.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	c := *t
	c.now = now
	return &c
}

// WithRetry returns a copy of t using p for progress reads.
func (t *Tracker) WithRetry(p retry.Policy) *Tracker {
	c := *t
	c.policy = p
	return &c
}

// State reads the task and its progress row. Reads are retried.
func (t *Tracker) State(ctx context.Context, sessionID, taskID string) (State, error) {
	task, err := t.tasks.Task(ctx, taskID)
	if err != nil {
		return State{}, err
	}

	row, err := retry.Value(ctx, t.policy, func(ctx context.Context) (*store.Progress, error) {
		row, err := t.progress.Get(ctx, taskID, sessionID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return row, err
	})
	if err != nil {
		return State{}, fmt.Errorf("load progress: %w", err)
	}
	return Derive(*task, row), nil
}

// CompleteQuiz records a finished quiz with the given number of wrong
// answers. Failing quizzes leave the state unchanged, and so does any
// quiz on a completed task.
func (t *Tracker) CompleteQuiz(ctx context.Context, sessionID, taskID string, wrong int) (State, error) {
	st, err := t.State(ctx, sessionID, taskID)
	if err != nil {
		return State{}, err
	}
	if st.Phase == Complete || !curriculum.QuizPassed(wrong) {
		return st, nil
	}
	if st.QuizPassed {
		return st, nil
	}

	if err := t.progress.SetQuizPassed(ctx, taskID, sessionID, t.now()); err != nil {
		return State{}, fmt.Errorf("record quiz: %w", err)
	}
	st.QuizPassed = true
	st.Phase = QuizPassed
	if st.ExercisesCompleted > 0 {
		st.Phase = ExercisesInProgress
	}
	t.log.Info("quiz passed", "session_id", sessionID, "task_id", taskID, "wrong", wrong)
	return st, nil
}

// CompleteExercise counts one finished exercise. The count saturates at
// ExercisesRequired and any completion at the cap marks the task complete,
// so a failed CompleteTask is repaired by the next call.
func (t *Tracker) CompleteExercise(ctx context.Context, sessionID, taskID string) (State, error) {
	st, err := t.State(ctx, sessionID, taskID)
	if err != nil {
		return State{}, err
	}
	if !st.QuizPassed {
		return st, ErrQuizNotPassed
	}
	if st.Phase == Complete {
		return st, nil
	}

	now := t.now()
	n, err := t.progress.IncrementExercises(ctx, taskID, sessionID, ExercisesRequired, now)
	if err != nil {
		return State{}, fmt.Errorf("record exercise: %w", err)
	}
	st.ExercisesCompleted = n
	st.Phase = ExercisesInProgress

	if n >= ExercisesRequired {
		changed, err := t.tasks.CompleteTask(ctx, taskID, now)
		if err != nil {
			return State{}, fmt.Errorf("complete task: %w", err)
		}
		if changed {
			t.log.Info("task complete", "session_id", sessionID, "task_id", taskID)
		}
		st.Phase = Complete
		st.TaskCompleted = true
	}
	return st, nil
}

// Route picks the surface for opening a task. Any error sends the learner
// to theory.
func (t *Tracker) Route(ctx context.Context, sessionID, taskID string) Stage {
	st, err := t.State(ctx, sessionID, taskID)
	if err != nil {
		t.log.Warn("progress lookup failed, routing to theory", "session_id", sessionID, "task_id", taskID, "error", err)
		return StageTheory
	}
	return st.Stage()
}

// PlanProgress returns progress rows for a plan keyed by task id.
func (t *Tracker) PlanProgress(ctx context.Context, planID, sessionID string) (map[string]store.Progress, error) {
	rows, err := t.progress.ByPlan(ctx, planID, sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]store.Progress, len(rows))
	for _, r := range rows {
		out[r.TaskID] = r
	}
	return out, nil
}
