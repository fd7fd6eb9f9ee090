// Package progress tracks each task's quiz and exercise stages and derives
// where a learner should resume.
package progress

import (
	"fmt"

	"github.com/abhisek/mathtutor/internal/store"
)

// ExercisesRequired is the number of exercises that completes a task.
const ExercisesRequired = 4

// Phase is a task's position in the quiz/exercise state machine.
type Phase int

const (
	NotStarted          Phase = iota // no progress row, or quiz not passed
	QuizPassed                       // quiz passed, no exercises yet
	ExercisesInProgress              // exercises done, task not yet marked complete
	Complete                         // terminal, only once the task is flagged
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case QuizPassed:
		return "quiz_passed"
	case ExercisesInProgress:
		return "exercises_in_progress"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase name in JSON.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is a task's derived progress.
type State struct {
	Phase              Phase `json:"phase"`
	QuizPassed         bool  `json:"quiz_passed"`
	ExercisesCompleted int   `json:"exercises_completed"`
	TaskCompleted      bool  `json:"task_completed"`
}

// Derive computes the state from a task and its progress row (nil when
// none exists yet).
func Derive(task store.Task, row *store.Progress) State {
	s := State{TaskCompleted: task.IsCompleted}
	if row != nil {
		s.QuizPassed = row.QuizPassed
		s.ExercisesCompleted = row.ExercisesCompleted
	}

	switch {
	case task.IsCompleted:
		s.Phase = Complete
	case !s.QuizPassed:
		s.Phase = NotStarted
	case s.ExercisesCompleted == 0:
		s.Phase = QuizPassed
	default:
		// A full counter without the task flag means marking the task
		// failed; the next exercise completion retries it.
		s.Phase = ExercisesInProgress
	}
	return s
}

// Stage is the surface a learner is sent to when opening a task.
type Stage string

const (
	StageTheory    Stage = "theory"
	StageExercises Stage = "exercises"
)

// Stage returns where a learner in state s resumes.
func (s State) Stage() Stage {
	if s.QuizPassed {
		return StageExercises
	}
	return StageTheory
}
