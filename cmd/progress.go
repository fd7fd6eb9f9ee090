package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record quiz and exercise progress on a task",
}

// sessionTask loads the session's plan and finds taskID in it.
func sessionTask(cmd *cobra.Command, d *deps, sessionID, taskID string) (*store.Plan, store.Task, error) {
	p, tasks, err := d.plans.Plan(cmd.Context(), sessionID)
	if err != nil {
		return nil, store.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return p, t, nil
		}
	}
	return nil, store.Task{}, fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
}

func printState(out io.Writer, task store.Task, st progress.State) {
	fmt.Fprintf(out, "Day %d: %s\n", task.DayNumber, task.Title)
	fmt.Fprintf(out, "  phase:     %s\n", st.Phase)
	fmt.Fprintf(out, "  quiz:      %s\n", map[bool]string{true: "passed", false: "not passed"}[st.QuizPassed])
	fmt.Fprintf(out, "  exercises: %d/%d\n", st.ExercisesCompleted, progress.ExercisesRequired)
	fmt.Fprintf(out, "  next:      %s\n", st.Stage())
}

var progressShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task's progress and where to resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}
		_, task, err := sessionTask(cmd, d, sess.ID, args[0])
		if err != nil {
			return err
		}
		st, err := d.tracker.State(cmd.Context(), sess.ID, task.ID)
		if err != nil {
			return err
		}
		printState(cmd.OutOrStdout(), task, st)
		return nil
	},
}

var progressQuizCmd = &cobra.Command{
	Use:   "quiz <task-id>",
	Short: "Record a finished quiz",
	Long: "Record a finished quiz either as a count of wrong answers (--wrong) or as\n" +
		"the chosen option numbers for the topic's quiz (--answers 2,1,1,2,2,3).\n" +
		"At most 2 wrong answers pass.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wrong, _ := cmd.Flags().GetInt("wrong")
		answersFlag, _ := cmd.Flags().GetString("answers")
		if wrong < 0 && answersFlag == "" {
			return errors.New("one of --wrong or --answers is required")
		}

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}
		p, task, err := sessionTask(cmd, d, sess.ID, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if answersFlag != "" {
			topic, ok := curriculum.Lookup(p.TopicID)
			if !ok || len(topic.Quiz) == 0 {
				return fmt.Errorf("topic %s has no quiz to grade against", p.TopicID)
			}
			answers, err := parseOptionNumbers(answersFlag)
			if err != nil {
				return err
			}
			res := curriculum.GradeQuiz(topic.Quiz, answers)
			wrong = res.Wrong
			fmt.Fprintf(out, "Score: %d/%d\n", res.Total-res.Wrong, res.Total)
		}

		st, err := d.tracker.CompleteQuiz(cmd.Context(), sess.ID, task.ID, wrong)
		if err != nil {
			return err
		}
		if !curriculum.QuizPassed(wrong) {
			fmt.Fprintf(out, "%d wrong answers. Review the theory and try again.\n", wrong)
		}
		printState(out, task, st)
		return nil
	},
}

// parseOptionNumbers turns "2,1,3" (1-based) into option indexes.
func parseOptionNumbers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid answer %q: want option numbers starting at 1", p)
		}
		out = append(out, n-1)
	}
	return out, nil
}

var progressExerciseCmd = &cobra.Command{
	Use:   "exercise <task-id>",
	Short: "Record one completed exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}
		_, task, err := sessionTask(cmd, d, sess.ID, args[0])
		if err != nil {
			return err
		}
		st, err := d.tracker.CompleteExercise(cmd.Context(), sess.ID, task.ID)
		if errors.Is(err, progress.ErrQuizNotPassed) {
			return errors.New("pass the quiz first (at most 2 wrong answers)")
		}
		if err != nil {
			return err
		}
		printState(cmd.OutOrStdout(), task, st)
		return nil
	},
}

func init() {
	progressQuizCmd.Flags().Int("wrong", -1, "Number of wrong answers")
	progressQuizCmd.Flags().String("answers", "", "Comma separated option numbers, starting at 1")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressQuizCmd)
	progressCmd.AddCommand(progressExerciseCmd)
}
