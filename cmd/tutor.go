package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/graph"
	"github.com/abhisek/mathtutor/internal/httpapi"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/tutor"
)

var tutorCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Ask the AI tutor about a solution step",
}

// planTopic returns the topic and grade of the session's plan, if any.
func planTopic(cmd *cobra.Command, d *deps, sessionID string) (topicID, name, grade string) {
	p, _, err := d.plans.Plan(cmd.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			d.log.Warn("load plan for tutor defaults", "error", err)
		}
		return "", "", ""
	}
	return p.TopicID, p.TopicName, p.Grade
}

var tutorAskCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about one step of a solution",
	RunE: func(cmd *cobra.Command, args []string) error {
		step, _ := cmd.Flags().GetString("step")
		explanation, _ := cmd.Flags().GetString("explanation")
		question, _ := cmd.Flags().GetString("question")
		topic, _ := cmd.Flags().GetString("topic")
		grade, _ := cmd.Flags().GetString("grade")
		if server, _ := cmd.Flags().GetString("server"); server != "" {
			return askServer(cmd, server, tutor.AskRequest{
				StepContent:     step,
				StepExplanation: explanation,
				Question:        question,
				Topic:           topic,
				Grade:           grade,
			})
		}

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.requireTutor(); err != nil {
			return err
		}
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}
		if topic == "" || grade == "" {
			_, name, g := planTopic(cmd, d, sess.ID)
			if topic == "" {
				topic = name
			}
			if grade == "" {
				grade = g
			}
		}

		out := cmd.OutOrStdout()
		_, err = d.tutor.AskStep(cmd.Context(), tutor.AskRequest{
			SessionID:       sess.ID,
			StepContent:     step,
			StepExplanation: explanation,
			Question:        question,
			Topic:           topic,
			Grade:           grade,
		}, func(delta string) error {
			_, err := fmt.Fprint(out, delta)
			return err
		})
		fmt.Fprintln(out)
		return err
	},
}

// askServer sends the question to a running server and prints the
// streamed answer as it arrives.
func askServer(cmd *cobra.Command, server string, req tutor.AskRequest) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := cliLogger(cmd, cfg)
	if err != nil {
		return err
	}
	sess, err := resolveSession(cmd, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := httpapi.NewClient(server, nil).AskStep(cmd.Context(), sess.ID, req, func(delta string) error {
		_, err := fmt.Fprint(out, delta)
		return err
	})
	fmt.Fprintln(out)
	if err == nil && !res.Done {
		log.Warn("answer stream ended without a terminator", "server", server)
	}
	return err
}

var tutorGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Extract a parabola from a problem and optionally draw it",
	RunE: func(cmd *cobra.Command, args []string) error {
		problem, _ := cmd.Flags().GetString("context")
		step, _ := cmd.Flags().GetString("step")
		png, _ := cmd.Flags().GetString("png")

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.requireTutor(); err != nil {
			return err
		}
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}
		_, topic, grade := planTopic(cmd, d, sess.ID)

		data, err := d.tutor.GraphData(cmd.Context(), tutor.GraphRequest{
			SessionID:   sess.ID,
			Context:     problem,
			StepContent: step,
			Topic:       topic,
			Grade:       grade,
		})
		out := cmd.OutOrStdout()
		if errors.Is(err, tutor.ErrNoGraph) {
			fmt.Fprintln(out, "No quadratic function found to graph.")
			return nil
		}
		if err != nil {
			return err
		}

		p := data.Parameters
		fmt.Fprintf(out, "%s\n", p.Label)
		fmt.Fprintf(out, "  a=%g b=%g c=%g\n", p.A, p.B, p.C)
		fmt.Fprintf(out, "  discriminant: %g\n", p.Discriminant)
		if len(p.Roots) == 0 {
			fmt.Fprintln(out, "  no real roots")
		} else {
			fmt.Fprintf(out, "  roots: %v\n", p.Roots)
		}

		if png == "" {
			return nil
		}
		img, err := graph.RenderParabola(data, graph.DefaultOptions())
		if err != nil {
			return fmt.Errorf("render graph: %w", err)
		}
		if err := os.WriteFile(png, img, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", png, err)
		}
		fmt.Fprintf(out, "Saved %s\n", png)
		return nil
	},
}

var tutorQuizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a practice quiz for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		grade, _ := cmd.Flags().GetString("grade")
		count, _ := cmd.Flags().GetInt("count")

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.requireTutor(); err != nil {
			return err
		}
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}

		var subtopics []string
		if topic == "" {
			id, name, g := planTopic(cmd, d, sess.ID)
			if name == "" {
				return errors.New("--topic is required without a plan")
			}
			topic = name
			if grade == "" {
				grade = g
			}
			if t, ok := curriculum.Lookup(id); ok {
				subtopics = curriculum.Subtopics(t)
			}
		} else if t, ok := curriculum.Lookup(topic); ok {
			topic, grade, subtopics = t.Name, t.Grade, curriculum.Subtopics(t)
		}

		questions, err := d.tutor.GenerateQuiz(cmd.Context(), tutor.QuizRequest{
			SessionID: sess.ID,
			Topic:     topic,
			Grade:     grade,
			Subtopics: subtopics,
			Count:     count,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, q := range questions {
			fmt.Fprintf(out, "%d. %s\n", i+1, q.Question)
			for j, o := range q.Options {
				fmt.Fprintf(out, "   %d) %s\n", j+1, o)
			}
			fmt.Fprintf(out, "   answer: %d\n\n", q.Answer+1)
		}
		return nil
	},
}

func init() {
	tutorAskCmd.Flags().String("step", "", "The solution step in question")
	tutorAskCmd.Flags().String("explanation", "", "The step's explanation")
	tutorAskCmd.Flags().String("question", "", "Your question")
	tutorAskCmd.Flags().String("topic", "", "Topic name (defaults to the plan's topic)")
	tutorAskCmd.Flags().String("grade", "", "Grade (defaults to the plan's grade)")
	tutorAskCmd.Flags().String("server", "", "Ask a running server at this URL instead of calling the model directly")

	tutorGraphCmd.Flags().String("context", "", "Problem text containing a quadratic")
	tutorGraphCmd.Flags().String("step", "", "Solution step for extra context")
	tutorGraphCmd.Flags().String("png", "", "Write the graph to this PNG file")

	tutorQuizCmd.Flags().String("topic", "", "Topic id or name (defaults to the plan's topic)")
	tutorQuizCmd.Flags().String("grade", "", "Grade")
	tutorQuizCmd.Flags().Int("count", 5, "Number of questions")

	tutorCmd.AddCommand(tutorAskCmd)
	tutorCmd.AddCommand(tutorGraphCmd)
	tutorCmd.AddCommand(tutorQuizCmd)
}
