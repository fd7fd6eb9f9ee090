package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/curriculum"
	"github.com/abhisek/mathtutor/internal/mistakes"
)

var mistakesCmd = &cobra.Command{
	Use:   "mistakes",
	Short: "Record and review mistakes",
}

var mistakesRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Log a mistake",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		problem, _ := cmd.Flags().GetString("problem")
		topic, _ := cmd.Flags().GetString("topic")
		chosen, _ := cmd.Flags().GetString("chosen")
		correct, _ := cmd.Flags().GetString("correct")
		steps, _ := cmd.Flags().GetIntSlice("steps")
		attempts, _ := cmd.Flags().GetInt("attempts")

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}

		label := topic
		if t, ok := curriculum.Lookup(topic); ok {
			label = t.Name
		}
		// --steps is 1-based on the command line.
		var flagged []int
		for _, s := range steps {
			flagged = append(flagged, s-1)
		}

		rec, err := d.mistakes.Add(cmd.Context(), mistakes.Record{
			SessionID:  sess.ID,
			Kind:       mistakes.Kind(kind),
			Problem:    problem,
			TopicID:    topic,
			TopicLabel: label,
			Detail: mistakes.Detail{
				ChosenAnswer:   chosen,
				CorrectAnswer:  correct,
				IncorrectSteps: flagged,
				Attempts:       attempts,
			},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s mistake %s\n", rec.Kind, rec.ID)
		return nil
	},
}

var mistakesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged mistakes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		topic, _ := cmd.Flags().GetString("topic")

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}

		records, err := d.mistakes.List(cmd.Context(), sess.ID, mistakes.Filter{TopicID: topic, Days: days})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No mistakes logged.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-8s  %-22s  %s\n", "When", "Kind", "Topic", "Problem")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, r := range records {
			fmt.Fprintf(out, "%-16s  %-8s  %-22s  %s\n",
				r.OccurredAt.Local().Format("2006-01-02 15:04"),
				r.Kind,
				truncate(r.TopicLabel, 22),
				truncate(r.Problem, 36),
			)
			switch r.Kind {
			case mistakes.KindQuiz:
				fmt.Fprintf(out, "%18s answered %q, correct %q\n", "", r.Detail.ChosenAnswer, r.Detail.CorrectAnswer)
			case mistakes.KindExercise:
				if len(r.Detail.IncorrectSteps) > 0 {
					steps := make([]string, len(r.Detail.IncorrectSteps))
					for i, s := range r.Detail.IncorrectSteps {
						steps[i] = strconv.Itoa(s + 1)
					}
					fmt.Fprintf(out, "%18s flagged steps %s\n", "", strings.Join(steps, ", "))
				}
			case mistakes.KindPractice:
				fmt.Fprintf(out, "%18s %d attempts\n", "", r.Detail.Attempts)
			}
		}
		return nil
	},
}

var mistakesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mistake statistics and patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}

		records, err := d.mistakes.List(cmd.Context(), sess.ID, mistakes.Filter{})
		if err != nil {
			return err
		}
		s := mistakes.Summarize(records, days, d.mistakes.Now())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total mistakes:     %d\n", s.Total)
		fmt.Fprintf(out, "Last %d days:       %d\n", s.WindowDays, s.Recent)
		for _, k := range mistakes.Kinds() {
			fmt.Fprintf(out, "  %-8s          %d\n", k, s.ByKind[k])
		}
		fmt.Fprintf(out, "Improvement:        %.0f%% (%d this week, %d the week before)\n",
			s.Improvement.PercentChange, s.Improvement.ThisWeek, s.Improvement.LastWeek)
		if s.Total > 0 {
			fmt.Fprintf(out, "Days since last:    %d\n", s.DaysSinceLast)
		}
		if s.Hardest != nil {
			fmt.Fprintf(out, "Hardest topic:      %s (%d)\n", s.Hardest.Label, s.Hardest.Count)
		}
		if len(s.Patterns.Keywords) > 0 {
			kws := make([]string, len(s.Patterns.Keywords))
			for i, k := range s.Patterns.Keywords {
				kws[i] = fmt.Sprintf("%s (%d)", k.Keyword, k.Count)
			}
			fmt.Fprintf(out, "Common themes:      %s\n", strings.Join(kws, ", "))
		}
		if s.Patterns.MostProblematicStep != nil {
			fmt.Fprintf(out, "Most flagged step:  %d\n", *s.Patterns.MostProblematicStep+1)
		}

		fmt.Fprintln(out)
		for _, dc := range s.Daily {
			n := dc.Quiz + dc.Exercise + dc.Practice
			fmt.Fprintf(out, "%s  %s %d\n", dc.Date, strings.Repeat("■", n), n)
		}
		return nil
	},
}

var mistakesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete logged mistakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		id, _ := cmd.Flags().GetString("id")

		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		sess, err := resolveSession(cmd, d.log)
		if err != nil {
			return err
		}

		if id != "" {
			if err := d.mistakes.Delete(cmd.Context(), sess.ID, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted 1 mistake.")
			return nil
		}
		n, err := d.mistakes.Clear(cmd.Context(), sess.ID, topic)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d mistakes.\n", n)
		return nil
	},
}

func init() {
	f := mistakesRecordCmd.Flags()
	f.String("kind", "", "quiz, exercise or practice")
	f.String("problem", "", "The problem statement")
	f.String("topic", "", "Topic id")
	f.String("chosen", "", "Chosen answer (quiz)")
	f.String("correct", "", "Correct answer (quiz)")
	f.IntSlice("steps", nil, "Flagged step numbers, starting at 1 (exercise)")
	f.Int("attempts", 0, "Attempt count (practice)")

	mistakesListCmd.Flags().Int("days", 0, "Only the last N days")
	mistakesListCmd.Flags().String("topic", "", "Only this topic id")
	mistakesStatsCmd.Flags().Int("days", 7, "Window for recent figures")
	mistakesClearCmd.Flags().String("topic", "", "Only this topic id")
	mistakesClearCmd.Flags().String("id", "", "Delete a single mistake")

	mistakesCmd.AddCommand(mistakesRecordCmd)
	mistakesCmd.AddCommand(mistakesListCmd)
	mistakesCmd.AddCommand(mistakesStatsCmd)
	mistakesCmd.AddCommand(mistakesClearCmd)
}
