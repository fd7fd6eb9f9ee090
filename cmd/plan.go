package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/plan"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/store"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create and inspect the study plan",
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a study plan up to a test date",
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetString("grade")
		topic, _ := cmd.Flags().GetString("topic")
		name, _ := cmd.Flags().GetString("name")
		date, _ := cmd.Flags().GetString("test-date")
		replace, _ := cmd.Flags().GetBool("replace")

		var testDate store.Date
		if date != "" {
			d, err := store.ParseDate(date)
			if err != nil {
				return fmt.Errorf("invalid --test-date: %w", err)
			}
			testDate = d
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

		res, err := d.plans.Generate(cmd.Context(), plan.Request{
			Grade:     grade,
			TopicID:   topic,
			TopicName: name,
			TestDate:  testDate,
			SessionID: sess.ID,
			Replace:   replace,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.Existing {
			fmt.Fprintf(out, "A plan already exists (%d tasks). Use --replace to start over.\n", res.TaskCount)
			return nil
		}
		fmt.Fprintf(out, "Created a %d-task plan (%s).\n", res.TaskCount, res.Source)
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the plan grouped into today, upcoming and past tasks",
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

		p, tasks, err := d.plans.Plan(cmd.Context(), sess.ID)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No plan yet. Create one with: mathtutor plan generate")
			return nil
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		today := store.DateOf(time.Now())
		done, total, pct := progress.Completion(tasks)
		fmt.Fprintf(out, "%s (grade %s), test on %s, %d days left\n", p.TopicName, p.Grade, p.TestDate, today.DaysUntil(p.TestDate))
		fmt.Fprintf(out, "Progress: %d/%d tasks (%.0f%%)\n", done, total, pct)

		b := progress.Partition(tasks, today)
		printTasks := func(title string, ts []store.Task) {
			if len(ts) == 0 {
				return
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, title)
			fmt.Fprintln(out, strings.Repeat("─", 60))
			for _, t := range ts {
				mark := " "
				if t.IsCompleted {
					mark = "✓"
				}
				fmt.Fprintf(out, "%s Day %-2d  %s  %-38s  %s\n", mark, t.DayNumber, t.ScheduledDate, t.Title, t.ID)
			}
		}
		printTasks("Today", b.Today)
		printTasks("Upcoming", b.Upcoming)
		printTasks("Missed", b.Past.Missed)
		printTasks("Done", b.Past.Done)

		if next, ok := progress.Next(tasks); ok {
			fmt.Fprintf(out, "\nNext up: Day %d, %s\n", next.DayNumber, next.Title)
		}
		return nil
	},
}

var planResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the plan with its tasks and progress",
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
		if err := d.plans.Delete(cmd.Context(), sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Plan deleted.")
		return nil
	},
}

func init() {
	planGenerateCmd.Flags().String("grade", "", "Grade level, e.g. 9")
	planGenerateCmd.Flags().String("topic", "", "Topic id, e.g. 9-quadratics (see: mathtutor topics list)")
	planGenerateCmd.Flags().String("name", "", "Display name for the topic (defaults to the catalog name)")
	planGenerateCmd.Flags().String("test-date", "", "Test date as YYYY-MM-DD")
	planGenerateCmd.Flags().Bool("replace", false, "Replace an existing plan")

	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planResetCmd)
}
