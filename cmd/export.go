package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/export"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the plan, progress and mistakes to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = fmt.Sprintf("mathtutor-%s.xlsx", time.Now().Format(time.DateOnly))
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

		ctx := cmd.Context()
		p, tasks, err := d.plans.Plan(ctx, sess.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		var prog map[string]store.Progress
		if p != nil {
			if prog, err = d.tracker.PlanProgress(ctx, p.ID, sess.ID); err != nil {
				return err
			}
		}
		records, err := d.mistakes.List(ctx, sess.ID, mistakes.Filter{})
		if err != nil {
			return err
		}

		f, err := export.Workbook(p, tasks, prog, records)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d tasks, %d mistakes)\n", path, len(tasks), len(records))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Output file (default mathtutor-YYYY-MM-DD.xlsx)")
}
