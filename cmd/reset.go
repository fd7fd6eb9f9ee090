package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the session's plan, progress and mistakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("this deletes all learner data for the session; pass --yes to confirm")
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
		if err := d.plans.Delete(ctx, sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete plan: %w", err)
		}
		n, err := d.mistakes.Clear(ctx, sess.ID, "")
		if err != nil {
			return fmt.Errorf("clear mistakes: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset session %s: plan deleted, %d mistakes cleared.\n", sess.ID, n)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
