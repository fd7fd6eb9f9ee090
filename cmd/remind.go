package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/reminder"
)

// printNotifier writes digests for the remind command. Digests arrive
// concurrently.
type printNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printNotifier) Notify(_ context.Context, d reminder.Digest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s  %s  (%d/%d done, %d missed, test in %d days)\n",
		d.SessionID, d.TopicName, d.Completed, d.Total, d.Missed, d.DaysUntilTest)
	for _, t := range d.Today {
		fmt.Fprintf(p.out, "    Day %d: %s\n", t.DayNumber, t.Title)
	}
	return nil
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send today's study reminders once",
	Long: "Builds a digest of today's tasks for every plan and prints it. The serve\n" +
		"command sends the same digests on a daily schedule when reminders are enabled.",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Study reminders")
		fmt.Fprintln(out, strings.Repeat("─", 60))

		sched := reminder.New(d.store.PlanRepo(), &printNotifier{out: out}, d.cfg.Reminder.At, d.log)
		n, err := sched.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(out, "Nothing due today.")
		}
		return nil
	},
}
