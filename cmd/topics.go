package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/curriculum"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Browse the topic catalog",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grades and their topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetString("grade")
		out := cmd.OutOrStdout()

		shown := 0
		for _, g := range curriculum.Grades() {
			if grade != "" && g.ID != grade {
				continue
			}
			shown++
			fmt.Fprintf(out, "%s\n", g.Name)
			fmt.Fprintln(out, strings.Repeat("─", 60))
			for _, t := range g.Topics {
				fmt.Fprintf(out, "  %-22s  %s\n", t.ID, t.Name)
				if detailed, _ := cmd.Flags().GetBool("subtopics"); detailed {
					for i, s := range curriculum.Subtopics(t) {
						fmt.Fprintf(out, "  %-22s    %d. %s\n", "", i+1, s)
					}
				}
			}
			fmt.Fprintln(out)
		}
		if shown == 0 {
			return fmt.Errorf("unknown grade %q", grade)
		}
		return nil
	},
}

func init() {
	topicsListCmd.Flags().String("grade", "", "Only this grade, e.g. 9")
	topicsListCmd.Flags().Bool("subtopics", false, "Show each topic's subtopics")

	topicsCmd.AddCommand(topicsListCmd)
}
