package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mathtutor",
	Short: "Math study planner and AI tutor",
	Long: "mathtutor turns a grade, topic and test date into a day-by-day study plan,\n" +
		"tracks quiz and exercise progress, keeps a log of mistakes and answers\n" +
		"questions about solution steps.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (overrides MATHTUTOR_CONFIG)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides the configured database)")
	rootCmd.PersistentFlags().String("session", "", "Session id to act as (overrides MATHTUTOR_SESSION and the saved session)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(mistakesCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(tutorCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
