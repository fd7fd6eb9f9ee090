package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the current session and a link to resume it",
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("base-url")
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid --base-url: %w", err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := cliLogger(cmd, cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		res, err := resolveSession(cmd, log)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Session:   %s\n", res.ID)
		fmt.Fprintf(out, "Source:    %s\n", res.Source)
		fmt.Fprintf(out, "Share URL: %s\n", session.ShareURL(u, res.ID))
		return nil
	},
}

var sessionUseCmd = &cobra.Command{
	Use:   "use <session-id>",
	Short: "Save a session id so later commands act as that learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		if id == "" {
			return errors.New("session id must not be empty")
		}
		path, err := session.DefaultFilePath()
		if err != nil {
			return err
		}
		r := session.NewResolver(nil, session.FileStore{Path: path}, logger.Nop())
		if _, err := r.Persist(cmd.Context(), id, nil); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now using session %s\n", id)
		return nil
	},
}

func init() {
	sessionCmd.Flags().String("base-url", "http://localhost:8080/", "Base URL used for the share link")
	sessionCmd.AddCommand(sessionUseCmd)
}
