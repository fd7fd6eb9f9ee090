package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/httpapi"
	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/observability"
	"github.com/abhisek/mathtutor/internal/reminder"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		shutdownTracing, err := observability.Init(ctx, cfg.Tracing, observability.Options{Version: buildVersion()}, log)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				log.Warn("tracing shutdown failed", "error", err)
			}
		}()

		cmd.SetContext(ctx)
		d, err := setup(cmd, log)
		if err != nil {
			return err
		}
		defer d.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			d.cfg.Server.Addr = addr
		}

		if d.cfg.Reminder.Enabled {
			sched := reminder.New(d.store.PlanRepo(), reminder.LogNotifier{Log: log}, d.cfg.Reminder.At, log)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("start reminders: %w", err)
			}
			defer sched.Stop()
		}

		srv := httpapi.New(httpapi.Deps{
			Plans:       d.plans,
			Progress:    d.tracker,
			Mistakes:    d.mistakes,
			Tutor:       d.tutor,
			CORSOrigins: d.cfg.Server.CORSOrigins,
			Log:         log,
		})
		return srv.Run(ctx, d.cfg.Server.Addr, d.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
