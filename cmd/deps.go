package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathtutor/internal/cache"
	"github.com/abhisek/mathtutor/internal/config"
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/mistakes"
	"github.com/abhisek/mathtutor/internal/plan"
	"github.com/abhisek/mathtutor/internal/progress"
	"github.com/abhisek/mathtutor/internal/retry"
	"github.com/abhisek/mathtutor/internal/session"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/tutor"
)

// deps is everything a command may need, built from configuration.
type deps struct {
	cfg      config.Config
	log      *logger.Logger
	store    *store.Store
	provider llm.Provider // nil when no AI provider is configured
	cache    cache.Cache
	plans    *plan.Service
	tracker  *progress.Tracker
	mistakes *mistakes.Recorder
	tutor    *tutor.Tutor // nil without a provider
}

func (d *deps) Close() {
	if d.cache != nil {
		d.cache.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
	d.log.Sync()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger logs only with --verbose so command output stays readable.
func cliLogger(cmd *cobra.Command, cfg config.Config) (*logger.Logger, error) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		return logger.Nop(), nil
	}
	return logger.New(cfg.Log.Mode)
}

// openStore opens the database named by --db, the config, or the default
// SQLite path, in that order.
func openStore(cmd *cobra.Command, cfg config.Config) (*store.Store, error) {
	driver, dsn := cfg.Database.Driver, cfg.Database.DSN
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return nil, err
		}
		driver, dsn = store.DriverSQLite, p
	}
	if dsn == "" && driver == store.DriverSQLite {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dsn = p
	}
	s, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// setup wires the services for a command. log overrides the CLI logger
// when non-nil.
func setup(cmd *cobra.Command, log *logger.Logger) (*deps, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if log == nil {
		if log, err = cliLogger(cmd, cfg); err != nil {
			return nil, err
		}
	}

	st, err := openStore(cmd, cfg)
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg, log: log, store: st}

	if err := cfg.LLM.Validate(); err != nil {
		log.Warn("LLM provider not configured, AI features are unavailable", "error", err)
	} else {
		provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
		if err != nil {
			log.Warn("LLM provider init failed, AI features are unavailable", "error", err)
		} else {
			d.provider = provider
		}
	}

	policy := retry.Policy{Attempts: cfg.Plan.InsertAttempts, Delay: cfg.Plan.InsertDelay}
	opts := []plan.Option{plan.WithLogger(log), plan.WithRetry(policy)}
	if d.provider != nil && cfg.Plan.Remote {
		opts = append(opts, plan.WithRemote(plan.NewRemoteGenerator(d.provider, cfg.Plan.RemoteTimeout)))
	}
	d.plans = plan.NewService(st.PlanRepo(), opts...)
	d.tracker = progress.NewTracker(st.PlanRepo(), st.ProgressRepo(), log)
	d.mistakes = mistakes.NewRecorder(st.MistakeRepo(), log)

	d.cache = cache.New(ctx, cfg.Redis, log)
	if d.provider != nil {
		tc := tutor.DefaultConfig()
		tc.MaxTokens = cfg.Tutor.MaxTokens
		tc.RatePerMinute = cfg.Tutor.RatePerMinute
		tc.Burst = cfg.Tutor.Burst
		if cfg.Redis.TTL > 0 {
			tc.CacheTTL = cfg.Redis.TTL
		}
		d.tutor = tutor.New(d.provider, tc, d.cache, log)
	}
	return d, nil
}

func (d *deps) requireTutor() error {
	if d.tutor == nil {
		return errors.New("no AI provider configured: set MATHTUTOR_LLM_PROVIDER and its API key")
	}
	return nil
}

// resolveSession picks the learner for CLI commands: the --session flag or
// MATHTUTOR_SESSION first, then the session file, minting one if needed.
func resolveSession(cmd *cobra.Command, log *logger.Logger) (session.Result, error) {
	path, err := session.DefaultFilePath()
	if err != nil {
		return session.Result{}, err
	}
	override := session.FuncStore{
		LoadFunc: func(context.Context) (string, error) {
			if v, _ := cmd.Flags().GetString("session"); v != "" {
				return v, nil
			}
			return strings.TrimSpace(os.Getenv("MATHTUTOR_SESSION")), nil
		},
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// The override goes first; the file is written only for new ids.
	r := session.NewResolver(override, session.FileStore{Path: path}, log)
	return r.Resolve(ctx, nil), nil
}
