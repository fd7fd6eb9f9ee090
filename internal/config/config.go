// Package config loads application settings from defaults, an optional YAML
// file, a .env file and MATHTUTOR_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/store"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      llm.Config     `yaml:"llm"`
	Plan     PlanConfig     `yaml:"plan"`
	Tutor    TutorConfig    `yaml:"tutor"`
	Reminder ReminderConfig `yaml:"reminder"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // empty selects the default SQLite path
}

// RedisConfig enables the shared AI response cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PlanConfig struct {
	RemoteTimeout  time.Duration `yaml:"remote_timeout"`
	InsertAttempts int           `yaml:"insert_attempts"`
	InsertDelay    time.Duration `yaml:"insert_delay"`
	// Remote disables AI plan authoring when false.
	Remote bool `yaml:"remote"`
}

type TutorConfig struct {
	RatePerMinute int `yaml:"rate_per_minute"`
	Burst         int `yaml:"burst"`
	MaxTokens     int `yaml:"max_tokens"`
}

type ReminderConfig struct {
	Enabled bool   `yaml:"enabled"`
	At      string `yaml:"at"` // HH:MM, UTC
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // "dev" or "prod"
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: store.DriverSQLite},
		Redis:    RedisConfig{TTL: 24 * time.Hour},
		LLM:      llm.DefaultConfig(),
		Plan: PlanConfig{
			RemoteTimeout:  10 * time.Second,
			InsertAttempts: 3,
			InsertDelay:    time.Second,
			Remote:         true,
		},
		Tutor: TutorConfig{
			RatePerMinute: 20,
			Burst:         5,
			MaxTokens:     1024,
		},
		Reminder: ReminderConfig{At: "18:00"},
		Log:      LogConfig{Mode: "dev"},
	}
}

// Load builds the configuration. path may be empty, in which case
// MATHTUTOR_CONFIG is consulted. A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MATHTUTOR_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// godotenv.Load never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MATHTUTOR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MATHTUTOR_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("MATHTUTOR_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("MATHTUTOR_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v, ok := envDuration("MATHTUTOR_PLAN_REMOTE_TIMEOUT"); ok {
		cfg.Plan.RemoteTimeout = v
	}
	if v, ok := envBool("MATHTUTOR_PLAN_REMOTE"); ok {
		cfg.Plan.Remote = v
	}
	if v, ok := envInt("MATHTUTOR_TUTOR_RATE_PER_MINUTE"); ok {
		cfg.Tutor.RatePerMinute = v
	}
	if v, ok := envBool("MATHTUTOR_REMINDER_ENABLED"); ok {
		cfg.Reminder.Enabled = v
	}
	if v := os.Getenv("MATHTUTOR_REMINDER_AT"); v != "" {
		cfg.Reminder.At = v
	}
	if v, ok := envBool("OTEL_ENABLED"); ok {
		cfg.Tracing.Enabled = v
	}
	if v := os.Getenv("MATHTUTOR_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}

	llm.ApplyEnv(&cfg.LLM)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == store.DriverPostgres && c.Database.DSN == "" {
		return errors.New("database dsn is required for postgres")
	}
	if c.Plan.InsertAttempts < 1 {
		return errors.New("plan insert_attempts must be at least 1")
	}
	if c.Plan.InsertDelay < 0 || c.Plan.RemoteTimeout <= 0 {
		return errors.New("plan delays must be positive")
	}
	if c.Tutor.RatePerMinute < 1 || c.Tutor.Burst < 1 {
		return errors.New("tutor rate limits must be positive")
	}
	if _, err := time.Parse("15:04", c.Reminder.At); err != nil {
		return fmt.Errorf("reminder time %q: want HH:MM", c.Reminder.At)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	return d, err == nil
}
