package llm

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config selects and tunes the model behind tutoring, graphing, quiz and
// plan generation.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds one call including retries. Tutor requests run
	// detached from the HTTP request under this budget.
	Timeout time.Duration `yaml:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gemini-flash"
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig tunes RetryProvider. MaxWait also caps how long a
// Retry-After hint is honoured before the rate limit is handed back.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// vendorKey binds an environment variable to a config field.
type vendorKey struct {
	env string
	dst *string
}

// ApplyEnv overrides cfg with the MATHTUTOR_* LLM variables that are set.
// When the selected provider still has no key, the vendors' own variables
// (ANTHROPIC_API_KEY and friends) are tried, first for that provider and
// then, if MATHTUTOR_LLM_PROVIDER was not given, for the first vendor
// whose key is present.
func ApplyEnv(cfg *Config) {
	for _, b := range []vendorKey{
		{"MATHTUTOR_LLM_PROVIDER", &cfg.Provider},
		{"MATHTUTOR_ANTHROPIC_API_KEY", &cfg.Anthropic.APIKey},
		{"MATHTUTOR_ANTHROPIC_MODEL", &cfg.Anthropic.Model},
		{"MATHTUTOR_OPENAI_API_KEY", &cfg.OpenAI.APIKey},
		{"MATHTUTOR_OPENAI_MODEL", &cfg.OpenAI.Model},
		{"MATHTUTOR_OPENAI_BASE_URL", &cfg.OpenAI.BaseURL},
		{"MATHTUTOR_GEMINI_API_KEY", &cfg.Gemini.APIKey},
		{"MATHTUTOR_GEMINI_MODEL", &cfg.Gemini.Model},
		{"MATHTUTOR_OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey},
		{"MATHTUTOR_OPENROUTER_MODEL", &cfg.OpenRouter.Model},
	} {
		if v := os.Getenv(b.env); v != "" {
			*b.dst = v
		}
	}

	keys := cfg.vendorKeys()
	if k, ok := keys[cfg.Provider]; ok && *k.dst == "" {
		*k.dst = os.Getenv(k.env)
	}
	if cfg.Validate() == nil || os.Getenv("MATHTUTOR_LLM_PROVIDER") != "" {
		return
	}
	for _, name := range []string{"gemini", "openai", "anthropic", "openrouter"} {
		k := keys[name]
		if v := os.Getenv(k.env); v != "" {
			cfg.Provider = name
			*k.dst = v
			return
		}
	}
}

func (c *Config) vendorKeys() map[string]vendorKey {
	return map[string]vendorKey{
		"anthropic":  {"ANTHROPIC_API_KEY", &c.Anthropic.APIKey},
		"openai":     {"OPENAI_API_KEY", &c.OpenAI.APIKey},
		"gemini":     {"GEMINI_API_KEY", &c.Gemini.APIKey},
		"openrouter": {"OPENROUTER_API_KEY", &c.OpenRouter.APIKey},
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return errors.New("MATHTUTOR_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return errors.New("MATHTUTOR_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return errors.New("MATHTUTOR_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return errors.New("MATHTUTOR_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
