package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/mathtutor/internal/logger"
	"github.com/abhisek/mathtutor/internal/store"
)

// NewProvider builds the vendor client cfg selects, wrapped so that every
// attempt is logged as an llm_requests row and transient failures are
// retried. "mock" gives an empty MockProvider, which answers every call
// with ErrProviderUnavailable and so keeps AI features switched off.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// retry wraps logging so each attempt gets its own row.
	return WithRetry(WithLogging(base, eventRepo, log), cfg.Retry), nil
}
