package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return r.do(ctx, func() (*Response, error) {
		return r.inner.Generate(ctx, req)
	}, nil)
}

// Stream retries like Generate, but only while nothing has been delivered
// to onDelta. Once text has reached the caller a failure is returned as is.
func (r *RetryProvider) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (*Response, error) {
	delivered := false
	return r.do(ctx, func() (*Response, error) {
		return Stream(ctx, r.inner, req, func(delta string) error {
			delivered = true
			return onDelta(delta)
		})
	}, func() bool { return delivered })
}

// do runs call until it succeeds, fails permanently or attempts run out.
// final, when set, reports that the last failure must not be retried.
func (r *RetryProvider) do(ctx context.Context, call func() (*Response, error), final func() bool) (*Response, error) {
	var lastErr error
	invalidRetried := false
	attempts := max(r.config.MaxAttempts, 1)
	if singleShot(ctx) {
		attempts = 1
	}

	for attempt := range attempts {
		resp, err := call()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if (final != nil && final()) || !r.shouldRetry(err, &invalidRetried) {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		wait, ok := r.backoff(ctx, attempt, err)
		if !ok {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry determines if an error is retryable.
func (r *RetryProvider) shouldRetry(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return false
	}

	// Invalid response gets one retry.
	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	// Rate limits, outages and network errors are transient.
	return true
}

// backoff computes the wait before the next attempt. ok is false when a
// rate limit asks for longer than MaxWait or than ctx has left, so the
// caller can hand the hint on instead of sleeping through it.
func (r *RetryProvider) backoff(ctx context.Context, attempt int, err error) (time.Duration, bool) {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		if r.config.MaxWait > 0 && rl.RetryAfter > r.config.MaxWait {
			return 0, false
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < rl.RetryAfter {
			return 0, false
		}
		return rl.RetryAfter, true
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait), true
}
