// Package retry runs persistence calls with a fixed delay between a capped
// number of attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy configures a fixed-delay retry.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy is three attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Delay: time.Second}
}

// ExhaustedError reports that every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// permanentError marks an error that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls op until it succeeds, returns a permanent error, or the policy
// runs out of attempts. The error after exhaustion is an *ExhaustedError.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := 0
	var stop error
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		res, err := op(ctx)
		var perm *permanentError
		if errors.As(err, &perm) {
			stop = perm.err
			return res, backoff.Permanent(perm.err)
		}
		return res, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(max(p.Attempts, 1))),
		backoff.WithMaxElapsedTime(0),
	)
	switch {
	case err == nil:
		return res, nil
	case stop != nil:
		return res, stop
	case ctx.Err() != nil:
		return res, ctx.Err()
	}
	return res, &ExhaustedError{Attempts: attempts, Err: err}
}
