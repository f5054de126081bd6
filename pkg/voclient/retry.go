package voclient

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Transient failures (network timeouts, connection errors, 5xx responses)
// are wrapped with this type so the request loop knows to try again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}

const retryAttempts = 3

// retryInitialInterval seeds the exponential backoff between attempts.
// Tests shorten it to keep retry paths fast.
var retryInitialInterval = time.Second

// retryAfterCap bounds how long a Retry-After wait is honored inside the
// retry loop. A service asking for more than this is reporting a quota, not
// a momentary burst, so the rate limit surfaces to the caller instead.
var retryAfterCap = 30 * time.Second

// retryWithBackoff executes fn up to retryAttempts times with exponential
// backoff between attempts. Errors wrapped with [RetryableError] are retried,
// as are rate-limited responses whose Retry-After wait fits under
// retryAfterCap (the wait stretches the next interval); other errors abort
// immediately. Returns ctx.Err() if the context is cancelled while waiting,
// or the last error if all attempts fail.
func retryWithBackoff(ctx context.Context, fn func() error) error {
	var wait time.Duration

	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		var rl *errors.RateLimitedError
		if stderrors.As(err, &rl) {
			d := time.Duration(rl.RetryAfter) * time.Second
			if d > retryAfterCap {
				return backoff.Permanent(err)
			}
			wait = d
			return err
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxElapsedTime = 0 // bounded by attempt count and ctx, not wall time
	limited := backoff.WithMaxRetries(&retryAfterBackOff{BackOff: b, wait: &wait}, retryAttempts-1)
	return backoff.Retry(op, backoff.WithContext(limited, ctx))
}

// retryAfterBackOff stretches the next interval to at least the wait the
// last 429 response asked for.
type retryAfterBackOff struct {
	backoff.BackOff
	wait *time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if w := *b.wait; w > d {
		d = w
	}
	*b.wait = 0
	return d
}
