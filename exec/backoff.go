package exec

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

// RetryPolicy configures the capped exponential backoff applied to
// retryable DynamoDB errors (spec.md §4.5: throttling gets up to 10
// attempts, 5xx/server errors get up to 5; other 4xx errors fail fast).
type RetryPolicy struct {
	InitialInterval       time.Duration
	MaxInterval           time.Duration
	MaxElapsedTime        time.Duration
	MaxRetries            int // KindThrottled: retries after the first attempt
	ServerErrorMaxRetries int // KindServerError: retries after the first attempt
}

// DefaultRetryPolicy matches the base-50ms/factor-2/cap-5s schedule
// spec.md's executor section describes, with the throttled/server-error
// attempt counts spec.md §4.5 calls out separately.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:       50 * time.Millisecond,
		MaxInterval:           5 * time.Second,
		MaxElapsedTime:        30 * time.Second,
		MaxRetries:            9,
		ServerErrorMaxRetries: 4,
	}
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = p.MaxElapsedTime
	eb.Multiplier = 2
	eb.Reset()
	return eb
}

// maxRetriesFor picks the attempt budget for a retryable error's kind,
// per spec.md §4.5's distinct throttling/server-error schedules.
func (p RetryPolicy) maxRetriesFor(kind ErrorKind) int {
	if kind == KindServerError {
		return p.ServerErrorMaxRetries
	}
	return p.MaxRetries
}

// withRetry runs op, retrying on retryable *Error values per policy. The
// attempt budget is chosen from the first retryable error's Kind, since
// spec.md §4.5 gives throttling and server errors different attempt
// counts. Retry counts accumulate into result, not the Executor, since
// parallel Scan segments each run their own retry loop concurrently.
func (e *Executor) withRetry(ctx context.Context, operation string, result *Result, op func() error) error {
	eb := e.policy.newBackOff()
	maxRetries := -1
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op()
		attempts++
		if err == nil {
			result.Retries += attempts - 1
			return nil
		}

		dynErr := classify(operation, err)
		if !dynErr.Retryable {
			result.Retries += attempts - 1
			return dynErr
		}
		if maxRetries < 0 {
			maxRetries = e.policy.maxRetriesFor(dynErr.Kind)
		}
		if attempts-1 >= maxRetries {
			result.Retries += attempts - 1
			return dynErr
		}

		wait := eb.NextBackOff()
		if wait == backoff.Stop {
			result.Retries += attempts - 1
			return dynErr
		}
		e.logger().Debug("retrying DynamoDB call",
			zap.String("operation", operation),
			zap.Error(dynErr),
			zap.Duration("backoff", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Retries += attempts - 1
			return ctx.Err()
		case <-timer.C:
		}
	}
}
