package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

// RetryFetcher is a decorator that retries transient failures with exponential
// backoff and jitter before delegating to the wrapped JobFetcher.
type RetryFetcher struct {
	inner      model.JobFetcher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryFetcher wraps a JobFetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure (default: 2).
// baseDelay is the delay before the first retry (default: 5s), doubled on each subsequent retry.
func NewRetryFetcher(inner model.JobFetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// FetchJobs attempts to fetch jobs, retrying on transient errors.
func (f *RetryFetcher) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	var jobs []model.NormalizedJob
	err := Do(ctx, f.maxRetries+1, f.baseDelay, IsRetryable, f.logger, func(ctx context.Context) error {
		var err error
		jobs, err = f.inner.FetchJobs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Do calls fn up to attempts times. After a failure that retryable accepts it
// sleeps for Backoff and tries again; any other error is returned as is.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, retryable func(error) bool, logger *slog.Logger, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	err := fn(ctx)
	for attempt := 1; attempt < attempts; attempt++ {
		if err == nil || !retryable(err) {
			return err
		}

		delay := Backoff(baseDelay, attempt, err)
		logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", attempts-1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		err = fn(ctx)
	}
	return err
}

// Backoff computes the delay before retry number attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func Backoff(baseDelay time.Duration, attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// IsRetryable returns true if the error represents a transient failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests and 5xx are retryable, other 4xx are not.
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	// Non-HTTP errors (network, DNS, etc.) are retryable.
	return true
}
