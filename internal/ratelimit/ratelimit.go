package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobdeck/internal/config"
	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/retry"
)

// ServiceLimiter bounds calls to one external service across up to three
// windows (per second, minute and day). Each window is a token bucket whose
// burst equals the window limit.
type ServiceLimiter struct {
	name        string
	windows     []*rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewServiceLimiter builds a limiter from cfg. Windows with a zero limit are skipped.
func NewServiceLimiter(name string, cfg config.RateLimitConfig, baseDelay time.Duration, logger *slog.Logger) *ServiceLimiter {
	l := &ServiceLimiter{
		name:        name,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
	if l.maxAttempts < 1 {
		l.maxAttempts = 1
	}
	for _, w := range []struct {
		limit int
		per   time.Duration
	}{
		{cfg.PerSecond, time.Second},
		{cfg.PerMinute, time.Minute},
		{cfg.PerDay, 24 * time.Hour},
	} {
		if w.limit <= 0 {
			continue
		}
		l.windows = append(l.windows, rate.NewLimiter(rate.Every(w.per/time.Duration(w.limit)), w.limit))
	}
	return l
}

// Name returns the service this limiter guards.
func (l *ServiceLimiter) Name() string { return l.name }

// Throttle takes one token from every window, sleeping until the slowest
// window allows the call. Reservations are returned if ctx ends first.
func (l *ServiceLimiter) Throttle(ctx context.Context) error {
	now := time.Now()
	reservations := make([]*rate.Reservation, 0, len(l.windows))
	cancelAll := func() {
		for _, r := range reservations {
			r.CancelAt(now)
		}
	}

	var delay time.Duration
	for _, w := range l.windows {
		r := w.ReserveN(now, 1)
		if !r.OK() {
			cancelAll()
			return fmt.Errorf("rate limit for %s cannot be satisfied", l.name)
		}
		reservations = append(reservations, r)
		if d := r.DelayFrom(now); d > delay {
			delay = d
		}
	}

	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		cancelAll()
		return fmt.Errorf("rate limiter wait for %s: %w", l.name, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// WithRetry throttles and calls fn, retrying only rate-limit failures (HTTP
// 429) with exponential backoff or the upstream Retry-After. Any other error
// is returned after the first attempt.
func (l *ServiceLimiter) WithRetry(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, l.maxAttempts, l.baseDelay, model.IsRateLimited, l.logger.With("service", l.name), func(ctx context.Context) error {
		if err := l.Throttle(ctx); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// Registry hands out one shared ServiceLimiter per service name.
type Registry struct {
	mu        sync.Mutex
	limiters  map[string]*ServiceLimiter
	lookup    func(string) config.RateLimitConfig
	baseDelay time.Duration
	logger    *slog.Logger
}

// NewRegistry creates a registry that builds limiters on first use from lookup.
func NewRegistry(lookup func(string) config.RateLimitConfig, baseDelay time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		limiters:  make(map[string]*ServiceLimiter),
		lookup:    lookup,
		baseDelay: baseDelay,
		logger:    logger,
	}
}

// Get returns the limiter for service, creating it if needed.
func (r *Registry) Get(service string) *ServiceLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[service]; ok {
		return l
	}
	l := NewServiceLimiter(service, r.lookup(service), r.baseDelay, r.logger)
	r.limiters[service] = l
	return l
}

// Throttle waits on the named service's windows.
func (r *Registry) Throttle(ctx context.Context, service string) error {
	return r.Get(service).Throttle(ctx)
}

// WithRetry runs fn under the named service's limiter.
func (r *Registry) WithRetry(ctx context.Context, service string, fn func(context.Context) error) error {
	return r.Get(service).WithRetry(ctx, fn)
}

// RateLimitedAdapter is a decorator that waits on a source's limiter
// before delegating to the wrapped JobFetcher.
type RateLimitedAdapter struct {
	inner   model.JobFetcher
	limiter *ServiceLimiter
}

// NewRateLimitedAdapter wraps a JobFetcher with source-level rate limiting.
// All fetchers hitting the same backend should share the same limiter.
func NewRateLimitedAdapter(inner model.JobFetcher, limiter *ServiceLimiter) *RateLimitedAdapter {
	return &RateLimitedAdapter{
		inner:   inner,
		limiter: limiter,
	}
}

// FetchJobs waits for the limiter to allow a request, then delegates.
func (f *RateLimitedAdapter) FetchJobs(ctx context.Context) ([]model.NormalizedJob, error) {
	if err := f.limiter.Throttle(ctx); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}
