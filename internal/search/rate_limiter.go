package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter manages the GitHub search API quota
type RateLimiter interface {
	Wait(ctx context.Context) error
	CheckLimit() (remaining int, resetTime time.Time, err error)
	UpdateLimit(remaining int, resetTime time.Time)
}

const (
	// search API quota for unauthenticated clients, per minute
	defaultSearchLimit = 10
	searchWindow       = time.Minute
)

// githubRateLimiter implements RateLimiter for the search API
type githubRateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	minDelay  time.Duration
	lastCall  time.Time
	logger    *slog.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(minDelay time.Duration, logger *slog.Logger) RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &githubRateLimiter{
		remaining: defaultSearchLimit,
		resetTime: time.Now().Add(searchWindow),
		minDelay:  minDelay,
		logger:    logger,
	}
}

// Wait waits until it's safe to make another API call. The quota and the
// call spacing are checked again after every sleep, since other callers may
// have run meanwhile.
func (r *githubRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.remaining <= 0 {
			if waitDuration := time.Until(r.resetTime); waitDuration > 0 {
				r.logger.Warn("search quota exhausted, waiting for reset",
					"wait", waitDuration.Round(time.Second))
				if err := r.sleepLocked(ctx, waitDuration); err != nil {
					return err
				}
				continue
			}
			r.remaining = defaultSearchLimit
			r.resetTime = time.Now().Add(searchWindow)
		}

		if elapsed := time.Since(r.lastCall); elapsed < r.minDelay {
			if err := r.sleepLocked(ctx, r.minDelay-elapsed); err != nil {
				return err
			}
			continue
		}

		r.lastCall = time.Now()
		r.remaining--
		return nil
	}
}

// sleepLocked releases the mutex for d, or until ctx is done
func (r *githubRateLimiter) sleepLocked(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()
	defer r.mu.Lock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CheckLimit returns the current rate limit status
func (r *githubRateLimiter) CheckLimit() (remaining int, resetTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining, r.resetTime, nil
}

// UpdateLimit updates the rate limit from API response headers
func (r *githubRateLimiter) UpdateLimit(remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
	r.resetTime = resetTime
}
