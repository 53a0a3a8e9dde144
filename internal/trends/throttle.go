package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Throttled bounds calls to another Source: a per-call deadline, a cap on
// concurrent requests, and a requests-per-minute rate.
type Throttled struct {
	next     Source
	limiter  *rate.Limiter
	inFlight *semaphore.Weighted
	timeout  time.Duration
}

// NewThrottled wraps next. A non-positive requestsPerMinute disables rate limiting;
// a non-positive maxInFlight defaults to 1; a non-positive timeout disables the per-call deadline.
func NewThrottled(next Source, requestsPerMinute, maxInFlight int, timeout time.Duration) *Throttled {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Throttled{
		next:     next,
		limiter:  limiter,
		inFlight: semaphore.NewWeighted(int64(maxInFlight)),
		timeout:  timeout,
	}
}

// Name returns the wrapped source's name.
func (t *Throttled) Name() string { return t.next.Name() }

// Fetch waits for a slot and a token, then calls the wrapped source. It returns as soon as
// the deadline passes even if the wrapped source ignores its context.
func (t *Throttled) Fetch(ctx context.Context, keyword string) Outcome {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := t.inFlight.Acquire(ctx, 1); err != nil {
		return Failed(ReasonTimeout, fmt.Errorf("waiting for request slot: %w", err))
	}
	if err := t.limiter.Wait(ctx); err != nil {
		t.inFlight.Release(1)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failed(ReasonTimeout, fmt.Errorf("waiting for rate limit: %w", err))
		}
		return Failed(ReasonRateLimited, err)
	}

	done := make(chan Outcome, 1)
	go func() {
		defer t.inFlight.Release(1)
		done <- t.next.Fetch(ctx, keyword)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failed(ReasonTimeout, ctx.Err())
		}
		return Failed(ReasonUnreachable, ctx.Err())
	}
}
