package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted is returned when every attempt hit a transient failure.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds the Executor.
type Policy struct {
	MaxAttempts int
	// TimeoutDelay is the fixed wait after a timeout.
	TimeoutDelay time.Duration
	// DefaultRetryAfter is used when a 429 carries no Retry-After header.
	DefaultRetryAfter time.Duration
}

// DefaultPolicy returns three attempts, a 5s timeout delay and a 1s
// rate-limit fallback.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		TimeoutDelay:      5 * time.Second,
		DefaultRetryAfter: time.Second,
	}
}

// Call is a single remote invocation.
type Call func(ctx context.Context) (*Result, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor runs a Call with bounded retries. Timeouts wait a fixed delay and
// 429 responses wait the server-supplied delay. Every other failure is
// terminal and returned on the first occurrence.
type Executor struct {
	policy Policy
	logger *slog.Logger
	sleep  SleepFunc
}

// NewExecutor creates an Executor. A nil logger discards retry logs.
func NewExecutor(policy Policy, logger *slog.Logger) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{policy: policy, logger: logger, sleep: Sleep}
}

// WithSleep replaces the wait function, for tests.
func (e *Executor) WithSleep(fn SleepFunc) *Executor {
	cp := *e
	cp.sleep = fn
	return &cp
}

// Policy returns the retry policy in use.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute runs call until it yields a non-transient outcome. Non-2xx
// responses other than 429 are returned as a Result with a nil error so the
// caller can interpret the status. When the attempts run out the last Result
// (possibly nil) is returned together with an error wrapping ErrExhausted.
func (e *Executor) Execute(ctx context.Context, name string, call Call) (*Result, error) {
	var last *Result
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		res, err := call(ctx)

		var delay time.Duration
		switch {
		case err != nil && ctx.Err() == nil && IsTimeout(err):
			delay = e.policy.TimeoutDelay
			e.logger.Error("Timeout error. Retrying...", "call", name, "attempt", attempt, "error", err)
		case err != nil:
			e.logger.Error(fmt.Sprintf("ERROR %v", err), "call", name, "attempt", attempt)
			return nil, err
		case res.Category == CategoryRateLimited:
			delay = res.RetryAfter
			if delay <= 0 {
				delay = e.policy.DefaultRetryAfter
			}
			e.logger.Error(fmt.Sprintf("Rate limited. Retrying in %s", delay), "call", name, "attempt", attempt)
		default:
			return res, nil
		}

		last = res
		if attempt == e.policy.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, delay); err != nil {
			return last, err
		}
	}

	e.logger.Error("Giving up after retries", "call", name, "attempts", e.policy.MaxAttempts)
	return last, fmt.Errorf("%s: %w after %d attempts", name, ErrExhausted, e.policy.MaxAttempts)
}

// Sleep waits for delay or until ctx is done.
func Sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
