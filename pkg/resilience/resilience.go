package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
)

// Config tunes the retry/timeout behaviour of a Runner.
type Config struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// RetryObserver receives a signal for every re-issued attempt. Implemented
// by the metrics service; optional.
type RetryObserver interface {
	ObserveRetry(op string)
}

// Runner executes storage operations under a per-attempt timeout with
// exponential backoff between attempts.
//
// Failures classified as permanent (caller or data errors: unique or
// foreign-key violations, missing rows, and typed domain errors) are
// returned immediately. Everything else is retried up to MaxAttempts, after
// which the last error surfaces wrapped as UNAVAILABLE, or TIMEOUT when the
// final attempt exceeded its deadline.
type Runner struct {
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	permanent   func(error) bool
	observer    RetryObserver
	logger      *zap.Logger
}

// NewRunner builds a Runner. permanent extends the built-in classification
// of non-retryable errors; it may be nil.
func NewRunner(cfg Config, permanent func(error) bool, observer RetryObserver, logger *zap.Logger) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		permanent:   permanent,
		observer:    observer,
		logger:      logger,
	}
}

// Do runs fn until it succeeds, fails permanently, or attempts are
// exhausted. Each attempt gets its own timeout context detached from ctx so
// an in-flight attempt is never cut short by the caller hanging up; ctx is
// only consulted between attempts. This is weaker than run-to-completion:
// once the caller cancels, remaining retries are abandoned rather than
// driven to exhaustion in the background.
func (r *Runner) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			if r.observer != nil {
				r.observer.ObserveRetry(op)
			}
			select {
			case <-ctx.Done():
				return appErrors.Wrap(ctx.Err(), appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "operation abandoned")
			case <-time.After(r.backoff(attempt - 1)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if r.isPermanent(err) {
			return err
		}

		lastErr = err
		r.logger.Warn("operation attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return appErrors.Wrap(lastErr, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}
	return appErrors.Wrap(lastErr, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
}

func (r *Runner) isPermanent(err error) bool {
	if appErrors.IsPermanent(err) {
		return true
	}
	return r.permanent != nil && r.permanent(err)
}

// backoff computes base × 2^n plus up to 10% random jitter.
func (r *Runner) backoff(n int) time.Duration {
	delay := r.baseDelay << uint(n)
	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}
