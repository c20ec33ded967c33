package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
)

type retryCounter struct {
	retries int
}

func (c *retryCounter) ObserveRetry(string) { c.retries++ }

func TestRunnerSucceedsAfterTransientFailures(t *testing.T) {
	base := 10 * time.Millisecond
	runner := NewRunner(Config{Timeout: time.Second, MaxAttempts: 3, BaseDelay: base}, nil, &retryCounter{}, nil)

	calls := 0
	start := time.Now()
	err := runner.Do(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// two backoff sleeps: base*2^0 + base*2^1, jitter only adds
	assert.GreaterOrEqual(t, elapsed, 3*base)
}

func TestRunnerExhaustsAttempts(t *testing.T) {
	counter := &retryCounter{}
	runner := NewRunner(Config{Timeout: time.Second, MaxAttempts: 3, BaseDelay: time.Millisecond}, nil, counter, nil)

	calls := 0
	err := runner.Do(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, counter.retries)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
}

func TestRunnerDoesNotRetryPermanentErrors(t *testing.T) {
	runner := NewRunner(Config{Timeout: time.Second, MaxAttempts: 5, BaseDelay: time.Millisecond},
		func(err error) bool { return err.Error() == "duplicate key" }, nil, nil)

	calls := 0
	err := runner.Do(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return errors.New("duplicate key")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunnerDoesNotRetryDomainErrors(t *testing.T) {
	runner := NewRunner(Config{Timeout: time.Second, MaxAttempts: 5, BaseDelay: time.Millisecond}, nil, nil, nil)

	calls := 0
	err := runner.Do(context.Background(), "test.op", func(ctx context.Context) error {
		calls++
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRunnerSurfacesTimeout(t *testing.T) {
	runner := NewRunner(Config{Timeout: 20 * time.Millisecond, MaxAttempts: 2, BaseDelay: time.Millisecond}, nil, nil, nil)

	err := runner.Do(context.Background(), "test.op", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTimeout.Code, appErrors.FromError(err).Code)
}

func TestRunnerStopsSleepingWhenCallerGone(t *testing.T) {
	runner := NewRunner(Config{Timeout: time.Second, MaxAttempts: 3, BaseDelay: time.Minute}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := runner.Do(ctx, "test.op", func(ctx context.Context) error {
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
