package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithJitter(0),
	)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesRetryableError(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	cause := errors.New("bad request")
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(cause)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, cause, err) // Do разворачивает PermanentError
}

func TestDo_DoesNotRetryUnmarkedError(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("unmarked")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttemptsAndUnwraps(t *testing.T) {
	cause := errors.New("still failing")
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(cause)
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, cause, err)
}

func TestDo_RetryIfOverridesDefault(t *testing.T) {
	calls := 0
	err := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithRetryIf(func(error) bool { return true }),
	).Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("unmarked but retried")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := New(
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
		WithJitter(0),
	).Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return Retryable(errors.New("transient"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	_ = New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	).Do(context.Background(), func(context.Context) error {
		return Retryable(errors.New("transient"))
	})

	// Колбэк вызывается перед каждым повтором, но не после последней попытки.
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	result, err := DoWithData(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, Retryable(errors.New("transient"))
		}
		return 42, nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestErrorWrappers(t *testing.T) {
	cause := errors.New("cause")

	assert.True(t, IsRetryable(Retryable(cause)))
	assert.False(t, IsRetryable(cause))
	assert.True(t, IsPermanent(Permanent(cause)))
	assert.False(t, IsPermanent(Retryable(cause)))

	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))

	assert.ErrorIs(t, Retryable(cause), cause)
	assert.ErrorIs(t, Permanent(cause), cause)
}

func TestCalculateDelay_CappedAtMax(t *testing.T) {
	r := New(
		WithInitialDelay(time.Second),
		WithMaxDelay(2*time.Second),
		WithMultiplier(10),
		WithJitter(0),
	)

	assert.Equal(t, time.Second, r.calculateDelay(1))
	assert.Equal(t, 2*time.Second, r.calculateDelay(2))
	assert.Equal(t, 2*time.Second, r.calculateDelay(5))
}
