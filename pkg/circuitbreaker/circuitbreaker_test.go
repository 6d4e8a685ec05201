package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDelivery = errors.New("delivery failed")

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errDelivery
		})
	}
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func(context.Context) error {
		return nil
	})
}

func TestExecute_StaysClosedOnSuccess(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 10; i++ {
		require.NoError(t, succeed(cb))
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 10, cb.Counts().TotalSuccesses)
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	failN(cb, 2)
	assert.Equal(t, StateClosed, cb.State())

	failN(cb, 1)
	assert.Equal(t, StateOpen, cb.State())
	assert.True(t, cb.IsOpen())

	// Открытый контур отклоняет вызовы, не выполняя их.
	executed := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		executed = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, executed)
}

func TestExecute_SuccessResetsFailureStreak(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	failN(cb, 2)
	require.NoError(t, succeed(cb))
	failN(cb, 2)

	// Серия прервана успехом, порог не достигнут.
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(5),
	)

	failN(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	// Первый пробный вызов переводит контур в half-open.
	require.NoError(t, succeed(cb))
	assert.Equal(t, StateHalfOpen, cb.State())

	// Второй успех закрывает контур.
	require.NoError(t, succeed(cb))
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
	)

	failN(cb, 1)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	failN(cb, 1)

	assert.Equal(t, StateOpen, cb.State())
}

func TestExecute_HalfOpenLimitsConcurrentProbes(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(10),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(1),
	)

	failN(cb, 1)
	time.Sleep(15 * time.Millisecond)

	// Лимит пробных вызовов исчерпывается первым вызовом.
	require.NoError(t, succeed(cb))
	err := succeed(cb)
	assert.ErrorIs(t, err, ErrTooManyRequests)
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(time.Hour))
	failN(cb, 1)

	fallbackCalled := false
	err := cb.ExecuteWithFallback(context.Background(),
		func(context.Context) error { return nil },
		func(cause error) error {
			fallbackCalled = true
			assert.ErrorIs(t, cause, ErrCircuitOpen)
			return nil
		},
	)

	require.NoError(t, err)
	assert.True(t, fallbackCalled)
}

func TestWithIsFailure_IgnoresExpectedErrors(t *testing.T) {
	expected := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, expected) }),
	)

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return expected
		})
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestOnStateChange_Callback(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition

	cb := New("test",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			assert.Equal(t, "test", name)
			transitions = append(transitions, transition{from, to})
		}),
	)

	failN(cb, 1)
	cb.Reset()
	failN(cb, 1)

	// Reset не вызывает колбэк - только реальные переходы.
	require.Len(t, transitions, 2)
	assert.Equal(t, transition{StateClosed, StateOpen}, transitions[0])
	assert.Equal(t, transition{StateClosed, StateOpen}, transitions[1])
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	failN(cb, 1)
	require.True(t, cb.IsOpen())

	cb.Reset()

	assert.True(t, cb.IsClosed())
	assert.Equal(t, Counts{}, cb.Counts())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
