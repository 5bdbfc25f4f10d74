package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             25 * time.Millisecond,
		HalfOpenMaxRequests: 2,
	}
}

func TestExecutePassesThroughWhenClosed(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	}

	// The threshold is reached; the next call is rejected without
	// invoking the function.
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitBreakerOpen)
	require.False(t, called)
	require.Equal(t, StateOpen, cb.GetState())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	require.Error(t, cb.Execute(func() error { return errBoom }))
	require.Error(t, cb.Execute(func() error { return errBoom }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return errBoom }))
	require.Error(t, cb.Execute(func() error { return errBoom }))

	// Still under the threshold thanks to the intervening success.
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Equal(t, StateClosed, cb.GetState())
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cfg := testConfig()
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < cfg.FailureThreshold; i++ {
		require.Error(t, cb.Execute(func() error { return errBoom }))
	}
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)

	time.Sleep(cfg.Timeout + 10*time.Millisecond)

	// Probe requests succeed while half-open.
	for i := 0; i < cfg.SuccessThreshold; i++ {
		require.NoError(t, cb.Execute(func() error { return nil }))
	}

	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Equal(t, StateClosed, cb.GetState())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cfg := testConfig()
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < cfg.FailureThreshold; i++ {
		require.Error(t, cb.Execute(func() error { return errBoom }))
	}
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)

	time.Sleep(cfg.Timeout + 10*time.Millisecond)

	require.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	require.Equal(t, StateOpen, cb.GetState())
}

func TestReset(t *testing.T) {
	cfg := testConfig()
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < cfg.FailureThreshold; i++ {
		require.Error(t, cb.Execute(func() error { return errBoom }))
	}
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)

	cb.Reset()
	require.Equal(t, StateClosed, cb.GetState())
	require.NoError(t, cb.Execute(func() error { return nil }))
}
