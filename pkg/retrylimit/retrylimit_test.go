package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestWithRetryConfig_RetriesServerErrors(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	}, NewAdaptiveLimiter(100, 1, 100, 1, 0.5), fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryConfig_FatalStops(t *testing.T) {
	calls := 0
	base := errors.New("bad request")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: base}
	}, nil, fastConfig())

	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}

func TestWithRetryConfig_MaxAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 2
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return statusErr(429)
	}, nil, cfg)

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
	var httpErr HTTPError
	assert.ErrorAs(t, err, &httpErr)
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 2, 8, 1, 0.5)
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())
}

func TestPoll_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, func(context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestPoll_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Poll(ctx, 5*time.Millisecond, func(context.Context) error {
		return errors.New("down")
	})
	assert.Error(t, err)
}
