package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-chatbot/internal/common/logger"
)

func newTestClient(t *testing.T, maxRetries int) *Client {
	return &Client{
		config: &ClientConfig{
			ConnectionTimeout: time.Second,
			RetryConfig: &RetryConfig{
				MaxRetries: maxRetries,
				BaseDelay:  time.Millisecond,
				MaxDelay:   4 * time.Millisecond,
			},
		},
		logger: logger.NewTestLogger(t),
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"NOT_FOUND: no job found", false},
		{"invalid argument", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.err)), tt.err)
	}
}

func TestMapZeebeError(t *testing.T) {
	assert.ErrorIs(t, mapZeebeError(errors.New("deadline exceeded"), "connect", 0), ErrBrokerTimeout)
	assert.ErrorIs(t, mapZeebeError(errors.New("connection refused"), "connect", 2), ErrBrokerUnavailable)
	assert.ErrorIs(t, mapZeebeError(errors.New("permission denied"), "connect", 0), ErrBrokerRejected)
	assert.Contains(t, mapZeebeError(errors.New("x"), "connect", 2).Error(), "after 3 attempts")
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		c := newTestClient(t, 3)
		calls := 0
		err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		c := newTestClient(t, 3)
		calls := 0
		err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
			calls++
			return errors.New("invalid argument")
		})
		assert.ErrorIs(t, err, ErrBrokerRejected)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		c := newTestClient(t, 2)
		calls := 0
		err := c.ExecuteWithRetry(context.Background(), "op", func(context.Context) error {
			calls++
			return errors.New("unavailable")
		})
		assert.ErrorIs(t, err, ErrBrokerUnavailable)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		c := newTestClient(t, 5)
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		err := c.ExecuteWithRetry(ctx, "op", func(context.Context) error {
			cancel()
			return errors.New("timeout")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoffIsCapped(t *testing.T) {
	c := newTestClient(t, 5)
	assert.Equal(t, time.Millisecond, c.backoff(0))
	assert.Equal(t, 2*time.Millisecond, c.backoff(1))
	assert.Equal(t, 4*time.Millisecond, c.backoff(2))
	assert.Equal(t, 4*time.Millisecond, c.backoff(5))
}

func TestClientWithoutConnection(t *testing.T) {
	c := newTestClient(t, 0)
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.HealthCheck(context.Background()), ErrBrokerUnavailable)
}
