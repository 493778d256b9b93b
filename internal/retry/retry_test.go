package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Config{MaxRetries: 3, InitialBackoff: time.Millisecond}

func TestDo_Success(t *testing.T) {
	called := 0
	err := Do(context.Background(), fast, func() error {
		called++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Millisecond}

	called := 0
	err := Do(context.Background(), cfg, func() error {
		called++
		if called < 3 {
			return errors.New("TransactionContext Error")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, called)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	called := 0
	testErr := errors.New("Conflict on update")
	err := Do(context.Background(), fast, func() error {
		called++
		return testErr
	}, func(error) bool { return true })

	require.Error(t, err)
	assert.Equal(t, 3, called)
	assert.ErrorIs(t, err, testErr)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestDo_NonRetryableError(t *testing.T) {
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Millisecond}
	notFound := errors.New("constraint violated")

	called := 0
	err := Do(context.Background(), cfg, func() error {
		called++
		if called == 2 {
			return notFound
		}
		return errors.New("Conflict on update")
	}, func(err error) bool {
		return !errors.Is(err, notFound)
	})

	assert.Equal(t, 2, called)
	assert.Same(t, notFound, err)
}

func TestDo_ContextCanceled(t *testing.T) {
	cfg := Config{MaxRetries: 10, InitialBackoff: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := 0
	err := Do(ctx, cfg, func() error {
		called++
		if called == 2 {
			cancel()
		}
		return errors.New("error")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called)
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		attempt  int
		expected time.Duration
	}{
		{"first retry", Config{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond}, 1, 10 * time.Millisecond},
		{"exponential", Config{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond}, 4, 80 * time.Millisecond},
		{"capped", Config{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond}, 4, 50 * time.Millisecond},
		// 200ms base plus 200ms * 0.5 * 2 / 5.
		{"jitter", Config{MaxRetries: 5, InitialBackoff: 100 * time.Millisecond, Jitter: 0.5}, 2, 240 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateBackoff(tt.cfg, tt.attempt))
		})
	}
}
