package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsheet/callsheet/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fallbackPayload() models.Payload {
	return models.Payload{"marker": "fallback"}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	exec := NewExecutor(testLogger(), nil, Config{Sleep: func(time.Duration) {}})

	calls := 0
	result, err := exec.Execute(context.Background(), "cost_analysis", "script_abc",
		func(ctx context.Context) (models.Payload, error) {
			calls++

			return models.Payload{"total_budget_range": "$1M"}, nil
		}, fallbackPayload)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, "$1M", result.Payload["total_budget_range"])
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	exec := NewExecutor(testLogger(), nil, Config{Sleep: func(time.Duration) {}})

	calls := 0
	result, err := exec.Execute(context.Background(), "props_analysis", "script_abc",
		func(ctx context.Context) (models.Payload, error) {
			calls++
			if calls < 2 {
				return nil, errors.New("upstream timeout")
			}

			return models.Payload{"ok": true}, nil
		}, fallbackPayload)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, result.Attempts)
	assert.False(t, result.UsedFallback)
}

func TestExecuteNilPayloadCountsAsFailure(t *testing.T) {
	exec := NewExecutor(testLogger(), nil, Config{Sleep: func(time.Duration) {}})

	calls := 0
	result, err := exec.Execute(context.Background(), "scene_analysis", "script_abc",
		func(ctx context.Context) (models.Payload, error) {
			calls++

			return nil, nil
		}, fallbackPayload)

	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRetries, calls)
	assert.True(t, result.UsedFallback)
	assert.Equal(t, "fallback", result.Payload["marker"])
}

func TestExecuteBackoffSequence(t *testing.T) {
	var delays []time.Duration

	exec := NewExecutor(testLogger(), nil, Config{
		Sleep: func(d time.Duration) { delays = append(delays, d) },
	})

	_, err := exec.Execute(context.Background(), "timeline_analysis", "script_abc",
		func(ctx context.Context) (models.Payload, error) {
			return nil, errors.New("boom")
		}, fallbackPayload)

	require.NoError(t, err)
	// base^attempt seconds between attempts: 2^0, 2^1.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestExecuteFallbackAfterExhaustion(t *testing.T) {
	exec := NewExecutor(testLogger(), nil, Config{MaxRetries: 2, Sleep: func(time.Duration) {}})

	calls := 0
	result, err := exec.Execute(context.Background(), "location_analysis", "script_abc",
		func(ctx context.Context) (models.Payload, error) {
			calls++

			return nil, errors.New("persistent failure")
		}, fallbackPayload)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, result.Attempts)
	assert.True(t, result.UsedFallback)
}

func TestExecuteContextCancelled(t *testing.T) {
	exec := NewExecutor(testLogger(), nil, Config{Sleep: func(time.Duration) {}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, "character_analysis", "script_abc",
		func(ctx context.Context) (models.Payload, error) {
			t.Fatal("call should not run after cancellation")

			return nil, nil
		}, fallbackPayload)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
