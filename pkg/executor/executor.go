// Package executor runs analysis tasks with retry, exponential backoff and
// fallback substitution. A task either succeeds within the retry budget or
// the executor substitutes its category fallback, so callers always receive
// a payload.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/callsheet/callsheet/pkg/eventbus"
	"github.com/callsheet/callsheet/pkg/events"
	"github.com/callsheet/callsheet/pkg/models"
)

const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 2.0
)

// ErrNilResult marks a task that returned no payload without an explicit
// error. It counts as a failure for retry purposes.
var ErrNilResult = errors.New("task returned no result")

// Call is a single task invocation.
type Call func(ctx context.Context) (models.Payload, error)

// Result is the outcome of executing a task through the retry loop.
type Result struct {
	Payload      models.Payload
	UsedFallback bool
	Attempts     int
}

type Config struct {
	MaxRetries  int
	BackoffBase float64
	// Sleep is swapped out in tests. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

type Executor struct {
	logger      *slog.Logger
	publisher   eventbus.EventPublisher
	maxRetries  int
	backoffBase float64
	sleep       func(time.Duration)
}

// NewExecutor creates an executor. The publisher may be nil, in which case
// retry and fallback events are not emitted.
func NewExecutor(logger *slog.Logger, publisher eventbus.EventPublisher, cfg Config) *Executor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}

	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	return &Executor{
		logger:      logger.With("module", "executor"),
		publisher:   publisher,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		sleep:       cfg.Sleep,
	}
}

// Execute runs call up to MaxRetries times, sleeping base^attempt seconds
// between failed attempts. When the budget is exhausted the fallback payload
// is returned with UsedFallback set. The only error returned is context
// cancellation.
func (e *Executor) Execute(ctx context.Context, node, threadID string, call Call, fallback func() models.Payload) (Result, error) {
	var lastErr error

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("executing %s: %w", node, err)
		}

		payload, err := call(ctx)
		if err == nil && payload == nil {
			err = ErrNilResult
		}

		if err == nil {
			return Result{Payload: payload, UsedFallback: false, Attempts: attempt + 1}, nil
		}

		lastErr = err
		e.logger.WarnContext(ctx, "Task attempt failed",
			"node", node,
			"thread_id", threadID,
			"attempt", attempt+1,
			"max_retries", e.maxRetries,
			"error", err)

		if attempt < e.maxRetries-1 {
			delay := time.Duration(math.Pow(e.backoffBase, float64(attempt)) * float64(time.Second))
			e.publish(ctx, threadID, &events.TaskRetried{
				BaseEvent: events.NewBaseEvent(events.TaskRetriedEvent, threadID),
				Node:      node,
				Attempt:   attempt + 1,
				Delay:     delay,
				Error:     err.Error(),
			})
			e.sleep(delay)
		}
	}

	e.logger.ErrorContext(ctx, "Task failed after all retries, applying fallback",
		"node", node,
		"thread_id", threadID,
		"error", lastErr)
	e.publish(ctx, threadID, &events.FallbackApplied{
		BaseEvent: events.NewBaseEvent(events.FallbackAppliedEvent, threadID),
		Node:      node,
		Reason:    lastErr.Error(),
	})

	return Result{Payload: fallback(), UsedFallback: true, Attempts: e.maxRetries}, nil
}

func (e *Executor) publish(ctx context.Context, threadID string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, threadID, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish executor event", "error", err)
	}
}
