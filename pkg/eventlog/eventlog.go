// Package eventlog consumes run lifecycle events from the event bus and
// writes them to the structured log, giving operators a per-thread audit
// trail without polling checkpoint state.
package eventlog

import (
	"context"
	"log/slog"

	"github.com/callsheet/callsheet/pkg/eventbus"
	"github.com/callsheet/callsheet/pkg/events"
)

// Register attaches a logging handler for every run lifecycle event type
// and starts consuming. The subscription lives until ctx is cancelled or
// the bus closes.
func Register(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	log := logger.With("module", "eventlog")

	handlers := map[events.EventType]eventbus.EventHandler{
		events.RunStartedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.RunStarted); ok {
				log.InfoContext(ctx, "Run started",
					"thread_id", e.ThreadID,
					"revision_mode", e.RevisionMode)
			}

			return nil
		},
		events.RunFinishedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.RunFinished); ok {
				log.InfoContext(ctx, "Run finished",
					"thread_id", e.ThreadID,
					"task_complete", e.TaskComplete,
					"duration", e.Duration)
			}

			return nil
		},
		events.RunFailedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.RunFailed); ok {
				log.ErrorContext(ctx, "Run failed",
					"thread_id", e.ThreadID,
					"error", e.Error,
					"steps", e.Steps)
			}

			return nil
		},
		events.NodeFinishedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.NodeFinished); ok {
				log.InfoContext(ctx, "Node finished",
					"thread_id", e.ThreadID,
					"node", e.Node,
					"used_fallback", e.UsedFallback)
			}

			return nil
		},
		events.TaskRetriedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.TaskRetried); ok {
				log.WarnContext(ctx, "Task retried",
					"thread_id", e.ThreadID,
					"node", e.Node,
					"attempt", e.Attempt,
					"error", e.Error)
			}

			return nil
		},
		events.FallbackAppliedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.FallbackApplied); ok {
				log.WarnContext(ctx, "Fallback applied",
					"thread_id", e.ThreadID,
					"node", e.Node,
					"reason", e.Reason)
			}

			return nil
		},
		events.ReviewEvaluatedEvent: func(ctx context.Context, event any) error {
			if e, ok := event.(*events.ReviewEvaluated); ok {
				log.InfoContext(ctx, "Review evaluated",
					"thread_id", e.ThreadID,
					"decision", e.Decision)
			}

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}
