// Package orchestrator drives a script analysis run through its graph:
// extraction, a concurrent round of category analyses, and a review gate
// that either ends the run or routes it back through extraction for
// revision. State is checkpointed after every transition so interrupted
// runs resume where they stopped.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/eventbus"
	"github.com/callsheet/callsheet/pkg/events"
	"github.com/callsheet/callsheet/pkg/executor"
	"github.com/callsheet/callsheet/pkg/ingest"
	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/otelhelper"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// DefaultMaxSteps caps graph transitions per run. A run that loops past it
// is marked failed rather than spinning forever.
const DefaultMaxSteps = 25

var (
	ErrStepLimitExceeded = errors.New("step limit exceeded")
	ErrRunTerminal       = errors.New("run already reached a terminal stage")
)

type Config struct {
	MaxSteps int
}

type Orchestrator struct {
	logger    *slog.Logger
	store     checkpoint.Store
	registry  *tasks.Registry
	executor  *executor.Executor
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	maxSteps  int
}

// NewOrchestrator wires the graph driver. The publisher and tracer may be
// nil; events and spans are then skipped.
func NewOrchestrator(
	logger *slog.Logger,
	store checkpoint.Store,
	registry *tasks.Registry,
	exec *executor.Executor,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	cfg Config,
) *Orchestrator {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}

	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("callsheet")
	}

	return &Orchestrator{
		logger:    logger.With("module", "orchestrator"),
		store:     store,
		registry:  registry,
		executor:  exec,
		publisher: publisher,
		tracer:    tracer,
		maxSteps:  cfg.MaxSteps,
	}
}

// NewThreadID generates a run identifier in the script_<8 hex> form.
func NewThreadID() string {
	return "script_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Start validates the script content, creates a new thread and runs the
// graph until it ends or pauses for review.
func (o *Orchestrator) Start(ctx context.Context, scriptContent string) (*models.State, error) {
	err := ingest.ValidateContent(scriptContent)
	if err != nil {
		return nil, err
	}

	state := models.NewState(NewThreadID(), scriptContent)

	err = o.store.Save(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to checkpoint new run: %w", err)
	}

	return o.run(ctx, state)
}

// Resume loads a checkpointed run and continues it from its recorded stage.
// Terminal runs are returned unchanged with ErrRunTerminal.
func (o *Orchestrator) Resume(ctx context.Context, threadID string) (*models.State, error) {
	state, err := o.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if state.Stage == models.StageDone || state.Stage == models.StageFailed {
		return state, ErrRunTerminal
	}

	return o.run(ctx, state)
}

// GetState returns the checkpointed state of a run.
func (o *Orchestrator) GetState(ctx context.Context, threadID string) (*models.State, error) {
	return o.store.Load(ctx, threadID)
}

// ApplyFeedback records reviewer feedback and revision flags on a paused
// run. Both maps replace the stored values wholesale. When no category is
// flagged the run is approved and finalized; otherwise the caller resumes
// it to execute the revision loop.
func (o *Orchestrator) ApplyFeedback(ctx context.Context, threadID string, feedback map[models.Category]string, needsRevision map[models.Category]bool) (*models.State, error) {
	state, err := o.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	state.HumanFeedback = map[models.Category]string{}
	state.NeedsRevision = map[models.Category]bool{}

	for _, category := range models.Categories() {
		state.HumanFeedback[category] = feedback[category]
		state.NeedsRevision[category] = needsRevision[category]
	}

	if state.AnyRevisionNeeded() {
		state.ProcessingMetadata[models.MetaRevisionMode] = true
		state.HumanReviewComplete = false
		state.Stage = models.StageExtraction
	} else {
		// Nothing flagged means approval.
		state.HumanReviewComplete = true
		state.TaskComplete = state.AllAnalysesComplete()
		state.Stage = models.StageDone
		state.ProcessingMetadata[models.MetaReviewCompletedAt] = time.Now().UTC().Format(time.RFC3339)
	}

	state.Touch()

	err = o.store.Save(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to checkpoint feedback: %w", err)
	}

	return state, nil
}

// run executes graph steps until a terminal stage or the step ceiling.
func (o *Orchestrator) run(ctx context.Context, state *models.State) (*models.State, error) {
	started := time.Now()

	o.publish(ctx, state.ThreadID, events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, state.ThreadID),
		RevisionMode: state.RevisionMode(),
	})
	o.logger.InfoContext(ctx, "Starting analysis run",
		"thread_id", state.ThreadID,
		"stage", state.Stage,
		"revision_mode", state.RevisionMode())

	for state.Stage != models.StageDone && state.Stage != models.StageFailed {
		if state.Steps >= o.maxSteps {
			state.AppendError("Workflow exceeded step limit of %d", o.maxSteps)
			state.TaskComplete = false
			state.Stage = models.StageFailed

			break
		}

		err := o.step(ctx, state)
		if err != nil {
			return state, err
		}

		state.Steps++
		state.Touch()

		err = o.store.Save(ctx, state)
		if err != nil {
			return state, fmt.Errorf("failed to checkpoint run %s: %w", state.ThreadID, err)
		}
	}

	state.Touch()

	err := o.store.Save(ctx, state)
	if err != nil {
		return state, fmt.Errorf("failed to checkpoint run %s: %w", state.ThreadID, err)
	}

	if state.Stage == models.StageFailed {
		o.publish(ctx, state.ThreadID, events.RunFailed{
			BaseEvent: events.NewBaseEvent(events.RunFailedEvent, state.ThreadID),
			Error:     lastError(state),
			Steps:     state.Steps,
		})

		return state, fmt.Errorf("run %s: %w", state.ThreadID, ErrStepLimitExceeded)
	}

	o.publish(ctx, state.ThreadID, events.RunFinished{
		BaseEvent:    events.NewBaseEvent(events.RunFinishedEvent, state.ThreadID),
		TaskComplete: state.TaskComplete,
		Duration:     time.Since(started),
	})
	o.logger.InfoContext(ctx, "Analysis run finished",
		"thread_id", state.ThreadID,
		"task_complete", state.TaskComplete,
		"steps", state.Steps,
		"duration", time.Since(started))

	return state, nil
}

// step dispatches one graph transition based on the recorded stage.
func (o *Orchestrator) step(ctx context.Context, state *models.State) error {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "orchestrator.step",
		attribute.String(otelhelper.ThreadIDKey, state.ThreadID),
		attribute.String(otelhelper.StageKey, string(state.Stage)),
		attribute.Int(otelhelper.StepKey, state.Steps),
		attribute.Bool(otelhelper.RevisionModeKey, state.RevisionMode()),
	)
	defer span.End()

	var err error

	switch state.Stage {
	case models.StageExtraction:
		err = o.runExtraction(ctx, state)
	case models.StageAnalysis:
		err = o.runAnalyses(ctx, state)
	case models.StageReview:
		o.runReview(ctx, state)
	default:
		err = fmt.Errorf("unexpected stage %q for run %s", state.Stage, state.ThreadID)
	}

	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (o *Orchestrator) publish(ctx context.Context, threadID string, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	if err := o.publisher.Publish(ctx, threadID, event); err != nil {
		o.logger.WarnContext(ctx, "Failed to publish run event", "error", err)
	}
}

func lastError(state *models.State) string {
	if len(state.Errors) == 0 {
		return ""
	}

	return state.Errors[len(state.Errors)-1]
}
