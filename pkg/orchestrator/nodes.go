package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/callsheet/callsheet/pkg/events"
	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/structval"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// extractionRequiredFields must be present in every extraction payload
// before analyses run against it.
var extractionRequiredFields = []string{"scenes", "total_characters", "total_locations"}

// runExtraction decomposes the script into structural form. In revision mode
// it also resets every category completion flag so the analysis round is
// recomputed against the fresh extraction.
func (o *Orchestrator) runExtraction(ctx context.Context, state *models.State) error {
	task, err := o.registry.Extraction()
	if err != nil {
		return err
	}

	revision := state.RevisionMode()
	input := tasks.ExtractionInput{ScriptContent: state.ScriptContent}

	if revision {
		input.Feedback = revisionFeedback(state)
		state.ProcessingMetadata[models.MetaRevisionInProgress] = true
	}

	started := time.Now()

	result, err := o.executor.Execute(ctx, "extraction", state.ThreadID,
		func(ctx context.Context) (models.Payload, error) {
			return task.Execute(ctx, input)
		}, tasks.ExtractionFallback)
	if err != nil {
		return err
	}

	payload := result.Payload
	usedFallback := result.UsedFallback

	if usedFallback {
		state.AppendError("Extraction failed after %d attempts, fallback applied", result.Attempts)
	} else if !structval.Validate(payload, extractionRequiredFields) {
		state.AppendError("Extraction result missing required fields: %v",
			structval.MissingFields(payload, extractionRequiredFields))

		payload = tasks.ExtractionFallback()
		usedFallback = true
	}

	state.Extraction = payload
	state.ExtractionComplete = true
	state.ProcessingMetadata[models.MetaExtractionTimestamp] = time.Now().UTC().Format(time.RFC3339)
	state.ProcessingMetadata[models.MetaExtractionSeconds] = time.Since(started).Seconds()

	if revision {
		for _, category := range models.Categories() {
			state.AnalysesComplete[category] = false
		}

		state.HumanReviewComplete = false
	}

	state.Stage = models.StageAnalysis

	o.publish(ctx, state.ThreadID, events.NodeFinished{
		BaseEvent:    events.NewBaseEvent(events.NodeFinishedEvent, state.ThreadID),
		Node:         "extraction",
		UsedFallback: usedFallback,
	})
	o.logger.InfoContext(ctx, "Extraction finished",
		"thread_id", state.ThreadID,
		"used_fallback", usedFallback,
		"seconds", time.Since(started).Seconds())

	return nil
}

// analysisPatch is the fan-in unit of one category runner.
type analysisPatch struct {
	category     models.Category
	payload      models.Payload
	usedFallback bool
	attempts     int
}

// runAnalyses executes every incomplete category concurrently against a
// shared read-only snapshot of the extraction output, then merges the
// patches once the whole round has finished.
func (o *Orchestrator) runAnalyses(ctx context.Context, state *models.State) error {
	// Without an extraction result there is nothing to analyze: every
	// pending category gets its fallback directly, no task calls.
	if state.Extraction == nil {
		for _, task := range o.registry.Ordered() {
			category := task.Category()
			if state.AnalysesComplete[category] {
				continue
			}

			state.AnalysisResults[category] = tasks.Fallback(category)
			state.AnalysesComplete[category] = true
			state.NeedsRevision[category] = false
			state.AppendError("%s analysis skipped: no extraction result available", category)

			o.publish(ctx, state.ThreadID, events.NodeFinished{
				BaseEvent:    events.NewBaseEvent(events.NodeFinishedEvent, state.ThreadID),
				Node:         string(category) + "_analysis",
				Category:     string(category),
				UsedFallback: true,
			})
		}

		state.Stage = models.StageReview

		return nil
	}

	extraction := state.Extraction.Clone()

	var (
		mu      sync.Mutex
		patches []analysisPatch
	)

	group, groupCtx := errgroup.WithContext(ctx)

	for _, task := range o.registry.Ordered() {
		if state.AnalysesComplete[task.Category()] {
			continue
		}

		group.Go(func() error {
			category := task.Category()
			input := tasks.AnalysisInput{
				Extraction: extraction,
				Feedback:   state.HumanFeedback[category],
			}

			result, err := o.executor.Execute(groupCtx, string(category)+"_analysis", state.ThreadID,
				func(ctx context.Context) (models.Payload, error) {
					payload, err := task.Execute(ctx, input)
					if err != nil {
						return nil, err
					}

					if !structval.Serializable(payload) {
						return nil, fmt.Errorf("%s analysis produced non-serializable output", category)
					}

					return payload, nil
				}, func() models.Payload { return tasks.Fallback(category) })
			if err != nil {
				return err
			}

			mu.Lock()
			patches = append(patches, analysisPatch{
				category:     category,
				payload:      result.Payload,
				usedFallback: result.UsedFallback,
				attempts:     result.Attempts,
			})
			mu.Unlock()

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return err
	}

	for _, patch := range patches {
		state.AnalysisResults[patch.category] = patch.payload
		state.AnalysesComplete[patch.category] = true
		state.NeedsRevision[patch.category] = false

		if patch.usedFallback {
			state.AppendError("%s analysis failed after %d attempts, fallback applied",
				patch.category, patch.attempts)
		}

		o.publish(ctx, state.ThreadID, events.NodeFinished{
			BaseEvent:    events.NewBaseEvent(events.NodeFinishedEvent, state.ThreadID),
			Node:         string(patch.category) + "_analysis",
			Category:     string(patch.category),
			UsedFallback: patch.usedFallback,
		})
	}

	o.logger.InfoContext(ctx, "Analysis round finished",
		"thread_id", state.ThreadID,
		"categories", len(patches))

	state.Stage = models.StageReview

	return nil
}

// runReview is the routing gate after an analysis round. It is a pure
// function of state, so re-running it after a crash reaches the same
// decision.
func (o *Orchestrator) runReview(ctx context.Context, state *models.State) {
	decision := "end"
	if !state.HumanReviewComplete && state.AnyRevisionNeeded() {
		decision = "extraction"
	}

	o.publish(ctx, state.ThreadID, events.ReviewEvaluated{
		BaseEvent: events.NewBaseEvent(events.ReviewEvaluatedEvent, state.ThreadID),
		Decision:  decision,
	})
	o.logger.InfoContext(ctx, "Review gate evaluated",
		"thread_id", state.ThreadID,
		"decision", decision)

	if decision == "extraction" {
		state.Stage = models.StageExtraction

		return
	}

	state.HumanReviewComplete = true
	state.TaskComplete = state.AllAnalysesComplete()
	state.Stage = models.StageDone

	if state.RevisionMode() {
		// The requested revisions have been applied.
		state.ProcessingMetadata[models.MetaReviewCompletedAt] = time.Now().UTC().Format(time.RFC3339)
	}

	delete(state.ProcessingMetadata, models.MetaRevisionInProgress)
}

// revisionFeedback returns reviewer feedback for flagged categories only.
func revisionFeedback(state *models.State) map[models.Category]string {
	feedback := make(map[models.Category]string)

	for _, category := range models.Categories() {
		if state.NeedsRevision[category] && state.HumanFeedback[category] != "" {
			feedback[category] = state.HumanFeedback[category]
		}
	}

	return feedback
}
