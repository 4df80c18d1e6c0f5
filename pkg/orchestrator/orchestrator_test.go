package orchestrator_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/checkpoint/memory"
	"github.com/callsheet/callsheet/pkg/eventbus"
	"github.com/callsheet/callsheet/pkg/events"
	"github.com/callsheet/callsheet/pkg/executor"
	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/orchestrator"
	"github.com/callsheet/callsheet/pkg/tasks"
)

const sampleScript = "INT. OFFICE - DAY\n\nMARA types at a laptop."

type stubExtraction struct {
	calls   atomic.Int64
	execute func(input tasks.ExtractionInput) (models.Payload, error)
}

func (s *stubExtraction) Execute(_ context.Context, input tasks.ExtractionInput) (models.Payload, error) {
	s.calls.Add(1)

	if s.execute != nil {
		return s.execute(input)
	}

	return validExtraction(), nil
}

type stubAnalysis struct {
	category models.Category
	calls    atomic.Int64
	execute  func(input tasks.AnalysisInput) (models.Payload, error)
}

func (s *stubAnalysis) Category() models.Category {
	return s.category
}

func (s *stubAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	s.calls.Add(1)

	if s.execute != nil {
		return s.execute(input)
	}

	return models.Payload{"category": string(s.category)}, nil
}

func validExtraction() models.Payload {
	return models.Payload{
		"scenes":           []any{map[string]any{"scene_number": 1, "heading": "INT. OFFICE - DAY"}},
		"total_characters": []any{"MARA"},
		"total_locations":  []any{"OFFICE"},
	}
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *capturingPublisher) reviewDecisions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var decisions []string

	for _, event := range p.events {
		if evaluated, ok := event.(events.ReviewEvaluated); ok {
			decisions = append(decisions, evaluated.Decision)
		}
	}

	return decisions
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	orchestrator *orchestrator.Orchestrator
	store        checkpoint.Store
	extraction   *stubExtraction
	analyses     map[models.Category]*stubAnalysis
	publisher    *capturingPublisher
}

func newFixture(t *testing.T, cfg orchestrator.Config) *fixture {
	t.Helper()

	logger := testLogger()
	registry := tasks.NewRegistry(logger)

	extraction := &stubExtraction{}
	registry.RegisterExtraction(extraction)

	analyses := make(map[models.Category]*stubAnalysis)

	for _, category := range models.Categories() {
		analysis := &stubAnalysis{category: category}
		analyses[category] = analysis
		require.NoError(t, registry.RegisterAnalysis(analysis))
	}

	store := memory.NewStore()
	exec := executor.NewExecutor(logger, nil, executor.Config{Sleep: func(time.Duration) {}})
	publisher := &capturingPublisher{}

	return &fixture{
		orchestrator: orchestrator.NewOrchestrator(logger, store, registry, exec, publisher, nil, cfg),
		store:        store,
		extraction:   extraction,
		analyses:     analyses,
		publisher:    publisher,
	}
}

func TestNewThreadID(t *testing.T) {
	id := orchestrator.NewThreadID()
	assert.Regexp(t, `^script_[0-9a-f]{8}$`, id)
	assert.NotEqual(t, id, orchestrator.NewThreadID())
}

func TestStartHappyPath(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.NoError(t, err)

	assert.Equal(t, models.StageDone, state.Stage)
	assert.True(t, state.TaskComplete)
	assert.True(t, state.ExtractionComplete)
	// A completed run is never left half-reviewed.
	assert.True(t, state.HumanReviewComplete)
	assert.Empty(t, state.Errors)
	// extraction, analysis round, review.
	assert.Equal(t, 3, state.Steps)

	for _, category := range models.Categories() {
		assert.True(t, state.AnalysesComplete[category], "category %s", category)
		assert.NotNil(t, state.AnalysisResults[category], "category %s", category)
		assert.EqualValues(t, 1, f.analyses[category].calls.Load(), "category %s", category)
	}

	// The final state is checkpointed.
	saved, err := f.store.Load(context.Background(), state.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, models.StageDone, saved.Stage)
}

func TestStartRejectsShortContent(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	_, err := f.orchestrator.Start(context.Background(), "short")
	require.Error(t, err)
}

func TestStartSingleCategoryFallback(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})
	f.analyses[models.CategoryCost].execute = func(tasks.AnalysisInput) (models.Payload, error) {
		return nil, errors.New("backend unavailable")
	}

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.NoError(t, err)

	// The run still completes; the failed category carries its fallback.
	assert.True(t, state.TaskComplete)
	assert.True(t, state.AnalysesComplete[models.CategoryCost])
	assert.True(t, tasks.IsFallback(state.AnalysisResults[models.CategoryCost]))
	assert.NotEmpty(t, state.Errors)
	// Other categories are unaffected.
	assert.False(t, tasks.IsFallback(state.AnalysisResults[models.CategoryProps]))
}

func TestStartExtractionMissingFields(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})
	f.extraction.execute = func(tasks.ExtractionInput) (models.Payload, error) {
		return models.Payload{"scenes": []any{}}, nil
	}

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.NoError(t, err)

	assert.True(t, state.ExtractionComplete)
	assert.True(t, tasks.IsFallback(state.Extraction))
	assert.NotEmpty(t, state.Errors)
}

func TestStartStepCeiling(t *testing.T) {
	f := newFixture(t, orchestrator.Config{MaxSteps: 2})

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrStepLimitExceeded)

	assert.Equal(t, models.StageFailed, state.Stage)
	assert.False(t, state.TaskComplete)
	assert.NotEmpty(t, state.Errors)

	// The failed state is still checkpointed.
	saved, loadErr := f.store.Load(context.Background(), state.ThreadID)
	require.NoError(t, loadErr)
	assert.Equal(t, models.StageFailed, saved.Stage)
}

func TestApplyFeedbackApproval(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.NoError(t, err)

	updated, err := f.orchestrator.ApplyFeedback(context.Background(), state.ThreadID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StageDone, updated.Stage)
	assert.True(t, updated.HumanReviewComplete)
	assert.True(t, updated.TaskComplete)
	// Approving without flagging anything is not a revision.
	assert.False(t, updated.RevisionMode())
	assert.Contains(t, updated.ProcessingMetadata, models.MetaReviewCompletedAt)
}

func TestApplyFeedbackRevisionLoop(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	var seenFeedback atomic.Value

	f.analyses[models.CategoryProps].execute = func(input tasks.AnalysisInput) (models.Payload, error) {
		if input.Feedback != "" {
			seenFeedback.Store(input.Feedback)
		}

		return models.Payload{"category": "props"}, nil
	}

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.NoError(t, err)

	updated, err := f.orchestrator.ApplyFeedback(context.Background(), state.ThreadID,
		map[models.Category]string{models.CategoryProps: "missing the warehouse truck"},
		map[models.Category]bool{models.CategoryProps: true})
	require.NoError(t, err)
	assert.Equal(t, models.StageExtraction, updated.Stage)

	final, err := f.orchestrator.Resume(context.Background(), state.ThreadID)
	require.NoError(t, err)

	assert.Equal(t, models.StageDone, final.Stage)
	assert.True(t, final.HumanReviewComplete)
	assert.True(t, final.TaskComplete)
	assert.False(t, final.AnyRevisionNeeded())
	assert.Equal(t, "missing the warehouse truck", seenFeedback.Load())

	// Extraction ran twice: initial pass plus the revision pass.
	assert.EqualValues(t, 2, f.extraction.calls.Load())
	// Every category was recomputed in the revision round.
	assert.EqualValues(t, 2, f.analyses[models.CategoryCost].calls.Load())
}

func TestResumeTerminalRun(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	state, err := f.orchestrator.Start(context.Background(), sampleScript)
	require.NoError(t, err)

	resumed, err := f.orchestrator.Resume(context.Background(), state.ThreadID)
	require.Error(t, err)
	assert.ErrorIs(t, err, orchestrator.ErrRunTerminal)
	assert.Equal(t, models.StageDone, resumed.Stage)
}

func TestResumeMidRunSkipsCompletedStages(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})
	ctx := context.Background()

	// Checkpoint a run that already finished extraction.
	state := models.NewState("script_deadbeef", sampleScript)
	state.Extraction = validExtraction()
	state.ExtractionComplete = true
	state.Stage = models.StageAnalysis
	state.Steps = 1
	require.NoError(t, f.store.Save(ctx, state))

	final, err := f.orchestrator.Resume(ctx, "script_deadbeef")
	require.NoError(t, err)

	assert.Equal(t, models.StageDone, final.Stage)
	assert.True(t, final.TaskComplete)
	// Extraction was not re-run.
	assert.EqualValues(t, 0, f.extraction.calls.Load())
}

func TestResumeAnalysisWithoutExtraction(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})
	ctx := context.Background()

	// A checkpoint at the analysis stage with no extraction result: every
	// category must short-circuit to its fallback without a task call.
	state := models.NewState("script_feedc0de", sampleScript)
	state.Stage = models.StageAnalysis
	state.Steps = 1
	require.NoError(t, f.store.Save(ctx, state))

	final, err := f.orchestrator.Resume(ctx, "script_feedc0de")
	require.NoError(t, err)

	assert.Equal(t, models.StageDone, final.Stage)

	for _, category := range models.Categories() {
		assert.EqualValues(t, 0, f.analyses[category].calls.Load(), "category %s", category)
		assert.True(t, final.AnalysesComplete[category], "category %s", category)
		assert.True(t, tasks.IsFallback(final.AnalysisResults[category]), "category %s", category)
	}

	assert.Len(t, final.Errors, len(models.Categories()))
}

func TestReviewDecisionIdempotent(t *testing.T) {
	// The review gate is a pure function of state: replaying a run from the
	// same checkpoint must produce the same sequence of routing decisions.
	reviewState := func() *models.State {
		state := models.NewState("script_0ddba11c", sampleScript)
		state.Extraction = validExtraction()
		state.ExtractionComplete = true

		for _, category := range models.Categories() {
			state.AnalysisResults[category] = models.Payload{"category": string(category)}
			state.AnalysesComplete[category] = true
		}

		state.NeedsRevision[models.CategoryProps] = true
		state.HumanFeedback[models.CategoryProps] = "missing props"
		state.ProcessingMetadata[models.MetaRevisionMode] = true
		state.Stage = models.StageReview
		state.Steps = 2

		return state
	}

	ctx := context.Background()

	var decisions [][]string

	for range 2 {
		f := newFixture(t, orchestrator.Config{})
		require.NoError(t, f.store.Save(ctx, reviewState()))

		final, err := f.orchestrator.Resume(ctx, "script_0ddba11c")
		require.NoError(t, err)
		assert.Equal(t, models.StageDone, final.Stage)

		decisions = append(decisions, f.publisher.reviewDecisions())
	}

	assert.Equal(t, []string{"extraction", "end"}, decisions[0])
	assert.Equal(t, decisions[0], decisions[1])
}

func TestGetStateMissingThread(t *testing.T) {
	f := newFixture(t, orchestrator.Config{})

	_, err := f.orchestrator.GetState(context.Background(), "script_missing")
	require.Error(t, err)
	assert.True(t, checkpoint.IsThreadNotFound(err))
}
