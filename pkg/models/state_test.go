package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	state := NewState("script_deadbeef", "INT. DINER - NIGHT")

	assert.Equal(t, "script_deadbeef", state.ThreadID)
	assert.Equal(t, StageExtraction, state.Stage)
	assert.Empty(t, state.Errors)
	assert.Contains(t, state.ProcessingMetadata, MetaWorkflowStartTime)

	for _, c := range Categories() {
		assert.Contains(t, state.AnalysesComplete, c)
		assert.False(t, state.AnalysesComplete[c])
		assert.False(t, state.NeedsRevision[c])
	}
}

func TestEnsureCategoryKeys(t *testing.T) {
	state := &State{
		AnalysesComplete: map[Category]bool{
			CategoryCost: true,
			"catering":   true,
		},
		HumanFeedback: map[Category]string{CategoryProps: "more detail"},
	}

	state.EnsureCategoryKeys()

	assert.True(t, state.AnalysesComplete[CategoryCost])
	assert.NotContains(t, state.AnalysesComplete, Category("catering"))
	assert.Equal(t, "more detail", state.HumanFeedback[CategoryProps])
	assert.Len(t, state.AnalysisResults, len(Categories()))
	assert.NotNil(t, state.Errors)
	assert.NotNil(t, state.ProcessingMetadata)
}

func TestRevisionMode(t *testing.T) {
	state := NewState("script_aaaaaaaa", "content")
	assert.False(t, state.RevisionMode())

	state.ProcessingMetadata[MetaRevisionMode] = true
	assert.True(t, state.RevisionMode())

	state.ProcessingMetadata[MetaRevisionMode] = "yes"
	assert.False(t, state.RevisionMode())
}

func TestRevisionFlags(t *testing.T) {
	state := NewState("script_aaaaaaaa", "content")

	assert.False(t, state.AnyRevisionNeeded())
	assert.Empty(t, state.RevisionCategories())
	assert.False(t, state.AllAnalysesComplete())

	state.NeedsRevision[CategoryTimeline] = true
	state.NeedsRevision[CategoryCost] = true

	assert.True(t, state.AnyRevisionNeeded())
	assert.Equal(t, []Category{CategoryCost, CategoryTimeline}, state.RevisionCategories())

	for _, c := range Categories() {
		state.AnalysesComplete[c] = true
	}

	assert.True(t, state.AllAnalysesComplete())
}

func TestStatus(t *testing.T) {
	state := NewState("script_aaaaaaaa", "content")
	assert.Equal(t, RunStatusInitializing, state.Status())

	state.ExtractionComplete = true
	assert.Equal(t, RunStatusExtracting, state.Status())

	state.Stage = StageAnalysis
	assert.Equal(t, RunStatusAnalyzing, state.Status())

	state.Stage = StageReview
	assert.Equal(t, RunStatusReviewing, state.Status())

	state.Stage = StageDone
	assert.Equal(t, RunStatusCompleted, state.Status())

	state.Stage = StageFailed
	assert.Equal(t, RunStatusFailed, state.Status())
}

func TestAppendError(t *testing.T) {
	state := NewState("script_aaaaaaaa", "content")

	state.AppendError("extraction failed after %d attempts", 3)
	state.AppendError("analysis %s failed", CategoryCost)

	require.Len(t, state.Errors, 2)
	assert.Equal(t, "extraction failed after 3 attempts", state.Errors[0])
	assert.Equal(t, "analysis cost failed", state.Errors[1])
}

func TestClone(t *testing.T) {
	state := NewState("script_aaaaaaaa", "content")
	state.Extraction = Payload{"scenes": []any{map[string]any{"scene_number": 1}}}
	state.AnalysisResults[CategoryCost] = Payload{"total_budget_range": "high"}
	state.AnalysesComplete[CategoryCost] = true
	state.AppendError("transient failure")

	clone := state.Clone()

	require.NotSame(t, state, clone)
	assert.Equal(t, state.ThreadID, clone.ThreadID)
	assert.Equal(t, state.Errors, clone.Errors)
	assert.True(t, clone.AnalysesComplete[CategoryCost])
	assert.Equal(t, "high", clone.AnalysisResults[CategoryCost].String("total_budget_range"))

	clone.AnalysisResults[CategoryCost]["total_budget_range"] = "low"
	clone.AnalysesComplete[CategoryProps] = true

	assert.Equal(t, "high", state.AnalysisResults[CategoryCost].String("total_budget_range"))
	assert.False(t, state.AnalysesComplete[CategoryProps])
}
