package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stage marks the position of a run inside the orchestration graph. It is
// persisted with the state so a suspended run resumes where it stopped.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageAnalysis   Stage = "analysis"
	StageReview     Stage = "review"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// RunStatus is the coarse lifecycle state exposed to API consumers.
type RunStatus string

const (
	RunStatusInitializing RunStatus = "initializing"
	RunStatusExtracting   RunStatus = "extracting"
	RunStatusAnalyzing    RunStatus = "analyzing"
	RunStatusReviewing    RunStatus = "reviewing"
	RunStatusCompleted    RunStatus = "completed"
	RunStatusFailed       RunStatus = "failed"
)

// Metadata keys written into State.ProcessingMetadata.
const (
	MetaRevisionMode        = "revision_mode"
	MetaWorkflowStartTime   = "workflow_start_time"
	MetaExtractionTimestamp = "extraction_timestamp"
	MetaExtractionSeconds   = "extraction_time_seconds"
	MetaReviewCompletedAt   = "review_completed_at"
	MetaRevisionInProgress  = "revision_in_progress"
)

// State is the single source of truth for one analysis run, keyed by thread
// id. It is mutated only by the orchestrator merging node patches, and it is
// JSON-serializable at every stage boundary.
type State struct {
	ThreadID      string `json:"thread_id"`
	ScriptContent string `json:"script_content"`

	Extraction         Payload              `json:"extraction_result,omitempty"`
	AnalysisResults    map[Category]Payload `json:"analysis_results"`
	AnalysesComplete   map[Category]bool    `json:"analyses_complete"`
	NeedsRevision      map[Category]bool    `json:"needs_revision"`
	HumanFeedback      map[Category]string  `json:"human_feedback"`
	Errors             []string             `json:"errors"`
	ProcessingMetadata map[string]any       `json:"processing_metadata"`

	ExtractionComplete  bool `json:"extraction_complete"`
	HumanReviewComplete bool `json:"human_review_complete"`
	TaskComplete        bool `json:"task_complete"`

	Stage Stage `json:"stage"`
	Steps int   `json:"steps"` // graph steps consumed, bounded by the step ceiling

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates the initial state for a fresh run. Every category map is
// populated with the full registered key set.
func NewState(threadID, scriptContent string) *State {
	now := time.Now().UTC()

	s := &State{
		ThreadID:      threadID,
		ScriptContent: scriptContent,
		Errors:        []string{},
		ProcessingMetadata: map[string]any{
			MetaWorkflowStartTime: now.Format(time.RFC3339),
		},
		Stage:     StageExtraction,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.EnsureCategoryKeys()

	return s
}

// EnsureCategoryKeys makes the per-category maps hold exactly the registered
// key set. Missing keys are added with zero values; unknown keys are dropped.
func (s *State) EnsureCategoryKeys() {
	results := make(map[Category]Payload, len(categories))
	complete := make(map[Category]bool, len(categories))
	revision := make(map[Category]bool, len(categories))
	feedback := make(map[Category]string, len(categories))

	for _, c := range categories {
		results[c] = s.AnalysisResults[c]
		complete[c] = s.AnalysesComplete[c]
		revision[c] = s.NeedsRevision[c]
		feedback[c] = s.HumanFeedback[c]
	}

	s.AnalysisResults = results
	s.AnalysesComplete = complete
	s.NeedsRevision = revision
	s.HumanFeedback = feedback

	if s.Errors == nil {
		s.Errors = []string{}
	}

	if s.ProcessingMetadata == nil {
		s.ProcessingMetadata = map[string]any{}
	}
}

// RevisionMode reports whether the run is re-extracting after human feedback.
func (s *State) RevisionMode() bool {
	v, _ := s.ProcessingMetadata[MetaRevisionMode].(bool)

	return v
}

// AllAnalysesComplete reports whether every registered category has produced
// a result for the current round. Fallback results count as complete.
func (s *State) AllAnalysesComplete() bool {
	for _, c := range categories {
		if !s.AnalysesComplete[c] {
			return false
		}
	}

	return true
}

// AnyRevisionNeeded reports whether at least one category is flagged for
// rework.
func (s *State) AnyRevisionNeeded() bool {
	for _, needed := range s.NeedsRevision {
		if needed {
			return true
		}
	}

	return false
}

// RevisionCategories lists the categories currently flagged for rework, in
// canonical order.
func (s *State) RevisionCategories() []Category {
	var out []Category

	for _, c := range categories {
		if s.NeedsRevision[c] {
			out = append(out, c)
		}
	}

	return out
}

// AppendError records a non-fatal error. The error log is append-only for
// the lifetime of the run.
func (s *State) AppendError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Touch bumps the modification timestamp.
func (s *State) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Status derives the API-facing lifecycle status from the graph position.
func (s *State) Status() RunStatus {
	switch s.Stage {
	case StageExtraction:
		if s.ExtractionComplete {
			return RunStatusExtracting
		}

		return RunStatusInitializing
	case StageAnalysis:
		return RunStatusAnalyzing
	case StageReview:
		return RunStatusReviewing
	case StageDone:
		return RunStatusCompleted
	case StageFailed:
		return RunStatusFailed
	default:
		return RunStatusInitializing
	}
}

// Clone returns a deep copy of the state via a JSON round trip, which
// doubles as a serializability check. It panics only on programmer error:
// the state type is JSON-clean by construction.
func (s *State) Clone() *State {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("state %s is not serializable: %v", s.ThreadID, err))
	}

	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("state %s does not round-trip: %v", s.ThreadID, err))
	}

	out.EnsureCategoryKeys()

	return &out
}
