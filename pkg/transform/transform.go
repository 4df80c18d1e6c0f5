// Package transform shapes internal run state into the response schema
// served by the API: meta, workflow info, source info, script breakdown,
// production planning and quality control sections.
package transform

import (
	"errors"
	"time"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

const SchemaVersion = "2.0"

var (
	ErrUnknownDepartment = errors.New("unknown department")
	ErrSceneNotFound     = errors.New("scene not found")
)

type Response struct {
	Meta               Meta      `json:"meta"`
	Workflow           Workflow  `json:"workflow"`
	Source             Source    `json:"source"`
	ScriptBreakdown    Breakdown `json:"script_breakdown"`
	ProductionPlanning Planning  `json:"production_planning"`
	QualityControl     Quality   `json:"quality_control"`
}

type Meta struct {
	Success   bool   `json:"success"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type Workflow struct {
	ThreadID        string   `json:"thread_id"`
	Status          string   `json:"status"`
	Stage           string   `json:"stage"`
	ProgressPercent int      `json:"progress_percent"`
	RequiresReview  bool     `json:"requires_review"`
	RevisionMode    bool     `json:"revision_mode"`
	Steps           int      `json:"steps"`
	Errors          []string `json:"errors"`
}

type Source struct {
	ContentLength  int    `json:"content_length"`
	SceneCount     int    `json:"scene_count"`
	Language       string `json:"language"`
	EstimatedPages any    `json:"estimated_pages"`
}

type Breakdown struct {
	Summary          Summary          `json:"summary"`
	Scenes           []models.Payload `json:"scenes"`
	Characters       models.Payload   `json:"characters"`
	Locations        models.Payload   `json:"locations"`
	PropsAndWardrobe models.Payload   `json:"props_and_wardrobe"`
}

type Summary struct {
	TotalScenes     int `json:"total_scenes"`
	TotalCharacters int `json:"total_characters"`
	TotalLocations  int `json:"total_locations"`
}

type Planning struct {
	Schedule      models.Payload `json:"schedule"`
	Budget        models.Payload `json:"budget"`
	SceneAnalysis models.Payload `json:"scene_analysis"`
}

type Quality struct {
	ValidationPassed bool                     `json:"validation_passed"`
	FallbacksApplied []string                 `json:"fallbacks_applied"`
	HumanReview      HumanReview              `json:"human_review"`
	AnalysesComplete map[models.Category]bool `json:"analyses_complete"`
	NeedsRevision    map[models.Category]bool `json:"needs_revision"`
}

type HumanReview struct {
	Complete       bool                       `json:"complete"`
	RequiresReview bool                       `json:"requires_review"`
	Feedback       map[models.Category]string `json:"feedback"`
}

// FromState builds the full response for a run in any stage. A completed
// run awaits reviewer feedback until the review timestamp is recorded.
func FromState(state *models.State) *Response {
	_, reviewed := state.ProcessingMetadata[models.MetaReviewCompletedAt]
	requiresReview := state.Stage == models.StageDone && !reviewed

	return &Response{
		Meta: Meta{
			Success:   state.Stage != models.StageFailed,
			Version:   SchemaVersion,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Workflow: Workflow{
			ThreadID:        state.ThreadID,
			Status:          string(state.Status()),
			Stage:           string(state.Stage),
			ProgressPercent: Progress(state),
			RequiresReview:  requiresReview,
			RevisionMode:    state.RevisionMode(),
			Steps:           state.Steps,
			Errors:          state.Errors,
		},
		Source: Source{
			ContentLength:  len(state.ScriptContent),
			SceneCount:     state.Extraction.Int("total_scene_count"),
			Language:       state.Extraction.String("language_detected"),
			EstimatedPages: state.Extraction["estimated_total_pages"],
		},
		ScriptBreakdown: Breakdown{
			Summary: Summary{
				TotalScenes:     state.Extraction.Int("total_scene_count"),
				TotalCharacters: len(state.Extraction.StringSlice("total_characters")),
				TotalLocations:  len(state.Extraction.StringSlice("total_locations")),
			},
			Scenes:           state.Extraction.MapSlice("scenes"),
			Characters:       state.AnalysisResults[models.CategoryCharacter],
			Locations:        state.AnalysisResults[models.CategoryLocation],
			PropsAndWardrobe: state.AnalysisResults[models.CategoryProps],
		},
		ProductionPlanning: Planning{
			Schedule:      state.AnalysisResults[models.CategoryTimeline],
			Budget:        state.AnalysisResults[models.CategoryCost],
			SceneAnalysis: state.AnalysisResults[models.CategoryScene],
		},
		QualityControl: Quality{
			ValidationPassed: len(state.Errors) == 0,
			FallbacksApplied: fallbackCategories(state),
			HumanReview: HumanReview{
				Complete:       state.HumanReviewComplete,
				RequiresReview: requiresReview,
				Feedback:       state.HumanFeedback,
			},
			AnalysesComplete: state.AnalysesComplete,
			NeedsRevision:    state.NeedsRevision,
		},
	}
}

// Progress reports run completion as a percentage: extraction is a quarter,
// the six analyses share sixty points, the review gate closes the rest.
func Progress(state *models.State) int {
	if state.Stage == models.StageFailed {
		return 100
	}

	progress := 0
	if state.ExtractionComplete {
		progress += 25
	}

	completed := 0

	for _, category := range models.Categories() {
		if state.AnalysesComplete[category] {
			completed++
		}
	}

	progress += completed * 60 / len(models.Categories())

	if state.Stage == models.StageDone {
		progress = 100
	}

	return progress
}

func fallbackCategories(state *models.State) []string {
	applied := make([]string, 0)

	for _, category := range models.Categories() {
		if tasks.IsFallback(state.AnalysisResults[category]) {
			applied = append(applied, string(category))
		}
	}

	return applied
}
