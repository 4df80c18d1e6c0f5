// Package tasks defines the capability interfaces for analysis and
// extraction backends, the ordered registry the orchestrator iterates, and
// the deterministic fallback payloads substituted when a backend fails.
package tasks

import (
	"context"

	"github.com/callsheet/callsheet/pkg/models"
)

// ExtractionInput is the input to the extraction stage. Feedback is non-nil
// only when the run re-extracts after human review.
type ExtractionInput struct {
	ScriptContent string
	Feedback      map[models.Category]string
}

// ExtractionTask decomposes raw script text into the canonical structural
// form consumed by every analysis category. A nil payload or an error counts
// as a failed attempt.
type ExtractionTask interface {
	Execute(ctx context.Context, input ExtractionInput) (models.Payload, error)
}

// AnalysisInput is the input to one category analysis: a read-only snapshot
// of the extraction output plus any reviewer feedback for that category.
type AnalysisInput struct {
	Extraction models.Payload
	Feedback   string
}

// AnalysisTask computes one category's analysis from extraction output. How
// the answer is produced (model call, heuristic, stub) is opaque to the
// orchestrator.
type AnalysisTask interface {
	Category() models.Category
	Execute(ctx context.Context, input AnalysisInput) (models.Payload, error)
}
