package tasks

import (
	"fmt"
	"log/slog"

	"github.com/callsheet/callsheet/pkg/models"
)

// Registry holds the extraction task and one analysis task per registered
// category. The orchestrator iterates analyses in the canonical category
// order, never by runtime string dispatch.
type Registry struct {
	logger     *slog.Logger
	extraction ExtractionTask
	analyses   map[models.Category]AnalysisTask
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		analyses: make(map[models.Category]AnalysisTask),
	}
}

// RegisterExtraction installs the extraction backend.
func (r *Registry) RegisterExtraction(task ExtractionTask) {
	r.extraction = task
}

// RegisterAnalysis installs an analysis backend for its category.
func (r *Registry) RegisterAnalysis(task AnalysisTask) error {
	c := task.Category()
	if !models.ValidCategory(c) {
		return fmt.Errorf("analysis category %q not registered", c)
	}

	if _, exists := r.analyses[c]; exists {
		return fmt.Errorf("analysis category %q already registered", c)
	}

	r.analyses[c] = task

	return nil
}

// Extraction returns the extraction backend.
func (r *Registry) Extraction() (ExtractionTask, error) {
	if r.extraction == nil {
		return nil, fmt.Errorf("no extraction task registered")
	}

	return r.extraction, nil
}

// Analysis returns the backend for one category.
func (r *Registry) Analysis(c models.Category) (AnalysisTask, error) {
	task, ok := r.analyses[c]
	if !ok {
		return nil, fmt.Errorf("no analysis task registered for category %q", c)
	}

	return task, nil
}

// Ordered returns the analysis backends in canonical category order.
// Categories without a backend are skipped; HealthCheck reports them.
func (r *Registry) Ordered() []AnalysisTask {
	out := make([]AnalysisTask, 0, len(r.analyses))

	for _, c := range models.Categories() {
		if task, ok := r.analyses[c]; ok {
			out = append(out, task)
		}
	}

	return out
}

// HealthCheck reports whether every registered category has a backend.
func (r *Registry) HealthCheck() (string, bool) {
	if r.extraction == nil {
		return "no extraction task registered", false
	}

	for _, c := range models.Categories() {
		if _, ok := r.analyses[c]; !ok {
			return fmt.Sprintf("no analysis task registered for category %q", c), false
		}
	}

	return "all task backends registered", true
}
