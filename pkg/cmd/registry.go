package cmd

import (
	"log/slog"

	"github.com/callsheet/callsheet/pkg/tasks"
	"github.com/callsheet/callsheet/pkg/tasks/heuristic"
)

// NewRegistry builds a task registry wired with the built-in heuristic
// backends for extraction and every analysis category.
func NewRegistry(logger *slog.Logger) (*tasks.Registry, error) {
	registry := tasks.NewRegistry(logger)
	registry.RegisterExtraction(heuristic.NewExtraction())

	analyses := []tasks.AnalysisTask{
		heuristic.NewCostAnalysis(),
		heuristic.NewPropsAnalysis(),
		heuristic.NewLocationAnalysis(),
		heuristic.NewCharacterAnalysis(),
		heuristic.NewSceneAnalysis(),
		heuristic.NewTimelineAnalysis(),
	}

	for _, analysis := range analyses {
		err := registry.RegisterAnalysis(analysis)
		if err != nil {
			return nil, err
		}
	}

	return registry, nil
}
