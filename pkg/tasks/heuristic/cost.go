package heuristic

import (
	"context"
	"fmt"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// scenesPerShootingDay is a common rule of thumb for a mid-budget schedule.
const scenesPerShootingDay = 5

type CostAnalysis struct{}

func NewCostAnalysis() *CostAnalysis {
	return &CostAnalysis{}
}

func (a *CostAnalysis) Category() models.Category {
	return models.CategoryCost
}

func (a *CostAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	scenes := scenesFrom(input.Extraction)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("extraction contains no scenes")
	}

	sceneCosts := make([]any, 0, len(scenes))
	drivers := make([]any, 0)

	highCostScenes := 0

	for _, scene := range scenes {
		tier := costTier(scene)
		if tier == "high" {
			highCostScenes++
		}

		sceneCosts = append(sceneCosts, map[string]any{
			"scene_number":   scene.Number,
			"cost_tier":      tier,
			"cost_factors":   costFactors(scene),
			"estimated_cast": len(scene.Characters),
		})
	}

	if highCostScenes > 0 {
		drivers = append(drivers, fmt.Sprintf("%d high-cost scenes (exteriors, night work or large casts)", highCostScenes))
	}

	if exteriors := countExteriors(scenes); exteriors > 0 {
		drivers = append(drivers, fmt.Sprintf("%d exterior scenes requiring location moves", exteriors))
	}

	payload := models.Payload{
		"scene_costs":          sceneCosts,
		"total_budget_range":   budgetRange(len(scenes), highCostScenes),
		"estimated_total_days": ceilDiv(len(scenes), scenesPerShootingDay),
		"major_cost_drivers":   drivers,
		"cost_optimization_tips": []any{
			"Group scenes by location to minimize company moves",
			"Schedule night exteriors consecutively to contain overtime",
		},
	}

	return withRevisionNote(payload, input.Feedback), nil
}

func costTier(scene extractedScene) string {
	score := 0
	if scene.IntExt == "EXT" || scene.IntExt == "INT/EXT" {
		score++
	}

	if scene.TimeOfDay == "NIGHT" {
		score++
	}

	if len(scene.Characters) > 3 {
		score++
	}

	switch {
	case score >= 2:
		return "high"
	case score == 1:
		return "medium"
	default:
		return "low"
	}
}

func costFactors(scene extractedScene) []any {
	factors := make([]any, 0)
	if scene.IntExt == "EXT" || scene.IntExt == "INT/EXT" {
		factors = append(factors, "exterior location")
	}

	if scene.TimeOfDay == "NIGHT" {
		factors = append(factors, "night shoot")
	}

	if len(scene.Characters) > 3 {
		factors = append(factors, "large cast")
	}

	return factors
}

func countExteriors(scenes []extractedScene) int {
	count := 0

	for _, scene := range scenes {
		if scene.IntExt == "EXT" || scene.IntExt == "INT/EXT" {
			count++
		}
	}

	return count
}

func budgetRange(total, highCost int) string {
	if total == 0 {
		return "Unknown"
	}

	ratio := float64(highCost) / float64(total)

	switch {
	case total > 80 || ratio > 0.5:
		return "$5M+"
	case total > 40 || ratio > 0.25:
		return "$1M-$5M"
	default:
		return "$100K-$1M"
	}
}
