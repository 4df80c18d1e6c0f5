package tasks

import (
	"strings"

	"github.com/callsheet/callsheet/pkg/models"
)

// UnableToAnalyze is the marker carried by fallback payloads. API consumers
// distinguish real results from placeholders by this marker plus the run's
// error log, never by exceptional control flow.
const UnableToAnalyze = "Unable to analyze - API Error"

// ExtractionFallback returns the minimal valid extraction payload used when
// the extraction backend exhausts its retries or fails validation. It
// carries every required field so downstream analyses can still run.
func ExtractionFallback() models.Payload {
	return models.Payload{
		"scenes":                []any{},
		"total_characters":      []any{"Unable to extract"},
		"total_locations":       []any{"Unable to extract"},
		"locations_by_type":     map[string]any{"INT": []any{}, "EXT": []any{}},
		"language_detected":     "Unknown",
		"estimated_total_pages": 0,
		"total_scene_count":     0,
	}
}

// Fallback returns the deterministic placeholder result for one category.
// Every field present in a real result is present here, with clearly flagged
// placeholder content.
func Fallback(c models.Category) models.Payload {
	switch c {
	case models.CategoryCost:
		return models.Payload{
			"scene_costs":            []any{},
			"total_budget_range":     "Unable to estimate - API Error",
			"estimated_total_days":   0,
			"major_cost_drivers":     []any{"API Error - Unable to analyze"},
			"cost_optimization_tips": []any{"Please retry analysis"},
		}
	case models.CategoryProps:
		return models.Payload{
			"scene_props":          []any{},
			"master_props_list":    []any{UnableToAnalyze},
			"props_by_category":    map[string]any{"error": []any{"API Error"}},
			"costume_by_character": map[string]any{},
			"prop_budget_estimate": "Unknown - API Error",
		}
	case models.CategoryLocation:
		return models.Payload{
			"scene_locations":          []any{},
			"unique_locations":         []any{UnableToAnalyze},
			"locations_by_type":        map[string]any{"error": []any{"API Error"}},
			"location_shooting_groups": []any{"Unable to group - API Error"},
			"permit_requirements":      []any{"Unable to determine - API Error"},
		}
	case models.CategoryCharacter:
		return models.Payload{
			"scene_characters":      []any{},
			"main_characters":       []any{UnableToAnalyze},
			"supporting_characters": []any{},
			"character_scene_count": map[string]any{},
			"casting_requirements":  []any{"Unable to determine - API Error"},
		}
	case models.CategoryScene:
		return models.Payload{
			"detailed_scenes":       []any{},
			"three_act_structure":   []any{UnableToAnalyze},
			"pacing_analysis":       UnableToAnalyze,
			"key_dramatic_scenes":   []any{},
			"action_heavy_scenes":   []any{},
			"dialogue_heavy_scenes": []any{},
		}
	case models.CategoryTimeline:
		return models.Payload{
			"scene_timelines":               []any{},
			"total_shooting_days":           0,
			"shooting_schedule_by_location": []any{"Unable to estimate - API Error"},
			"cast_scheduling":               map[string]any{},
			"pre_production_timeline":       []any{"Unable to plan - API Error"},
			"post_production_timeline":      []any{"Unable to plan - API Error"},
		}
	default:
		return models.Payload{
			"error":   "Unable to process " + string(c) + " - API Error",
			"message": "Please retry the analysis",
		}
	}
}

// IsFallback reports whether payload looks like a placeholder produced by
// Fallback or ExtractionFallback, by probing the marker fields.
func IsFallback(p models.Payload) bool {
	if p == nil {
		return false
	}

	for _, key := range []string{
		"total_budget_range", "prop_budget_estimate", "pacing_analysis",
	} {
		if s, ok := p[key].(string); ok && strings.Contains(s, "API Error") {
			return true
		}
	}

	for _, key := range []string{
		"master_props_list", "unique_locations", "main_characters",
		"three_act_structure", "major_cost_drivers",
		"shooting_schedule_by_location", "total_characters",
	} {
		for _, s := range p.StringSlice(key) {
			if strings.Contains(s, "API Error") || s == "Unable to extract" {
				return true
			}
		}
	}

	return false
}
