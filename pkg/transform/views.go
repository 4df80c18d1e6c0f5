package transform

import (
	"fmt"

	"github.com/callsheet/callsheet/pkg/models"
)

// Departments enumerates the per-department view names served by the API.
var Departments = []string{"props", "locations", "casting", "budget", "schedule"}

// DepartmentView extracts one department's slice of the analysis results.
func DepartmentView(state *models.State, department string) (models.Payload, error) {
	switch department {
	case "props":
		return departmentPayload(state, models.CategoryProps), nil
	case "locations":
		return departmentPayload(state, models.CategoryLocation), nil
	case "casting":
		return departmentPayload(state, models.CategoryCharacter), nil
	case "budget":
		return departmentPayload(state, models.CategoryCost), nil
	case "schedule":
		return departmentPayload(state, models.CategoryTimeline), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDepartment, department)
	}
}

func departmentPayload(state *models.State, category models.Category) models.Payload {
	result := state.AnalysisResults[category]
	if result == nil {
		result = models.Payload{}
	}

	return models.Payload{
		"department": string(category),
		"complete":   state.AnalysesComplete[category],
		"analysis":   result,
	}
}

// sceneListKeys are the per-category list fields carrying scene-keyed
// records, probed when assembling a single-scene view.
var sceneListKeys = map[models.Category]string{
	models.CategoryCost:      "scene_costs",
	models.CategoryProps:     "scene_props",
	models.CategoryLocation:  "scene_locations",
	models.CategoryCharacter: "scene_characters",
	models.CategoryScene:     "detailed_scenes",
	models.CategoryTimeline:  "scene_timelines",
}

// SceneView assembles everything known about one scene: its extraction
// record plus the matching record from each completed analysis.
func SceneView(state *models.State, sceneNumber int) (models.Payload, error) {
	var sceneRecord models.Payload

	for _, scene := range state.Extraction.MapSlice("scenes") {
		if scene.Int("scene_number") == sceneNumber {
			sceneRecord = scene

			break
		}
	}

	if sceneRecord == nil {
		return nil, fmt.Errorf("scene %d: %w", sceneNumber, ErrSceneNotFound)
	}

	view := models.Payload{
		"scene_number": sceneNumber,
		"scene":        sceneRecord,
	}

	analyses := models.Payload{}

	for category, key := range sceneListKeys {
		result := state.AnalysisResults[category]
		if result == nil {
			continue
		}

		for _, record := range result.MapSlice(key) {
			if record.Int("scene_number") == sceneNumber {
				analyses[string(category)] = record

				break
			}
		}
	}

	view["analyses"] = analyses

	return view, nil
}
