package heuristic

import (
	"context"
	"fmt"
	"sort"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

type LocationAnalysis struct{}

func NewLocationAnalysis() *LocationAnalysis {
	return &LocationAnalysis{}
}

func (a *LocationAnalysis) Category() models.Category {
	return models.CategoryLocation
}

func (a *LocationAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	scenes := scenesFrom(input.Extraction)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("extraction contains no scenes")
	}

	sceneLocations := make([]any, 0, len(scenes))
	byLocation := make(map[string][]int)
	intExtByLocation := make(map[string]string)

	for _, scene := range scenes {
		sceneLocations = append(sceneLocations, map[string]any{
			"scene_number": scene.Number,
			"location":     scene.Location,
			"int_ext":      scene.IntExt,
			"time_of_day":  scene.TimeOfDay,
		})

		if scene.Location != "" {
			byLocation[scene.Location] = append(byLocation[scene.Location], scene.Number)
			intExtByLocation[scene.Location] = scene.IntExt
		}
	}

	locations := make([]string, 0, len(byLocation))
	for location := range byLocation {
		locations = append(locations, location)
	}

	sort.Strings(locations)

	interior := make([]any, 0)
	exterior := make([]any, 0)
	groups := make([]any, 0, len(locations))
	permits := make([]any, 0)

	for _, location := range locations {
		sceneNumbers := byLocation[location]
		groups = append(groups, map[string]any{
			"location":    location,
			"scenes":      intSlice(sceneNumbers),
			"scene_count": len(sceneNumbers),
		})

		if intExtByLocation[location] == "EXT" || intExtByLocation[location] == "INT/EXT" {
			exterior = append(exterior, location)
			permits = append(permits, map[string]any{
				"location":    location,
				"requirement": "Exterior filming permit likely required",
			})
		} else {
			interior = append(interior, location)
		}
	}

	payload := models.Payload{
		"scene_locations":  sceneLocations,
		"unique_locations": toAnySlice(locations),
		"locations_by_type": map[string]any{
			"INT": interior,
			"EXT": exterior,
		},
		"location_shooting_groups": groups,
		"permit_requirements":      permits,
	}

	return withRevisionNote(payload, input.Feedback), nil
}

func intSlice(values []int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
