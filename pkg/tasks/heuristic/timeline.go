package heuristic

import (
	"context"
	"fmt"
	"sort"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// pagesPerShootingDay follows the common four-pages-a-day planning rate.
const pagesPerShootingDay = 4.0

type TimelineAnalysis struct{}

func NewTimelineAnalysis() *TimelineAnalysis {
	return &TimelineAnalysis{}
}

func (a *TimelineAnalysis) Category() models.Category {
	return models.CategoryTimeline
}

func (a *TimelineAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	scenes := scenesFrom(input.Extraction)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("extraction contains no scenes")
	}

	sceneTimelines := make([]any, 0, len(scenes))
	byLocation := make(map[string][]int)
	castDays := make(map[string]int)

	totalPages := 0.0

	for _, scene := range scenes {
		totalPages += scene.Pages

		hours := scene.Pages * 6
		if hours < 1 {
			hours = 1
		}

		sceneTimelines = append(sceneTimelines, map[string]any{
			"scene_number":          scene.Number,
			"estimated_shoot_hours": hours,
			"night_work":            scene.TimeOfDay == "NIGHT",
		})

		if scene.Location != "" {
			byLocation[scene.Location] = append(byLocation[scene.Location], scene.Number)
		}

		for _, character := range scene.Characters {
			castDays[character]++
		}
	}

	totalDays := ceilDiv(int(totalPages+0.5), int(pagesPerShootingDay))
	if totalDays == 0 {
		totalDays = 1
	}

	schedule := make([]any, 0, len(byLocation))

	locations := make([]string, 0, len(byLocation))
	for location := range byLocation {
		locations = append(locations, location)
	}

	sort.Strings(locations)

	for _, location := range locations {
		schedule = append(schedule, map[string]any{
			"location":       location,
			"scenes":         intSlice(byLocation[location]),
			"estimated_days": ceilDiv(len(byLocation[location]), scenesPerShootingDay),
		})
	}

	casting := make(map[string]any, len(castDays))
	for character, count := range castDays {
		casting[character] = map[string]any{
			"scenes_on_call": count,
		}
	}

	payload := models.Payload{
		"scene_timelines":               sceneTimelines,
		"total_shooting_days":           totalDays,
		"shooting_schedule_by_location": schedule,
		"cast_scheduling":               casting,
		"pre_production_timeline":       fmt.Sprintf("%d weeks of prep recommended", ceilDiv(totalDays, 5)+2),
		"post_production_timeline":      fmt.Sprintf("%d weeks of post estimated", ceilDiv(totalDays, 2)+8),
	}

	return withRevisionNote(payload, input.Feedback), nil
}
