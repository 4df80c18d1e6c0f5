package heuristic

import (
	"context"
	"fmt"
	"sort"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

type SceneAnalysis struct{}

func NewSceneAnalysis() *SceneAnalysis {
	return &SceneAnalysis{}
}

func (a *SceneAnalysis) Category() models.Category {
	return models.CategoryScene
}

func (a *SceneAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	scenes := scenesFrom(input.Extraction)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("extraction contains no scenes")
	}

	detailed := make([]any, 0, len(scenes))
	actionHeavy := make([]any, 0)
	dialogueHeavy := make([]any, 0)

	totalPages := 0.0

	for _, scene := range scenes {
		kind := sceneKind(scene)
		totalPages += scene.Pages

		switch kind {
		case "action":
			actionHeavy = append(actionHeavy, scene.Number)
		case "dialogue":
			dialogueHeavy = append(dialogueHeavy, scene.Number)
		}

		detailed = append(detailed, map[string]any{
			"scene_number":    scene.Number,
			"heading":         scene.Heading,
			"scene_type":      kind,
			"estimated_pages": scene.Pages,
			"character_count": len(scene.Characters),
		})
	}

	payload := models.Payload{
		"detailed_scenes":     detailed,
		"three_act_structure": actStructure(scenes),
		"pacing_analysis": map[string]any{
			"total_scenes":    len(scenes),
			"average_pages":   totalPages / float64(len(scenes)),
			"action_scenes":   len(actionHeavy),
			"dialogue_scenes": len(dialogueHeavy),
		},
		"key_dramatic_scenes":   longestScenes(scenes, 3),
		"action_heavy_scenes":   actionHeavy,
		"dialogue_heavy_scenes": dialogueHeavy,
	}

	return withRevisionNote(payload, input.Feedback), nil
}

func sceneKind(scene extractedScene) string {
	switch {
	case scene.DialogueLines > scene.ActionLines*2:
		return "dialogue"
	case scene.ActionLines > scene.DialogueLines*2:
		return "action"
	default:
		return "balanced"
	}
}

func actStructure(scenes []extractedScene) map[string]any {
	firstActEnd := len(scenes) / 4
	secondActEnd := len(scenes) * 3 / 4

	if firstActEnd == 0 {
		firstActEnd = 1
	}

	if secondActEnd <= firstActEnd {
		secondActEnd = firstActEnd
	}

	return map[string]any{
		"act_one":   sceneRange(scenes, 0, firstActEnd),
		"act_two":   sceneRange(scenes, firstActEnd, secondActEnd),
		"act_three": sceneRange(scenes, secondActEnd, len(scenes)),
	}
}

func sceneRange(scenes []extractedScene, from, to int) map[string]any {
	numbers := make([]any, 0, to-from)
	for _, scene := range scenes[from:to] {
		numbers = append(numbers, scene.Number)
	}

	return map[string]any{
		"scenes":      numbers,
		"scene_count": to - from,
	}
}

func longestScenes(scenes []extractedScene, limit int) []any {
	sorted := make([]extractedScene, len(scenes))
	copy(sorted, scenes)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Pages != sorted[j].Pages {
			return sorted[i].Pages > sorted[j].Pages
		}

		return sorted[i].Number < sorted[j].Number
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}

	key := make([]any, 0, limit)
	for _, scene := range sorted[:limit] {
		key = append(key, scene.Number)
	}

	return key
}
