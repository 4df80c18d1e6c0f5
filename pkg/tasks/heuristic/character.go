package heuristic

import (
	"context"
	"fmt"
	"sort"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// mainCharacterThreshold is the share of scenes a character must appear in
// to be considered a lead.
const mainCharacterThreshold = 0.2

type CharacterAnalysis struct{}

func NewCharacterAnalysis() *CharacterAnalysis {
	return &CharacterAnalysis{}
}

func (a *CharacterAnalysis) Category() models.Category {
	return models.CategoryCharacter
}

func (a *CharacterAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	scenes := scenesFrom(input.Extraction)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("extraction contains no scenes")
	}

	sceneCharacters := make([]any, 0, len(scenes))
	sceneCount := make(map[string]int)

	for _, scene := range scenes {
		sceneCharacters = append(sceneCharacters, map[string]any{
			"scene_number": scene.Number,
			"characters":   toAnySlice(scene.Characters),
		})

		for _, character := range scene.Characters {
			sceneCount[character]++
		}
	}

	names := make([]string, 0, len(sceneCount))
	for name := range sceneCount {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if sceneCount[names[i]] != sceneCount[names[j]] {
			return sceneCount[names[i]] > sceneCount[names[j]]
		}

		return names[i] < names[j]
	})

	main := make([]any, 0)
	supporting := make([]any, 0)
	counts := make(map[string]any, len(names))
	casting := make([]any, 0, len(names))

	for _, name := range names {
		counts[name] = sceneCount[name]

		role := "supporting"
		if float64(sceneCount[name])/float64(len(scenes)) >= mainCharacterThreshold {
			role = "lead"

			main = append(main, name)
		} else {
			supporting = append(supporting, name)
		}

		casting = append(casting, map[string]any{
			"character":   name,
			"role_type":   role,
			"scene_count": sceneCount[name],
		})
	}

	payload := models.Payload{
		"scene_characters":      sceneCharacters,
		"main_characters":       main,
		"supporting_characters": supporting,
		"character_scene_count": counts,
		"casting_requirements":  casting,
	}

	return withRevisionNote(payload, input.Feedback), nil
}
