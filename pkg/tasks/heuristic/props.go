package heuristic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// propLexicon maps prop keywords found in action text to departments.
var propLexicon = map[string]string{
	"gun":        "weapons",
	"pistol":     "weapons",
	"rifle":      "weapons",
	"knife":      "weapons",
	"sword":      "weapons",
	"car":        "vehicles",
	"truck":      "vehicles",
	"van":        "vehicles",
	"motorcycle": "vehicles",
	"bicycle":    "vehicles",
	"phone":      "electronics",
	"laptop":     "electronics",
	"computer":   "electronics",
	"camera":     "electronics",
	"radio":      "electronics",
	"letter":     "documents",
	"envelope":   "documents",
	"map":        "documents",
	"book":       "documents",
	"newspaper":  "documents",
	"briefcase":  "set dressing",
	"suitcase":   "set dressing",
	"glass":      "set dressing",
	"bottle":     "set dressing",
	"candle":     "set dressing",
}

type PropsAnalysis struct{}

func NewPropsAnalysis() *PropsAnalysis {
	return &PropsAnalysis{}
}

func (a *PropsAnalysis) Category() models.Category {
	return models.CategoryProps
}

func (a *PropsAnalysis) Execute(_ context.Context, input tasks.AnalysisInput) (models.Payload, error) {
	scenes := scenesFrom(input.Extraction)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("extraction contains no scenes")
	}

	sceneProps := make([]any, 0, len(scenes))
	master := make(map[string]bool)
	byCategory := make(map[string][]string)
	costumes := make(map[string]any)

	for _, scene := range scenes {
		found := propsInText(scene.Description)
		for _, prop := range found {
			if !master[prop] {
				master[prop] = true
				department := propLexicon[prop]
				byCategory[department] = append(byCategory[department], prop)
			}
		}

		sceneProps = append(sceneProps, map[string]any{
			"scene_number": scene.Number,
			"props":        toAnySlice(found),
		})
	}

	for _, scene := range scenes {
		for _, character := range scene.Characters {
			if _, ok := costumes[character]; !ok {
				costumes[character] = []any{"wardrobe per scene breakdown"}
			}
		}
	}

	masterList := make([]string, 0, len(master))
	for prop := range master {
		masterList = append(masterList, prop)
	}

	sort.Strings(masterList)

	categorized := make(map[string]any, len(byCategory))
	for department, props := range byCategory {
		sort.Strings(props)
		categorized[department] = toAnySlice(props)
	}

	payload := models.Payload{
		"scene_props":          sceneProps,
		"master_props_list":    toAnySlice(masterList),
		"props_by_category":    categorized,
		"costume_by_character": costumes,
		"prop_budget_estimate": propBudget(len(masterList)),
	}

	return withRevisionNote(payload, input.Feedback), nil
}

func propsInText(text string) []string {
	var found []string

	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})

	seen := make(map[string]bool)

	for _, word := range words {
		if _, ok := propLexicon[word]; ok && !seen[word] {
			seen[word] = true
			found = append(found, word)
		}
	}

	sort.Strings(found)

	return found
}

func propBudget(count int) string {
	switch {
	case count > 20:
		return "$50K+"
	case count > 8:
		return "$10K-$50K"
	case count > 0:
		return "Under $10K"
	default:
		return "Minimal"
	}
}
