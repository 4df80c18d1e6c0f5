package heuristic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/tasks"
)

// linesPerPage approximates screenplay pagination for plain text input.
const linesPerPage = 55

// Extraction parses script text into the structural payload every category
// analysis consumes.
type Extraction struct{}

func NewExtraction() *Extraction {
	return &Extraction{}
}

func (e *Extraction) Execute(_ context.Context, input tasks.ExtractionInput) (models.Payload, error) {
	scenes := parseScript(input.ScriptContent)
	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scene headings found in script")
	}

	characters := make(map[string]bool)
	locations := make(map[string]bool)
	locationsByType := map[string][]string{"INT": {}, "EXT": {}}
	sceneList := make([]any, 0, len(scenes))

	totalLines := 0

	for _, scene := range scenes {
		for _, name := range scene.Characters {
			characters[name] = true
		}

		if scene.Location != "" && !locations[scene.Location] {
			locations[scene.Location] = true

			switch scene.IntExt {
			case "EXT":
				locationsByType["EXT"] = append(locationsByType["EXT"], scene.Location)
			default:
				locationsByType["INT"] = append(locationsByType["INT"], scene.Location)
			}
		}

		sceneLines := 1 + len(scene.Action) + len(scene.Dialogue) + len(scene.Characters)
		totalLines += sceneLines

		sceneList = append(sceneList, map[string]any{
			"scene_number":    scene.Number,
			"heading":         scene.Heading,
			"int_ext":         scene.IntExt,
			"location":        scene.Location,
			"time_of_day":     scene.TimeOfDay,
			"characters":      toAnySlice(scene.Characters),
			"description":     strings.Join(scene.Action, " "),
			"action_lines":    len(scene.Action),
			"dialogue_lines":  len(scene.Dialogue),
			"estimated_pages": pageEstimate(sceneLines),
		})
	}

	payload := models.Payload{
		"scenes":                sceneList,
		"total_characters":      toAnySlice(sortedNames(characters)),
		"total_locations":       toAnySlice(sortedNames(locations)),
		"locations_by_type":     map[string]any{"INT": toAnySlice(locationsByType["INT"]), "EXT": toAnySlice(locationsByType["EXT"])},
		"language_detected":     "English",
		"estimated_total_pages": pageEstimate(totalLines),
		"total_scene_count":     len(scenes),
	}

	if len(input.Feedback) > 0 {
		payload["revision_notes"] = feedbackNotes(input.Feedback)
	}

	return payload, nil
}

func pageEstimate(lines int) float64 {
	pages := float64(lines) / linesPerPage
	if pages < 0.1 {
		pages = 0.1
	}

	return pages
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}

func feedbackNotes(feedback map[models.Category]string) []any {
	categories := make([]string, 0, len(feedback))
	for category := range feedback {
		categories = append(categories, string(category))
	}

	sort.Strings(categories)

	notes := make([]any, 0, len(categories))
	for _, category := range categories {
		notes = append(notes, fmt.Sprintf("%s: %s", category, feedback[models.Category(category)]))
	}

	return notes
}
