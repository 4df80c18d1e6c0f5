package heuristic

import (
	"math"

	"github.com/callsheet/callsheet/pkg/models"
)

// extractedScene is the analyzer-side view of one scene from the extraction
// payload. Values survive a JSON round trip, so numbers may arrive as
// float64.
type extractedScene struct {
	Number        int
	Heading       string
	IntExt        string
	Location      string
	TimeOfDay     string
	Description   string
	Characters    []string
	ActionLines   int
	DialogueLines int
	Pages         float64
}

func scenesFrom(extraction models.Payload) []extractedScene {
	raw := extraction.MapSlice("scenes")
	scenes := make([]extractedScene, 0, len(raw))

	for _, item := range raw {
		scenes = append(scenes, extractedScene{
			Number:        item.Int("scene_number"),
			Heading:       item.String("heading"),
			IntExt:        item.String("int_ext"),
			Location:      item.String("location"),
			TimeOfDay:     item.String("time_of_day"),
			Description:   item.String("description"),
			Characters:    item.StringSlice("characters"),
			ActionLines:   item.Int("action_lines"),
			DialogueLines: item.Int("dialogue_lines"),
			Pages:         floatValue(item["estimated_pages"]),
		})
	}

	return scenes
}

func floatValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}

	return int(math.Ceil(float64(a) / float64(b)))
}

func withRevisionNote(payload models.Payload, feedback string) models.Payload {
	if feedback != "" {
		payload["revision_notes"] = feedback
	}

	return payload
}
