// Package heuristic provides rule-based extraction and analysis backends.
// They parse Fountain-style screenplay text directly, need no external
// service, and back the default registry wiring as well as the test suite.
package heuristic

import (
	"regexp"
	"strings"
)

// Scene is one parsed screenplay scene.
type Scene struct {
	Number     int
	Heading    string
	IntExt     string // "INT", "EXT" or "INT/EXT"
	Location   string
	TimeOfDay  string
	Characters []string
	Action     []string
	Dialogue   []string
}

var (
	sceneHeadingRe = regexp.MustCompile(`^(INT\.?/EXT\.?|EXT\.?/INT\.?|I/E\.?|INT\.?|EXT\.?)\s+(.+)$`)
	characterCueRe = regexp.MustCompile(`^[A-Z][A-Z0-9 .'\-]*(\s*\(.*\))?$`)
)

// parseScript splits Fountain-style text into scenes. Text before the first
// scene heading (title page, notes) is ignored.
func parseScript(content string) []*Scene {
	var (
		scenes  []*Scene
		current *Scene
	)

	inDialogue := false

	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			inDialogue = false

			continue
		}

		if match := sceneHeadingRe.FindStringSubmatch(line); match != nil {
			current = &Scene{
				Number:  len(scenes) + 1,
				Heading: line,
				IntExt:  normalizeIntExt(match[1]),
			}
			current.Location, current.TimeOfDay = splitHeadingRemainder(match[2])
			scenes = append(scenes, current)
			inDialogue = false

			continue
		}

		if current == nil {
			continue
		}

		if isCharacterCue(line) {
			name := cleanCharacterName(line)
			if name != "" && !contains(current.Characters, name) {
				current.Characters = append(current.Characters, name)
			}

			inDialogue = true

			continue
		}

		if inDialogue {
			current.Dialogue = append(current.Dialogue, line)
		} else {
			current.Action = append(current.Action, line)
		}
	}

	return scenes
}

func normalizeIntExt(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSuffix(prefix, "."))
	if strings.Contains(prefix, "/") {
		return "INT/EXT"
	}

	return prefix
}

// splitHeadingRemainder separates "OFFICE - DAY" into location and time.
func splitHeadingRemainder(remainder string) (string, string) {
	parts := strings.Split(remainder, " - ")
	location := strings.TrimSpace(parts[0])

	if len(parts) > 1 {
		return location, strings.TrimSpace(parts[len(parts)-1])
	}

	return location, ""
}

// isCharacterCue matches all-caps dialogue cues while excluding transitions
// like "CUT TO:" and short stage directions.
func isCharacterCue(line string) bool {
	if strings.HasSuffix(line, ":") || strings.HasSuffix(line, ".") {
		return false
	}

	if len(line) > 40 {
		return false
	}

	return characterCueRe.MatchString(line)
}

func cleanCharacterName(line string) string {
	if idx := strings.Index(line, "("); idx >= 0 {
		line = line[:idx]
	}

	return strings.TrimSpace(line)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}

	return false
}
