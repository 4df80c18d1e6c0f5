// Package models defines the core domain models for script-analysis runs.
package models

// Category identifies one of the fixed analysis kinds that run after
// extraction. The set is closed at compile time; the orchestrator iterates
// Categories() in order when fanning out.
type Category string

const (
	CategoryCost      Category = "cost"
	CategoryProps     Category = "props"
	CategoryLocation  Category = "location"
	CategoryCharacter Category = "character"
	CategoryScene     Category = "scene"
	CategoryTimeline  Category = "timeline"
)

var categories = []Category{
	CategoryCost,
	CategoryProps,
	CategoryLocation,
	CategoryCharacter,
	CategoryScene,
	CategoryTimeline,
}

// Categories returns the registered analysis categories in their canonical
// order. The returned slice is a copy.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)

	return out
}

// ValidCategory reports whether c names a registered analysis category.
func ValidCategory(c Category) bool {
	for _, known := range categories {
		if known == c {
			return true
		}
	}

	return false
}
