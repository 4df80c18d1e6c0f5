// Package structval gates task output on JSON-structure validity before it
// is merged into workflow state.
package structval

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

// Serializable reports whether value can be represented as a JSON structural
// value.
func Serializable(value any) bool {
	_, err := json.Marshal(value)

	return err == nil
}

// Validate reports whether value is serializable and, when requiredFields is
// non-empty and value is a keyed map, whether every required key is present.
// A required-field set is ignored for non-map values, matching the
// post-analysis use where only the structural check applies.
func Validate(value any, requiredFields []string) bool {
	data, err := json.Marshal(value)
	if err != nil {
		return false
	}

	if len(requiredFields) == 0 {
		return true
	}

	var asMap map[string]any
	if err := json.Unmarshal(data, &asMap); err != nil {
		return true
	}

	schema := map[string]any{
		"type":     "object",
		"required": requiredFields,
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(asMap),
	)
	if err != nil {
		return false
	}

	return result.Valid()
}

// MissingFields lists the required keys absent from value, for logging. The
// result is empty when Validate would pass.
func MissingFields(value any, requiredFields []string) []string {
	data, err := json.Marshal(value)
	if err != nil {
		return requiredFields
	}

	var asMap map[string]any
	if err := json.Unmarshal(data, &asMap); err != nil {
		return nil
	}

	var missing []string

	for _, field := range requiredFields {
		if _, ok := asMap[field]; !ok {
			missing = append(missing, field)
		}
	}

	return missing
}
