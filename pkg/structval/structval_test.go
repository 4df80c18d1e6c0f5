package structval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializable(t *testing.T) {
	assert.True(t, Serializable(map[string]any{"scenes": []any{}}))
	assert.True(t, Serializable(nil))
	assert.True(t, Serializable([]string{"a", "b"}))

	assert.False(t, Serializable(map[string]any{"fn": func() {}}))
	assert.False(t, Serializable(make(chan int)))
}

func TestValidateRequiredFields(t *testing.T) {
	payload := map[string]any{
		"scenes":           []any{},
		"total_characters": []any{"MARA"},
		"total_locations":  []any{"DINER"},
	}

	required := []string{"scenes", "total_characters", "total_locations"}

	assert.True(t, Validate(payload, required))

	delete(payload, "total_locations")
	assert.False(t, Validate(payload, required))
}

func TestValidateNoRequiredFields(t *testing.T) {
	assert.True(t, Validate(map[string]any{}, nil))
	assert.True(t, Validate("just a string", nil))
	assert.False(t, Validate(func() {}, nil))
}

func TestValidateNonMapIgnoresRequiredFields(t *testing.T) {
	assert.True(t, Validate([]string{"a"}, []string{"scenes"}))
	assert.True(t, Validate(42, []string{"scenes"}))
}

func TestMissingFields(t *testing.T) {
	payload := map[string]any{"scenes": []any{}}

	missing := MissingFields(payload, []string{"scenes", "total_characters", "total_locations"})
	assert.Equal(t, []string{"total_characters", "total_locations"}, missing)

	assert.Empty(t, MissingFields(payload, []string{"scenes"}))
}

func TestMissingFieldsUnserializable(t *testing.T) {
	required := []string{"scenes"}

	assert.Equal(t, required, MissingFields(func() {}, required))
}
