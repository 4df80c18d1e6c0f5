package tasks

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsheet/callsheet/pkg/models"
)

type stubExtraction struct{}

func (stubExtraction) Execute(_ context.Context, _ ExtractionInput) (models.Payload, error) {
	return models.Payload{"scenes": []any{}}, nil
}

type stubAnalysis struct {
	category models.Category
}

func (s stubAnalysis) Category() models.Category {
	return s.category
}

func (stubAnalysis) Execute(_ context.Context, _ AnalysisInput) (models.Payload, error) {
	return models.Payload{}, nil
}

func TestRegistryExtraction(t *testing.T) {
	registry := NewRegistry(slog.Default())

	_, err := registry.Extraction()
	require.Error(t, err)

	registry.RegisterExtraction(stubExtraction{})

	task, err := registry.Extraction()
	require.NoError(t, err)
	assert.NotNil(t, task)
}

func TestRegistryAnalysis(t *testing.T) {
	registry := NewRegistry(slog.Default())

	require.NoError(t, registry.RegisterAnalysis(stubAnalysis{category: models.CategoryCost}))

	err := registry.RegisterAnalysis(stubAnalysis{category: models.CategoryCost})
	assert.ErrorContains(t, err, "already registered")

	err = registry.RegisterAnalysis(stubAnalysis{category: "catering"})
	assert.ErrorContains(t, err, "not registered")

	task, err := registry.Analysis(models.CategoryCost)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCost, task.Category())

	_, err = registry.Analysis(models.CategoryProps)
	assert.Error(t, err)
}

func TestRegistryOrdered(t *testing.T) {
	registry := NewRegistry(slog.Default())

	// Registration order must not leak into iteration order.
	require.NoError(t, registry.RegisterAnalysis(stubAnalysis{category: models.CategoryTimeline}))
	require.NoError(t, registry.RegisterAnalysis(stubAnalysis{category: models.CategoryCost}))
	require.NoError(t, registry.RegisterAnalysis(stubAnalysis{category: models.CategoryScene}))

	ordered := registry.Ordered()
	require.Len(t, ordered, 3)
	assert.Equal(t, models.CategoryCost, ordered[0].Category())
	assert.Equal(t, models.CategoryScene, ordered[1].Category())
	assert.Equal(t, models.CategoryTimeline, ordered[2].Category())
}

func TestRegistryHealthCheck(t *testing.T) {
	registry := NewRegistry(slog.Default())

	message, healthy := registry.HealthCheck()
	assert.False(t, healthy)
	assert.Contains(t, message, "extraction")

	registry.RegisterExtraction(stubExtraction{})

	message, healthy = registry.HealthCheck()
	assert.False(t, healthy)
	assert.Contains(t, message, "cost")

	for _, c := range models.Categories() {
		require.NoError(t, registry.RegisterAnalysis(stubAnalysis{category: c}))
	}

	_, healthy = registry.HealthCheck()
	assert.True(t, healthy)
}
