// Package checkpoint defines durable storage for analysis run state. Each
// run is keyed by its thread ID and persisted whole after every graph
// transition, so an interrupted run can resume from its last checkpoint.
package checkpoint

import (
	"context"
	"errors"

	"github.com/callsheet/callsheet/pkg/models"
)

// ErrThreadNotFound is returned when no checkpoint exists for a thread ID.
var ErrThreadNotFound = errors.New("thread not found")

// Store persists and retrieves run state by thread ID.
type Store interface {
	Save(ctx context.Context, state *models.State) error
	Load(ctx context.Context, threadID string) (*models.State, error)
	Delete(ctx context.Context, threadID string) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsThreadNotFound reports whether err indicates a missing checkpoint.
func IsThreadNotFound(err error) bool {
	return errors.Is(err, ErrThreadNotFound)
}
