// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/checkpoint/file"
	"github.com/callsheet/callsheet/pkg/checkpoint/memory"
	"github.com/callsheet/callsheet/pkg/checkpoint/postgres"
	"github.com/callsheet/callsheet/pkg/checkpoint/redis"
)

// NewCheckpointStore creates a checkpoint store from a URL. The scheme
// selects the backend: memory://, file://<dir>, redis://..., postgres://...
func NewCheckpointStore(ctx context.Context, logger *slog.Logger, databaseURL string) (checkpoint.Store, error) {
	switch parseStoreProvider(databaseURL) {
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		return redis.NewStore(databaseURL)
	case "postgres":
		return postgres.NewStore(ctx, logger, databaseURL)
	case "file":
		return file.NewStore(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported checkpoint store url: %s", databaseURL)
	}
}

func parseStoreProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	switch parts[0] {
	case "memory", "redis", "file":
		return parts[0]
	case "postgres", "postgresql":
		return "postgres"
	default:
		return ""
	}
}
