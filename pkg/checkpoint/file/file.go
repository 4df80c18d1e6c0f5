// Package file provides file-based checkpoint storage. Each thread is a
// single JSON document under <root>/checkpoints.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/models"
)

type Store struct {
	root string
}

// NewStore creates a file store rooted at the given directory. A "file://"
// prefix is stripped so persistence URLs can be passed through directly.
func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{root: cleanRoot}
}

func (s *Store) checkpointPath(threadID string) string {
	return filepath.Clean(path.Join(s.root, "checkpoints", threadID+".json"))
}

func (s *Store) Save(_ context.Context, state *models.State) error {
	err := os.MkdirAll(path.Join(s.root, "checkpoints"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint %s: %w", state.ThreadID, err)
	}

	return os.WriteFile(s.checkpointPath(state.ThreadID), data, 0600)
}

func (s *Store) Load(_ context.Context, threadID string) (*models.State, error) {
	body, err := os.ReadFile(s.checkpointPath(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint %s: %w", threadID, checkpoint.ErrThreadNotFound)
		}

		return nil, fmt.Errorf("failed to read checkpoint %s: %w", threadID, err)
	}

	var state models.State

	err = json.Unmarshal(body, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", threadID, err)
	}

	state.EnsureCategoryKeys()

	return &state, nil
}

func (s *Store) Delete(_ context.Context, threadID string) error {
	err := os.Remove(s.checkpointPath(threadID))

	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete checkpoint %s: %w", threadID, err)
	}

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}
