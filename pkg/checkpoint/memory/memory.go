// Package memory provides an in-process checkpoint store used by tests and
// single-shot CLI runs.
package memory

import (
	"context"
	"sync"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/models"
)

type Store struct {
	mu      sync.RWMutex
	threads map[string]*models.State
}

func NewStore() *Store {
	return &Store{threads: make(map[string]*models.State)}
}

// Save stores a deep copy so later mutations of the caller's state do not
// leak into the checkpoint.
func (s *Store) Save(_ context.Context, state *models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads[state.ThreadID] = state.Clone()

	return nil
}

func (s *Store) Load(_ context.Context, threadID string) (*models.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.threads[threadID]
	if !ok {
		return nil, checkpoint.ErrThreadNotFound
	}

	return state.Clone(), nil
}

func (s *Store) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadID)

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}
