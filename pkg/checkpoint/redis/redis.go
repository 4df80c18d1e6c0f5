// Package redis provides Redis-backed checkpoint storage.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/models"
)

const keyPrefix = "callsheet:checkpoint:"

type Store struct {
	client redis.UniversalClient
}

// NewStore connects to Redis using a standard redis:// URL.
func NewStore(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Store{client: redis.NewClient(opts)}, nil
}

// NewStoreWithClient wraps an existing client, mainly for tests.
func NewStoreWithClient(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Save(ctx context.Context, state *models.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint %s: %w", state.ThreadID, err)
	}

	err = s.client.Set(ctx, keyPrefix+state.ThreadID, data, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to store checkpoint %s: %w", state.ThreadID, err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (*models.State, error) {
	data, err := s.client.Get(ctx, keyPrefix+threadID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("checkpoint %s: %w", threadID, checkpoint.ErrThreadNotFound)
		}

		return nil, fmt.Errorf("failed to fetch checkpoint %s: %w", threadID, err)
	}

	var state models.State

	err = json.Unmarshal(data, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", threadID, err)
	}

	state.EnsureCategoryKeys()

	return &state, nil
}

func (s *Store) Delete(ctx context.Context, threadID string) error {
	err := s.client.Del(ctx, keyPrefix+threadID).Err()
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint %s: %w", threadID, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}
