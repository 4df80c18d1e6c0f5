// Package postgres provides PostgreSQL-backed checkpoint storage.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/callsheet/callsheet/pkg/checkpoint"
	"github.com/callsheet/callsheet/pkg/checkpoint/sqlbase"
	"github.com/callsheet/callsheet/pkg/models"
)

var migrations = map[int]string{
	1: `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`,
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to PostgreSQL and runs schema migrations.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger.With("module", "postgres_checkpoint"),
	}

	manager := sqlbase.NewMigrationManager(store.logger, db, migrations)

	err = manager.RunMigrations(ctx)
	if err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) Save(ctx context.Context, state *models.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint %s: %w", state.ThreadID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (thread_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`, state.ThreadID, data)
	if err != nil {
		return fmt.Errorf("failed to store checkpoint %s: %w", state.ThreadID, err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (*models.State, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM checkpoints WHERE thread_id = $1", threadID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE thread_id = $1", threadID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint %s: %w", threadID, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
