package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/workflow"
)

// PostgresStore keeps one JSONB row per thread in workflow_threads.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the checkpoint table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS workflow_threads (
			thread_id TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create workflow_threads table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, threadID string) (*workflow.State, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM workflow_threads WHERE thread_id = $1`,
		threadID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	var state workflow.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode thread %s state: %w", threadID, err)
	}
	return &state, nil
}

func (s *PostgresStore) Save(ctx context.Context, threadID string, state *workflow.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode thread %s state: %w", threadID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflow_threads (thread_id, state)
		VALUES ($1, $2)
		ON CONFLICT (thread_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`,
		threadID, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save thread %s: %w", threadID, err)
	}
	return nil
}
