// internal/infra/database/postgres_heartbeat_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qorlgns1/binbang-sub004/internal/domain/heartbeat"
)

var ErrHeartbeatNotFound = fmt.Errorf("heartbeat not found")

// PostgresHeartbeatRepository persists the singleton worker heartbeat.
// The table holds at most one row, keyed by a constant id.
type PostgresHeartbeatRepository struct {
	db *sql.DB
}

func NewPostgresHeartbeatRepository(db *sql.DB) *PostgresHeartbeatRepository {
	return &PostgresHeartbeatRepository{db: db}
}

func (r *PostgresHeartbeatRepository) Pulse(ctx context.Context, isProcessing bool) error {
	// started_at survives upserts; everything else refreshes. The ON
	// CONFLICT path is what makes concurrent workers safe without an
	// in-process lock.
	query := `INSERT INTO worker_heartbeat (id, started_at, last_heartbeat_at, is_processing, updated_at)
               VALUES (1, NOW(), NOW(), $1, NOW())
               ON CONFLICT (id) DO UPDATE
               SET last_heartbeat_at = NOW(), is_processing = $1, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, isProcessing); err != nil {
		return fmt.Errorf("error upserting heartbeat: %w", err)
	}
	return nil
}

func (r *PostgresHeartbeatRepository) Get(ctx context.Context) (*heartbeat.Heartbeat, error) {
	query := `SELECT started_at, last_heartbeat_at, is_processing, updated_at FROM worker_heartbeat WHERE id = 1`
	hb := heartbeat.Heartbeat{}
	err := r.db.QueryRowContext(ctx, query).Scan(&hb.StartedAt, &hb.LastHeartbeatAt, &hb.IsProcessing, &hb.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrHeartbeatNotFound
		}
		return nil, fmt.Errorf("error getting heartbeat: %w", err)
	}
	return &hb, nil
}
