// internal/infra/database/postgres_check_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qorlgns1/binbang-sub004/internal/domain/check"
)

// Custom errors specific to the check repository
var ErrCycleNotFound = fmt.Errorf("check cycle not found")
var ErrCycleAlreadyComplete = fmt.Errorf("check cycle counters already at total")

type PostgresCheckRepository struct {
	db *sql.DB
}

func NewPostgresCheckRepository(db *sql.DB) *PostgresCheckRepository {
	return &PostgresCheckRepository{db: db}
}

const cycleColumns = `id, started_at, total_count, success_count, error_count, completed_count,
	concurrency, pool_size, finished_at, duration_ms`

func (r *PostgresCheckRepository) CreateCycle(ctx context.Context, cycle *check.Cycle) error {
	query := `INSERT INTO check_cycles (total_count, concurrency, pool_size)
               VALUES ($1, $2, $3)
               RETURNING id, started_at`
	err := r.db.QueryRowContext(ctx, query, cycle.TotalCount, cycle.Concurrency, cycle.PoolSize).
		Scan(&cycle.ID, &cycle.StartedAt)
	if err != nil {
		return fmt.Errorf("error creating check cycle: %w", err)
	}
	return nil
}

func (r *PostgresCheckRepository) GetCycleByID(ctx context.Context, id int64) (*check.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM check_cycles WHERE id = $1`
	return r.scanCycle(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresCheckRepository) GetLatestCycle(ctx context.Context) (*check.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM check_cycles ORDER BY started_at DESC, id DESC LIMIT 1`
	return r.scanCycle(r.db.QueryRowContext(ctx, query))
}

func (r *PostgresCheckRepository) scanCycle(row *sql.Row) (*check.Cycle, error) {
	cycle := check.Cycle{}
	err := row.Scan(
		&cycle.ID, &cycle.StartedAt, &cycle.TotalCount, &cycle.SuccessCount, &cycle.ErrorCount,
		&cycle.CompletedCount, &cycle.Concurrency, &cycle.PoolSize, &cycle.FinishedAt, &cycle.DurationMs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting check cycle: %w", err)
	}
	return &cycle, nil
}

func (r *PostgresCheckRepository) DeleteCycle(ctx context.Context, id int64) error {
	query := `DELETE FROM check_cycles WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error deleting check cycle: %w", err)
	}
	return nil
}

// IncrementCycleCounters is the sole mutation path for the running counters.
// The increment and the bounds check happen in one statement, so two workers
// finishing at the same instant can never under-count or push
// completed_count past total_count.
func (r *PostgresCheckRepository) IncrementCycleCounters(ctx context.Context, cycleID int64, success bool) (*check.CycleCounters, error) {
	query := `UPDATE check_cycles
               SET completed_count = completed_count + 1,
                   success_count = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
                   error_count = error_count + CASE WHEN $2 THEN 0 ELSE 1 END
               WHERE id = $1 AND completed_count < total_count
               RETURNING completed_count, total_count, success_count, error_count`
	counters := check.CycleCounters{}
	err := r.db.QueryRowContext(ctx, query, cycleID, success).Scan(
		&counters.CompletedCount, &counters.TotalCount, &counters.SuccessCount, &counters.ErrorCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the cycle does not exist or its counters already hit
			// total_count; distinguish for the caller's logging.
			if _, getErr := r.GetCycleByID(ctx, cycleID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrCycleAlreadyComplete
		}
		return nil, fmt.Errorf("error incrementing cycle counters: %w", err)
	}
	return &counters, nil
}

// CloseCycle stamps finished_at/duration_ms. The finished_at IS NULL guard
// makes concurrent and repeated calls a no-op after the first.
func (r *PostgresCheckRepository) CloseCycle(ctx context.Context, cycleID int64) error {
	query := `UPDATE check_cycles
               SET finished_at = NOW(),
                   duration_ms = FLOOR(EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)
               WHERE id = $1 AND finished_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, cycleID); err != nil {
		return fmt.Errorf("error closing check cycle: %w", err)
	}
	return nil
}

func (r *PostgresCheckRepository) CreateLog(ctx context.Context, cl *check.Log) error {
	query := `INSERT INTO check_logs (cycle_id, listing_id, status, price, error_message, metadata,
                   notification_sent, duration_ms, retry_count, prev_status, checked_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		cl.CycleID, cl.ListingID, cl.Status, cl.Price, cl.ErrorMessage, cl.Metadata,
		cl.NotificationSent, cl.DurationMs, cl.RetryCount, cl.PrevStatus, cl.CheckedAt,
	).Scan(&cl.ID)
	if err != nil {
		return fmt.Errorf("error creating check log: %w", err)
	}
	return nil
}
