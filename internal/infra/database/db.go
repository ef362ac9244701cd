package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Connections beyond the check workers: the monitor tick, the scheduler's
// cycle bookkeeping, and operator commands.
const reservedConns = 3

const (
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// NewPostgresConnection opens a pooled PostgreSQL connection sized for this
// worker: checkWorkers concurrent jobs plus a small reserve. It pings the
// database to ensure connectivity before returning.
func NewPostgresConnection(dataSourceName string, checkWorkers int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	maxConns := checkWorkers + reservedConns
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
