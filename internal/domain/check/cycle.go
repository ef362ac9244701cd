package check

import (
	"database/sql"
	"time"
)

// Cycle is one scheduling tick's batch of checks across all eligible
// listings. Corresponds to the 'check_cycles' table.
//
// TotalCount is fixed at creation. The running counters are only ever
// advanced through the store's atomic increment, and the row becomes
// immutable once FinishedAt is set.
type Cycle struct {
	ID             int64
	StartedAt      time.Time
	TotalCount     int
	SuccessCount   int
	ErrorCount     int
	CompletedCount int
	Concurrency    int
	PoolSize       int
	FinishedAt     sql.NullTime
	DurationMs     sql.NullInt64
}

// Finished reports whether the cycle has been closed. Value receiver so it
// can be called on copies handed out by repositories and fakes.
func (c Cycle) Finished() bool {
	return c.FinishedAt.Valid
}
