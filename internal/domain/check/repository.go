package check

import "context"

// CycleCounters is the read-back of one atomic counter increment.
type CycleCounters struct {
	CompletedCount int
	TotalCount     int
	SuccessCount   int
	ErrorCount     int
}

// Repository defines the store operations for cycles and check logs.
type Repository interface {
	CreateCycle(ctx context.Context, cycle *Cycle) error
	GetCycleByID(ctx context.Context, id int64) (*Cycle, error)
	GetLatestCycle(ctx context.Context) (*Cycle, error)
	// DeleteCycle removes a cycle that could not be started. Only the
	// Cycle Manager calls this, and only before any job has run.
	DeleteCycle(ctx context.Context, id int64) error

	// IncrementCycleCounters advances completed_count (and success_count or
	// error_count) by one in a single atomic statement and returns the
	// post-increment counters. This is the only mutation path for the
	// running counters; callers must never read-modify-write them.
	IncrementCycleCounters(ctx context.Context, cycleID int64, success bool) (*CycleCounters, error)
	// CloseCycle sets finished_at/duration_ms exactly once; calls after the
	// cycle is already closed are no-ops.
	CloseCycle(ctx context.Context, cycleID int64) error

	CreateLog(ctx context.Context, log *Log) error
}
