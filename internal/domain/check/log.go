package check

import (
	"database/sql"
	"time"
)

// Log is the append-only record of one executed check.
// Corresponds to the 'check_logs' table; never mutated after insert.
type Log struct {
	ID               int64
	CycleID          int64
	ListingID        int64
	Status           Status
	Price            sql.NullString
	ErrorMessage     sql.NullString
	Metadata         sql.NullString // raw probe metadata as JSON text
	NotificationSent bool
	DurationMs       int64
	RetryCount       int
	PrevStatus       Status
	CheckedAt        time.Time
}
