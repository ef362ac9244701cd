package check

import (
	"database/sql"
	"time"
)

// Job is an immutable snapshot of one listing enqueued within one cycle.
// It carries every field the probe needs so a job never re-reads the
// listing mid-cycle.
type Job struct {
	CycleID      int64
	ListingID    int64
	ListingName  string
	URL          string
	CheckIn      time.Time
	CheckOut     time.Time
	Adults       int
	Platform     string
	PrevStatus   Status
	NotifyChatID sql.NullInt64
}
