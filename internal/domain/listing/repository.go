package listing

import (
	"context"
	"database/sql"
	"time"
)

// Repository defines the operations the check pipeline needs for listings.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Listing, error)
	// ListDueForCheck returns active listings whose check-in date is on or
	// after the given day. Listings with a past check-in are filtered out
	// permanently, not flagged.
	ListDueForCheck(ctx context.Context, notBefore time.Time) ([]*Listing, error)
	// UpdateCheckResult overwrites last_status/last_price/last_checked_at.
	// Called after every check, including failed ones, so staleness stays
	// visible to the owner.
	UpdateCheckResult(ctx context.Context, id int64, status string, price sql.NullString, checkedAt time.Time) error
	Deactivate(ctx context.Context, id int64) error
}
