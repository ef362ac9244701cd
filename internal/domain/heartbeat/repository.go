package heartbeat

import "context"

// Repository persists and reads the singleton heartbeat row.
type Repository interface {
	// Pulse upserts the row: refreshes last_heartbeat_at/updated_at and
	// records whether the worker is currently inside a check.
	Pulse(ctx context.Context, isProcessing bool) error
	Get(ctx context.Context) (*Heartbeat, error)
}
