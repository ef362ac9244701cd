package heartbeat

import "time"

// Heartbeat is the singleton liveness record for the checker process.
// Upserted on every tick/job boundary, read by the monitor.
type Heartbeat struct {
	StartedAt       time.Time
	LastHeartbeatAt time.Time
	IsProcessing    bool
	UpdatedAt       time.Time
}
