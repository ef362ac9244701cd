package account

import (
	"database/sql"
	"time"
)

// Role distinguishes listing owners from operators.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents an account in the system. Only the fields the check
// pipeline and the monitor need are modelled here; the web CRUD surface
// owns the rest.
type User struct {
	ID             int64
	Email          string
	Role           Role
	TelegramChatID sql.NullInt64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
