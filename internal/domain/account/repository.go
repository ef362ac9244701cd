package account

import "context"

// Repository defines the account lookups the core needs.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListAlertRecipients returns active admins that have a Telegram chat
	// registered — the fan-out set for operator alerts.
	ListAlertRecipients(ctx context.Context) ([]*User, error)
}
