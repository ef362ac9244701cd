// internal/infra/database/postgres_account_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qorlgns1/binbang-sub004/internal/domain/account"
)

var ErrUserNotFound = fmt.Errorf("user not found")

type PostgresAccountRepository struct {
	db *sql.DB
}

func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id int64) (*account.User, error) {
	query := `SELECT id, email, role, telegram_chat_id, is_active, created_at, updated_at
               FROM users WHERE id = $1`
	u := account.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Role, &u.TelegramChatID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return &u, nil
}

func (r *PostgresAccountRepository) ListAlertRecipients(ctx context.Context) ([]*account.User, error) {
	query := `SELECT id, email, role, telegram_chat_id, is_active, created_at, updated_at
               FROM users
               WHERE role = $1 AND is_active = TRUE AND telegram_chat_id IS NOT NULL
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, account.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("error listing alert recipients: %w", err)
	}
	defer rows.Close()

	var users []*account.User
	for rows.Next() {
		u := account.User{}
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Role, &u.TelegramChatID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
