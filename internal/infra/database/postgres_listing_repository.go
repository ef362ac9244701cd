// internal/infra/database/postgres_listing_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/domain/listing"
)

var ErrListingNotFound = fmt.Errorf("listing not found")

type PostgresListingRepository struct {
	db *sql.DB
}

func NewPostgresListingRepository(db *sql.DB) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

const listingColumns = `id, owner_id, name, url, check_in, check_out, adults, platform,
	is_active, last_status, last_price, last_checked_at, notify_chat_id, created_at, updated_at`

func (r *PostgresListingRepository) GetByID(ctx context.Context, id int64) (*listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	l := listing.Listing{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.OwnerID, &l.Name, &l.URL, &l.CheckIn, &l.CheckOut, &l.Adults, &l.Platform,
		&l.IsActive, &l.LastStatus, &l.LastPrice, &l.LastCheckedAt, &l.NotifyChatID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error getting listing by ID: %w", err)
	}
	return &l, nil
}

func (r *PostgresListingRepository) ListDueForCheck(ctx context.Context, notBefore time.Time) ([]*listing.Listing, error) {
	// Past check-in dates are a hard filter: those listings are never
	// selected again, only soft-deactivated by the owner flow.
	query := `SELECT ` + listingColumns + `
               FROM listings
               WHERE is_active = TRUE AND check_in >= $1
               ORDER BY id`
	dateOnly := time.Date(notBefore.Year(), notBefore.Month(), notBefore.Day(), 0, 0, 0, 0, notBefore.Location())
	rows, err := r.db.QueryContext(ctx, query, dateOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing due listings: %w", err)
	}
	defer rows.Close()

	var listings []*listing.Listing
	for rows.Next() {
		l := listing.Listing{}
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Name, &l.URL, &l.CheckIn, &l.CheckOut, &l.Adults, &l.Platform,
			&l.IsActive, &l.LastStatus, &l.LastPrice, &l.LastCheckedAt, &l.NotifyChatID, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning listing row: %w", err)
		}
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}
	return listings, nil
}

func (r *PostgresListingRepository) UpdateCheckResult(ctx context.Context, id int64, status string, price sql.NullString, checkedAt time.Time) error {
	query := `UPDATE listings
               SET last_status = $1, last_price = $2, last_checked_at = $3, updated_at = NOW()
               WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, price, checkedAt, id)
	if err != nil {
		return fmt.Errorf("error updating listing check result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *PostgresListingRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE listings SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deactivating listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}
	return nil
}
