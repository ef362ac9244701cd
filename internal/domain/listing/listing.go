package listing

import (
	"database/sql"
	"time"
)

// Platform identifies the source site a listing is tracked on.
type Platform string

const (
	PlatformAirbnb       Platform = "AIRBNB"
	PlatformYeogiEottae  Platform = "YEOGI_EOTTAE"
	PlatformNaverBooking Platform = "NAVER_BOOKING"
)

// Listing represents one tracked accommodation search.
// Corresponds to the 'listings' table.
type Listing struct {
	ID            int64
	OwnerID       int64
	Name          string
	URL           string
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Platform      Platform
	IsActive      bool
	LastStatus    sql.NullString // check.Status; NULL until first check
	LastPrice     sql.NullString
	LastCheckedAt sql.NullTime
	NotifyChatID  sql.NullInt64 // Telegram chat to notify on availability
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
