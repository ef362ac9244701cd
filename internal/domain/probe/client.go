package probe

import (
	"context"

	"github.com/qorlgns1/binbang-sub004/internal/domain/check"
)

// Result is the raw outcome of probing one listing. Error carries the
// probe's own failure message; transport-level failures are surfaced as the
// Client's returned error and treated the same way by callers.
type Result struct {
	Available  bool           `json:"available"`
	Price      string         `json:"price,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CheckURL   string         `json:"checkUrl,omitempty"`
	RetryCount int            `json:"retryCount"`
}

// Client is the boundary to the external availability checker. It is
// opaque, possibly slow (tens of seconds), and enforces its own retries
// and timeout.
type Client interface {
	Check(ctx context.Context, job check.Job) (*Result, error)
}
