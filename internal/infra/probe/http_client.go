// internal/infra/probe/http_client.go
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qorlgns1/binbang-sub004/internal/domain/check"
	"github.com/qorlgns1/binbang-sub004/internal/domain/probe"
)

// HTTPClient talks to the external availability checker service, which runs
// the actual page automation. One request checks one listing; the service
// handles its own retries and per-page timeouts, this client only guards
// the overall round trip.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type checkRequest struct {
	ListingID int64  `json:"listingId"`
	URL       string `json:"url"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	Adults    int    `json:"adults"`
	Platform  string `json:"platform"`
}

func (c *HTTPClient) Check(ctx context.Context, job check.Job) (*probe.Result, error) {
	payload := checkRequest{
		ListingID: job.ListingID,
		URL:       job.URL,
		CheckIn:   job.CheckIn.Format("2006-01-02"),
		CheckOut:  job.CheckOut.Format("2006-01-02"),
		Adults:    job.Adults,
		Platform:  job.Platform,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checker returned status %d", resp.StatusCode)
	}

	var result probe.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode check result: %w", err)
	}
	return &result, nil
}
