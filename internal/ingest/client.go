// Package ingest talks to the odds data provider and flattens its payloads
// into the canonical quote shape. The scan core never sees provider JSON.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// RawOutcome, RawMarket, RawBookmaker, RawEvent mirror the provider's
// GET /v4/sports/{sport}/odds response.
type RawOutcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"` // american odds
	Point *float64 `json:"point,omitempty"`
}

type RawMarket struct {
	Key      string       `json:"key"`
	Outcomes []RawOutcome `json:"outcomes"`
}

type RawBookmaker struct {
	Key     string      `json:"key"`
	Markets []RawMarket `json:"markets"`
}

type RawEvent struct {
	ID           string         `json:"id"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []RawBookmaker `json:"bookmakers"`
}

// Client fetches live odds from the provider REST API.
type Client struct {
	BaseURL string
	APIKey  string
	Regions string
	Markets string
	HTTP    *http.Client
	Log     *zap.Logger
	Backoff time.Duration // initial backoff after a 429
}

func NewClient(baseURL, apiKey, regions, markets string, log *zap.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Regions: regions,
		Markets: markets,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Log:     log,
		Backoff: 4 * time.Second,
	}
}

const (
	fetchAttempts   = 5
	fetchBackoffCap = 60 * time.Second
)

// FetchOdds returns every event with odds for one sport. 429 responses are
// retried with doubling backoff up to fetchAttempts; other failures surface
// immediately.
func (c *Client) FetchOdds(ctx context.Context, sport string) ([]RawEvent, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("odds api key not configured")
	}

	u := fmt.Sprintf("%s/sports/%s/odds/?%s", c.BaseURL, url.PathEscape(sport), url.Values{
		"apiKey":     {c.APIKey},
		"regions":    {c.Regions},
		"markets":    {c.Markets},
		"oddsFormat": {"american"},
	}.Encode())

	backoff := c.Backoff
	var lastStatus int
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			c.Log.Warn("provider rate limited, backing off",
				zap.String("sport", sport),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > fetchBackoffCap {
				backoff = fetchBackoffCap
			}
		}

		events, status, err := c.fetchOnce(ctx, u)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK {
			return events, nil
		}
		if status != http.StatusTooManyRequests {
			return nil, fmt.Errorf("odds api http %d", status)
		}
		lastStatus = status
	}

	return nil, fmt.Errorf("odds api http %d after %d attempts", lastStatus, fetchAttempts)
}

func (c *Client) fetchOnce(ctx context.Context, u string) ([]RawEvent, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, res.StatusCode, nil
	}

	var events []RawEvent
	if err := json.NewDecoder(res.Body).Decode(&events); err != nil {
		return nil, res.StatusCode, fmt.Errorf("decode odds response: %w", err)
	}
	return events, res.StatusCode, nil
}
