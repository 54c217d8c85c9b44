package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const sampleBody = `[
  {
    "id": "evt-1",
    "commence_time": "2026-02-01T23:00:00Z",
    "home_team": "Duke",
    "away_team": "UNC",
    "bookmakers": [
      {
        "key": "draftkings",
        "markets": [
          {"key": "h2h", "outcomes": [
            {"name": "Duke", "price": -150},
            {"name": "UNC", "price": 130}
          ]}
        ]
      }
    ]
  }
]`

func testClient(baseURL string) *Client {
	c := NewClient(baseURL, "test-key", "us", "h2h", zap.NewNop())
	c.Backoff = time.Millisecond
	return c
}

func TestFetchOdds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apiKey"); got != "test-key" {
			t.Errorf("apiKey = %q", got)
		}
		if got := r.URL.Query().Get("oddsFormat"); got != "american" {
			t.Errorf("oddsFormat = %q", got)
		}
		if !strings.HasPrefix(r.URL.Path, "/sports/basketball_ncaab/odds") {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).FetchOdds(context.Background(), "basketball_ncaab")
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if len(events) != 1 || events[0].ID != "evt-1" {
		t.Fatalf("events = %+v", events)
	}
	if len(events[0].Bookmakers) != 1 || events[0].Bookmakers[0].Markets[0].Outcomes[0].Price != -150 {
		t.Errorf("decoded payload mismatch: %+v", events[0])
	}
}

func TestFetchOddsRetriesRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).FetchOdds(context.Background(), "basketball_ncaab")
	if err != nil {
		t.Fatalf("FetchOdds: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (two 429s then success)", calls)
	}
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}

func TestFetchOddsGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).FetchOdds(context.Background(), "basketball_ncaab"); err == nil {
		t.Fatal("want error after exhausting retries")
	}
	if calls != fetchAttempts {
		t.Errorf("calls = %d, want %d", calls, fetchAttempts)
	}
}

func TestFetchOddsServerErrorNoRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).FetchOdds(context.Background(), "basketball_ncaab"); err == nil {
		t.Fatal("want error on http 500")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (only rate limits retry)", calls)
	}
}

func TestFetchOddsMissingKey(t *testing.T) {
	c := NewClient("http://example.invalid", "", "us", "h2h", zap.NewNop())
	if _, err := c.FetchOdds(context.Background(), "basketball_ncaab"); err == nil {
		t.Fatal("want error when api key is not configured")
	}
}
