package events

import "time"

// Game identifies one sporting event as reported by the odds provider.
type Game struct {
	ExternalGameID string    `json:"external_game_id"`
	SportKey       string    `json:"sport_key"`
	CommenceTime   time.Time `json:"commence_time"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
}

// Quote is one bookmaker price for one outcome, already normalized to
// American odds. Line is nil for moneyline markets.
type Quote struct {
	ExternalGameID string    `json:"external_game_id"`
	Bookmaker      string    `json:"bookmaker"`
	Market         string    `json:"market"` // h2h | spreads | totals
	Outcome        string    `json:"outcome"`
	Line           *float64  `json:"line,omitempty"`
	OddsAmerican   int       `json:"odds_american"`
	CapturedAt     time.Time `json:"captured_at"`
}

// QuoteBatch is published on the "price_quotes" topic.
// One batch per provider poll per sport, all rows sharing one captured_at.
type QuoteBatch struct {
	SportKey   string    `json:"sport_key"`
	CapturedAt time.Time `json:"captured_at"`
	Source     string    `json:"source"`
	Games      []Game    `json:"games"`
	Quotes     []Quote   `json:"quotes"`
}
