package dto

// Event is one game with prices on record.
type Event struct {
	ExternalGameID string `json:"eventId"`
	SportKey       string `json:"sportKey"`
	CommenceTime   string `json:"commenceTime"`
	HomeTeam       string `json:"homeTeam"`
	AwayTeam       string `json:"awayTeam"`
}

// Market is one market offered on an event, keyed by market name and line.
type Market struct {
	Market string   `json:"market"`
	Line   *float64 `json:"line,omitempty"`
}

// Odds is one bookmaker price from the latest snapshot of an event.
type Odds struct {
	Bookmaker    string   `json:"bookmaker"`
	Market       string   `json:"market"`
	Outcome      string   `json:"outcome"`
	Line         *float64 `json:"line,omitempty"`
	OddsAmerican int      `json:"oddsAmerican"`
	OddsDecimal  *float64 `json:"oddsDecimal,omitempty"`
	CapturedAt   string   `json:"capturedAt"`
}
