package events

import "time"

// AlertLeg is one bet inside an alerted opportunity.
type AlertLeg struct {
	Bookmaker    string   `json:"bookmaker"`
	Outcome      string   `json:"outcome"`
	Line         *float64 `json:"line,omitempty"`
	OddsAmerican int      `json:"odds_american"`
	StakeWeight  float64  `json:"stake_weight"`
}

// Alert is published on the "opportunity_alerts" Redis channel after the
// fingerprint has been recorded in the ledger.
type Alert struct {
	Fingerprint    string     `json:"fingerprint"`
	Kind           string     `json:"kind"` // arbitrage | positive_ev
	ExternalGameID string     `json:"external_game_id"`
	EventLabel     string     `json:"event_label"`
	Market         string     `json:"market"`
	Line           *float64   `json:"line,omitempty"`
	Edge           float64    `json:"edge"`
	Legs           []AlertLeg `json:"legs"`
	SentAt         time.Time  `json:"sent_at"`
}
