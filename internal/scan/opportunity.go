package scan

import "time"

// Opportunity kinds.
const (
	KindArbitrage  = "arbitrage"
	KindPositiveEV = "positive_ev"
)

// Leg is one bet at one bookmaker inside an opportunity.
type Leg struct {
	Bookmaker    string
	Outcome      string
	Line         *float64
	OddsAmerican int
	Implied      float64
	StakeWeight  float64 // fraction of total stake, sums to 1 across legs
}

// Opportunity is a detected arbitrage (multi-leg, risk-free) or positive-EV
// (single leg vs consensus fair price) bet.
//
// Edge carries the guaranteed arbitrage margin (1 - sum of best implied
// probabilities) or the +EV edge (fair probability - leg implied).
type Opportunity struct {
	Kind           string
	ExternalGameID string
	EventLabel     string
	Market         string
	Line           *float64
	Legs           []Leg
	Edge           float64
	CapturedAt     time.Time
}
