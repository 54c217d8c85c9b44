package scan

// FindArbitrage selects the best price per outcome across bookmakers and
// emits an arbitrage opportunity when the best implied probabilities sum
// strictly below 1 - safetyMargin. At most one opportunity per group.
//
// A group missing quotes for any required outcome yields nil: absence of
// opportunity, not an error. When several bookmakers post the identical best
// price the lexicographically smaller bookmaker wins, so repeated scans over
// unchanged inputs fingerprint identically.
func FindArbitrage(g Group, safetyMargin float64) *Opportunity {
	if !g.priceable() {
		return nil
	}

	best := make(map[string]Quote, len(g.Outcomes))
	for _, q := range g.Quotes {
		cur, ok := best[q.Outcome]
		if !ok || q.Implied < cur.Implied ||
			(q.Implied == cur.Implied && q.Bookmaker < cur.Bookmaker) {
			best[q.Outcome] = q
		}
	}
	if len(best) < len(g.Outcomes) {
		return nil
	}

	var sum float64
	capturedAt := best[g.Outcomes[0]].CapturedAt
	for _, o := range g.Outcomes {
		sum += best[o].Implied
		if best[o].CapturedAt.After(capturedAt) {
			capturedAt = best[o].CapturedAt
		}
	}

	if sum >= 1-safetyMargin {
		return nil
	}

	// Equalized payout: stake_i proportional to 1/decimal_i = implied_i.
	legs := make([]Leg, 0, len(g.Outcomes))
	for _, o := range g.Outcomes {
		q := best[o]
		legs = append(legs, Leg{
			Bookmaker:    q.Bookmaker,
			Outcome:      q.Outcome,
			Line:         q.Line,
			OddsAmerican: q.OddsAmerican,
			Implied:      q.Implied,
			StakeWeight:  q.Implied / sum,
		})
	}

	return &Opportunity{
		Kind:           KindArbitrage,
		ExternalGameID: g.ExternalGameID,
		EventLabel:     g.EventLabel,
		Market:         g.Market,
		Line:           g.Line,
		Legs:           legs,
		Edge:           1 - sum,
		CapturedAt:     capturedAt,
	}
}
