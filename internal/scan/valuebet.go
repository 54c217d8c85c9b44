package scan

import (
	"github.com/oddswatch/odds-arb-platform/internal/pricing"
)

// FindValueBets builds the de-vigged consensus fair price for the group and
// emits one single-leg opportunity per quote whose edge
// (fair probability - quote implied probability) reaches minEdge.
//
// Every leg is evaluated independently: a market can yield zero, one, or
// many +EV opportunities in the same pass. Returns ErrIncompleteMarket
// (wrapped) when no bookmaker quotes the full market.
func FindValueBets(g Group, method pricing.ConsensusMethod, minEdge float64) ([]Opportunity, error) {
	if !g.priceable() {
		return nil, nil
	}

	books := make(map[string]map[string]float64)
	for _, q := range g.Quotes {
		quotes, ok := books[q.Bookmaker]
		if !ok {
			quotes = make(map[string]float64)
			books[q.Bookmaker] = quotes
		}
		// a book re-quoting the same outcome keeps its best (lowest implied) price
		if cur, ok := quotes[q.Outcome]; !ok || q.Implied < cur {
			quotes[q.Outcome] = q.Implied
		}
	}

	fair, err := pricing.FairConsensus(books, g.Outcomes, method)
	if err != nil {
		return nil, err
	}

	var opps []Opportunity
	for _, q := range g.Quotes {
		edge := fair[q.Outcome] - q.Implied
		if edge < minEdge {
			continue
		}
		opps = append(opps, Opportunity{
			Kind:           KindPositiveEV,
			ExternalGameID: g.ExternalGameID,
			EventLabel:     g.EventLabel,
			Market:         g.Market,
			Line:           g.Line,
			Legs: []Leg{{
				Bookmaker:    q.Bookmaker,
				Outcome:      q.Outcome,
				Line:         q.Line,
				OddsAmerican: q.OddsAmerican,
				Implied:      q.Implied,
				StakeWeight:  1,
			}},
			Edge:       edge,
			CapturedAt: q.CapturedAt,
		})
	}

	return opps, nil
}
