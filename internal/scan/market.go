// Package scan holds the opportunity-detection core: grouping snapshot rows
// into market instances, arbitrage and +EV scans, fingerprinting, and the
// pass orchestrator. It performs no I/O besides the ledger it is handed.
package scan

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/oddswatch/odds-arb-platform/internal/pricing"
)

// Market kinds, matching the provider taxonomy the ingest boundary emits.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// Row is one snapshot price row: the normalized input boundary of the core.
type Row struct {
	ExternalGameID string
	EventLabel     string // "Home vs Away", display only
	Bookmaker      string
	Market         string
	Outcome        string
	Line           *float64 // required for spreads/totals, nil for h2h
	OddsAmerican   int
	CapturedAt     time.Time
}

// Quote is a row whose price survived conversion to an implied probability.
type Quote struct {
	Bookmaker    string
	Outcome      string
	Line         *float64
	OddsAmerican int
	Implied      float64
	CapturedAt   time.Time
}

// Group is one market instance: every bookmaker's quotes for one
// (event, market kind, line).
type Group struct {
	ExternalGameID string
	EventLabel     string
	Market         string
	Line           *float64 // absolute line for spreads, nil for h2h
	Quotes         []Quote
	Outcomes       []string // sorted distinct outcome labels
}

// QuoteError records a single skipped quote with enough context to log it.
type QuoteError struct {
	Row Row
	Err error
}

const lineTolerance = 1e-9

// GroupRows buckets rows into market groups and converts each price to an
// implied probability. Malformed quotes (invalid price, missing line on a
// spread/total) are skipped individually and reported, never failing the
// whole batch. Groups and quotes come back in a deterministic order.
func GroupRows(rows []Row) ([]Group, []QuoteError) {
	grouped := make(map[string]*Group)
	var skipped []QuoteError

	for _, r := range rows {
		implied, err := pricing.AmericanToImplied(r.OddsAmerican)
		if err != nil {
			skipped = append(skipped, QuoteError{Row: r, Err: err})
			continue
		}

		line, err := groupLine(r)
		if err != nil {
			skipped = append(skipped, QuoteError{Row: r, Err: err})
			continue
		}

		key := groupKey(r.ExternalGameID, r.Market, line)
		g, ok := grouped[key]
		if !ok {
			g = &Group{
				ExternalGameID: r.ExternalGameID,
				EventLabel:     r.EventLabel,
				Market:         r.Market,
				Line:           line,
			}
			grouped[key] = g
		}

		g.Quotes = append(g.Quotes, Quote{
			Bookmaker:    r.Bookmaker,
			Outcome:      r.Outcome,
			Line:         r.Line,
			OddsAmerican: r.OddsAmerican,
			Implied:      implied,
			CapturedAt:   r.CapturedAt,
		})
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(grouped))
	for _, k := range keys {
		g := grouped[k]
		sort.Slice(g.Quotes, func(i, j int) bool {
			a, b := g.Quotes[i], g.Quotes[j]
			if a.Outcome != b.Outcome {
				return a.Outcome < b.Outcome
			}
			return a.Bookmaker < b.Bookmaker
		})
		g.Outcomes = distinctOutcomes(g.Quotes)
		groups = append(groups, *g)
	}

	return groups, skipped
}

// groupLine derives the line that identifies the market instance: nil for
// moneylines, the absolute value for spreads (the two sides mirror each
// other), and the posted line for totals.
func groupLine(r Row) (*float64, error) {
	switch r.Market {
	case MarketH2H:
		return nil, nil
	case MarketSpreads, MarketTotals:
		if r.Line == nil {
			return nil, fmt.Errorf("%w: %s quote without line", pricing.ErrInvalidPrice, r.Market)
		}
		l := *r.Line
		if r.Market == MarketSpreads {
			l = math.Abs(l)
		}
		return &l, nil
	default:
		return nil, fmt.Errorf("%w: unknown market kind %q", pricing.ErrInvalidPrice, r.Market)
	}
}

func groupKey(gameID, market string, line *float64) string {
	return gameID + "|" + market + "|" + FormatLine(line)
}

// FormatLine renders a line for keys and fingerprints; nil becomes "".
func FormatLine(line *float64) string {
	if line == nil {
		return ""
	}
	return strconv.FormatFloat(*line, 'g', -1, 64)
}

func distinctOutcomes(quotes []Quote) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range quotes {
		if _, ok := seen[q.Outcome]; !ok {
			seen[q.Outcome] = struct{}{}
			out = append(out, q.Outcome)
		}
	}
	sort.Strings(out)
	return out
}

// priceable reports whether the group has the outcome shape required by its
// market kind: >=2 for moneylines, exactly 2 sides for spreads and totals.
// Spread sides must mirror: every book gives an outcome the same signed line,
// and the two outcomes' signed lines sum to zero. Books disagreeing on the
// favorite at the same absolute line would otherwise pair two same-side
// quotes as covering bets.
func (g Group) priceable() bool {
	switch g.Market {
	case MarketH2H:
		return len(g.Outcomes) >= 2
	case MarketTotals:
		return len(g.Outcomes) == 2
	case MarketSpreads:
		if len(g.Outcomes) != 2 || g.Line == nil {
			return false
		}
		signed := make(map[string]float64, 2)
		for _, q := range g.Quotes {
			if q.Line == nil || math.Abs(math.Abs(*q.Line)-*g.Line) > lineTolerance {
				return false
			}
			if prev, ok := signed[q.Outcome]; ok {
				if math.Abs(prev-*q.Line) > lineTolerance {
					return false
				}
			} else {
				signed[q.Outcome] = *q.Line
			}
		}
		return math.Abs(signed[g.Outcomes[0]]+signed[g.Outcomes[1]]) <= lineTolerance
	default:
		return false
	}
}
