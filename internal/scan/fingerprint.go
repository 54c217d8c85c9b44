package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint derives the deterministic identity of an opportunity for
// deduplication: event, market kind, line, and the sorted
// (bookmaker, outcome, price) tuples of its legs. Capture time is excluded
// so the same opportunity across consecutive snapshots dedupes; any change
// in a leg's price or bookmaker composition yields a new fingerprint.
func Fingerprint(o Opportunity) string {
	legs := append([]Leg(nil), o.Legs...)
	sort.Slice(legs, func(i, j int) bool {
		a, b := legs[i], legs[j]
		if a.Outcome != b.Outcome {
			return a.Outcome < b.Outcome
		}
		if a.Bookmaker != b.Bookmaker {
			return a.Bookmaker < b.Bookmaker
		}
		return a.OddsAmerican < b.OddsAmerican
	})

	parts := []string{o.ExternalGameID, o.Market, FormatLine(o.Line)}
	for _, l := range legs {
		parts = append(parts, l.Outcome, l.Bookmaker, strconv.Itoa(l.OddsAmerican))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}
