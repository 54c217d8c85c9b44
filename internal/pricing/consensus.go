package pricing

import (
	"fmt"
	"sort"
)

// ConsensusMethod selects how per-book fair probabilities are combined into
// one fair-price reference for the +EV scan.
type ConsensusMethod string

const (
	ConsensusMedian ConsensusMethod = "median"
	ConsensusMean   ConsensusMethod = "mean"
)

// ParseConsensusMethod maps a config value onto a ConsensusMethod.
func ParseConsensusMethod(s string) (ConsensusMethod, error) {
	switch ConsensusMethod(s) {
	case ConsensusMedian, ConsensusMean:
		return ConsensusMethod(s), nil
	case "":
		return ConsensusMedian, nil
	}
	return "", fmt.Errorf("unknown consensus method %q", s)
}

// FairConsensus de-vigs each bookmaker's market independently, then combines
// the per-book fair probabilities per outcome (median or mean) and
// renormalizes so the consensus sums to 1.
//
// Input: bookmaker -> outcome -> raw implied probability. Books that do not
// quote every outcome of the market are excluded (they cannot be de-vigged);
// if no book quotes the full market the whole consensus is incomplete.
func FairConsensus(books map[string]map[string]float64, outcomes []string, method ConsensusMethod) (map[string]float64, error) {
	if len(outcomes) < 2 {
		return nil, fmt.Errorf("%w: %d outcome(s) in market", ErrIncompleteMarket, len(outcomes))
	}

	bookNames := make([]string, 0, len(books))
	for name := range books {
		bookNames = append(bookNames, name)
	}
	sort.Strings(bookNames)

	perOutcome := make(map[string][]float64, len(outcomes))
	for _, book := range bookNames {
		quotes := books[book]
		if !quotesAll(quotes, outcomes) {
			continue
		}
		fair, err := Devig(quotes)
		if err != nil {
			continue
		}
		for _, o := range outcomes {
			perOutcome[o] = append(perOutcome[o], fair[o])
		}
	}

	if len(perOutcome) == 0 {
		return nil, fmt.Errorf("%w: no bookmaker quotes the full market", ErrIncompleteMarket)
	}

	combined := make(map[string]float64, len(outcomes))
	var total float64
	for _, o := range outcomes {
		vals := perOutcome[o]
		var p float64
		switch method {
		case ConsensusMean:
			p = mean(vals)
		default:
			p = median(vals)
		}
		combined[o] = p
		total += p
	}

	// medians across books rarely sum to exactly 1; renormalize
	for _, o := range outcomes {
		combined[o] /= total
	}

	return combined, nil
}

func quotesAll(quotes map[string]float64, outcomes []string) bool {
	for _, o := range outcomes {
		if _, ok := quotes[o]; !ok {
			return false
		}
	}
	return true
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
