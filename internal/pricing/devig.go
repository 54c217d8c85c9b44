package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrIncompleteMarket marks a market with too few quoted outcomes to strip
// the bookmaker margin (a book quoting only one side, for example).
var ErrIncompleteMarket = errors.New("incomplete market")

// sumTolerance bounds how far de-vigged probabilities may drift from 1.0.
const sumTolerance = 1e-9

// Devig strips the bookmaker margin from a fully quoted market using the
// multiplicative method: fair_i = raw_i / sum(raw).
//
// Requires at least 2 outcomes, every raw probability in (0,1). The result
// sums to 1.0 within 1e-9; a violation is reported as an error rather than
// silently corrected. Iteration is done over sorted outcome labels so the
// result does not depend on map order.
func Devig(raw map[string]float64) (map[string]float64, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: %d outcome(s) quoted", ErrIncompleteMarket, len(raw))
	}

	outcomes := make([]string, 0, len(raw))
	for name := range raw {
		outcomes = append(outcomes, name)
	}
	sort.Strings(outcomes)

	var total float64
	for _, name := range outcomes {
		p := raw[name]
		if p <= 0 || p >= 1 {
			return nil, fmt.Errorf("%w: outcome %q has raw probability %g", ErrIncompleteMarket, name, p)
		}
		total += p
	}

	fair := make(map[string]float64, len(raw))
	var check float64
	for _, name := range outcomes {
		fair[name] = raw[name] / total
		check += fair[name]
	}

	if math.Abs(check-1.0) > sumTolerance {
		return nil, fmt.Errorf("devig invariant violated: fair probabilities sum to %.12f", check)
	}

	return fair, nil
}
