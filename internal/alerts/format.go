package alerts

import (
	"fmt"
	"strings"

	"github.com/oddswatch/odds-arb-platform/internal/scan"
)

// FormatAlert renders one alert as a human-readable Discord message.
func FormatAlert(a scan.Alert) string {
	var b strings.Builder

	switch a.Kind {
	case scan.KindArbitrage:
		fmt.Fprintf(&b, "**ARB FOUND** (%.2f%%)\n", a.Edge*100)
	default:
		fmt.Fprintf(&b, "**+EV FOUND** (edge %.2f%%)\n", a.Edge*100)
	}

	b.WriteString("```\n")
	fmt.Fprintf(&b, "Game:   %s\n", a.EventLabel)
	fmt.Fprintf(&b, "Market: %s%s\n\n", a.Market, lineSuffix(a.Line))

	for _, leg := range a.Legs {
		fmt.Fprintf(&b, "  %-35s  %+5d  @ %s\n", leg.Outcome+legLine(leg.Line), leg.OddsAmerican, leg.Bookmaker)
	}

	if a.Kind == scan.KindArbitrage {
		b.WriteString("\nStake split ($100):\n")
		for _, leg := range a.Legs {
			fmt.Fprintf(&b, "  %s: $%.2f\n", leg.Outcome, leg.StakeWeight*100)
		}
		fmt.Fprintf(&b, "\nGuaranteed profit: $%.2f\n", a.Edge*100)
	}

	b.WriteString("```")
	return b.String()
}

func lineSuffix(line *float64) string {
	if line == nil {
		return ""
	}
	return fmt.Sprintf(" @ %g", *line)
}

func legLine(line *float64) string {
	if line == nil {
		return ""
	}
	return fmt.Sprintf(" (%+g)", *line)
}
