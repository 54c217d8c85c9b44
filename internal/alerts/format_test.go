package alerts

import (
	"strings"
	"testing"

	"github.com/oddswatch/odds-arb-platform/internal/scan"
)

func ptr(f float64) *float64 { return &f }

func TestFormatAlertArbitrage(t *testing.T) {
	msg := FormatAlert(scan.Alert{
		Opportunity: scan.Opportunity{
			Kind:           scan.KindArbitrage,
			ExternalGameID: "evt-1",
			EventLabel:     "UNC @ Duke",
			Market:         scan.MarketH2H,
			Edge:           0.0244,
			Legs: []scan.Leg{
				{Bookmaker: "draftkings", Outcome: "Duke", OddsAmerican: 105, Implied: 0.4878, StakeWeight: 0.5},
				{Bookmaker: "fanduel", Outcome: "UNC", OddsAmerican: 105, Implied: 0.4878, StakeWeight: 0.5},
			},
		},
		Fingerprint: "abc123",
	})

	for _, want := range []string{
		"ARB FOUND",
		"2.44%",
		"UNC @ Duke",
		"Market: h2h",
		"draftkings",
		"fanduel",
		"+105",
		"Stake split ($100):",
		"Duke: $50.00",
		"Guaranteed profit: $2.44",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatAlertValueBet(t *testing.T) {
	msg := FormatAlert(scan.Alert{
		Opportunity: scan.Opportunity{
			Kind:           scan.KindPositiveEV,
			ExternalGameID: "evt-2",
			EventLabel:     "UNC @ Duke",
			Market:         scan.MarketSpreads,
			Line:           ptr(3.5),
			Edge:           0.052,
			Legs: []scan.Leg{
				{Bookmaker: "softbook", Outcome: "Duke", Line: ptr(-3.5), OddsAmerican: 113, Implied: 0.4695, StakeWeight: 1},
			},
		},
		Fingerprint: "def456",
	})

	for _, want := range []string{
		"+EV FOUND",
		"edge 5.20%",
		"Market: spreads @ 3.5",
		"Duke (-3.5)",
		"+113",
		"softbook",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Stake split") {
		t.Error("value bet message should not include a stake split")
	}
}
