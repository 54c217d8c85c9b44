package scan

import (
	"math"
	"testing"
)

func mustGroup(t *testing.T, rows []Row) Group {
	t.Helper()
	groups, skipped := GroupRows(rows)
	if len(skipped) != 0 {
		t.Fatalf("skipped quotes: %v", skipped)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	return groups[0]
}

func TestFindArbitrageTwoWay(t *testing.T) {
	// +110 both sides across different books: 0.47619 + 0.47619 = 0.95238 < 1
	g := mustGroup(t, []Row{
		row("g1", "draftkings", MarketH2H, "Duke", nil, 110),
		row("g1", "fanduel", MarketH2H, "Duke", nil, -115),
		row("g1", "fanduel", MarketH2H, "UNC", nil, 110),
		row("g1", "draftkings", MarketH2H, "UNC", nil, -120),
	})

	opp := FindArbitrage(g, 0.002)
	if opp == nil {
		t.Fatal("expected an arbitrage opportunity")
	}
	if opp.Kind != KindArbitrage {
		t.Errorf("kind = %q", opp.Kind)
	}
	if len(opp.Legs) != 2 {
		t.Fatalf("legs = %d, want exactly 2", len(opp.Legs))
	}

	// best price per outcome: Duke @ draftkings +110, UNC @ fanduel +110
	for _, leg := range opp.Legs {
		if leg.OddsAmerican != 110 {
			t.Errorf("leg %s picked %+d, want best price +110", leg.Outcome, leg.OddsAmerican)
		}
	}

	// stakes proportional to implied probability, summing to 1
	var stakeSum float64
	for _, leg := range opp.Legs {
		stakeSum += leg.StakeWeight
	}
	if math.Abs(stakeSum-1.0) > 1e-12 {
		t.Errorf("stake weights sum to %v, want 1", stakeSum)
	}
	if math.Abs(opp.Legs[0].StakeWeight-0.5) > 1e-12 {
		t.Errorf("equal prices must split stakes evenly, got %v", opp.Legs[0].StakeWeight)
	}

	wantEdge := 1 - 2*(100.0/210.0)
	if math.Abs(opp.Edge-wantEdge) > 1e-12 {
		t.Errorf("edge = %v, want %v", opp.Edge, wantEdge)
	}
}

func TestFindArbitrageNoneWhenVigged(t *testing.T) {
	// -110 both sides: implied sum 1.0476 > 1
	g := mustGroup(t, []Row{
		row("g1", "draftkings", MarketH2H, "Duke", nil, -110),
		row("g1", "fanduel", MarketH2H, "UNC", nil, -110),
	})
	if opp := FindArbitrage(g, 0.002); opp != nil {
		t.Fatalf("no arbitrage expected, got %+v", opp)
	}
}

func TestFindArbitrageSafetyMargin(t *testing.T) {
	// +102 / +100: 0.49505 + 0.5 = 0.99505, inside the 0.01 margin band
	g := mustGroup(t, []Row{
		row("g1", "draftkings", MarketH2H, "Duke", nil, 102),
		row("g1", "fanduel", MarketH2H, "UNC", nil, 100),
	})
	if opp := FindArbitrage(g, 0.01); opp != nil {
		t.Fatalf("margin 0.01 must suppress a 0.00495 edge, got %+v", opp)
	}
	if opp := FindArbitrage(g, 0.002); opp == nil {
		t.Fatal("margin 0.002 must let a 0.00495 edge through")
	}
}

func TestFindArbitrageThreeWay(t *testing.T) {
	// best prices imply 0.40 + 0.25 + 0.30 = 0.95
	g := mustGroup(t, []Row{
		row("g1", "bet365", MarketH2H, "Home", nil, 150),  // 0.40
		row("g1", "bet365", MarketH2H, "Draw", nil, 300),  // 0.25
		row("g1", "pinnacle", MarketH2H, "Away", nil, 233), // ~0.3003
	})
	opp := FindArbitrage(g, 0.002)
	if opp == nil {
		t.Fatal("expected a three-way arbitrage")
	}
	if len(opp.Legs) != 3 {
		t.Fatalf("legs = %d, want 3", len(opp.Legs))
	}
}

func TestFindArbitrageMissingOutcomeSkipsSilently(t *testing.T) {
	groups, _ := GroupRows([]Row{
		row("g1", "draftkings", MarketTotals, "Over", ptr(145.5), 120),
	})
	if len(groups) != 1 {
		t.Fatalf("groups = %d", len(groups))
	}
	if opp := FindArbitrage(groups[0], 0); opp != nil {
		t.Fatalf("one-sided total cannot arb, got %+v", opp)
	}
}

func TestFindArbitrageTieBreakDeterministic(t *testing.T) {
	g := mustGroup(t, []Row{
		row("g1", "betmgm", MarketH2H, "Duke", nil, 110),
		row("g1", "caesars", MarketH2H, "Duke", nil, 110), // identical best price
		row("g1", "fanduel", MarketH2H, "UNC", nil, 110),
	})

	first := FindArbitrage(g, 0.002)
	if first == nil {
		t.Fatal("expected arbitrage")
	}
	for _, leg := range first.Legs {
		if leg.Outcome == "Duke" && leg.Bookmaker != "betmgm" {
			t.Errorf("tie must resolve to lexicographically smaller book, got %s", leg.Bookmaker)
		}
	}
	for i := 0; i < 20; i++ {
		again := FindArbitrage(g, 0.002)
		if Fingerprint(*again) != Fingerprint(*first) {
			t.Fatal("repeated scans over unchanged input must fingerprint identically")
		}
	}
}

func TestFindArbitrageRejectsDisagreeingSpreadFavorite(t *testing.T) {
	// both books lay -1.5, but on opposite teams: the two +105 quotes are the
	// same side of the game, not covering bets. A 1-point Duke win loses both.
	g := mustGroup(t, []Row{
		row("g1", "bookA", MarketSpreads, "Duke", ptr(-1.5), 105),
		row("g1", "bookA", MarketSpreads, "UNC", ptr(1.5), -125),
		row("g1", "bookB", MarketSpreads, "Duke", ptr(1.5), -125),
		row("g1", "bookB", MarketSpreads, "UNC", ptr(-1.5), 105),
	})

	if opp := FindArbitrage(g, 0.002); opp != nil {
		t.Fatalf("sign-mixed spread group must not arb, got %+v", opp)
	}
}

func TestFindArbitrageMirroredSpreadStillDetected(t *testing.T) {
	// the consistent counterpart: every book agrees Duke lays the points
	g := mustGroup(t, []Row{
		row("g1", "bookA", MarketSpreads, "Duke", ptr(-1.5), 105),
		row("g1", "bookA", MarketSpreads, "UNC", ptr(1.5), -125),
		row("g1", "bookB", MarketSpreads, "Duke", ptr(-1.5), -125),
		row("g1", "bookB", MarketSpreads, "UNC", ptr(1.5), 105),
	})

	opp := FindArbitrage(g, 0.002)
	if opp == nil {
		t.Fatal("mirrored +105/+105 spread must arb")
	}
	for _, leg := range opp.Legs {
		if leg.OddsAmerican != 105 {
			t.Errorf("leg %s/%s odds = %d, want +105", leg.Bookmaker, leg.Outcome, leg.OddsAmerican)
		}
	}
	seen := map[string]float64{}
	for _, leg := range opp.Legs {
		if leg.Line == nil {
			t.Fatalf("spread leg %s missing line", leg.Outcome)
		}
		seen[leg.Outcome] = *leg.Line
	}
	if seen["Duke"]+seen["UNC"] != 0 {
		t.Errorf("leg lines must mirror, got %v", seen)
	}
}
