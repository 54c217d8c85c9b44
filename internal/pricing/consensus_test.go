package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestFairConsensusMedian(t *testing.T) {
	books := map[string]map[string]float64{
		"pinnacle": {"Duke": 0.55, "UNC": 0.50},
		"draftkng": {"Duke": 0.57, "UNC": 0.48},
		"fanduel":  {"Duke": 0.53, "UNC": 0.52},
	}
	outcomes := []string{"Duke", "UNC"}

	fair, err := FairConsensus(books, outcomes, ConsensusMedian)
	if err != nil {
		t.Fatalf("FairConsensus: %v", err)
	}

	var sum float64
	for _, p := range fair {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("consensus sums to %v, want 1.0", sum)
	}

	// every book devigs to Duke ~0.52-0.54; the median must land inside
	if fair["Duke"] < 0.51 || fair["Duke"] > 0.55 {
		t.Errorf("fair[Duke] = %v, outside expected band", fair["Duke"])
	}
}

func TestFairConsensusSkipsPartialBooks(t *testing.T) {
	books := map[string]map[string]float64{
		"complete": {"Over": 0.52, "Under": 0.52},
		"one_side": {"Over": 0.10}, // cannot be devigged, must not poison the consensus
	}
	fair, err := FairConsensus(books, []string{"Over", "Under"}, ConsensusMean)
	if err != nil {
		t.Fatalf("FairConsensus: %v", err)
	}
	if math.Abs(fair["Over"]-0.5) > 1e-12 {
		t.Errorf("fair[Over] = %v, want 0.5 from the single complete book", fair["Over"])
	}
}

func TestFairConsensusNoCompleteBook(t *testing.T) {
	books := map[string]map[string]float64{
		"a": {"Over": 0.5},
		"b": {"Under": 0.5},
	}
	if _, err := FairConsensus(books, []string{"Over", "Under"}, ConsensusMedian); !errors.Is(err, ErrIncompleteMarket) {
		t.Fatalf("err = %v, want ErrIncompleteMarket", err)
	}
}

func TestParseConsensusMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    ConsensusMethod
		wantErr bool
	}{
		{"median", ConsensusMedian, false},
		{"mean", ConsensusMean, false},
		{"", ConsensusMedian, false},
		{"mode", "", true},
	}
	for _, tt := range tests {
		got, err := ParseConsensusMethod(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseConsensusMethod(%q): want error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseConsensusMethod(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
