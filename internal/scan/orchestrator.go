package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oddswatch/odds-arb-platform/internal/ledger"
	"github.com/oddswatch/odds-arb-platform/internal/pricing"
)

// Config holds the scan thresholds consumed from the environment.
type Config struct {
	ArbSafetyMargin float64
	MinEdge         float64
	Consensus       pricing.ConsensusMethod
	Workers         int
}

// GroupError is a per-market failure that did not abort the pass.
type GroupError struct {
	ExternalGameID string
	Market         string
	Line           *float64
	Err            error
}

// Alert is an opportunity that cleared the dedup ledger this pass.
type Alert struct {
	Opportunity
	Fingerprint string
}

// PassResult summarizes one full scan pass.
type PassResult struct {
	PassID        string
	Groups        int
	Opportunities int
	Suppressed    int
	LedgerErrors  int
	Alerts        []Alert
	GroupErrors   []GroupError
	SkippedQuotes []QuoteError
}

// Orchestrator drives one scan pass: group, detect, fingerprint, dedup.
// Metric callbacks follow the worker pattern: the main wires prometheus
// counters in, the orchestrator stays import-free of the metrics registry.
type Orchestrator struct {
	Ledger ledger.Ledger
	Cfg    Config
	Log    *zap.Logger

	OnGroup       func()
	OnOpportunity func(kind string)
	OnAlert       func(kind string)
	OnSuppressed  func()
	OnError       func(stage string)
}

// RunPass scans one snapshot. Market groups run on a bounded worker pool;
// per-quote and per-group failures are recovered locally and summarized in
// the result. Only an unreachable ledger fails the pass, and in that case no
// alerts are returned: a fingerprint must be durably recorded before its
// alert may be sent.
func (o *Orchestrator) RunPass(ctx context.Context, rows []Row) (*PassResult, error) {
	res := &PassResult{PassID: uuid.NewString()[:8]}

	groups, skipped := GroupRows(rows)
	res.Groups = len(groups)
	res.SkippedQuotes = skipped
	for _, s := range skipped {
		o.Log.Warn("skipping quote",
			zap.String("pass_id", res.PassID),
			zap.String("event", s.Row.ExternalGameID),
			zap.String("market", s.Row.Market),
			zap.String("bookmaker", s.Row.Bookmaker),
			zap.Error(s.Err),
		)
		o.emitError("quote")
	}

	opps, groupErrs := o.scanGroups(ctx, groups)
	res.Opportunities = len(opps)
	res.GroupErrors = groupErrs
	for _, ge := range groupErrs {
		o.Log.Warn("skipping market group",
			zap.String("pass_id", res.PassID),
			zap.String("event", ge.ExternalGameID),
			zap.String("market", ge.Market),
			zap.String("line", FormatLine(ge.Line)),
			zap.Error(ge.Err),
		)
		o.emitError("group")
	}

	// Dedup in a stable order so overlapping passes race on identical
	// fingerprints rather than differently-ordered ones. Digests are
	// computed once and reused for the ledger insert.
	type printed struct {
		fp  string
		opp Opportunity
	}
	prints := make([]printed, 0, len(opps))
	for _, opp := range opps {
		prints = append(prints, printed{fp: Fingerprint(opp), opp: opp})
	}
	sort.Slice(prints, func(i, j int) bool {
		return prints[i].fp < prints[j].fp
	})

	now := time.Now().UTC()
	for _, p := range prints {
		fp, opp := p.fp, p.opp

		inserted, err := ledger.RecordWithRetry(ctx, o.Ledger, fp, now)
		if err != nil {
			if errors.Is(err, ledger.ErrUnavailable) {
				o.emitError("ledger")
				return nil, fmt.Errorf("pass %s: ledger unavailable: %w", res.PassID, err)
			}
			// contention exhausted: partial failure, the opportunity is
			// re-evaluated (and safely deduped) on the next pass
			res.LedgerErrors++
			o.Log.Warn("ledger record failed",
				zap.String("pass_id", res.PassID),
				zap.String("fingerprint", fp),
				zap.Error(err),
			)
			o.emitError("ledger")
			continue
		}

		if !inserted {
			res.Suppressed++
			if o.OnSuppressed != nil {
				o.OnSuppressed()
			}
			continue
		}

		res.Alerts = append(res.Alerts, Alert{Opportunity: opp, Fingerprint: fp})
		if o.OnAlert != nil {
			o.OnAlert(opp.Kind)
		}
	}

	return res, nil
}

// scanGroups runs both detectors over every group on a small worker pool.
// Groups share no mutable state, so they parallelize freely.
func (o *Orchestrator) scanGroups(ctx context.Context, groups []Group) ([]Opportunity, []GroupError) {
	workers := o.Cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	jobs := make(chan Group)
	var mu sync.Mutex
	var opps []Opportunity
	var groupErrs []GroupError

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				found, err := o.scanGroup(g)
				mu.Lock()
				opps = append(opps, found...)
				if err != nil {
					groupErrs = append(groupErrs, GroupError{
						ExternalGameID: g.ExternalGameID,
						Market:         g.Market,
						Line:           g.Line,
						Err:            err,
					})
				}
				mu.Unlock()
			}
		}()
	}

	for _, g := range groups {
		select {
		case <-ctx.Done():
			// drain: stop feeding, let in-flight groups finish
		case jobs <- g:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return opps, groupErrs
}

func (o *Orchestrator) scanGroup(g Group) ([]Opportunity, error) {
	if o.OnGroup != nil {
		o.OnGroup()
	}

	var found []Opportunity

	if arb := FindArbitrage(g, o.Cfg.ArbSafetyMargin); arb != nil {
		found = append(found, *arb)
		o.emitOpportunity(KindArbitrage)
	}

	vbs, err := FindValueBets(g, o.Cfg.Consensus, o.Cfg.MinEdge)
	for range vbs {
		o.emitOpportunity(KindPositiveEV)
	}
	found = append(found, vbs...)

	return found, err
}

func (o *Orchestrator) emitOpportunity(kind string) {
	if o.OnOpportunity != nil {
		o.OnOpportunity(kind)
	}
}

func (o *Orchestrator) emitError(stage string) {
	if o.OnError != nil {
		o.OnError(stage)
	}
}
