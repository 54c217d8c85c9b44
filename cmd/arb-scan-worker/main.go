package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/oddswatch/odds-arb-platform/internal/alerts"
	"github.com/oddswatch/odds-arb-platform/internal/ledger"
	"github.com/oddswatch/odds-arb-platform/internal/pricing"
	"github.com/oddswatch/odds-arb-platform/internal/scan"
	"github.com/oddswatch/odds-arb-platform/internal/snapshots"

	sharedcache "github.com/oddswatch/odds-arb-platform/internal/shared/cache"
	"github.com/oddswatch/odds-arb-platform/internal/shared/config"
	"github.com/oddswatch/odds-arb-platform/internal/shared/db"
	"github.com/oddswatch/odds-arb-platform/internal/shared/logger"
	"github.com/oddswatch/odds-arb-platform/internal/shared/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	consensus, err := pricing.ParseConsensusMethod(cfg.ConsensusMethod)
	if err != nil {
		log.Fatal("invalid consensus method", zap.Error(err))
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	led := ledger.NewPostgres(pg)
	store := snapshots.NewStore(pg)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := led.EnsureSchema(ctx); err != nil {
			log.Fatal("ensure ledger schema", zap.Error(err))
		}
	}

	notifier := alerts.NewDiscordNotifier(cfg.DiscordWebhookURL, log)
	broadcaster := alerts.NewBroadcaster(redisClient, cfg.RedisAlertChannel)

	groupsScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_groups_total", Help: "market groups scanned",
	})
	opportunities := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_opportunities_total", Help: "opportunities detected by kind",
	}, []string{"kind"})
	alertsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_alerts_total", Help: "alerts that cleared the dedup ledger",
	}, []string{"kind"})
	suppressed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_suppressed_total", Help: "opportunities suppressed as duplicates",
	})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_errors_total", Help: "recovered errors by stage",
	}, []string{"stage"})
	prometheus.MustRegister(groupsScanned, opportunities, alertsSent, suppressed, errorsBy)

	orch := &scan.Orchestrator{
		Ledger: led,
		Cfg: scan.Config{
			ArbSafetyMargin: cfg.ArbSafetyMargin,
			MinEdge:         cfg.MinEdge,
			Consensus:       consensus,
			Workers:         cfg.ScanWorkers,
		},
		Log:           log,
		OnGroup:       func() { groupsScanned.Inc() },
		OnOpportunity: func(kind string) { opportunities.WithLabelValues(kind).Inc() },
		OnAlert:       func(kind string) { alertsSent.WithLabelValues(kind).Inc() },
		OnSuppressed:  func() { suppressed.Inc() },
		OnError:       func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("arb-scan-worker started",
		zap.Duration("scan_interval", cfg.ScanInterval),
		zap.Float64("arb_safety_margin", cfg.ArbSafetyMargin),
		zap.Float64("min_edge", cfg.MinEdge),
		zap.String("consensus", string(consensus)),
	)

	// Passes may overlap when a pass outlives the interval; the ledger's
	// atomic insert keeps overlapping passes from double-alerting.
	var wg sync.WaitGroup
	runPass := func() {
		defer wg.Done()

		rows, err := store.LatestPrices(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("load snapshot failed", zap.Error(err))
				errorsBy.WithLabelValues("snapshot").Inc()
			}
			return
		}

		res, err := orch.RunPass(ctx, toScanRows(rows))
		if err != nil {
			if ctx.Err() == nil {
				log.Error("scan pass failed", zap.Error(err))
			}
			return
		}

		log.Info("scan pass complete",
			zap.String("pass_id", res.PassID),
			zap.Int("groups", res.Groups),
			zap.Int("opportunities", res.Opportunities),
			zap.Int("alerts", len(res.Alerts)),
			zap.Int("suppressed", res.Suppressed),
			zap.Int("group_errors", len(res.GroupErrors)),
			zap.Int("skipped_quotes", len(res.SkippedQuotes)),
		)

		// Fingerprints are already recorded; notification failures are
		// logged but never resurrect a duplicate.
		now := time.Now().UTC()
		for _, a := range res.Alerts {
			if err := broadcaster.Publish(ctx, a, now); err != nil {
				log.Warn("alert broadcast failed", zap.String("fingerprint", a.Fingerprint), zap.Error(err))
			}
			if !notifier.Enabled() {
				continue
			}
			if err := notifier.Send(ctx, alerts.FormatAlert(a)); err != nil {
				log.Warn("discord send failed", zap.String("fingerprint", a.Fingerprint), zap.Error(err))
			}
		}
	}

	wg.Add(1)
	go runPass()
	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			wg.Add(1)
			go runPass()
		}
	}

	wg.Wait()
	log.Info("arb-scan-worker stopped")
}

func toScanRows(rows []snapshots.LatestRow) []scan.Row {
	out := make([]scan.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, scan.Row{
			ExternalGameID: r.ExternalGameID,
			EventLabel:     fmt.Sprintf("%s @ %s", r.AwayTeam, r.HomeTeam),
			Bookmaker:      r.Bookmaker,
			Market:         r.Market,
			Outcome:        r.Outcome,
			Line:           r.Line,
			OddsAmerican:   r.OddsAmerican,
			CapturedAt:     r.CapturedAt,
		})
	}
	return out
}
