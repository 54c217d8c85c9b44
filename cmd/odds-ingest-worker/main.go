package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/oddswatch/odds-arb-platform/internal/ingest"
	"github.com/oddswatch/odds-arb-platform/internal/shared/config"
	"github.com/oddswatch/odds-arb-platform/internal/shared/kafka"
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

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPriceQuotes)
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicPriceQuotes))

	client := ingest.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsRegions, cfg.OddsMarkets, log)

	fetched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_fetches_total", Help: "provider fetches by result",
	}, []string{"result"})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_batches_published_total", Help: "quote batches published to kafka",
	})
	quotes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_quotes_total", Help: "individual quotes published",
	})
	prometheus.MustRegister(fetched, published, quotes)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sports := strings.Split(cfg.OddsSports, ",")
	log.Info("odds-ingest-worker started",
		zap.Strings("sports", sports),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	poll := func() {
		for _, sport := range sports {
			sport = strings.TrimSpace(sport)
			if sport == "" {
				continue
			}

			raw, err := client.FetchOdds(ctx, sport)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("fetch failed", zap.String("sport", sport), zap.Error(err))
				fetched.WithLabelValues("error").Inc()
				continue
			}
			fetched.WithLabelValues("ok").Inc()

			batch := ingest.Normalize(raw, sport, "the-odds-api", time.Now())
			if len(batch.Quotes) == 0 {
				log.Info("no quotes for sport", zap.String("sport", sport))
				continue
			}

			payload, err := json.Marshal(batch)
			if err != nil {
				log.Error("marshal batch", zap.Error(err))
				continue
			}
			key := fmt.Sprintf("%s:%d", sport, batch.CapturedAt.Unix())
			if err := kafka.WriteJSON(ctx, writer, key, payload); err != nil {
				log.Warn("kafka publish failed", zap.String("sport", sport), zap.Error(err))
				continue
			}

			published.Inc()
			quotes.Add(float64(len(batch.Quotes)))
			log.Info("batch published",
				zap.String("sport", sport),
				zap.Int("games", len(batch.Games)),
				zap.Int("quotes", len(batch.Quotes)),
			)
		}
	}

	poll()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("odds-ingest-worker stopped")
			return
		case <-ticker.C:
			poll()
		}
	}
}
