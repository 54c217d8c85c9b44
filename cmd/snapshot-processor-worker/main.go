package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	procCache "github.com/oddswatch/odds-arb-platform/internal/snapshot-processor/cache"
	"github.com/oddswatch/odds-arb-platform/internal/snapshot-processor/consumer"
	"github.com/oddswatch/odds-arb-platform/internal/snapshot-processor/pubsub"
	"github.com/oddswatch/odds-arb-platform/internal/snapshots"

	sharedcache "github.com/oddswatch/odds-arb-platform/internal/shared/cache"
	"github.com/oddswatch/odds-arb-platform/internal/shared/config"
	"github.com/oddswatch/odds-arb-platform/internal/shared/db"
	"github.com/oddswatch/odds-arb-platform/internal/shared/kafka"
	"github.com/oddswatch/odds-arb-platform/internal/shared/logger"
	"github.com/oddswatch/odds-arb-platform/internal/shared/metrics"
	"github.com/oddswatch/odds-arb-platform/pkg/contracts/events"
	"github.com/oddswatch/odds-arb-platform/pkg/contracts/topics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

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

	store := snapshots.NewStore(pg)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal("ensure schema", zap.Error(err))
		}
	}

	rcache := procCache.NewRedisCache(redisClient, 5*time.Minute)

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPriceQuotes, "snapshot-processor")
	defer reader.Close()

	dlq := kafka.NewWriter(cfg.KafkaBrokers, topics.PriceQuotesDLQ)
	defer dlq.Close()

	consumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_proc_messages_consumed_total", Help: "kafka messages consumed",
	})
	cached := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_proc_cache_sets_total", Help: "latest-odds cache refreshes",
	})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_proc_price_rows_total", Help: "price rows inserted",
	})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_proc_errors_total", Help: "errors by stage",
	}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, persisted, errorsBy)

	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Store:      store,
		Cache:      rcache,
		DLQ:        dlq,
		OnConsumed: func() { consumed.Inc() },
		OnCached:   func() { cached.Inc() },
		OnPersist:  func(inserted int) { persisted.Add(float64(inserted)) },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		// Push one odds refresh per game to the websocket layer.
		OnAfterPersist: func(batch events.QuoteBatch) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			for _, g := range batch.Games {
				msg := pubsub.WSUpdate{Type: "odds", EventID: g.ExternalGameID, Payload: batch.CapturedAt}
				b, _ := json.Marshal(msg)
				if err := broadcaster.Publish(ctx, cfg.RedisOddsChannel, b); err != nil {
					log.Warn("ws broadcast publish failed", zap.Error(err))
					return
				}
			}
		},
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

	log.Info("snapshot-processor-worker started", zap.String("topic", cfg.TopicPriceQuotes))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("snapshot-processor-worker stopped")
}
