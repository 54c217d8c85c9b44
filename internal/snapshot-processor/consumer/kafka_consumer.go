package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/oddswatch/odds-arb-platform/internal/snapshot-processor/cache"
	"github.com/oddswatch/odds-arb-platform/internal/snapshots"
	"github.com/oddswatch/odds-arb-platform/pkg/contracts/events"
)

// Processor consumes quote batches from Kafka, persists them as snapshots and
// refreshes the latest-odds cache. Metric callbacks cover each stage.
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Store  *snapshots.Store
	Cache  *cache.RedisCache

	// DLQ receives undecodable messages when set.
	DLQ *kafka.Writer

	OnConsumed func()
	OnCached   func()
	OnPersist  func(inserted int)
	OnError    func(stage string)

	// OnAfterPersist fires once per successfully stored batch.
	OnAfterPersist func(batch events.QuoteBatch)
}

// Run is the main consume loop. It returns only when ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var batch events.QuoteBatch
		if err := json.Unmarshal(m.Value, &batch); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			if p.DLQ != nil {
				if err := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
					p.Log.Warn("dlq write failed", zap.Error(err))
				}
			}
			continue
		}

		games, inserted, err := p.Store.SaveBatch(ctx, batch)
		if err != nil {
			p.Log.Warn("snapshot persist failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db")
			}
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist(inserted)
		}

		// Cache failure does not undo persistence.
		if err := p.Cache.SetLatest(ctx, batch); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("cache")
			}
		} else if p.OnCached != nil {
			p.OnCached()
		}

		p.Log.Debug("snapshot stored",
			zap.String("sport", batch.SportKey),
			zap.Int("games", games),
			zap.Int("quotes", len(batch.Quotes)),
			zap.Int("inserted", inserted),
		)

		if p.OnAfterPersist != nil {
			p.OnAfterPersist(batch)
		}
	}
}
