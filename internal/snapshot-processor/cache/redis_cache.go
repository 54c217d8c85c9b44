package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddswatch/odds-arb-platform/pkg/contracts/events"
)

// RedisCache keeps the most recent quote set per game so the API can serve
// reads without touching Postgres.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func key(externalGameID string) string { return "odds:latest:" + externalGameID }

// GameSnapshot is the cached value: one game plus its quotes from the most
// recent capture.
type GameSnapshot struct {
	Game       events.Game    `json:"game"`
	CapturedAt time.Time      `json:"capturedAt"`
	Quotes     []events.Quote `json:"quotes"`
}

// SetLatest writes one cache entry per game in the batch.
func (r *RedisCache) SetLatest(ctx context.Context, batch events.QuoteBatch) error {
	byGame := make(map[string][]events.Quote)
	for _, q := range batch.Quotes {
		byGame[q.ExternalGameID] = append(byGame[q.ExternalGameID], q)
	}

	for _, g := range batch.Games {
		snap := GameSnapshot{Game: g, CapturedAt: batch.CapturedAt, Quotes: byGame[g.ExternalGameID]}
		b, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if err := r.Client.Set(ctx, key(g.ExternalGameID), b, r.TTL).Err(); err != nil {
			return err
		}
	}
	return nil
}

// GetLatest returns the cached snapshot for one game, or redis.Nil.
func (r *RedisCache) GetLatest(ctx context.Context, externalGameID string) (GameSnapshot, error) {
	var snap GameSnapshot
	b, err := r.Client.Get(ctx, key(externalGameID)).Bytes()
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(b, &snap)
	return snap, err
}
