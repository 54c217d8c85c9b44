package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func keyOdds(externalGameID string) string { return "odds:api:" + externalGameID }

func (c *Cache) GetOdds(ctx context.Context, externalGameID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyOdds(externalGameID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetOdds(ctx context.Context, externalGameID string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyOdds(externalGameID), b, ttl).Err()
}

// RecentAlerts reads back the capped alert list maintained by the scan worker.
func (c *Cache) RecentAlerts(ctx context.Context, key string, limit int64) ([]json.RawMessage, error) {
	vals, err := c.R.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}
