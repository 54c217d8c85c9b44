package alerts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddswatch/odds-arb-platform/internal/scan"
	"github.com/oddswatch/odds-arb-platform/pkg/contracts/events"
)

// RecentKey holds the capped list of recent alerts served by the API.
const RecentKey = "alerts:recent"

const recentLimit = 100

// Broadcaster publishes alert events on a Redis Pub/Sub channel, consumed by
// the odds-api websocket hub, and keeps a capped list of recent alerts.
type Broadcaster struct {
	r       *redis.Client
	channel string
}

func NewBroadcaster(r *redis.Client, channel string) *Broadcaster {
	return &Broadcaster{r: r, channel: channel}
}

// wsEnvelope matches the shape the odds-api websocket layer expects.
type wsEnvelope struct {
	Type    string          `json:"type"`
	EventID string          `json:"eventId"`
	Payload json.RawMessage `json:"payload"`
}

func (b *Broadcaster) Publish(ctx context.Context, a scan.Alert, sentAt time.Time) error {
	payload, err := json.Marshal(toEvent(a, sentAt))
	if err != nil {
		return err
	}
	envelope, err := json.Marshal(wsEnvelope{Type: "alert", EventID: a.ExternalGameID, Payload: payload})
	if err != nil {
		return err
	}
	if err := b.r.Publish(ctx, b.channel, envelope).Err(); err != nil {
		return err
	}
	pipe := b.r.Pipeline()
	pipe.LPush(ctx, RecentKey, payload)
	pipe.LTrim(ctx, RecentKey, 0, recentLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

func toEvent(a scan.Alert, sentAt time.Time) events.Alert {
	legs := make([]events.AlertLeg, 0, len(a.Legs))
	for _, l := range a.Legs {
		legs = append(legs, events.AlertLeg{
			Bookmaker:    l.Bookmaker,
			Outcome:      l.Outcome,
			Line:         l.Line,
			OddsAmerican: l.OddsAmerican,
			StakeWeight:  l.StakeWeight,
		})
	}
	return events.Alert{
		Fingerprint:    a.Fingerprint,
		Kind:           a.Kind,
		ExternalGameID: a.ExternalGameID,
		EventLabel:     a.EventLabel,
		Market:         a.Market,
		Line:           a.Line,
		Edge:           a.Edge,
		Legs:           legs,
		SentAt:         sentAt.UTC(),
	}
}
