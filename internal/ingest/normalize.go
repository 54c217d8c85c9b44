package ingest

import (
	"time"

	"github.com/oddswatch/odds-arb-platform/pkg/contracts/events"
)

// Normalize flattens raw provider events into a QuoteBatch: one Quote per
// outcome per market per bookmaker per event, every row stamped with a
// single captured_at. Games are deduplicated by external id.
func Normalize(raw []RawEvent, sportKey, source string, capturedAt time.Time) events.QuoteBatch {
	batch := events.QuoteBatch{
		SportKey:   sportKey,
		CapturedAt: capturedAt.UTC(),
		Source:     source,
	}

	seen := make(map[string]struct{}, len(raw))
	for _, ev := range raw {
		if _, ok := seen[ev.ID]; !ok {
			seen[ev.ID] = struct{}{}
			batch.Games = append(batch.Games, events.Game{
				ExternalGameID: ev.ID,
				SportKey:       sportKey,
				CommenceTime:   ev.CommenceTime,
				HomeTeam:       ev.HomeTeam,
				AwayTeam:       ev.AwayTeam,
			})
		}

		for _, book := range ev.Bookmakers {
			for _, market := range book.Markets {
				for _, outcome := range market.Outcomes {
					batch.Quotes = append(batch.Quotes, events.Quote{
						ExternalGameID: ev.ID,
						Bookmaker:      book.Key,
						Market:         market.Key,
						Outcome:        outcome.Name,
						Line:           outcome.Point,
						OddsAmerican:   outcome.Price,
						CapturedAt:     batch.CapturedAt,
					})
				}
			}
		}
	}

	return batch
}
