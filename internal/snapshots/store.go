// Package snapshots persists price snapshots: one immutable row per
// bookmaker/market/outcome per capture, linked to an upserted game.
package snapshots

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oddswatch/odds-arb-platform/internal/pricing"
	"github.com/oddswatch/odds-arb-platform/pkg/contracts/events"
)

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// EnsureSchema creates the snapshot tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS games (
			id               BIGSERIAL PRIMARY KEY,
			external_game_id TEXT NOT NULL UNIQUE,
			sport_key        TEXT NOT NULL,
			commence_time    TIMESTAMPTZ NOT NULL,
			home_team        TEXT NOT NULL,
			away_team        TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS prices (
			id            BIGSERIAL PRIMARY KEY,
			game_id       BIGINT NOT NULL REFERENCES games(id),
			captured_at   TIMESTAMPTZ NOT NULL,
			bookmaker     TEXT NOT NULL,
			market        TEXT NOT NULL,
			outcome       TEXT NOT NULL,
			line          DOUBLE PRECISION,
			odds_american INTEGER NOT NULL,
			odds_decimal  DOUBLE PRECISION,
			CONSTRAINT uq_prices_snapshot
				UNIQUE (game_id, captured_at, bookmaker, market, outcome, line)
		);

		CREATE INDEX IF NOT EXISTS idx_prices_game_captured
			ON prices (game_id, captured_at DESC);
	`
	_, err := s.DB.ExecContext(ctx, q)
	return err
}

const upsertGame = `
	INSERT INTO games (external_game_id, sport_key, commence_time, home_team, away_team)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (external_game_id) DO UPDATE SET
		commence_time = EXCLUDED.commence_time,
		home_team     = EXCLUDED.home_team,
		away_team     = EXCLUDED.away_team
	RETURNING id
`

const insertPrice = `
	INSERT INTO prices (game_id, captured_at, bookmaker, market, outcome,
	                    line, odds_american, odds_decimal)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT ON CONSTRAINT uq_prices_snapshot DO NOTHING
`

// SaveBatch upserts games then inserts price rows in one transaction.
// Quotes pointing at a game missing from the batch are dropped; quotes whose
// price cannot be encoded as decimal odds store a NULL decimal column.
func (s *Store) SaveBatch(ctx context.Context, batch events.QuoteBatch) (games, prices int, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	idMap := make(map[string]int64, len(batch.Games))
	for _, g := range batch.Games {
		var id int64
		if err = tx.QueryRowContext(ctx, upsertGame,
			g.ExternalGameID, g.SportKey, g.CommenceTime, g.HomeTeam, g.AwayTeam,
		).Scan(&id); err != nil {
			return 0, 0, fmt.Errorf("upsert game %s: %w", g.ExternalGameID, err)
		}
		idMap[g.ExternalGameID] = id
	}

	for _, q := range batch.Quotes {
		gameID, ok := idMap[q.ExternalGameID]
		if !ok {
			continue
		}

		var dec sql.NullFloat64
		if d, convErr := pricing.AmericanToDecimal(q.OddsAmerican); convErr == nil {
			dec = sql.NullFloat64{Float64: d, Valid: true}
		}

		var line sql.NullFloat64
		if q.Line != nil {
			line = sql.NullFloat64{Float64: *q.Line, Valid: true}
		}

		res, execErr := tx.ExecContext(ctx, insertPrice,
			gameID, q.CapturedAt, q.Bookmaker, q.Market, q.Outcome,
			line, q.OddsAmerican, dec,
		)
		if execErr != nil {
			err = fmt.Errorf("insert price %s/%s/%s: %w", q.ExternalGameID, q.Bookmaker, q.Outcome, execErr)
			return 0, 0, err
		}
		if n, _ := res.RowsAffected(); n == 1 {
			prices++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return len(idMap), prices, nil
}

// LatestRow is one price from the most recent capture of its game.
type LatestRow struct {
	ExternalGameID string
	HomeTeam       string
	AwayTeam       string
	Bookmaker      string
	Market         string
	Outcome        string
	Line           *float64
	OddsAmerican   int
	CapturedAt     time.Time
}

// LatestPrices returns every price row belonging to the most recent capture
// of each game. This is the snapshot the scan pass runs over.
func (s *Store) LatestPrices(ctx context.Context) ([]LatestRow, error) {
	const q = `
		SELECT g.external_game_id, g.home_team, g.away_team,
		       p.bookmaker, p.market, p.outcome, p.line, p.odds_american, p.captured_at
		FROM prices p
		JOIN games g ON g.id = p.game_id
		WHERE p.captured_at = (
			SELECT MAX(p2.captured_at) FROM prices p2 WHERE p2.game_id = p.game_id
		)
		ORDER BY g.external_game_id, p.market, p.outcome, p.bookmaker
	`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LatestRow
	for rows.Next() {
		var r LatestRow
		var line sql.NullFloat64
		if err := rows.Scan(&r.ExternalGameID, &r.HomeTeam, &r.AwayTeam,
			&r.Bookmaker, &r.Market, &r.Outcome, &line, &r.OddsAmerican, &r.CapturedAt); err != nil {
			return nil, err
		}
		if line.Valid {
			l := line.Float64
			r.Line = &l
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
