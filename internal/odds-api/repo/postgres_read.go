package repo

import (
	"context"
	"database/sql"

	"github.com/oddswatch/odds-arb-platform/internal/odds-api/dto"
)

// ReadRepo serves the API's read queries against the snapshot tables.
type ReadRepo struct {
	DB *sql.DB
}

func (r *ReadRepo) ListEvents(ctx context.Context) ([]dto.Event, error) {
	const q = `
		SELECT external_game_id, sport_key,
		       to_char(commence_time, 'YYYY-MM-DD"T"HH24:MI:SSZ'),
		       home_team, away_team
		FROM games
		ORDER BY commence_time, external_game_id;
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Event
	for rows.Next() {
		var e dto.Event
		if err := rows.Scan(&e.ExternalGameID, &e.SportKey, &e.CommenceTime, &e.HomeTeam, &e.AwayTeam); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ReadRepo) ListMarkets(ctx context.Context, externalGameID string) ([]dto.Market, error) {
	const q = `
		SELECT DISTINCT p.market, p.line
		FROM prices p
		JOIN games g ON g.id = p.game_id
		WHERE g.external_game_id = $1
		ORDER BY p.market, p.line;
	`
	rows, err := r.DB.QueryContext(ctx, q, externalGameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Market
	for rows.Next() {
		var m dto.Market
		var line sql.NullFloat64
		if err := rows.Scan(&m.Market, &line); err != nil {
			return nil, err
		}
		if line.Valid {
			l := line.Float64
			m.Line = &l
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetOddsByEvent returns every price from the event's most recent capture.
func (r *ReadRepo) GetOddsByEvent(ctx context.Context, externalGameID string) ([]dto.Odds, error) {
	const q = `
		SELECT p.bookmaker, p.market, p.outcome, p.line, p.odds_american, p.odds_decimal,
		       to_char(p.captured_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
		FROM prices p
		JOIN games g ON g.id = p.game_id
		WHERE g.external_game_id = $1
		  AND p.captured_at = (
			SELECT MAX(p2.captured_at) FROM prices p2 WHERE p2.game_id = p.game_id
		  )
		ORDER BY p.market, p.line, p.outcome, p.bookmaker;
	`
	rows, err := r.DB.QueryContext(ctx, q, externalGameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Odds
	for rows.Next() {
		var o dto.Odds
		var line, dec sql.NullFloat64
		if err := rows.Scan(&o.Bookmaker, &o.Market, &o.Outcome, &line, &o.OddsAmerican, &dec, &o.CapturedAt); err != nil {
			return nil, err
		}
		if line.Valid {
			l := line.Float64
			o.Line = &l
		}
		if dec.Valid {
			d := dec.Float64
			o.OddsDecimal = &d
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
