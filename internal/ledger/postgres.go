package ledger

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"
)

// Postgres implements Ledger on top of an alert_ledger table.
// The insert is a single atomic statement; there is no check-then-insert
// window for concurrent passes to slip through.
type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// EnsureSchema creates the ledger table when missing. Called once at startup.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS alert_ledger (
			fingerprint   TEXT PRIMARY KEY,
			first_sent_at TIMESTAMPTZ NOT NULL
		)
	`
	_, err := p.DB.ExecContext(ctx, q)
	return err
}

// Record inserts the fingerprint, reporting already-present via RowsAffected.
func (p *Postgres) Record(ctx context.Context, fingerprint string, sentAt time.Time) (bool, error) {
	const q = `
		INSERT INTO alert_ledger (fingerprint, first_sent_at)
		VALUES ($1, $2)
		ON CONFLICT (fingerprint) DO NOTHING
	`
	res, err := p.DB.ExecContext(ctx, q, fingerprint, sentAt)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n == 1, nil
}

// classify maps driver errors onto the ledger taxonomy.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03": // serialization, deadlock, lock timeout
			return fmt.Errorf("%w: %v", ErrContention, err)
		}
		switch pqErr.Code.Class() {
		case "08", "53", "57": // connection, resources, operator intervention
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return err
}
