// Package ledger is the dedup store for alerted opportunity fingerprints.
// Entries are append-only: a fingerprint is recorded at most once, and the
// record must exist before the corresponding alert is sent.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrContention marks a transient store failure worth retrying
	// (serialization failure, deadlock, lock timeout).
	ErrContention = errors.New("ledger contention")

	// ErrUnavailable marks an unreachable store. Fatal for the current
	// scan pass: no alerts may be sent without a durable record.
	ErrUnavailable = errors.New("ledger unavailable")
)

// Ledger records fingerprints with insert-if-absent semantics.
type Ledger interface {
	// Record durably stores the fingerprint if no prior entry exists.
	// Returns true only for the call that actually inserted it, so two
	// concurrent passes racing on the same fingerprint get exactly one true.
	Record(ctx context.Context, fingerprint string, sentAt time.Time) (bool, error)
}

const (
	maxAttempts = 3
	baseBackoff = 100 * time.Millisecond
)

// RecordWithRetry wraps Record with a bounded exponential backoff on
// transient contention. Any other failure is surfaced immediately.
func RecordWithRetry(ctx context.Context, l Ledger, fingerprint string, sentAt time.Time) (bool, error) {
	backoff := baseBackoff
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		inserted, err := l.Record(ctx, fingerprint, sentAt)
		if err == nil {
			return inserted, nil
		}
		if !errors.Is(err, ErrContention) {
			return false, err
		}
		lastErr = err
	}

	return false, fmt.Errorf("%w: %d attempts exhausted: %v", ErrContention, maxAttempts, lastErr)
}
