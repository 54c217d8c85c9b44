package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryRecordOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	inserted, err := m.Record(ctx, "abc123", now)
	if err != nil || !inserted {
		t.Fatalf("first Record = %v, %v; want true, nil", inserted, err)
	}

	inserted, err = m.Record(ctx, "abc123", now.Add(time.Minute))
	if err != nil || inserted {
		t.Fatalf("second Record = %v, %v; want false, nil", inserted, err)
	}
}

func TestMemoryRecordConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := m.Record(ctx, "same-fingerprint", time.Now())
			if err != nil {
				t.Errorf("Record: %v", err)
				return
			}
			if inserted {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("%d racers won the insert, want exactly 1", count)
	}
}

// flaky fails with contention a fixed number of times before succeeding.
type flaky struct {
	failures int
	inner    *Memory
	calls    int
}

func (f *flaky) Record(ctx context.Context, fp string, sentAt time.Time) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, fmt.Errorf("%w: simulated", ErrContention)
	}
	return f.inner.Record(ctx, fp, sentAt)
}

func TestRecordWithRetryRecoversFromContention(t *testing.T) {
	f := &flaky{failures: 2, inner: NewMemory()}

	inserted, err := RecordWithRetry(context.Background(), f, "fp1", time.Now())
	if err != nil {
		t.Fatalf("RecordWithRetry: %v", err)
	}
	if !inserted {
		t.Fatal("RecordWithRetry = false, want true after retries")
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestRecordWithRetryExhausted(t *testing.T) {
	f := &flaky{failures: 100, inner: NewMemory()}

	_, err := RecordWithRetry(context.Background(), f, "fp1", time.Now())
	if !errors.Is(err, ErrContention) {
		t.Fatalf("err = %v, want ErrContention after exhausting retries", err)
	}
	if f.calls != maxAttempts {
		t.Errorf("calls = %d, want %d", f.calls, maxAttempts)
	}
}

// down always reports the store as unreachable.
type down struct{}

func (down) Record(context.Context, string, time.Time) (bool, error) {
	return false, fmt.Errorf("%w: connection refused", ErrUnavailable)
}

func TestRecordWithRetryDoesNotRetryUnavailable(t *testing.T) {
	start := time.Now()
	_, err := RecordWithRetry(context.Background(), down{}, "fp1", time.Now())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if time.Since(start) > baseBackoff {
		t.Error("unavailable store should fail fast, not back off")
	}
}
