package ledger

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Ledger for tests and local runs. It keeps the same
// atomic insert-if-absent contract as the Postgres implementation but does
// not survive restarts.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

func (m *Memory) Record(_ context.Context, fingerprint string, sentAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[fingerprint]; ok {
		return false, nil
	}
	m.entries[fingerprint] = sentAt
	return true, nil
}

// Len reports how many fingerprints have been recorded.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
