package ranking

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryRow struct {
	count int
	at    time.Time
}

// MemoryStore is a Store that forgets everything on exit.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]memoryRow
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store stamping visits with now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{rows: make(map[string]memoryRow), now: now}
}

func (m *MemoryStore) UpsertIncrement(_ context.Context, itemType, id string) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemType + ":" + id
	row := m.rows[key]
	row.count++
	row.at = m.now()
	m.rows[key] = row
	return row.count, row.at, nil
}

func (m *MemoryStore) LoadAll(_ context.Context, itemType string) ([]StoredRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := itemType + ":"
	var out []StoredRecord
	for key, row := range m.rows {
		if id, ok := strings.CutPrefix(key, prefix); ok {
			out = append(out, StoredRecord{ItemID: id, VisitedCount: row.count, LastVisitedAt: row.at})
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
