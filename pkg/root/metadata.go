package root

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MetadataStore persists ItemMetadata keyed by item unique id.
type MetadataStore interface {
	LoadAll(ctx context.Context) (map[string]ItemMetadata, error)
	SetAlias(ctx context.Context, id, alias string) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	// IncrementOpenCount bumps the open count of id, stamps at as the last
	// open time and returns the stored row.
	IncrementOpenCount(ctx context.Context, id string, at time.Time) (ItemMetadata, error)
	Close() error
}

// MemoryMetadataStore keeps metadata in a map. It is the default store and
// what tests use.
type MemoryMetadataStore struct {
	mu   sync.Mutex
	rows map[string]ItemMetadata
}

var _ MetadataStore = (*MemoryMetadataStore)(nil)

// NewMemoryMetadataStore creates an empty in-memory store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{rows: make(map[string]ItemMetadata)}
}

func (s *MemoryMetadataStore) LoadAll(context.Context) (map[string]ItemMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.rows), nil
}

func (s *MemoryMetadataStore) SetAlias(_ context.Context, id, alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	md := s.rows[id]
	md.Alias = alias
	s.rows[id] = md
	return nil
}

func (s *MemoryMetadataStore) SetFavorite(_ context.Context, id string, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	md := s.rows[id]
	md.Favorite = favorite
	s.rows[id] = md
	return nil
}

func (s *MemoryMetadataStore) IncrementOpenCount(_ context.Context, id string, at time.Time) (ItemMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md := s.rows[id]
	md.OpenCount++
	md.LastOpenedAt = at
	s.rows[id] = md
	return md, nil
}

// Close is a no-op.
func (s *MemoryMetadataStore) Close() error {
	return nil
}
