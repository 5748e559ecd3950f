// Package ranking tracks how often and how recently items were visited and
// turns that history into a frecency score.
//
// Records are keyed by item type and id. The service keeps every record it
// has seen in a patricia trie keyed "type:id", which makes listing all the
// records of one type a subtree walk. Persistence is delegated to a Store.
package ranking

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

const (
	recencyWeight = 2.0
	recencyDecay  = 0.1
	frequencyCap  = 100.0
)

// Record is the visit history of one item.
type Record struct {
	ItemType      string     `msgpack:"t"`
	ItemID        string     `msgpack:"i"`
	VisitedCount  int        `msgpack:"c"`
	LastVisitedAt *time.Time `msgpack:"v,omitempty"`
}

// StoredRecord is a row returned by Store.LoadAll.
type StoredRecord struct {
	ItemID        string
	VisitedCount  int
	LastVisitedAt time.Time
}

// Store persists visit counts.
type Store interface {
	// UpsertIncrement creates the record of (itemType, id) with a count of 1
	// or bumps the existing count, stamping the visit time. It returns the
	// stored count and time.
	UpsertIncrement(ctx context.Context, itemType, id string) (int, time.Time, error)
	LoadAll(ctx context.Context, itemType string) ([]StoredRecord, error)
	Close() error
}

// Service is the frecency ranking service. It is safe for concurrent use.
type Service struct {
	mu    sync.RWMutex
	cache *patricia.Trie

	store Store
	now   func() time.Time
	log   *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now when scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger replaces the component logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a ranking service persisting through store. A nil store
// keeps records in memory only.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		cache: patricia.NewTrie(),
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewMemoryStore(s.now)
	}
	if s.log == nil {
		s.log = logger.New("ranking")
	}
	return s
}

func cacheKey(itemType, id string) patricia.Prefix {
	return patricia.Prefix(itemType + ":" + id)
}

func validKey(itemType, id string) bool {
	return itemType != "" && id != "" && !strings.Contains(itemType, ":")
}

// RegisterVisit records one visit of (itemType, id) and returns the updated
// record. When the store fails the visit still counts in memory; the record
// is returned together with an error wrapping ErrPersistence.
func (s *Service) RegisterVisit(ctx context.Context, itemType, id string) (Record, error) {
	if !validKey(itemType, id) {
		return Record{}, fmt.Errorf("%w: %q %q", ErrInvalidKey, itemType, id)
	}

	count, at, storeErr := s.store.UpsertIncrement(ctx, itemType, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookup(itemType, id)
	if storeErr != nil {
		s.log.Errorf("Failed to persist visit of %s:%s: %v", itemType, id, storeErr)
		rec.VisitedCount++
		t := s.now()
		rec.LastVisitedAt = &t
		s.cache.Set(cacheKey(itemType, id), rec)
		return rec, fmt.Errorf("%w: %w", ErrPersistence, storeErr)
	}

	// an overlapping visit may already have cached a newer store result
	rec.VisitedCount = max(count, rec.VisitedCount)
	if rec.LastVisitedAt == nil || at.After(*rec.LastVisitedAt) {
		rec.LastVisitedAt = &at
	}
	s.cache.Set(cacheKey(itemType, id), rec)
	s.log.Debugf("Visit %s:%s count=%d", itemType, id, rec.VisitedCount)
	return rec, nil
}

// lookup returns the cached record or a fresh zero-count one. s.mu must be held.
func (s *Service) lookup(itemType, id string) Record {
	if v := s.cache.Get(cacheKey(itemType, id)); v != nil {
		return v.(Record)
	}
	return Record{ItemType: itemType, ItemID: id}
}

// ComputeFrecency scores rec at time now:
//
//	2*exp(-0.1*secondsSinceLastVisit) + min(1, visitedCount/100)
//
// A record never visited has no recency component.
func ComputeFrecency(rec Record, now time.Time) float64 {
	var recency float64
	if rec.LastVisitedAt != nil {
		since := max(now.Sub(*rec.LastVisitedAt).Seconds(), 0)
		recency = math.Exp(-recencyDecay * since)
	}
	frequency := math.Min(1, float64(rec.VisitedCount)/frequencyCap)
	return recencyWeight*recency + frequency
}

// Frecency scores rec against the service clock.
func (s *Service) Frecency(rec Record) float64 {
	return ComputeFrecency(rec, s.now())
}

// LoadRecords hydrates the cache with every stored record of itemType.
// On failure the error is logged and the cache is left untouched.
func (s *Service) LoadRecords(ctx context.Context, itemType string) error {
	rows, err := s.store.LoadAll(ctx, itemType)
	if err != nil {
		s.log.Errorf("Failed to load %s frecency records: %v", itemType, err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		at := row.LastVisitedAt
		rec := Record{ItemType: itemType, ItemID: row.ItemID, VisitedCount: row.VisitedCount}
		if !at.IsZero() {
			rec.LastVisitedAt = &at
		}
		s.cache.Set(cacheKey(itemType, row.ItemID), rec)
	}
	s.log.Debugf("Loaded %d %s frecency records", len(rows), itemType)
	return nil
}

// Record returns the record of (itemType, id). Unknown items get a zero
// count and no visit time.
func (s *Service) Record(itemType, id string) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(itemType, id)
}

// Score is the current frecency of (itemType, id), zero for unknown items.
func (s *Service) Score(itemType, id string) float64 {
	return s.Frecency(s.Record(itemType, id))
}

// Records returns every cached record of itemType keyed by item id.
func (s *Service) Records(itemType string) map[string]Record {
	out := make(map[string]Record)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_ = s.cache.VisitSubtree(patricia.Prefix(itemType+":"), func(_ patricia.Prefix, item patricia.Item) error {
		rec := item.(Record)
		out[rec.ItemID] = rec
		return nil
	})
	return out
}

// Close closes the store.
func (s *Service) Close() error {
	return s.store.Close()
}
