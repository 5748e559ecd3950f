package ranking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

type brokenStore struct{ err error }

func (b *brokenStore) UpsertIncrement(context.Context, string, string) (int, time.Time, error) {
	return 0, time.Time{}, b.err
}
func (b *brokenStore) LoadAll(context.Context, string) ([]StoredRecord, error) { return nil, b.err }
func (b *brokenStore) Close() error { return nil }

func newService(t *testing.T, store Store, clock *fakeClock) *Service {
	t.Helper()
	if store == nil {
		store = NewMemoryStore(clock.now)
	}
	return NewService(store, WithClock(clock.now), WithLogger(logger.Discard()))
}

func TestRegisterVisitTwice(t *testing.T) {
	clock := newClock()
	s := newService(t, nil, clock)
	ctx := context.Background()

	rec, err := s.RegisterVisit(ctx, "app", "safari")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.VisitedCount)

	clock.advance(time.Minute)
	rec, err = s.RegisterVisit(ctx, "app", "safari")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.VisitedCount)
	require.NotNil(t, rec.LastVisitedAt)
	assert.Equal(t, clock.t, *rec.LastVisitedAt)

	assert.Equal(t, 2, s.Record("app", "safari").VisitedCount)
}

func TestRegisterVisitRejectsBadKeys(t *testing.T) {
	s := newService(t, nil, newClock())
	for _, tc := range []struct{ typ, id string }{
		{"", "x"},
		{"app", ""},
		{"a:b", "x"},
	} {
		_, err := s.RegisterVisit(context.Background(), tc.typ, tc.id)
		assert.ErrorIs(t, err, ErrInvalidKey, "%q %q", tc.typ, tc.id)
	}
}

func TestComputeFrecency(t *testing.T) {
	now := newClock().t
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	tests := []struct {
		name string
		rec  Record
		want float64
	}{
		{"never visited", Record{}, 0},
		{"count only", Record{VisitedCount: 50}, 0.5},
		{"count capped", Record{VisitedCount: 500}, 1},
		{"just now", Record{VisitedCount: 1, LastVisitedAt: at(0)}, 2.01},
		{"future visit clamps", Record{VisitedCount: 1, LastVisitedAt: at(-time.Hour)}, 2.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeFrecency(tt.rec, now), 1e-9)
		})
	}
}

func TestFrecencyDecreasesWithTime(t *testing.T) {
	clock := newClock()
	visited := clock.t
	rec := Record{VisitedCount: 3, LastVisitedAt: &visited}

	prev := ComputeFrecency(rec, clock.t)
	for range 10 {
		clock.advance(2 * time.Second)
		cur := ComputeFrecency(rec, clock.t)
		assert.Less(t, cur, prev)
		prev = cur
	}
}

func TestFrecencyGrowsWithCountUntilCap(t *testing.T) {
	now := newClock().t
	prev := -1.0
	for count := 0; count <= 150; count += 10 {
		cur := ComputeFrecency(Record{VisitedCount: count}, now)
		assert.GreaterOrEqual(t, cur, prev)
		assert.LessOrEqual(t, cur, 1.0)
		prev = cur
	}
}

func TestScoreOfUnknownItem(t *testing.T) {
	s := newService(t, nil, newClock())
	assert.Zero(t, s.Score("app", "missing"))
	rec := s.Record("app", "missing")
	assert.Zero(t, rec.VisitedCount)
	assert.Nil(t, rec.LastVisitedAt)
}

func TestStoreFailureKeepsMemoryState(t *testing.T) {
	clock := newClock()
	s := newService(t, &brokenStore{err: errors.New("read-only filesystem")}, clock)
	ctx := context.Background()

	rec, err := s.RegisterVisit(ctx, "emoji", "smile")
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, rec.VisitedCount)

	rec, err = s.RegisterVisit(ctx, "emoji", "smile")
	require.Error(t, err)
	assert.Equal(t, 2, rec.VisitedCount)
	assert.Equal(t, 2, s.Record("emoji", "smile").VisitedCount)
	assert.InDelta(t, 2.02, s.Score("emoji", "smile"), 1e-9)

	assert.ErrorIs(t, s.LoadRecords(ctx, "emoji"), ErrPersistence)
	assert.Equal(t, 2, s.Record("emoji", "smile").VisitedCount)
}

func TestLoadRecordsAndRecordsByType(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(clock.now)
	ctx := context.Background()
	for _, key := range [][2]string{{"app", "mail"}, {"app", "mail"}, {"app", "maps"}, {"font", "mono"}} {
		_, _, err := store.UpsertIncrement(ctx, key[0], key[1])
		require.NoError(t, err)
	}

	s := newService(t, store, clock)
	assert.Empty(t, s.Records("app"))

	require.NoError(t, s.LoadRecords(ctx, "app"))
	apps := s.Records("app")
	require.Len(t, apps, 2)
	assert.Equal(t, 2, apps["mail"].VisitedCount)
	assert.Equal(t, 1, apps["maps"].VisitedCount)
	assert.Empty(t, s.Records("font"), "other types are loaded separately")

	require.NoError(t, s.LoadRecords(ctx, "font"))
	assert.Len(t, s.Records("font"), 1)
	assert.Len(t, s.Records("app"), 2)
}

func TestRecordsDoesNotLeakAcrossTypePrefixes(t *testing.T) {
	s := newService(t, nil, newClock())
	ctx := context.Background()
	_, err := s.RegisterVisit(ctx, "app", "a")
	require.NoError(t, err)
	_, err = s.RegisterVisit(ctx, "apple", "b")
	require.NoError(t, err)

	assert.Len(t, s.Records("app"), 1)
	assert.Len(t, s.Records("apple"), 1)
}

// gatedStore holds the first UpsertIncrement result until release is closed.
type gatedStore struct {
	*MemoryStore
	once        sync.Once
	incremented chan struct{}
	release     chan struct{}
}

func (g *gatedStore) UpsertIncrement(ctx context.Context, itemType, id string) (int, time.Time, error) {
	count, at, err := g.MemoryStore.UpsertIncrement(ctx, itemType, id)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.incremented)
		<-g.release
	}
	return count, at, err
}

func TestOverlappingVisitsCountOnce(t *testing.T) {
	clock := newClock()
	store := &gatedStore{
		MemoryStore: NewMemoryStore(clock.now),
		incremented: make(chan struct{}),
		release:     make(chan struct{}),
	}
	s := newService(t, store, clock)
	ctx := context.Background()

	slow := make(chan Record, 1)
	go func() {
		rec, err := s.RegisterVisit(ctx, "app", "notes")
		assert.NoError(t, err)
		slow <- rec
	}()
	<-store.incremented

	rec, err := s.RegisterVisit(ctx, "app", "notes")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.VisitedCount)

	close(store.release)
	<-slow

	stored, err := store.LoadAll(ctx, "app")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].VisitedCount)
	assert.Equal(t, 2, s.Record("app", "notes").VisitedCount)
}
