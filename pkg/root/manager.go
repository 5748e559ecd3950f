// Package root aggregates launcher item providers into one searchable index.
//
// The Manager indexes every item facet (display name, its words, the user
// alias and provider keywords) into a single trie, so one query unifies
// matches found through any facet and reports each item once.
//
// Queries read an immutable snapshot through an atomic pointer. Rebuilds
// construct a brand new snapshot and swap it in, so readers never wait and a
// discarded rebuild leaves the published snapshot untouched.
package root

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/internal/utils"
	"github.com/bastiangx/rootsearch/pkg/trie"
	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"
)

// DefaultResultLimit caps PrefixSearch results.
const DefaultResultLimit = trie.DefaultLimit

type providerEntry struct {
	provider    RootProvider
	unsubscribe func()
}

// Manager owns the providers, the user metadata and the published snapshot.
type Manager struct {
	mu        sync.Mutex
	providers []providerEntry
	items     []RootItem
	metadata  map[string]ItemMetadata

	snap atomic.Pointer[snapshot]
	gen  atomic.Uint64

	store         MetadataStore
	limit         int
	fuzzyFallback bool
	now           func() time.Time
	log           *log.Logger

	poolOnce sync.Once
	pool     *ants.Pool
	poolErr  error
	ownsPool bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetadataStore sets where aliases and open counts are persisted.
func WithMetadataStore(store MetadataStore) Option {
	return func(m *Manager) { m.store = store }
}

// WithResultLimit caps the number of results returned by searches.
func WithResultLimit(limit int) Option {
	return func(m *Manager) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

// WithFuzzyFallback enables typo tolerant matching in Search when the prefix
// search finds nothing.
func WithFuzzyFallback(enabled bool) Option {
	return func(m *Manager) { m.fuzzyFallback = enabled }
}

// WithPool runs asynchronous rebuilds on pool instead of a private
// single-worker pool. The caller keeps ownership of pool.
func WithPool(pool *ants.Pool) Option {
	return func(m *Manager) {
		m.pool = pool
		m.poolOnce.Do(func() {})
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager with an empty published snapshot.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		metadata: make(map[string]ItemMetadata),
		limit:    DefaultResultLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewMemoryMetadataStore()
	}
	if m.log == nil {
		m.log = logger.New("root")
	}
	m.snap.Store(buildSnapshot(context.Background(), nil, m.metadata))
	return m
}

// LoadMetadata hydrates user metadata from the store. On failure the error
// is logged and the in-memory metadata is left as is.
func (m *Manager) LoadMetadata(ctx context.Context) error {
	rows, err := m.store.LoadAll(ctx)
	if err != nil {
		m.log.Errorf("Failed to load item metadata: %v", err)
		return fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	m.mu.Lock()
	m.metadata = rows
	if m.metadata == nil {
		m.metadata = make(map[string]ItemMetadata)
	}
	m.mu.Unlock()

	m.log.Debugf("Loaded metadata for %d items", len(rows))
	m.RebuildTrie()
	return nil
}

// AddProvider registers provider and reloads whenever it reports a change.
// It does not load the provider's items; call ReloadProviders for that.
func (m *Manager) AddProvider(provider RootProvider) {
	unsubscribe := provider.OnChange(func() {
		m.log.Debugf("Provider %q changed, reloading", provider.DisplayName())
		m.ReloadProviders()
	})

	m.mu.Lock()
	m.providers = append(m.providers, providerEntry{provider: provider, unsubscribe: unsubscribe})
	m.mu.Unlock()
}

// Providers returns the registered providers in registration order.
func (m *Manager) Providers() []RootProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RootProvider, len(m.providers))
	for i, p := range m.providers {
		out[i] = p.provider
	}
	return out
}

// loadItems concatenates the items of every provider. Providers are called
// without holding the lock so they may notify from inside LoadItems.
func (m *Manager) loadItems() []RootItem {
	providers := m.Providers()

	var items []RootItem
	for _, p := range providers {
		loaded := p.LoadItems()
		m.log.Debugf("Provider %q supplied %d items", p.DisplayName(), len(loaded))
		for _, item := range loaded {
			if item != nil {
				items = append(items, item)
			}
		}
	}
	return items
}

// ReloadProviders reloads every provider's items and rebuilds the index.
func (m *Manager) ReloadProviders() {
	m.rebuild(m.loadItems(), true)
}

// RebuildTrie indexes the current item list into a fresh trie and publishes it.
func (m *Manager) RebuildTrie() {
	m.rebuild(nil, false)
}

// rebuild indexes items, or the current item list unless replace is set.
// The list swap and the generation bump share one critical section so a
// background build cannot publish an older list in between.
func (m *Manager) rebuild(items []RootItem, replace bool) {
	start := m.now()

	m.mu.Lock()
	if replace {
		m.items = items
	}
	gen := m.gen.Add(1)
	items = m.items
	meta := maps.Clone(m.metadata)
	m.mu.Unlock()

	snap := buildSnapshot(context.Background(), items, meta)
	if !m.install(gen, snap, false) {
		m.log.Debugf("Discarded index build of %d items, superseded by a newer build", len(items))
		return
	}

	m.log.Debugf("Rebuilt index: %d items, %d nodes in %v", len(items), snap.trie.Size(), m.now().Sub(start))
}

// ReloadAsync reloads the providers and builds the new index on a background
// worker. The returned channel receives nil once the new snapshot is
// published, or an error if the build was cancelled or superseded. Until
// then the previous snapshot keeps serving queries.
//
// A background build claims a generation only when it publishes, so a
// cancelled one never voids a synchronous rebuild running alongside it.
func (m *Manager) ReloadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	pool, err := m.workerPool()
	if err != nil {
		done <- err
		return done
	}

	type result struct {
		gen  uint64
		snap *snapshot
	}
	built := make(chan result, 1)

	err = pool.Submit(func() {
		gen := m.gen.Load()
		items := m.loadItems()
		m.mu.Lock()
		meta := maps.Clone(m.metadata)
		m.mu.Unlock()

		snap := buildSnapshot(ctx, items, meta)
		if snap != nil {
			snap.pendingItems = items
		}
		built <- result{gen: gen, snap: snap}
	})
	if err != nil {
		done <- fmt.Errorf("submitting rebuild: %w", err)
		return done
	}

	go func() {
		select {
		case <-ctx.Done():
			done <- fmt.Errorf("%w: %w", ErrRebuildCancelled, ctx.Err())
		case res := <-built:
			snap := res.snap
			if snap == nil {
				done <- fmt.Errorf("%w: %w", ErrRebuildCancelled, ctx.Err())
				return
			}
			if !m.install(res.gen, snap, true) {
				done <- fmt.Errorf("%w: superseded by a newer rebuild", ErrRebuildCancelled)
				return
			}
			m.log.Debugf("Published background rebuild with %d items", len(snap.items))
			done <- nil
		}
	}()
	return done
}

// install publishes snap if no other rebuild started after gen. A
// background build passes the generation it observed when it began and
// claims the next one on success.
func (m *Manager) install(gen uint64, snap *snapshot, background bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen.Load() != gen {
		return false
	}
	if background {
		m.gen.Add(1)
		m.items = snap.pendingItems
	}
	snap.pendingItems = nil
	// opens recorded while the build ran must not be lost
	m.snap.Store(snap.withMetadata(maps.Clone(m.metadata)))
	return true
}

func (m *Manager) workerPool() (*ants.Pool, error) {
	m.poolOnce.Do(func() {
		m.pool, m.poolErr = ants.NewPool(1)
		m.ownsPool = m.poolErr == nil
	})
	return m.pool, m.poolErr
}

// PrefixSearch returns the items with a facet starting with query, case
// insensitively, most opened first. Ties keep trie order.
func (m *Manager) PrefixSearch(query string) []RootItem {
	snap := m.snap.Load()
	results := snap.trie.PrefixSearch(query, m.limit)
	snap.sortByOpenCount(results)
	return results
}

// Search is PrefixSearch with a fuzzy fallback over display names when no
// prefix matches and the fallback is enabled. Repetitive queries such as
// "aaaa" skip the fallback.
func (m *Manager) Search(query string) []RootItem {
	results := m.PrefixSearch(query)
	if len(results) > 0 || !m.fuzzyFallback || utils.IsRepetitive(strings.ToLower(query)) {
		return results
	}

	snap := m.snap.Load()
	matches := snap.fuzzy.Find(query, m.limit)
	for _, match := range matches {
		results = append(results, snap.items[match.Index])
	}
	return results
}

// FallbackItems returns items meant to be offered when nothing matches,
// such as web search commands.
func (m *Manager) FallbackItems() []RootItem {
	snap := m.snap.Load()
	var out []RootItem
	for _, item := range snap.items {
		if item.IsSuitableForFallback() {
			out = append(out, item)
		}
	}
	return out
}

// Items returns the item list of the published snapshot.
func (m *Manager) Items() []RootItem {
	return slices.Clone(m.snap.Load().items)
}

// FindByID returns the item with the given unique id.
func (m *Manager) FindByID(id string) (RootItem, bool) {
	item, ok := m.snap.Load().byID[id]
	return item, ok
}

// Metadata returns the user metadata of id, zero valued if none was recorded.
func (m *Manager) Metadata(id string) ItemMetadata {
	return m.snap.Load().metadata[id]
}

// SetAlias stores alias for id and reindexes so the alias is searchable.
// A store failure is logged and returned wrapped in ErrMetadata; the alias
// still applies in memory.
func (m *Manager) SetAlias(ctx context.Context, id, alias string) error {
	if _, ok := m.FindByID(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	m.mu.Lock()
	md := m.metadata[id]
	md.Alias = alias
	m.metadata[id] = md
	m.mu.Unlock()

	storeErr := m.store.SetAlias(ctx, id, alias)
	if storeErr != nil {
		m.log.Errorf("Failed to persist alias for %s: %v", id, storeErr)
	}

	m.RebuildTrie()

	if storeErr != nil {
		return fmt.Errorf("%w: %w", ErrMetadata, storeErr)
	}
	return nil
}

// SetFavorite marks or unmarks id as a favorite.
func (m *Manager) SetFavorite(ctx context.Context, id string, favorite bool) error {
	if _, ok := m.FindByID(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	m.updateMetadata(id, func(md *ItemMetadata) { md.Favorite = favorite })

	if err := m.store.SetFavorite(ctx, id, favorite); err != nil {
		m.log.Errorf("Failed to persist favorite for %s: %v", id, err)
		return fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	return nil
}

// RecordOpen counts one activation of id. The new count affects ordering
// immediately without reindexing.
func (m *Manager) RecordOpen(ctx context.Context, id string) (ItemMetadata, error) {
	if _, ok := m.FindByID(id); !ok {
		return ItemMetadata{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	at := m.now()
	md := m.updateMetadata(id, func(md *ItemMetadata) {
		md.OpenCount++
		md.LastOpenedAt = at
	})

	stored, err := m.store.IncrementOpenCount(ctx, id, at)
	if err != nil {
		m.log.Errorf("Failed to persist open count for %s: %v", id, err)
		return md, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	if stored.OpenCount != md.OpenCount {
		m.log.Debugf("Open count for %s drifted: memory=%d store=%d", id, md.OpenCount, stored.OpenCount)
	}
	return md, nil
}

// updateMetadata applies fn to the metadata of id and republishes the
// current snapshot with a copy of the new metadata.
func (m *Manager) updateMetadata(id string, fn func(*ItemMetadata)) ItemMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()

	md := m.metadata[id]
	fn(&md)
	m.metadata[id] = md

	m.snap.Store(m.snap.Load().withMetadata(maps.Clone(m.metadata)))
	return md
}

// Stats reports index counters for diagnostics.
func (m *Manager) Stats() map[string]int {
	snap := m.snap.Load()
	m.mu.Lock()
	providers := len(m.providers)
	m.mu.Unlock()

	return map[string]int{
		"providers": providers,
		"items":     len(snap.items),
		"nodes":     snap.trie.Size(),
		"aliases":   snap.aliasCount(),
	}
}

// Close unsubscribes from every provider, releases the rebuild pool if the
// Manager created it, and closes the metadata store.
func (m *Manager) Close() error {
	m.mu.Lock()
	for _, p := range m.providers {
		if p.unsubscribe != nil {
			p.unsubscribe()
		}
	}
	m.providers = nil
	m.mu.Unlock()

	if m.ownsPool && m.pool != nil {
		m.pool.Release()
	}
	return m.store.Close()
}
