// Package providers holds concrete root item sources: an in-memory list and
// a TOML catalog file.
package providers

import (
	"sync"

	"github.com/bastiangx/rootsearch/pkg/root"
)

// Item is a plain value implementation of root.RootItem.
type Item struct {
	ID       string          `toml:"id"`
	Name     string          `toml:"name"`
	Sub      string          `toml:"subtitle"`
	Words    []string        `toml:"keywords"`
	Args     []root.Argument `toml:"arguments"`
	Acts     []root.Action   `toml:"actions"`
	Fallback bool            `toml:"fallback"`
}

var _ root.RootItem = (*Item)(nil)

func (i *Item) UniqueID() string { return i.ID }
func (i *Item) DisplayName() string { return i.Name }
func (i *Item) Keywords() []string { return i.Words }
func (i *Item) Subtitle() string { return i.Sub }
func (i *Item) Arguments() []root.Argument { return i.Args }
func (i *Item) Actions() []root.Action { return i.Acts }
func (i *Item) IsSuitableForFallback() bool { return i.Fallback }

// notifier fans change notifications out to subscribers.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// notify calls subscribers outside the lock so they may call back in.
func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Static serves a fixed item list that can be replaced at runtime.
type Static struct {
	name string

	mu    sync.RWMutex
	items []root.RootItem

	changes notifier
}

var _ root.RootProvider = (*Static)(nil)

// NewStatic creates a provider serving items.
func NewStatic(name string, items ...root.RootItem) *Static {
	return &Static{name: name, items: items}
}

func (s *Static) DisplayName() string { return s.name }

func (s *Static) LoadItems() []root.RootItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]root.RootItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Static) OnChange(fn func()) func() {
	return s.changes.subscribe(fn)
}

// Set replaces the item list and notifies subscribers.
func (s *Static) Set(items ...root.RootItem) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.changes.notify()
}
