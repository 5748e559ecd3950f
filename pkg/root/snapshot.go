package root

import (
	"context"
	"slices"

	"github.com/bastiangx/rootsearch/pkg/fuzzy"
	"github.com/bastiangx/rootsearch/pkg/trie"
)

// snapshot is an immutable, fully built index. Nothing mutates a snapshot
// after it is published; metadata changes publish a shallow copy.
type snapshot struct {
	trie     *trie.Trie[RootItem]
	items    []RootItem
	byID     map[string]RootItem
	metadata map[string]ItemMetadata
	fuzzy    *fuzzy.Matcher

	// pendingItems carries the item list of a background build to install.
	pendingItems []RootItem
}

func hashItem(item RootItem) uint64 {
	return trie.HashString(item.UniqueID())
}

// buildSnapshot indexes items into a new trie. It returns nil when ctx is
// cancelled part way.
func buildSnapshot(ctx context.Context, items []RootItem, meta map[string]ItemMetadata) *snapshot {
	t := trie.New(hashItem)
	byID := make(map[string]RootItem, len(items))
	candidates := make([]fuzzy.Candidate, len(items))

	for i, item := range items {
		if i%256 == 0 && ctx.Err() != nil {
			return nil
		}

		id := item.UniqueID()
		name := item.DisplayName()
		byID[id] = item

		t.Index(name, item)
		t.IndexLatinText(name, item)

		md := meta[id]
		if md.Alias != "" {
			t.Index(md.Alias, item)
		}
		for _, kw := range item.Keywords() {
			t.Index(kw, item)
			t.IndexLatinText(kw, item)
		}

		candidates[i] = fuzzy.Candidate{Text: name, Weight: md.OpenCount}
	}

	if meta == nil {
		meta = make(map[string]ItemMetadata)
	}

	return &snapshot{
		trie:     t,
		items:    items,
		byID:     byID,
		metadata: meta,
		fuzzy:    fuzzy.NewMatcher(candidates),
	}
}

// withMetadata returns a copy of s sharing its trie but reading meta. The
// fuzzy weights are refreshed from the new open counts.
func (s *snapshot) withMetadata(meta map[string]ItemMetadata) *snapshot {
	cp := *s
	cp.metadata = meta
	cp.fuzzy = s.fuzzy.Reweighted(func(i int) int {
		return meta[s.items[i].UniqueID()].OpenCount
	})
	return &cp
}

// sortByOpenCount orders results by descending open count, keeping the
// incoming order among equal counts.
func (s *snapshot) sortByOpenCount(results []RootItem) {
	slices.SortStableFunc(results, func(a, b RootItem) int {
		return s.metadata[b.UniqueID()].OpenCount - s.metadata[a.UniqueID()].OpenCount
	})
}

func (s *snapshot) aliasCount() int {
	n := 0
	for _, md := range s.metadata {
		if md.Alias != "" {
			n++
		}
	}
	return n
}
