// Package trie implements a byte-keyed prefix tree mapping indexed strings to
// arbitrary payloads.
//
// Keys are ASCII case folded on the way in and on lookup. Each node keeps a
// match list of payloads deduplicated by a caller supplied hash, so the same
// payload indexed under many keys is reported once per query.
//
// Node edge layout adapts to the branching factor: most nodes in identifier
// and natural language text have a single child, wider nodes use a short
// linear list, and nodes with more than 32 children (typically near the root)
// switch to a map keyed by byte. Layouts never shrink, not even after Erase.
// Use Compact, or rebuild the trie, when a large share of payloads is gone.
//
// A Trie is not safe for concurrent mutation. Once built it can be shared as a
// read-only snapshot: PrefixSearch, PrefixTraverse and ExactMatch never write.
package trie

import (
	"github.com/bastiangx/rootsearch/pkg/tokenizer"
	"github.com/cespare/xxhash/v2"
)

// DefaultLimit caps prefix searches called with a non-positive limit.
const DefaultLimit = 1000

// HashFunc identifies payloads. Two payloads with the same hash are treated
// as one match, so collisions merge unrelated payloads.
type HashFunc[T any] func(T) uint64

// Trie is a prefix tree over payloads of type T.
type Trie[T any] struct {
	root *node[T]
	hash HashFunc[T]
}

// New creates an empty trie using hash for payload identity.
func New[T any](hash HashFunc[T]) *Trie[T] {
	return &Trie[T]{
		root: &node[T]{},
		hash: hash,
	}
}

// NewStrings creates a trie over string payloads hashed with xxhash.
func NewStrings() *Trie[string] {
	return New(HashString)
}

// HashString is the xxhash digest of s.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Index associates payload with key. Empty keys are ignored and indexing the
// same pair twice is a no-op.
func (t *Trie[T]) Index(key string, payload T) {
	if len(key) == 0 {
		return
	}

	n := t.root
	n.paths++
	for i := 0; i < len(key); i++ {
		n = n.childOrCreate(lower(key[i]))
		n.paths++
	}

	h := t.hash(payload)
	for _, m := range n.matches {
		if t.hash(m) == h {
			return
		}
	}
	n.matches = append(n.matches, payload)
}

// IndexLatinText indexes payload under every word of text, splitting on
// whitespace, punctuation and camelCase humps.
func (t *Trie[T]) IndexLatinText(text string, payload T) {
	for word := range tokenizer.Words(text) {
		t.Index(word, payload)
	}
}

// find walks key and returns the node it ends on, or nil.
func (t *Trie[T]) find(key string) *node[T] {
	n := t.root
	for i := 0; i < len(key) && n != nil; i++ {
		n = n.child(lower(key[i]))
	}
	return n
}

// ExactMatch reports whether some payload was indexed under key itself.
func (t *Trie[T]) ExactMatch(key string) bool {
	n := t.find(key)
	return n != nil && len(n.matches) > 0
}

// PrefixSearch returns up to limit unique payloads indexed under keys that
// start with prefix. The order is not lexicographic and must not be relied on.
func (t *Trie[T]) PrefixSearch(prefix string, limit int) []T {
	var out []T
	t.PrefixTraverse(prefix, func(p T) bool {
		out = append(out, p)
		return true
	}, limit)
	return out
}

// PrefixTraverse calls fn once per unique payload under prefix, depth first,
// until limit payloads were reported, fn returns false, or the subtree is
// exhausted.
func (t *Trie[T]) PrefixTraverse(prefix string, fn func(T) bool, limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := t.find(prefix)
	if start == nil {
		return
	}

	visited := make(map[uint64]struct{}, min(start.paths, limit))
	stack := []*node[T]{start}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, m := range n.matches {
			h := t.hash(m)
			if _, seen := visited[h]; seen {
				continue
			}
			visited[h] = struct{}{}

			if !fn(m) || len(visited) >= limit {
				return
			}
		}

		n.each(func(_ byte, c *node[T]) {
			stack = append(stack, c)
		})
	}
}

// Erase removes payload from every match list. It walks the whole tree and
// is meant for removing the odd item, not for bulk churn. Node layouts are
// kept as they are.
func (t *Trie[T]) Erase(payload T) {
	h := t.hash(payload)
	stack := []*node[T]{t.root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kept := n.matches[:0]
		for _, m := range n.matches {
			if t.hash(m) != h {
				kept = append(kept, m)
			}
		}
		clear(n.matches[len(kept):])
		n.matches = kept

		n.each(func(_ byte, c *node[T]) {
			stack = append(stack, c)
		})
	}
}

// Clear drops every key and payload.
func (t *Trie[T]) Clear() {
	t.root = &node[T]{}
}

// Size returns the number of nodes, root included.
func (t *Trie[T]) Size() int {
	count := 0
	stack := []*node[T]{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		n.each(func(_ byte, c *node[T]) {
			stack = append(stack, c)
		})
	}
	return count
}

// Compact returns a new trie holding the same key/payload pairs, without the
// branches Erase left empty.
func (t *Trie[T]) Compact() *Trie[T] {
	out := New(t.hash)

	type frame struct {
		n   *node[T]
		key []byte
	}
	stack := []frame{{n: t.root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, m := range f.n.matches {
			out.Index(string(f.key), m)
		}

		f.n.each(func(b byte, c *node[T]) {
			key := make([]byte, len(f.key)+1)
			copy(key, f.key)
			key[len(f.key)] = b
			stack = append(stack, frame{n: c, key: key})
		})
	}
	return out
}
