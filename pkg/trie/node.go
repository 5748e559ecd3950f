package trie

// maxLinearChildren is the branching factor at which a node switches from a
// linear edge list to a byte-keyed map.
const maxLinearChildren = 32

// Kind names the edge layout a node currently uses.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindSingle
	KindLinear
	KindHash
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindLinear:
		return "linear"
	case KindHash:
		return "hash"
	}
	return "empty"
}

// edges is the sum type over a node's child layout. A nil edges value is the
// empty layout. Layouts only ever grow: single -> linear -> hash.
type edges[T any] interface {
	kind() Kind
}

type edge[T any] struct {
	key   byte
	child *node[T]
}

type singleEdge[T any] struct {
	edge[T]
}

type linearEdges[T any] struct {
	list []edge[T]
}

type hashEdges[T any] struct {
	table map[byte]*node[T]
}

func (*singleEdge[T]) kind() Kind { return KindSingle }
func (*linearEdges[T]) kind() Kind { return KindLinear }
func (*hashEdges[T]) kind() Kind { return KindHash }

type node[T any] struct {
	edges   edges[T]
	matches []T
	// paths counts how many Index calls walked through this node. It sizes
	// the visited set when traversing the subtree.
	paths int
}

func (n *node[T]) kind() Kind {
	if n.edges == nil {
		return KindEmpty
	}
	return n.edges.kind()
}

func (n *node[T]) child(b byte) *node[T] {
	switch e := n.edges.(type) {
	case *singleEdge[T]:
		if e.key == b {
			return e.child
		}
	case *linearEdges[T]:
		for i := range e.list {
			if e.list[i].key == b {
				return e.list[i].child
			}
		}
	case *hashEdges[T]:
		return e.table[b]
	}
	return nil
}

// childOrCreate returns the child at b, creating it and promoting the edge
// layout when needed.
func (n *node[T]) childOrCreate(b byte) *node[T] {
	if c := n.child(b); c != nil {
		return c
	}

	c := &node[T]{}
	switch e := n.edges.(type) {
	case nil:
		n.edges = &singleEdge[T]{edge[T]{key: b, child: c}}
	case *singleEdge[T]:
		list := make([]edge[T], 0, 4)
		list = append(list, e.edge, edge[T]{key: b, child: c})
		n.edges = &linearEdges[T]{list: list}
	case *linearEdges[T]:
		if len(e.list) < maxLinearChildren {
			e.list = append(e.list, edge[T]{key: b, child: c})
			break
		}
		table := make(map[byte]*node[T], len(e.list)+1)
		for _, ed := range e.list {
			table[ed.key] = ed.child
		}
		table[b] = c
		n.edges = &hashEdges[T]{table: table}
	case *hashEdges[T]:
		e.table[b] = c
	}
	return c
}

// each calls fn for every child. Order is layout dependent.
func (n *node[T]) each(fn func(b byte, c *node[T])) {
	switch e := n.edges.(type) {
	case *singleEdge[T]:
		fn(e.key, e.child)
	case *linearEdges[T]:
		for _, ed := range e.list {
			fn(ed.key, ed.child)
		}
	case *hashEdges[T]:
		for k, c := range e.table {
			fn(k, c)
		}
	}
}

func (n *node[T]) childCount() int {
	switch e := n.edges.(type) {
	case *singleEdge[T]:
		return 1
	case *linearEdges[T]:
		return len(e.list)
	case *hashEdges[T]:
		return len(e.table)
	}
	return 0
}
