// Package tree implements the branch tree used by the contour-shrink fill:
// each node wraps one contour, children are the loops its inward offset split
// into, and the finished tree is read out as cut sequences.
package tree

// NodeID indexes a node within its tree's arena.
type NodeID int

const root NodeID = 0

type node[T any] struct {
	value    T
	parent   NodeID // root points at itself
	children []NodeID
	locked   bool
}

// Tree is an arena of nodes with parent back-references. It always has
// exactly one root; every other node is created through Branch and has
// exactly one parent.
type Tree[T any] struct {
	nodes []node[T]
}

// New creates a tree with a single unlocked root node.
func New[T any](rootValue T) *Tree[T] {
	return &Tree[T]{nodes: []node[T]{{value: rootValue, parent: root}}}
}

func (t *Tree[T]) Root() NodeID { return root }

// Len returns the total number of nodes created.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// Value returns the payload wrapped by a node.
func (t *Tree[T]) Value(id NodeID) T { return t.nodes[id].value }

// Branch appends one child node per value under parent and returns their IDs.
func (t *Tree[T]) Branch(parent NodeID, values ...T) []NodeID {
	ids := make([]NodeID, 0, len(values))
	for _, v := range values {
		id := NodeID(len(t.nodes))
		t.nodes = append(t.nodes, node[T]{value: v, parent: parent})
		t.nodes[parent].children = append(t.nodes[parent].children, id)
		ids = append(ids, id)
	}
	return ids
}

// Lock marks a node as a dead end: no further offsetting is possible there.
func (t *Tree[T]) Lock(id NodeID) { t.nodes[id].locked = true }

// NextUnlocked returns the first unlocked leaf in creation order, or false
// when every leaf is locked and the shrink loop must terminate.
func (t *Tree[T]) NextUnlocked() (NodeID, bool) {
	for i, n := range t.nodes {
		if len(n.children) == 0 && !n.locked {
			return NodeID(i), true
		}
	}
	return 0, false
}

// Sequences partitions every node into root-to-leaf chains: repeatedly the
// longest remaining root-to-leaf path (over nodes not yet emitted) is taken,
// longest first. Ties break by leaf creation order. Each node appears in
// exactly one sequence.
func (t *Tree[T]) Sequences() [][]T {
	// candidate chains, one per leaf, ordered leaf-creation-first
	var candidates [][]NodeID
	for i, n := range t.nodes {
		if len(n.children) > 0 {
			continue
		}
		var chain []NodeID
		id := NodeID(i)
		for {
			chain = append(chain, id)
			if id == root {
				break
			}
			id = t.nodes[id].parent
		}
		// chain is leaf-to-root; flip to root-to-leaf
		for a, b := 0, len(chain)-1; a < b; a, b = a+1, b-1 {
			chain[a], chain[b] = chain[b], chain[a]
		}
		candidates = append(candidates, chain)
	}

	used := make([]bool, len(t.nodes))
	var sequences [][]T
	for len(candidates) > 0 {
		best := 0
		for i := 1; i < len(candidates); i++ {
			if len(candidates[i]) > len(candidates[best]) {
				best = i
			}
		}
		chain := candidates[best]
		if len(chain) > 0 {
			seq := make([]T, 0, len(chain))
			for _, id := range chain {
				used[id] = true
				seq = append(seq, t.nodes[id].value)
			}
			sequences = append(sequences, seq)
		}
		candidates = append(candidates[:best], candidates[best+1:]...)
		for i, c := range candidates {
			kept := c[:0]
			for _, id := range c {
				if !used[id] {
					kept = append(kept, id)
				}
			}
			candidates[i] = kept
		}
	}
	return sequences
}
