// Package bplustree implements an in-memory B+ tree mapping int64 keys to
// record locators.
//
// Nodes hold between t-1 and 2t-1 keys (the root may hold fewer). Values live
// only in leaves, and leaves are chained in ascending key order for scans.
// Insertion splits full nodes on the way down; deletion tops up minimal nodes
// on the way down by borrowing from or merging with a sibling, so neither
// operation ever walks back up the tree.
//
// A Tree is not safe for concurrent use.
package bplustree

import (
	"github.com/cockroachdb/errors"

	"github.com/student-index/sidx/index"
	"github.com/student-index/sidx/internal/invariants"
	"github.com/student-index/sidx/persist"
)

var _ index.Index = (*Tree)(nil)

var (
	ErrInvalidDegree = errors.New("bplustree: minimum degree must be at least 2")
	ErrDuplicateKey  = index.ErrDuplicateKey
)

// Stats describes the shape of a tree and the structural work done so far.
type Stats struct {
	Height       int
	Nodes        int
	Keys         int
	Splits       uint64
	Merges       uint64
	BorrowsLeft  uint64
	BorrowsRight uint64
}

type Tree struct {
	t     int // minimum degree
	root  nodeID
	nodes arena
	size  int

	splits, merges            uint64
	borrowsLeft, borrowsRight uint64
}

// New returns an empty tree with minimum degree t.
func New(t int) (*Tree, error) {
	if t < 2 {
		return nil, errors.Wrapf(ErrInvalidDegree, "got %d", t)
	}
	return &Tree{t: t, root: nilNode}, nil
}

func (bt *Tree) Degree() int { return bt.t }
func (bt *Tree) Len() int    { return bt.size }

func (bt *Tree) maxKeys() int { return 2*bt.t - 1 }
func (bt *Tree) minKeys() int { return bt.t - 1 }

func (bt *Tree) node(id nodeID) *node { return bt.nodes.get(id) }

// Height is the number of levels; 0 for an empty tree.
func (bt *Tree) Height() int {
	h := 0
	for id := bt.root; id != nilNode; h++ {
		n := bt.node(id)
		if n.leaf {
			return h + 1
		}
		id = n.children[0]
	}
	return h
}

func (bt *Tree) Stats() Stats {
	return Stats{
		Height:       bt.Height(),
		Nodes:        bt.nodes.live,
		Keys:         bt.size,
		Splits:       bt.splits,
		Merges:       bt.merges,
		BorrowsLeft:  bt.borrowsLeft,
		BorrowsRight: bt.borrowsRight,
	}
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (bt *Tree) Search(key int64) (index.Locator, bool) {
	if bt.root == nilNode {
		return 0, false
	}
	leaf := bt.node(bt.findLeaf(key))
	i, found := leaf.search(key)
	if !found {
		return 0, false
	}
	return leaf.values[i], true
}

func (bt *Tree) findLeaf(key int64) nodeID {
	id := bt.root
	for {
		n := bt.node(id)
		if n.leaf {
			return id
		}
		id = n.children[n.childIndex(key)]
	}
}

// minKey returns the smallest key stored under id.
func (bt *Tree) minKey(id nodeID) int64 {
	n := bt.node(id)
	for !n.leaf {
		n = bt.node(n.children[0])
	}
	return n.keys[0]
}

// Reset drops every entry. Structural counters are kept.
func (bt *Tree) Reset() {
	bt.nodes.reset()
	bt.root = nilNode
	bt.size = 0
}

func (bt *Tree) SaveTo(path string) error { return persist.Save(path, bt.Scan()) }

// LoadFrom replaces the contents of the tree with a snapshot written by SaveTo.
func (bt *Tree) LoadFrom(path string) error {
	entries, err := persist.Load(path)
	if err != nil {
		return err
	}
	bt.Reset()
	for _, e := range entries {
		if err := bt.Insert(e.Key, e.Value); err != nil {
			return errors.Wrapf(err, "load %s", path)
		}
	}
	return nil
}

func (bt *Tree) assertValid() {
	if !invariants.Enabled {
		return
	}
	if err := bt.Check(); err != nil {
		panic(err)
	}
}
