package bplustree

import (
	"slices"

	"github.com/student-index/sidx/index"
)

type node struct {
	leaf     bool
	keys     []int64
	values   []index.Locator // leaf only
	children []nodeID        // internal only
	next     nodeID          // next leaf in key order
}

func newNode(leaf bool, t int) *node {
	n := &node{
		leaf: leaf,
		keys: make([]int64, 0, 2*t-1),
		next: nilNode,
	}
	if leaf {
		n.values = make([]index.Locator, 0, 2*t-1)
	} else {
		n.children = make([]nodeID, 0, 2*t)
	}
	return n
}

// search returns the first index whose key is >= key, and whether that key
// is an exact match.
func (n *node) search(key int64) (int, bool) {
	return slices.BinarySearch(n.keys, key)
}

// childIndex picks the child whose range holds key. A key equal to a
// separator lives in the right-hand subtree.
func (n *node) childIndex(key int64) int {
	i, found := n.search(key)
	if found {
		i++
	}
	return i
}

func (n *node) insertEntry(i int, key int64, v index.Locator) {
	n.keys = slices.Insert(n.keys, i, key)
	n.values = slices.Insert(n.values, i, v)
}

func (n *node) removeEntry(i int) {
	n.keys = slices.Delete(n.keys, i, i+1)
	n.values = slices.Delete(n.values, i, i+1)
}
