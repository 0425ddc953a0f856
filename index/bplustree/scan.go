package bplustree

import "github.com/student-index/sidx/index"

func (bt *Tree) leftmostLeaf() nodeID {
	id := bt.root
	for id != nilNode {
		n := bt.node(id)
		if n.leaf {
			break
		}
		id = n.children[0]
	}
	return id
}

// Scan returns every stored entry in ascending key order by walking the leaf
// chain.
func (bt *Tree) Scan() []index.Entry {
	out := make([]index.Entry, 0, bt.size)
	for id := bt.leftmostLeaf(); id != nilNode; {
		n := bt.node(id)
		for i, k := range n.keys {
			out = append(out, index.Entry{Key: k, Value: n.values[i]})
		}
		id = n.next
	}
	return out
}

// Locators returns the stored locators in ascending key order.
func (bt *Tree) Locators() []index.Locator {
	out := make([]index.Locator, 0, bt.size)
	for id := bt.leftmostLeaf(); id != nilNode; {
		n := bt.node(id)
		out = append(out, n.values...)
		id = n.next
	}
	return out
}

// ─── Range iterator ──────────────────────────────────────────────────────────

// Range iterates over keys in [start, end]. The tree must not be modified
// while the iterator is in use.
func (bt *Tree) Range(start, end int64) index.Iterator {
	it := &rangeIterator{bt: bt, leaf: nilNode, end: end}
	if bt.root == nilNode || start > end {
		return it
	}
	it.leaf = bt.findLeaf(start)
	it.i, _ = bt.node(it.leaf).search(start)
	return it
}

type rangeIterator struct {
	bt   *Tree
	leaf nodeID
	i    int
	end  int64
	key  int64
	val  index.Locator
}

func (it *rangeIterator) Next() bool {
	for it.leaf != nilNode {
		n := it.bt.node(it.leaf)
		if it.i < len(n.keys) {
			k := n.keys[it.i]
			if k > it.end {
				it.leaf = nilNode
				return false
			}
			it.key, it.val = k, n.values[it.i]
			it.i++
			return true
		}
		it.leaf = n.next
		it.i = 0
	}
	return false
}

func (it *rangeIterator) Key() int64           { return it.key }
func (it *rangeIterator) Value() index.Locator { return it.val }
func (it *rangeIterator) Error() error         { return nil }
func (it *rangeIterator) Close() error         { it.leaf = nilNode; return nil }
