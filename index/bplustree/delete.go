package bplustree

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/student-index/sidx/internal/invariants"
)

// Delete removes key and reports whether it was present. When it was not,
// no node is modified.
func (bt *Tree) Delete(key int64) bool {
	if _, ok := bt.Search(key); !ok {
		return false
	}
	bt.remove(bt.root, key)
	bt.size--
	bt.shrinkRoot()
	bt.assertValid()
	return true
}

// remove deletes key from the subtree rooted at id. Every child is topped up
// to at least t keys before it is entered, so the leaf always has a key to
// spare.
func (bt *Tree) remove(id nodeID, key int64) {
	x := bt.node(id)
	if x.leaf {
		i, _ := x.search(key)
		x.removeEntry(i)
		return
	}

	i := x.childIndex(key)
	if len(bt.node(x.children[i]).keys) == bt.minKeys() {
		i = bt.fill(id, i)
	}
	bt.remove(x.children[i], key)

	// A separator naming the removed key is replaced by its in-order
	// successor, the smallest key left in the right-hand subtree.
	if j, found := x.search(key); found {
		x.keys[j] = bt.minKey(x.children[j+1])
	}
}

// fill brings the child at position i of parent up to at least t keys and
// returns the position of the child that now covers the same key range.
func (bt *Tree) fill(parent nodeID, i int) int {
	p := bt.node(parent)
	last := len(p.children) - 1
	switch {
	case i > 0 && len(bt.node(p.children[i-1]).keys) > bt.minKeys():
		bt.borrowFromLeft(parent, i)
		return i
	case i < last && len(bt.node(p.children[i+1]).keys) > bt.minKeys():
		bt.borrowFromRight(parent, i)
		return i
	case i < last:
		bt.merge(parent, i)
		return i
	default:
		bt.merge(parent, i-1)
		return i - 1
	}
}

// borrowFromLeft moves the last entry of the left sibling to the front of the
// child at position i.
func (bt *Tree) borrowFromLeft(parent nodeID, i int) {
	p := bt.node(parent)
	child := bt.node(p.children[i])
	left := bt.node(p.children[i-1])
	last := len(left.keys) - 1

	if child.leaf {
		child.insertEntry(0, left.keys[last], left.values[last])
		left.keys = left.keys[:last]
		left.values = left.values[:last]
		p.keys[i-1] = child.keys[0]
	} else {
		child.keys = slices.Insert(child.keys, 0, p.keys[i-1])
		child.children = slices.Insert(child.children, 0, left.children[last+1])
		p.keys[i-1] = left.keys[last]
		left.keys = left.keys[:last]
		left.children = left.children[:last+1]
	}
	bt.borrowsLeft++
}

// borrowFromRight moves the first entry of the right sibling to the end of the
// child at position i.
func (bt *Tree) borrowFromRight(parent nodeID, i int) {
	p := bt.node(parent)
	child := bt.node(p.children[i])
	right := bt.node(p.children[i+1])

	if child.leaf {
		child.keys = append(child.keys, right.keys[0])
		child.values = append(child.values, right.values[0])
		right.removeEntry(0)
		p.keys[i] = right.keys[0]
	} else {
		child.keys = append(child.keys, p.keys[i])
		child.children = append(child.children, right.children[0])
		p.keys[i] = right.keys[0]
		right.keys = slices.Delete(right.keys, 0, 1)
		right.children = slices.Delete(right.children, 0, 1)
	}
	bt.borrowsRight++
}

// merge folds the child at position i+1 into the child at position i and
// releases it. Internal merges pull the separator down from the parent.
func (bt *Tree) merge(parent nodeID, i int) {
	p := bt.node(parent)
	leftID, rightID := p.children[i], p.children[i+1]
	left, right := bt.node(leftID), bt.node(rightID)

	if left.leaf {
		if invariants.Enabled && left.next != rightID {
			panic(errors.AssertionFailedf("merging leaves %d and %d that are not chained", leftID, rightID))
		}
		left.keys = append(left.keys, right.keys...)
		left.values = append(left.values, right.values...)
		left.next = right.next
	} else {
		left.keys = append(left.keys, p.keys[i])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}

	p.keys = slices.Delete(p.keys, i, i+1)
	p.children = slices.Delete(p.children, i+1, i+2)
	bt.nodes.release(rightID)
	bt.merges++
}

// shrinkRoot drops an emptied root: an internal root hands over to its only
// child, an empty leaf root leaves the tree empty.
func (bt *Tree) shrinkRoot() {
	for bt.root != nilNode {
		r := bt.node(bt.root)
		if len(r.keys) > 0 {
			return
		}
		old := bt.root
		if r.leaf {
			bt.root = nilNode
		} else {
			bt.root = r.children[0]
		}
		bt.nodes.release(old)
	}
}
