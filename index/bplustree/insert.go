package bplustree

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/student-index/sidx/index"
)

// Insert adds key with locator v. A key that is already present is rejected
// with ErrDuplicateKey and the tree is left untouched.
func (bt *Tree) Insert(key int64, v index.Locator) error {
	if _, ok := bt.Search(key); ok {
		return errors.Wrapf(ErrDuplicateKey, "key %d", key)
	}
	bt.put(key, v)
	return nil
}

// Upsert stores v under key, overwriting and returning any previous locator.
func (bt *Tree) Upsert(key int64, v index.Locator) (index.Locator, bool) {
	if bt.root != nilNode {
		leaf := bt.node(bt.findLeaf(key))
		if i, found := leaf.search(key); found {
			prev := leaf.values[i]
			leaf.values[i] = v
			return prev, true
		}
	}
	bt.put(key, v)
	return 0, false
}

func (bt *Tree) put(key int64, v index.Locator) {
	if bt.root == nilNode {
		bt.root = bt.nodes.alloc(true, bt.t)
	}

	// A full root is the only place the tree grows in height.
	if len(bt.node(bt.root).keys) == bt.maxKeys() {
		old := bt.root
		bt.root = bt.nodes.alloc(false, bt.t)
		r := bt.node(bt.root)
		r.children = append(r.children, old)
		bt.splitChild(bt.root, 0)
	}

	bt.insertNonFull(bt.root, key, v)
	bt.size++
	bt.assertValid()
}

// insertNonFull descends from a node with spare room, splitting any full child
// before entering it.
func (bt *Tree) insertNonFull(id nodeID, key int64, v index.Locator) {
	for {
		x := bt.node(id)
		if x.leaf {
			i, _ := x.search(key)
			x.insertEntry(i, key, v)
			return
		}
		i := x.childIndex(key)
		if len(bt.node(x.children[i]).keys) == bt.maxKeys() {
			bt.splitChild(id, i)
			if key >= x.keys[i] {
				i++
			}
		}
		id = x.children[i]
	}
}

// splitChild splits the full child at position i of parent into two nodes and
// records the separator in parent.
//
// Leaf split (copy-up): left keeps t-1 entries, the new right leaf takes t,
// and the right leaf's first key is copied into the parent.
// Internal split (push-up): left keeps t-1 keys, right takes t-1, and the
// middle key moves into the parent.
func (bt *Tree) splitChild(parent nodeID, i int) {
	t := bt.t
	p := bt.node(parent)
	yID := p.children[i]
	y := bt.node(yID)
	zID := bt.nodes.alloc(y.leaf, t)
	z := bt.node(zID)

	var sep int64
	if y.leaf {
		z.keys = append(z.keys, y.keys[t-1:]...)
		z.values = append(z.values, y.values[t-1:]...)
		y.keys = y.keys[:t-1]
		y.values = y.values[:t-1]

		z.next = y.next
		y.next = zID
		sep = z.keys[0]
	} else {
		sep = y.keys[t-1]
		z.keys = append(z.keys, y.keys[t:]...)
		z.children = append(z.children, y.children[t:]...)
		y.keys = y.keys[:t-1]
		y.children = y.children[:t]
	}

	p.keys = slices.Insert(p.keys, i, sep)
	p.children = slices.Insert(p.children, i+1, zID)
	bt.splits++
}
