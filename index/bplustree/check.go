package bplustree

import "github.com/cockroachdb/errors"

// Check verifies every structural invariant of the tree and returns the first
// violation found:
//
//   - non-root nodes hold between t-1 and 2t-1 keys, the root at most 2t-1
//   - keys within a node are strictly ascending and inside the range allowed
//     by the separators above them
//   - internal nodes have one more child than keys, leaves have one value
//     per key
//   - all leaves sit at the same depth
//   - the leaf chain visits every leaf left to right, exactly once
//   - the entry count and the live node count match what is reachable
func (bt *Tree) Check() error {
	if bt.root == nilNode {
		if bt.size != 0 || bt.nodes.live != 0 {
			return errors.AssertionFailedf("empty tree reports %d keys, %d nodes", bt.size, bt.nodes.live)
		}
		return nil
	}
	c := checker{bt: bt, leafDepth: -1}
	if err := c.walk(bt.root, 0, nil, nil); err != nil {
		return err
	}
	if c.keys != bt.size {
		return errors.AssertionFailedf("tree size %d, leaves hold %d keys", bt.size, c.keys)
	}
	if c.nodes != bt.nodes.live {
		return errors.AssertionFailedf("arena has %d live nodes, %d reachable", bt.nodes.live, c.nodes)
	}
	for i, id := range c.leaves {
		want := nilNode
		if i+1 < len(c.leaves) {
			want = c.leaves[i+1]
		}
		if got := bt.node(id).next; got != want {
			return errors.AssertionFailedf("leaf %d links to %d, want %d", id, got, want)
		}
	}
	return nil
}

type checker struct {
	bt        *Tree
	leafDepth int
	leaves    []nodeID
	keys      int
	nodes     int
}

// walk checks the subtree at id; every key must satisfy lo <= key < hi where
// a nil bound is open.
func (c *checker) walk(id nodeID, depth int, lo, hi *int64) error {
	bt := c.bt
	n := bt.node(id)
	c.nodes++

	if len(n.keys) > bt.maxKeys() {
		return errors.AssertionFailedf("node %d holds %d keys, max %d", id, len(n.keys), bt.maxKeys())
	}
	if id != bt.root && len(n.keys) < bt.minKeys() {
		return errors.AssertionFailedf("node %d holds %d keys, min %d", id, len(n.keys), bt.minKeys())
	}
	if len(n.keys) == 0 {
		return errors.AssertionFailedf("node %d is empty", id)
	}
	for i, k := range n.keys {
		if i > 0 && k <= n.keys[i-1] {
			return errors.AssertionFailedf("node %d keys out of order at %d", id, i)
		}
		if (lo != nil && k < *lo) || (hi != nil && k >= *hi) {
			return errors.AssertionFailedf("node %d key %d outside its separators", id, k)
		}
	}

	if n.leaf {
		if len(n.values) != len(n.keys) || len(n.children) != 0 {
			return errors.AssertionFailedf("leaf %d has %d keys, %d values, %d children",
				id, len(n.keys), len(n.values), len(n.children))
		}
		if c.leafDepth == -1 {
			c.leafDepth = depth
		} else if depth != c.leafDepth {
			return errors.AssertionFailedf("leaf %d at depth %d, want %d", id, depth, c.leafDepth)
		}
		c.leaves = append(c.leaves, id)
		c.keys += len(n.keys)
		return nil
	}

	if len(n.children) != len(n.keys)+1 || len(n.values) != 0 {
		return errors.AssertionFailedf("internal node %d has %d keys, %d children, %d values",
			id, len(n.keys), len(n.children), len(n.values))
	}
	if n.next != nilNode {
		return errors.AssertionFailedf("internal node %d has a leaf link", id)
	}
	for i, child := range n.children {
		clo, chi := lo, hi
		if i > 0 {
			clo = &n.keys[i-1]
		}
		if i < len(n.keys) {
			chi = &n.keys[i]
		}
		if err := c.walk(child, depth+1, clo, chi); err != nil {
			return err
		}
	}
	return nil
}
