package bplustree

// nodeID is a stable handle to a node owned by the tree's arena. Child slots
// and the leaf chain store handles, never pointers.
type nodeID int32

const nilNode nodeID = -1

// arena owns every node of a tree. Released slots are recycled through a
// freelist, the same way a pager hands back free page IDs.
type arena struct {
	nodes []*node
	free  []nodeID
	live  int
}

func (a *arena) alloc(leaf bool, t int) nodeID {
	n := newNode(leaf, t)
	a.live++
	if k := len(a.free); k > 0 {
		id := a.free[k-1]
		a.free = a.free[:k-1]
		a.nodes[id] = n
		return id
	}
	a.nodes = append(a.nodes, n)
	return nodeID(len(a.nodes) - 1)
}

// get panics on a released handle; a stale handle is a programming error.
func (a *arena) get(id nodeID) *node {
	n := a.nodes[id]
	if n == nil {
		panic("bplustree: use of released node handle")
	}
	return n
}

func (a *arena) release(id nodeID) {
	a.nodes[id] = nil
	a.free = append(a.free, id)
	a.live--
}

func (a *arena) reset() {
	a.nodes = a.nodes[:0]
	a.free = a.free[:0]
	a.live = 0
}
