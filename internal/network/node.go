package network

// NodeHandle addresses a ConnectivityNode in the network's arena. A handle
// goes stale when its slot is freed; the zero value never resolves.
type NodeHandle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h was never assigned.
func (h NodeHandle) IsZero() bool { return h.generation == 0 }

// ConnectivityNode is a zero-impedance junction between terminals.
type ConnectivityNode struct {
	id        string
	handle    NodeHandle
	terminals []*Terminal
}

func (n *ConnectivityNode) ID() string { return n.id }

// Terminals returns the terminals wired to the node.
func (n *ConnectivityNode) Terminals() []*Terminal { return n.terminals }

func (n *ConnectivityNode) Handle() NodeHandle { return n.handle }

func (n *ConnectivityNode) remove(t *Terminal) {
	for i, other := range n.terminals {
		if other == t {
			n.terminals = append(n.terminals[:i], n.terminals[i+1:]...)
			return
		}
	}
}

type nodeSlot struct {
	node       *ConnectivityNode
	generation uint32
}

// nodeArena owns every node. Freed slots bump their generation so that old
// handles stop resolving.
type nodeArena struct {
	slots []nodeSlot
	free  []uint32
	byID  map[string]NodeHandle
}

func newNodeArena() nodeArena {
	return nodeArena{byID: make(map[string]NodeHandle)}
}

func (a *nodeArena) get(h NodeHandle) *ConnectivityNode {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if s.generation != h.generation {
		return nil
	}
	return s.node
}

func (a *nodeArena) lookup(id string) *ConnectivityNode {
	h, ok := a.byID[id]
	if !ok {
		return nil
	}
	return a.get(h)
}

func (a *nodeArena) alloc(id string) *ConnectivityNode {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, nodeSlot{})
	}
	slot := &a.slots[idx]
	slot.generation++
	node := &ConnectivityNode{id: id, handle: NodeHandle{index: idx, generation: slot.generation}}
	slot.node = node
	a.byID[id] = node.handle
	return node
}

func (a *nodeArena) release(n *ConnectivityNode) {
	if a.get(n.handle) != n {
		return
	}
	slot := &a.slots[n.handle.index]
	slot.node = nil
	slot.generation++
	a.free = append(a.free, n.handle.index)
	delete(a.byID, n.id)
}

func (a *nodeArena) all() []*ConnectivityNode {
	out := make([]*ConnectivityNode, 0, len(a.byID))
	for _, s := range a.slots {
		if s.node != nil {
			out = append(out, s.node)
		}
	}
	return out
}
