package network

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Network holds the equipment, terminals, connectivity nodes and feeders of
// one distribution network. It is not safe for concurrent mutation; the
// tracing algorithms only write per-state fields.
type Network struct {
	equipment map[string]*Equipment
	terminals map[string]*Terminal
	nodes     nodeArena
	feeders   map[string]*Feeder
	lvFeeders map[string]*LvFeeder

	feederHeads   map[*Terminal][]*Feeder
	lvFeederHeads map[*Terminal][]*LvFeeder
}

// New allocates an empty Network.
func New() *Network {
	return &Network{
		equipment:     make(map[string]*Equipment),
		terminals:     make(map[string]*Terminal),
		nodes:         newNodeArena(),
		feeders:       make(map[string]*Feeder),
		lvFeeders:     make(map[string]*LvFeeder),
		feederHeads:   make(map[*Terminal][]*Feeder),
		lvFeederHeads: make(map[*Terminal][]*LvFeeder),
	}
}

// Add registers equipment and its terminals.
func (n *Network) Add(e *Equipment) error {
	if _, ok := n.equipment[e.id]; ok {
		return fmt.Errorf("equipment %s: %w", e.id, ErrDuplicateID)
	}
	for _, t := range e.terminals {
		if _, ok := n.terminals[t.id]; ok {
			return fmt.Errorf("terminal %s: %w", t.id, ErrDuplicateID)
		}
	}
	e.net = n
	n.equipment[e.id] = e
	for _, t := range e.terminals {
		n.terminals[t.id] = t
	}
	return nil
}

// MustAdd is Add for fixtures; it panics on error.
func (n *Network) MustAdd(e *Equipment) *Equipment {
	if err := n.Add(e); err != nil {
		panic(err)
	}
	return e
}

// Remove disconnects and unregisters equipment. Nodes left without terminals
// are freed, feeders and LV feeders headed on one of its terminals are
// dropped, and the equipment leaves every remaining membership set.
func (n *Network) Remove(e *Equipment) error {
	if n.equipment[e.id] != e {
		return fmt.Errorf("equipment %s: %w", e.id, ErrUnknownEquipment)
	}
	for _, t := range e.terminals {
		n.disconnect(t)
		delete(n.terminals, t.id)
		for _, f := range n.feederHeads[t] {
			delete(n.feeders, f.id)
		}
		delete(n.feederHeads, t)
		for _, f := range n.lvFeederHeads[t] {
			delete(n.lvFeeders, f.id)
		}
		delete(n.lvFeederHeads, t)
	}
	for _, f := range n.feeders {
		f.normalEquipment.Remove(e)
		f.currentEquipment.Remove(e)
	}
	for _, f := range n.lvFeeders {
		f.normalEquipment.Remove(e)
		f.currentEquipment.Remove(e)
	}
	delete(n.equipment, e.id)
	e.net = nil
	return nil
}

// Connect wires terminals to the node with the given id, creating it when
// needed. An empty id generates one. A terminal already on another node is
// moved.
func (n *Network) Connect(nodeID string, terminals ...*Terminal) (*ConnectivityNode, error) {
	for _, t := range terminals {
		if t.equipment == nil || t.equipment.net != n {
			return nil, fmt.Errorf("terminal %s: %w", t.id, ErrNotInNetwork)
		}
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	node := n.nodes.lookup(nodeID)
	if node == nil {
		node = n.nodes.alloc(nodeID)
	}
	for _, t := range terminals {
		if t.ConnectivityNode() == node {
			continue
		}
		n.disconnect(t)
		t.node = node.handle
		node.terminals = append(node.terminals, t)
	}
	return node, nil
}

// MustConnect is Connect for fixtures; it panics on error.
func (n *Network) MustConnect(nodeID string, terminals ...*Terminal) *ConnectivityNode {
	node, err := n.Connect(nodeID, terminals...)
	if err != nil {
		panic(err)
	}
	return node
}

// ConnectTerminals joins two terminals, reusing whichever node one of them
// is already on.
func (n *Network) ConnectTerminals(a, b *Terminal) (*ConnectivityNode, error) {
	if node := a.ConnectivityNode(); node != nil {
		return n.Connect(node.id, b)
	}
	if node := b.ConnectivityNode(); node != nil {
		return n.Connect(node.id, a)
	}
	return n.Connect("", a, b)
}

// Disconnect detaches a terminal from its node.
func (n *Network) Disconnect(t *Terminal) {
	n.disconnect(t)
}

func (n *Network) disconnect(t *Terminal) {
	node := n.nodes.get(t.node)
	t.node = NodeHandle{}
	if node == nil {
		return
	}
	node.remove(t)
	if len(node.terminals) == 0 {
		n.nodes.release(node)
	}
}

// AddFeeder creates a feeder headed at the given terminal.
func (n *Network) AddFeeder(id string, head *Terminal) (*Feeder, error) {
	if _, ok := n.feeders[id]; ok {
		return nil, fmt.Errorf("feeder %s: %w", id, ErrDuplicateID)
	}
	if head == nil || n.terminals[head.id] != head {
		return nil, fmt.Errorf("feeder %s head: %w", id, ErrUnknownTerminal)
	}
	f := &Feeder{container: newContainer(id, head)}
	n.feeders[id] = f
	n.feederHeads[head] = append(n.feederHeads[head], f)
	return f, nil
}

// AddLvFeeder creates an LV feeder headed at the given terminal.
func (n *Network) AddLvFeeder(id string, head *Terminal) (*LvFeeder, error) {
	if _, ok := n.lvFeeders[id]; ok {
		return nil, fmt.Errorf("lv feeder %s: %w", id, ErrDuplicateID)
	}
	if head == nil || n.terminals[head.id] != head {
		return nil, fmt.Errorf("lv feeder %s head: %w", id, ErrUnknownTerminal)
	}
	f := &LvFeeder{container: newContainer(id, head)}
	n.lvFeeders[id] = f
	n.lvFeederHeads[head] = append(n.lvFeederHeads[head], f)
	return f, nil
}

func (n *Network) Equipment(id string) *Equipment { return n.equipment[id] }
func (n *Network) Terminal(id string) *Terminal   { return n.terminals[id] }
func (n *Network) Feeder(id string) *Feeder       { return n.feeders[id] }
func (n *Network) LvFeeder(id string) *LvFeeder   { return n.lvFeeders[id] }

// Node looks up a connectivity node by id.
func (n *Network) Node(id string) *ConnectivityNode { return n.nodes.lookup(id) }

// NodeCount returns the number of live connectivity nodes.
func (n *Network) NodeCount() int { return len(n.nodes.byID) }

// EquipmentCount returns the number of registered equipment.
func (n *Network) EquipmentCount() int { return len(n.equipment) }

// AllEquipment returns every piece of equipment ordered by id.
func (n *Network) AllEquipment() []*Equipment {
	out := make([]*Equipment, 0, len(n.equipment))
	for _, e := range n.equipment {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// AllTerminals returns every terminal ordered by id.
func (n *Network) AllTerminals() []*Terminal {
	out := make([]*Terminal, 0, len(n.terminals))
	for _, t := range n.terminals {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Nodes returns every live connectivity node.
func (n *Network) Nodes() []*ConnectivityNode { return n.nodes.all() }

// Feeders returns every feeder ordered by id.
func (n *Network) Feeders() []*Feeder {
	out := make([]*Feeder, 0, len(n.feeders))
	for _, f := range n.feeders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// LvFeeders returns every LV feeder ordered by id.
func (n *Network) LvFeeders() []*LvFeeder {
	out := make([]*LvFeeder, 0, len(n.lvFeeders))
	for _, f := range n.lvFeeders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// IsFeederHead reports whether t heads any feeder.
func (n *Network) IsFeederHead(t *Terminal) bool { return len(n.feederHeads[t]) > 0 }

// IsLvFeederHead reports whether t heads any LV feeder.
func (n *Network) IsLvFeederHead(t *Terminal) bool { return len(n.lvFeederHeads[t]) > 0 }

// FeederHeads returns the distinct feeder head terminals ordered by id.
func (n *Network) FeederHeads() []*Terminal {
	out := make([]*Terminal, 0, len(n.feederHeads))
	for t := range n.feederHeads {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
