package network

// EquipmentSet is an insertion-ordered set of equipment.
type EquipmentSet struct {
	index map[*Equipment]int
	items []*Equipment
}

func NewEquipmentSet() *EquipmentSet {
	return &EquipmentSet{index: make(map[*Equipment]int)}
}

// Add inserts e, returning false if it was already present.
func (s *EquipmentSet) Add(e *Equipment) bool {
	if _, ok := s.index[e]; ok {
		return false
	}
	s.index[e] = len(s.items)
	s.items = append(s.items, e)
	return true
}

func (s *EquipmentSet) Contains(e *Equipment) bool {
	_, ok := s.index[e]
	return ok
}

// Remove deletes e, keeping the order of the rest.
func (s *EquipmentSet) Remove(e *Equipment) bool {
	i, ok := s.index[e]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, e)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *EquipmentSet) Len() int { return len(s.items) }

// Items returns the members in insertion order. The slice must not be modified.
func (s *EquipmentSet) Items() []*Equipment { return s.items }

// IDs returns the member ids in insertion order.
func (s *EquipmentSet) IDs() []string {
	out := make([]string, len(s.items))
	for i, e := range s.items {
		out[i] = e.id
	}
	return out
}

// Replace swaps the content for that of o.
func (s *EquipmentSet) Replace(o *EquipmentSet) {
	s.index = make(map[*Equipment]int, o.Len())
	s.items = s.items[:0]
	for _, e := range o.items {
		s.Add(e)
	}
}

// Container is a feeder-like grouping of equipment energised from one head
// terminal, with one membership set per state.
type Container interface {
	ID() string
	Name() string
	HeadTerminal() *Terminal
	NormalEquipment() *EquipmentSet
	CurrentEquipment() *EquipmentSet
}

type container struct {
	id               string
	name             string
	head             *Terminal
	normalEquipment  *EquipmentSet
	currentEquipment *EquipmentSet
}

func newContainer(id string, head *Terminal) container {
	return container{
		id:               id,
		name:             id,
		head:             head,
		normalEquipment:  NewEquipmentSet(),
		currentEquipment: NewEquipmentSet(),
	}
}

func (c *container) ID() string                      { return c.id }
func (c *container) Name() string                    { return c.name }
func (c *container) HeadTerminal() *Terminal         { return c.head }
func (c *container) NormalEquipment() *EquipmentSet  { return c.normalEquipment }
func (c *container) CurrentEquipment() *EquipmentSet { return c.currentEquipment }

// Feeder is the equipment energised from one HV source point.
type Feeder struct {
	container
}

// LvFeeder is the equipment energised from one low-voltage source point.
type LvFeeder struct {
	container
}
