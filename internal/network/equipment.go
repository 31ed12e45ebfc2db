package network

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

// Kind is the closed set of equipment types the tracer understands.
type Kind int

const (
	KindJunction Kind = iota
	KindAcLineSegment
	KindBreaker
	KindDisconnector
	KindFuse
	KindRecloser
	KindPowerTransformer
	KindBusbarSection
	KindEnergySource
	KindEnergyConsumer
)

type capability uint8

const (
	capSwitch capability = 1 << iota
	capTransformer
	capConnector
)

type kindInfo struct {
	name string
	caps capability
}

var kinds = map[Kind]kindInfo{
	KindJunction:         {name: "junction"},
	KindAcLineSegment:    {name: "ac_line_segment"},
	KindBreaker:          {name: "breaker", caps: capSwitch},
	KindDisconnector:     {name: "disconnector", caps: capSwitch},
	KindFuse:             {name: "fuse", caps: capSwitch},
	KindRecloser:         {name: "recloser", caps: capSwitch},
	KindPowerTransformer: {name: "power_transformer", caps: capTransformer},
	KindBusbarSection:    {name: "busbar_section", caps: capConnector},
	KindEnergySource:     {name: "energy_source"},
	KindEnergyConsumer:   {name: "energy_consumer"},
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a config name such as "breaker" to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, info := range kinds {
		if strings.EqualFold(info.name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown equipment kind %q", s)
}

func (k Kind) has(c capability) bool { return kinds[k].caps&c != 0 }

// Equipment is a piece of conducting equipment with an ordered, fixed list of
// terminals.
type Equipment struct {
	id           string
	name         string
	kind         Kind
	baseVoltage  int
	substationID string
	terminals    []*Terminal
	normalOpen   bool
	currentOpen  bool
	net          *Network
}

// NewEquipment creates equipment with one terminal per phase code, numbered
// from 1.
func NewEquipment(id string, kind Kind, terminalPhases ...phase.Code) *Equipment {
	e := &Equipment{id: id, name: id, kind: kind}
	e.terminals = make([]*Terminal, len(terminalPhases))
	for i, pc := range terminalPhases {
		e.terminals[i] = &Terminal{
			id:        fmt.Sprintf("%s-t%d", id, i+1),
			equipment: e,
			phases:    pc,
			seq:       i + 1,
		}
	}
	return e
}

func (e *Equipment) ID() string   { return e.id }
func (e *Equipment) Name() string { return e.name }
func (e *Equipment) Kind() Kind   { return e.kind }

// SetName sets a display name.
func (e *Equipment) SetName(name string) *Equipment {
	e.name = name
	return e
}

// BaseVoltage is the nominal voltage in volts, 0 when unknown.
func (e *Equipment) BaseVoltage() int { return e.baseVoltage }

func (e *Equipment) SetBaseVoltage(v int) *Equipment {
	e.baseVoltage = v
	return e
}

// SubstationID is the id of the substation that contains the equipment.
func (e *Equipment) SubstationID() string { return e.substationID }

func (e *Equipment) SetSubstation(id string) *Equipment {
	e.substationID = id
	return e
}

// Terminals returns the terminals in sequence order.
func (e *Equipment) Terminals() []*Terminal { return e.terminals }

// Terminal returns the terminal with sequence number seq (1-based), or nil.
func (e *Equipment) Terminal(seq int) *Terminal {
	if seq < 1 || seq > len(e.terminals) {
		return nil
	}
	return e.terminals[seq-1]
}

// IsSwitch reports whether the equipment can be opened.
func (e *Equipment) IsSwitch() bool { return e.kind.has(capSwitch) }

// IsTransformer reports whether internal paths follow the winding table.
func (e *Equipment) IsTransformer() bool { return e.kind.has(capTransformer) }

// IsConnector reports whether the equipment is a busbar-like connector.
func (e *Equipment) IsConnector() bool { return e.kind.has(capConnector) }

// IsZoneTransformer reports whether the equipment is a transformer inside a
// substation, the upstream boundary of every feeder it supplies.
func (e *Equipment) IsZoneTransformer() bool {
	return e.IsTransformer() && e.substationID != ""
}

// NormallyOpen is the planned open state. Non-switching equipment is never open.
func (e *Equipment) NormallyOpen() bool { return e.IsSwitch() && e.normalOpen }

// CurrentlyOpen is the live open state. Non-switching equipment is never open.
func (e *Equipment) CurrentlyOpen() bool { return e.IsSwitch() && e.currentOpen }

func (e *Equipment) SetNormallyOpen(open bool) *Equipment {
	e.normalOpen = open
	return e
}

func (e *Equipment) SetCurrentlyOpen(open bool) *Equipment {
	e.currentOpen = open
	return e
}

// OtherTerminals returns every terminal of the same equipment except t.
func (e *Equipment) OtherTerminals(t *Terminal) []*Terminal {
	var out []*Terminal
	for _, other := range e.terminals {
		if other != t {
			out = append(out, other)
		}
	}
	return out
}
