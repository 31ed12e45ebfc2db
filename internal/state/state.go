// Package state selects which of the two state dimensions (normal or
// current) an algorithm reads and writes. Every tracing algorithm takes a
// View so the same code runs over either dimension without touching the
// other's fields.
package state

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

// View reads and writes the per-state fields of the network model.
type View interface {
	fmt.Stringer

	// IsOpen reports whether the equipment is open in this state.
	IsOpen(e *network.Equipment) bool
	SetOpen(e *network.Equipment, open bool)

	Direction(t *network.Terminal) network.FeederDirection
	SetDirection(t *network.Terminal, d network.FeederDirection)
	// AddDirection unions d into the terminal's direction, reporting a change.
	AddDirection(t *network.Terminal, d network.FeederDirection) bool
	// RemoveDirection removes d from the terminal's direction, reporting a change.
	RemoveDirection(t *network.Terminal, d network.FeederDirection) bool

	// KnownPhase is the observed real phase of nominal phase p, NONE if unknown.
	KnownPhase(t *network.Terminal, p phase.SinglePhaseKind) phase.SinglePhaseKind

	// Equipment is the container's membership set for this state.
	Equipment(c network.Container) *network.EquipmentSet
}

type normalView struct{}

type currentView struct{}

var (
	Normal  View = normalView{}
	Current View = currentView{}
)

// All lists both views, normal first.
var All = []View{Normal, Current}

// Parse maps "normal" or "current" (case-insensitive) to a View. An empty
// string selects Normal.
func Parse(s string) (View, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return Normal, nil
	case "current":
		return Current, nil
	}
	return nil, fmt.Errorf("unknown state %q, expected normal or current", s)
}

func (normalView) String() string { return "normal" }

func (normalView) IsOpen(e *network.Equipment) bool { return e.NormallyOpen() }

func (normalView) SetOpen(e *network.Equipment, open bool) { e.SetNormallyOpen(open) }

func (normalView) Direction(t *network.Terminal) network.FeederDirection {
	return t.NormalFeederDirection()
}

func (normalView) SetDirection(t *network.Terminal, d network.FeederDirection) {
	t.SetNormalFeederDirection(d)
}

func (v normalView) AddDirection(t *network.Terminal, d network.FeederDirection) bool {
	return update(t, d, v.Direction, v.SetDirection, network.FeederDirection.Plus)
}

func (v normalView) RemoveDirection(t *network.Terminal, d network.FeederDirection) bool {
	return update(t, d, v.Direction, v.SetDirection, network.FeederDirection.Minus)
}

func (normalView) KnownPhase(t *network.Terminal, p phase.SinglePhaseKind) phase.SinglePhaseKind {
	return t.NormalPhase(p)
}

func (normalView) Equipment(c network.Container) *network.EquipmentSet { return c.NormalEquipment() }

func (currentView) String() string { return "current" }

func (currentView) IsOpen(e *network.Equipment) bool { return e.CurrentlyOpen() }

func (currentView) SetOpen(e *network.Equipment, open bool) { e.SetCurrentlyOpen(open) }

func (currentView) Direction(t *network.Terminal) network.FeederDirection {
	return t.CurrentFeederDirection()
}

func (currentView) SetDirection(t *network.Terminal, d network.FeederDirection) {
	t.SetCurrentFeederDirection(d)
}

func (v currentView) AddDirection(t *network.Terminal, d network.FeederDirection) bool {
	return update(t, d, v.Direction, v.SetDirection, network.FeederDirection.Plus)
}

func (v currentView) RemoveDirection(t *network.Terminal, d network.FeederDirection) bool {
	return update(t, d, v.Direction, v.SetDirection, network.FeederDirection.Minus)
}

func (currentView) KnownPhase(t *network.Terminal, p phase.SinglePhaseKind) phase.SinglePhaseKind {
	return t.CurrentPhase(p)
}

func (currentView) Equipment(c network.Container) *network.EquipmentSet { return c.CurrentEquipment() }

func update(
	t *network.Terminal,
	d network.FeederDirection,
	get func(*network.Terminal) network.FeederDirection,
	set func(*network.Terminal, network.FeederDirection),
	op func(network.FeederDirection, network.FeederDirection) network.FeederDirection,
) bool {
	prev := get(t)
	next := op(prev, d)
	if next == prev {
		return false
	}
	set(t, next)
	return true
}

// ResetDirections sets every terminal's direction to NONE in this view.
func ResetDirections(v View, n *network.Network) {
	for _, t := range n.AllTerminals() {
		v.SetDirection(t, network.None)
	}
}
