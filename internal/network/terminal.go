package network

import (
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

// VoltageClass groups terminals for feeder boundary checks.
type VoltageClass int

const (
	VoltageUnknown VoltageClass = iota
	VoltageLV
	VoltageHV
)

// lvLimit is the first voltage (in volts) that counts as HV.
const lvLimit = 1000

// Terminal is a connection point of one piece of equipment.
type Terminal struct {
	id           string
	equipment    *Equipment
	phases       phase.Code
	seq          int
	ratedVoltage int
	node         NodeHandle

	normalDirection  FeederDirection
	currentDirection FeederDirection

	normalPhases  map[phase.SinglePhaseKind]phase.SinglePhaseKind
	currentPhases map[phase.SinglePhaseKind]phase.SinglePhaseKind
}

func (t *Terminal) ID() string { return t.id }

// Equipment is the owner of the terminal; nil for a detached terminal.
func (t *Terminal) Equipment() *Equipment { return t.equipment }

func (t *Terminal) Phases() phase.Code { return t.phases }

// SequenceNumber is the 1-based position on the equipment.
func (t *Terminal) SequenceNumber() int { return t.seq }

// SetRatedVoltage overrides the equipment base voltage for this terminal,
// e.g. the secondary end of a transformer.
func (t *Terminal) SetRatedVoltage(v int) *Terminal {
	t.ratedVoltage = v
	return t
}

// Voltage is the terminal's rated voltage, falling back to the equipment.
func (t *Terminal) Voltage() int {
	if t.ratedVoltage > 0 {
		return t.ratedVoltage
	}
	if t.equipment == nil {
		return 0
	}
	return t.equipment.baseVoltage
}

func (t *Terminal) VoltageClass() VoltageClass {
	v := t.Voltage()
	switch {
	case v <= 0:
		return VoltageUnknown
	case v < lvLimit:
		return VoltageLV
	default:
		return VoltageHV
	}
}

// ConnectivityNode resolves the terminal's node handle, returning nil when
// the terminal is disconnected or the node has since been freed.
func (t *Terminal) ConnectivityNode() *ConnectivityNode {
	if t.equipment == nil || t.equipment.net == nil {
		return nil
	}
	return t.equipment.net.nodes.get(t.node)
}

// NodeHandle is the raw arena handle, mostly useful for diagnostics.
func (t *Terminal) NodeHandle() NodeHandle { return t.node }

func (t *Terminal) NormalFeederDirection() FeederDirection  { return t.normalDirection }
func (t *Terminal) CurrentFeederDirection() FeederDirection { return t.currentDirection }

func (t *Terminal) SetNormalFeederDirection(d FeederDirection)  { t.normalDirection = d }
func (t *Terminal) SetCurrentFeederDirection(d FeederDirection) { t.currentDirection = d }

// NormalPhase is the real phase observed on nominal phase p in the normal
// state, NONE when not known.
func (t *Terminal) NormalPhase(p phase.SinglePhaseKind) phase.SinglePhaseKind {
	return t.normalPhases[p]
}

// CurrentPhase is NormalPhase for the current state.
func (t *Terminal) CurrentPhase(p phase.SinglePhaseKind) phase.SinglePhaseKind {
	return t.currentPhases[p]
}

// SetNormalPhases replaces the normal phase status, assigning the phases of
// actual positionally to the terminal's nominal phases. CodeNONE clears it.
func (t *Terminal) SetNormalPhases(actual phase.Code) {
	t.normalPhases = positional(t.phases, actual)
}

// SetCurrentPhases is SetNormalPhases for the current state.
func (t *Terminal) SetCurrentPhases(actual phase.Code) {
	t.currentPhases = positional(t.phases, actual)
}

func positional(nominal, actual phase.Code) map[phase.SinglePhaseKind]phase.SinglePhaseKind {
	if actual == phase.CodeNONE {
		return nil
	}
	from := nominal.SinglePhases()
	to := actual.SinglePhases()
	m := make(map[phase.SinglePhaseKind]phase.SinglePhaseKind, len(from))
	for i, p := range from {
		if i < len(to) {
			m[p] = to[i]
		}
	}
	return m
}

func (t *Terminal) String() string { return t.id }
