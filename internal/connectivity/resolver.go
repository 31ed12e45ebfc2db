// Package connectivity works out which terminals are joined with zero
// impedance and how their nominal phases line up.
package connectivity

import (
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
	"github.com/gyaneshwarpardhi/feedertrace/internal/trace"
)

// PhaseStatus supplies observed phases used as known X/Y evidence.
// state.View implements it.
type PhaseStatus interface {
	KnownPhase(t *network.Terminal, p phase.SinglePhaseKind) phase.SinglePhaseKind
}

// Result is one resolved edge of the phase connectivity graph.
type Result struct {
	From  *network.Terminal
	To    *network.Terminal
	Paths []phase.Path
}

// FromPhases returns the source phases that have a path.
func (r Result) FromPhases() phase.Code {
	var c phase.Code
	for _, p := range r.Paths {
		c |= phase.Of(p.From)
	}
	return c
}

// ToPhases returns the destination phases that have a path.
func (r Result) ToPhases() phase.Code {
	var c phase.Code
	for _, p := range r.Paths {
		c |= phase.Of(p.To)
	}
	return c
}

// PathTo returns the phase that from maps onto, or NONE.
func (r Result) PathTo(from phase.SinglePhaseKind) phase.SinglePhaseKind {
	for _, p := range r.Paths {
		if p.From == from {
			return p.To
		}
	}
	return phase.NONE
}

// Resolver finds zero-impedance neighbours of terminals. It holds no state
// and is safe for concurrent use.
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

// ConnectedTerminals returns the terminals sharing t's connectivity node,
// using the normal phase status for X/Y evidence.
func (r *Resolver) ConnectedTerminals(t *network.Terminal) []Result {
	return r.ConnectedTerminalsIn(t, state.Normal)
}

// ConnectedTerminalsIn is ConnectedTerminals with the phase status of the
// given state. Terminals without a shared phase are left out, as are
// terminals whose node reference does not point back at the node.
func (r *Resolver) ConnectedTerminalsIn(t *network.Terminal, status PhaseStatus) []Result {
	node := t.ConnectivityNode()
	if node == nil {
		return nil
	}
	var out []Result
	for _, other := range node.Terminals() {
		if other == t || other.ConnectivityNode() != node {
			continue
		}
		if res := r.Between(t, other, status); len(res.Paths) > 0 {
			out = append(out, res)
		}
	}
	return out
}

// InternalTerminals returns the other terminals of t's equipment reachable
// through it. Transformers use the winding table; everything else connects
// the phases both terminals share.
func (r *Resolver) InternalTerminals(t *network.Terminal) []Result {
	eq := t.Equipment()
	if eq == nil {
		return nil
	}
	var out []Result
	for _, other := range eq.OtherTerminals(t) {
		res := Result{From: t, To: other, Paths: internalPaths(eq, t, other)}
		if len(res.Paths) > 0 {
			out = append(out, res)
		}
	}
	return out
}

func internalPaths(eq *network.Equipment, from, to *network.Terminal) []phase.Path {
	if !eq.IsTransformer() {
		return straightPaths(from.Phases(), to.Phases())
	}
	if from.SequenceNumber() < to.SequenceNumber() {
		return transformerPaths(from.Phases(), to.Phases())
	}
	return invert(transformerPaths(to.Phases(), from.Phases()))
}

func straightPaths(from, to phase.Code) []phase.Path {
	shared := from.Intersect(to).SinglePhases()
	out := make([]phase.Path, 0, len(shared))
	for _, p := range shared {
		out = append(out, phase.Path{From: p, To: p})
	}
	return out
}

// Between resolves the phase paths from one terminal to another wired to the
// same node. Phases both sides carry connect straight; a placeholder on one
// side only connects to the phase it resolves to, if the other side has it.
func (r *Resolver) Between(from, to *network.Terminal, status PhaseStatus) Result {
	res := Result{From: from, To: to}
	fp, tp := from.Phases(), to.Phases()
	shared := fp.Intersect(tp)
	fromXY := fp.Placeholders().Without(tp)
	toXY := tp.Placeholders().Without(fp)

	var fromResolved, toResolved map[phase.SinglePhaseKind]phase.SinglePhaseKind
	if fromXY != phase.CodeNONE && tp.Lettered() != phase.CodeNONE {
		fromResolved = r.resolveXY(from, status)
	}
	if toXY != phase.CodeNONE && fp.Lettered() != phase.CodeNONE {
		toResolved = r.resolveXY(to, status)
	}

	used := shared
	for _, p := range fp.SinglePhases() {
		switch {
		case shared.Contains(p):
			res.Paths = append(res.Paths, phase.Path{From: p, To: p})
		case fromXY.Contains(p):
			if actual := fromResolved[p]; tp.Contains(actual) && !used.Contains(actual) {
				res.Paths = append(res.Paths, phase.Path{From: p, To: actual})
				used |= phase.Of(actual)
			}
		case p.IsLettered():
			for _, xy := range toXY.SinglePhases() {
				if toResolved[xy] == p && !used.Contains(xy) {
					res.Paths = append(res.Paths, phase.Path{From: p, To: xy})
					used |= phase.Of(xy)
					break
				}
			}
		}
	}
	return res
}

// resolveXY follows the chain of placeholder terminals around start,
// collecting known phases from their status and candidates from the
// lettered terminals next to them.
func (r *Resolver) resolveXY(start *network.Terminal, status PhaseStatus) map[phase.SinglePhaseKind]phase.SinglePhaseKind {
	candidates := NewXyCandidates()
	trace.New(
		func(t *network.Terminal) *network.Terminal { return t },
		func(s trace.Step[*network.Terminal]) []*network.Terminal { return xyChain(s.Item) },
	).
		AddStepAction(func(s trace.Step[*network.Terminal], _ bool) {
			collectEvidence(s.Item, candidates, status)
		}).
		Run(start)
	return candidates.Resolve()
}

func collectEvidence(t *network.Terminal, candidates *XyCandidates, status PhaseStatus) {
	placeholders := t.Phases().Placeholders().SinglePhases()
	for _, xy := range placeholders {
		candidates.offerKnown(xy, status.KnownPhase(t, xy))
	}
	node := t.ConnectivityNode()
	if node == nil {
		return
	}
	for _, other := range node.Terminals() {
		if other == t || other.ConnectivityNode() != node {
			continue
		}
		lettered := other.Phases().Lettered().SinglePhases()
		for _, xy := range placeholders {
			if other.Phases().Contains(xy) {
				continue
			}
			candidates.offerCandidates(xy, lettered...)
		}
	}
}

// xyChain returns the terminals that carry one of t's placeholders straight
// through: neighbours on the node, and the other ends of non-transformer
// equipment.
func xyChain(t *network.Terminal) []*network.Terminal {
	placeholders := t.Phases().Placeholders()
	var out []*network.Terminal
	if node := t.ConnectivityNode(); node != nil {
		for _, other := range node.Terminals() {
			if other != t && other.ConnectivityNode() == node && other.Phases().Intersect(placeholders) != phase.CodeNONE {
				out = append(out, other)
			}
		}
	}
	if eq := t.Equipment(); eq != nil && !eq.IsTransformer() {
		for _, other := range eq.OtherTerminals(t) {
			if other.Phases().Intersect(placeholders) != phase.CodeNONE {
				out = append(out, other)
			}
		}
	}
	return out
}
