// Package feeder labels terminals with their feeder direction and collects
// the equipment each feeder and LV feeder supplies.
package feeder

import (
	"github.com/gyaneshwarpardhi/feedertrace/internal/connectivity"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
	"github.com/gyaneshwarpardhi/feedertrace/internal/trace"
)

// directionStep is a terminal reached with a proposed direction. internal is
// true when the step arrived through equipment (or is a seed), so its next
// hop is across the connectivity node.
type directionStep struct {
	terminal  *network.Terminal
	direction network.FeederDirection
	internal  bool
}

type directionKey struct {
	terminal  *network.Terminal
	direction network.FeederDirection
	internal  bool
}

func keyOf(s directionStep) directionKey {
	return directionKey{terminal: s.terminal, direction: s.direction, internal: s.internal}
}

// DirectionAssignor sets, removes and clears feeder directions. It is not
// safe to run two operations on the same state concurrently; different
// states never share fields.
type DirectionAssignor struct {
	net      *network.Network
	resolver *connectivity.Resolver
	order    trace.QueueOrder
}

func NewDirectionAssignor(net *network.Network, resolver *connectivity.Resolver) *DirectionAssignor {
	return &DirectionAssignor{net: net, resolver: resolver}
}

// WithOrder selects the queue order of the underlying traversals.
func (a *DirectionAssignor) WithOrder(o trace.QueueOrder) *DirectionAssignor {
	a.order = o
	return a
}

// Run labels head DOWNSTREAM and propagates outward, flipping UPSTREAM and
// DOWNSTREAM on every hop. A terminal whose label already covers the
// proposed direction is not expanded again, so a widened label is pushed
// forward exactly once. The head itself is not exempt: a loop that leads
// back to it widens it like any other feeder head the trace reaches, which
// keeps the result independent of the order heads are run in.
func (a *DirectionAssignor) Run(head *network.Terminal, view state.View) trace.Stats {
	return a.run(head, view, nil)
}

// mask trims a proposed direction before it is applied to a terminal.
type mask func(t *network.Terminal, d network.FeederDirection) network.FeederDirection

func (a *DirectionAssignor) run(head *network.Terminal, view state.View, m mask) trace.Stats {
	expand := func(s trace.Step[directionStep]) []directionStep {
		return a.setSuccessors(s.Item, view, m)
	}
	return trace.New(keyOf, expand).
		WithOrder(a.order).
		StopOnStartItems(false).
		AddStopCondition(func(s trace.Step[directionStep]) bool {
			return view.Direction(s.Item.terminal).Covers(s.Item.direction)
		}).
		AddStopCondition(func(s trace.Step[directionStep]) bool {
			return a.isBoundary(s.Item.terminal)
		}).
		AddStepAction(func(s trace.Step[directionStep], _ bool) {
			view.AddDirection(s.Item.terminal, s.Item.direction)
		}).
		Run(directionStep{terminal: head, direction: network.Downstream, internal: true})
}

// isBoundary reports terminals that are labelled but never expanded.
func (a *DirectionAssignor) isBoundary(t *network.Terminal) bool {
	eq := t.Equipment()
	if eq == nil {
		return true
	}
	return eq.IsConnector() || eq.IsZoneTransformer() || a.net.IsFeederHead(t)
}

func (a *DirectionAssignor) setSuccessors(s directionStep, view state.View, m mask) []directionStep {
	next := s.direction.Flip()
	var out []directionStep
	for _, u := range a.hop(s, view) {
		d := next
		if eq := u.Equipment(); eq != nil && eq.IsConnector() {
			d = network.Connector
		}
		if m != nil {
			if d = m(u, d); d == network.None {
				continue
			}
		}
		out = append(out, directionStep{terminal: u, direction: d, internal: !s.internal})
	}
	return out
}

// hop returns the terminals one hop away from s: across the node when s
// arrived internally, otherwise through its equipment unless that equipment
// is open in view or is a zone transformer.
func (a *DirectionAssignor) hop(s directionStep, view state.View) []*network.Terminal {
	var results []connectivity.Result
	if s.internal {
		results = a.resolver.ConnectedTerminalsIn(s.terminal, view)
	} else {
		eq := s.terminal.Equipment()
		if eq == nil || view.IsOpen(eq) || eq.IsZoneTransformer() {
			return nil
		}
		results = a.resolver.InternalTerminals(s.terminal)
	}
	out := make([]*network.Terminal, 0, len(results))
	for _, r := range results {
		out = append(out, r.To)
	}
	return out
}

// Remove takes d off t (all of t's label when d is NONE) and repairs
// everything that depended on it. The labelled region around t is cleared
// and the feeder heads inside it are re-run with t refusing d, so a terminal
// keeps a direction only while some head still feeds it by another path.
// Heads keep DOWNSTREAM.
func (a *DirectionAssignor) Remove(t *network.Terminal, d network.FeederDirection, view state.View) trace.Stats {
	if d == network.None {
		d = view.Direction(t)
	}
	if d == network.None {
		return trace.Stats{}
	}
	heads, stats := a.clear(t, view)
	refuse := func(u *network.Terminal, p network.FeederDirection) network.FeederDirection {
		if u == t {
			return p.Minus(d)
		}
		return p
	}
	for _, h := range heads {
		stats.Add(a.run(h, view, refuse))
	}
	return stats
}

// Clear sets NONE on t and every labelled terminal reachable from it without
// crossing open equipment, zone transformers or busbars. It returns the
// feeder heads it cleared, in discovery order, so the caller can re-run
// them.
func (a *DirectionAssignor) Clear(t *network.Terminal, view state.View) []*network.Terminal {
	heads, _ := a.clear(t, view)
	return heads
}

func (a *DirectionAssignor) clear(t *network.Terminal, view state.View) ([]*network.Terminal, trace.Stats) {
	var heads []*network.Terminal
	seen := make(map[*network.Terminal]bool)
	expand := func(s trace.Step[directionStep]) []directionStep {
		var out []directionStep
		for _, u := range a.hop(s.Item, view) {
			if view.Direction(u) == network.None {
				continue
			}
			out = append(out, directionStep{terminal: u, internal: !s.Item.internal})
		}
		return out
	}
	stats := trace.New(keyOf, expand).
		WithOrder(a.order).
		StopOnStartItems(false).
		AddStopCondition(func(s trace.Step[directionStep]) bool {
			eq := s.Item.terminal.Equipment()
			return eq == nil || eq.IsConnector() || eq.IsZoneTransformer()
		}).
		AddStepAction(func(s trace.Step[directionStep], _ bool) {
			u := s.Item.terminal
			view.SetDirection(u, network.None)
			if a.net.IsFeederHead(u) && !seen[u] {
				seen[u] = true
				heads = append(heads, u)
			}
		}).
		Run(
			directionStep{terminal: t, internal: true},
			directionStep{terminal: t, internal: false},
		)
	return heads, stats
}
