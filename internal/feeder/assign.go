package feeder

import (
	"github.com/gyaneshwarpardhi/feedertrace/internal/connectivity"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
	"github.com/gyaneshwarpardhi/feedertrace/internal/trace"
)

type assignStep struct {
	terminal *network.Terminal
	internal bool
}

// AssignmentTracer collects the equipment supplied from a feeder head,
// stopping at open equipment, other heads of the same kind and voltage
// class transitions.
type AssignmentTracer struct {
	net      *network.Network
	resolver *connectivity.Resolver
	order    trace.QueueOrder
	lv       bool
}

// NewFeederTracer traces HV feeders; it never enters LV terminals.
func NewFeederTracer(net *network.Network, resolver *connectivity.Resolver) *AssignmentTracer {
	return &AssignmentTracer{net: net, resolver: resolver}
}

// NewLvFeederTracer traces LV feeders; it never enters HV terminals.
func NewLvFeederTracer(net *network.Network, resolver *connectivity.Resolver) *AssignmentTracer {
	return &AssignmentTracer{net: net, resolver: resolver, lv: true}
}

func (a *AssignmentTracer) WithOrder(o trace.QueueOrder) *AssignmentTracer {
	a.order = o
	return a
}

// Kind is "feeder" or "lv_feeder".
func (a *AssignmentTracer) Kind() string {
	if a.lv {
		return "lv_feeder"
	}
	return "feeder"
}

func (a *AssignmentTracer) isHead(t *network.Terminal) bool {
	if a.lv {
		return a.net.IsLvFeederHead(t)
	}
	return a.net.IsFeederHead(t)
}

func (a *AssignmentTracer) excluded(t *network.Terminal) bool {
	if a.lv {
		return t.VoltageClass() == network.VoltageHV
	}
	return t.VoltageClass() == network.VoltageLV
}

// Run returns the equipment reachable from head in view. The equipment of
// every reached terminal is included, even where the trace stops.
func (a *AssignmentTracer) Run(head *network.Terminal, view state.View) *network.EquipmentSet {
	set := network.NewEquipmentSet()
	if head == nil || head.Equipment() == nil {
		return set
	}
	expand := func(s trace.Step[assignStep]) []assignStep {
		var results []connectivity.Result
		if s.Item.internal {
			results = a.resolver.ConnectedTerminalsIn(s.Item.terminal, view)
		} else {
			results = a.resolver.InternalTerminals(s.Item.terminal)
		}
		out := make([]assignStep, 0, len(results))
		for _, r := range results {
			if r.To == head || a.excluded(r.To) {
				continue
			}
			out = append(out, assignStep{terminal: r.To, internal: !s.Item.internal})
		}
		return out
	}
	trace.New(func(s assignStep) assignStep { return s }, expand).
		WithOrder(a.order).
		StopOnStartItems(false).
		AddStopCondition(func(s trace.Step[assignStep]) bool {
			return !s.Item.internal && view.IsOpen(s.Item.terminal.Equipment())
		}).
		AddStopCondition(func(s trace.Step[assignStep]) bool {
			return a.isHead(s.Item.terminal)
		}).
		AddStepAction(func(s trace.Step[assignStep], _ bool) {
			set.Add(s.Item.terminal.Equipment())
		}).
		Run(assignStep{terminal: head, internal: true})
	return set
}

// Assign replaces c's membership in view with what Run reaches from its head.
func (a *AssignmentTracer) Assign(c network.Container, view state.View) *network.EquipmentSet {
	set := a.Run(c.HeadTerminal(), view)
	view.Equipment(c).Replace(set)
	return set
}

// AssignAll runs Assign for every container of the tracer's kind, returning
// the total membership assigned.
func (a *AssignmentTracer) AssignAll(view state.View) int {
	total := 0
	for _, c := range a.containers() {
		total += a.Assign(c, view).Len()
	}
	return total
}

func (a *AssignmentTracer) containers() []network.Container {
	var out []network.Container
	if a.lv {
		for _, f := range a.net.LvFeeders() {
			out = append(out, f)
		}
		return out
	}
	for _, f := range a.net.Feeders() {
		out = append(out, f)
	}
	return out
}
