package engine

import (
	"fmt"

	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
)

// TerminalInfo describes one terminal and its labels in both states.
type TerminalInfo struct {
	ID               string                  `json:"id"`
	Equipment        string                  `json:"equipment"`
	Kind             string                  `json:"kind"`
	Sequence         int                     `json:"sequence"`
	Phases           phase.Code              `json:"phases"`
	Node             string                  `json:"node,omitempty"`
	NormalDirection  network.FeederDirection `json:"normal_direction"`
	CurrentDirection network.FeederDirection `json:"current_direction"`
	IsFeederHead     bool                    `json:"is_feeder_head,omitempty"`
	IsLvFeederHead   bool                    `json:"is_lv_feeder_head,omitempty"`
	NormallyOpen     bool                    `json:"normally_open,omitempty"`
	CurrentlyOpen    bool                    `json:"currently_open,omitempty"`
}

// Connection is one resolved edge from a terminal.
type Connection struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Paths []phase.Path `json:"paths"`
}

// Membership is a feeder's equipment in one state.
type Membership struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Head      string   `json:"head"`
	State     string   `json:"state"`
	Equipment []string `json:"equipment"`
}

// Terminal returns the terminal with the given id.
func (e *Engine) Terminal(id string) (*TerminalInfo, error) {
	for _, v := range state.All {
		e.locks[v].RLock()
	}
	defer func() {
		for i := len(state.All) - 1; i >= 0; i-- {
			e.locks[state.All[i]].RUnlock()
		}
	}()

	n := e.net.Load()
	t := n.Terminal(id)
	if t == nil {
		return nil, fmt.Errorf("terminal %s: %w", id, network.ErrUnknownTerminal)
	}
	eq := t.Equipment()
	info := &TerminalInfo{
		ID:               t.ID(),
		Equipment:        eq.ID(),
		Kind:             eq.Kind().String(),
		Sequence:         t.SequenceNumber(),
		Phases:           t.Phases(),
		NormalDirection:  state.Normal.Direction(t),
		CurrentDirection: state.Current.Direction(t),
		IsFeederHead:     n.IsFeederHead(t),
		IsLvFeederHead:   n.IsLvFeederHead(t),
		NormallyOpen:     eq.NormallyOpen(),
		CurrentlyOpen:    eq.CurrentlyOpen(),
	}
	if node := t.ConnectivityNode(); node != nil {
		info.Node = node.ID()
	}
	return info, nil
}

// Connectivity resolves the terminals wired to id, using view's phase status
// for X/Y evidence.
func (e *Engine) Connectivity(id string, view state.View) ([]Connection, error) {
	mu := e.locks[view]
	mu.RLock()
	defer mu.RUnlock()

	t := e.net.Load().Terminal(id)
	if t == nil {
		return nil, fmt.Errorf("terminal %s: %w", id, network.ErrUnknownTerminal)
	}
	results := e.resolver.ConnectedTerminalsIn(t, view)
	out := make([]Connection, 0, len(results))
	for _, r := range results {
		out = append(out, Connection{From: r.From.ID(), To: r.To.ID(), Paths: r.Paths})
	}
	return out, nil
}

// Feeder returns the membership of feeder id in view.
func (e *Engine) Feeder(id string, view state.View) (*Membership, error) {
	mu := e.locks[view]
	mu.RLock()
	defer mu.RUnlock()

	f := e.net.Load().Feeder(id)
	if f == nil {
		return nil, fmt.Errorf("feeder %s: %w", id, network.ErrUnknownFeeder)
	}
	return membership(f, view), nil
}

// LvFeeder returns the membership of LV feeder id in view.
func (e *Engine) LvFeeder(id string, view state.View) (*Membership, error) {
	mu := e.locks[view]
	mu.RLock()
	defer mu.RUnlock()

	f := e.net.Load().LvFeeder(id)
	if f == nil {
		return nil, fmt.Errorf("lv feeder %s: %w", id, network.ErrUnknownFeeder)
	}
	return membership(f, view), nil
}

func membership(c network.Container, view state.View) *Membership {
	return &Membership{
		ID:        c.ID(),
		Name:      c.Name(),
		Head:      c.HeadTerminal().ID(),
		State:     view.String(),
		Equipment: view.Equipment(c).IDs(),
	}
}
