package network

import (
	"fmt"

	"github.com/gyaneshwarpardhi/feedertrace/internal/config"
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

// Build constructs a Network from a validated NetworkConfig. Directions and
// feeder membership start empty; tracing fills them in.
func Build(cfg *config.NetworkConfig) (*Network, error) {
	n := New()
	for _, def := range cfg.Network.Equipment {
		e, err := buildEquipment(def)
		if err != nil {
			return nil, fmt.Errorf("equipment %s: %w", def.ID, err)
		}
		if err := n.Add(e); err != nil {
			return nil, err
		}
	}
	for i, c := range cfg.Network.Connections {
		terminals := make([]*Terminal, 0, len(c.Terminals))
		for _, id := range c.Terminals {
			t := n.Terminal(id)
			if t == nil {
				return nil, fmt.Errorf("connections[%d]: terminal %s: %w", i, id, ErrUnknownTerminal)
			}
			terminals = append(terminals, t)
		}
		if _, err := n.Connect(c.Node, terminals...); err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
	}
	for _, f := range cfg.Network.Feeders {
		feeder, err := n.AddFeeder(f.ID, n.Terminal(f.Head))
		if err != nil {
			return nil, err
		}
		if f.Name != "" {
			feeder.name = f.Name
		}
	}
	for _, f := range cfg.Network.LvFeeders {
		lv, err := n.AddLvFeeder(f.ID, n.Terminal(f.Head))
		if err != nil {
			return nil, err
		}
		if f.Name != "" {
			lv.name = f.Name
		}
	}
	return n, nil
}

func buildEquipment(def config.EquipmentDef) (*Equipment, error) {
	kind, err := ParseKind(def.Kind)
	if err != nil {
		return nil, err
	}
	codes := make([]phase.Code, len(def.Terminals))
	for i, td := range def.Terminals {
		if codes[i], err = phase.Parse(td.Phases); err != nil {
			return nil, fmt.Errorf("terminal %d: %w", i+1, err)
		}
	}
	e := NewEquipment(def.ID, kind, codes...).
		SetBaseVoltage(def.BaseVoltage).
		SetSubstation(def.Substation).
		SetNormallyOpen(def.NormallyOpen).
		SetCurrentlyOpen(def.NormallyOpen)
	if def.Name != "" {
		e.SetName(def.Name)
	}
	if def.CurrentlyOpen != nil {
		e.SetCurrentlyOpen(*def.CurrentlyOpen)
	}
	for i, td := range def.Terminals {
		t := e.terminals[i]
		t.SetRatedVoltage(td.RatedVoltage)
		normal, err := phase.Parse(td.NormalPhases)
		if err != nil {
			return nil, fmt.Errorf("terminal %d normal phases: %w", i+1, err)
		}
		current := normal
		if td.CurrentPhases != "" {
			if current, err = phase.Parse(td.CurrentPhases); err != nil {
				return nil, fmt.Errorf("terminal %d current phases: %w", i+1, err)
			}
		}
		t.SetNormalPhases(normal)
		t.SetCurrentPhases(current)
	}
	return e, nil
}
