package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

// Validate checks the config for:
//   - Required fields and a known queue order
//   - Duplicate equipment, node and feeder IDs
//   - Parseable phase codes
//   - Connections and feeder heads that reference existing terminals
//   - Terminals wired to more than one node
func Validate(cfg *NetworkConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string
	switch strings.ToLower(cfg.Engine.QueueOrder) {
	case "", "fifo", "lifo":
	default:
		errs = append(errs, fmt.Sprintf("engine: unknown queue_order %q", cfg.Engine.QueueOrder))
	}
	if cfg.Engine.TraceWorkers < 0 || cfg.Engine.QueueDepth < 0 {
		errs = append(errs, "engine: trace_workers and queue_depth must not be negative")
	}

	terminals := make(map[string]bool)
	equipment := make(map[string]bool)
	for i, eq := range cfg.Network.Equipment {
		if eq.ID == "" {
			errs = append(errs, fmt.Sprintf("equipment[%d]: id is required", i))
			continue
		}
		if equipment[eq.ID] {
			errs = append(errs, fmt.Sprintf("duplicate equipment id %q", eq.ID))
			continue
		}
		equipment[eq.ID] = true
		if eq.Kind == "" {
			errs = append(errs, fmt.Sprintf("equipment %s: kind is required", eq.ID))
		}
		if len(eq.Terminals) == 0 {
			errs = append(errs, fmt.Sprintf("equipment %s: at least one terminal is required", eq.ID))
		}
		for j, td := range eq.Terminals {
			loc := fmt.Sprintf("equipment %s terminal %d", eq.ID, j+1)
			nominal, err := phase.Parse(td.Phases)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %s", loc, err))
				continue
			}
			if nominal == phase.CodeNONE {
				errs = append(errs, fmt.Sprintf("%s: phases are required", loc))
			}
			validateStatus(td.NormalPhases, nominal, loc+" normal_phases", &errs)
			validateStatus(td.CurrentPhases, nominal, loc+" current_phases", &errs)
			terminals[TerminalID(eq.ID, j+1)] = true
		}
	}

	nodes := make(map[string]bool)
	wired := make(map[string]string) // terminal id → node
	for i, c := range cfg.Network.Connections {
		loc := fmt.Sprintf("connections[%d]", i)
		if c.Node != "" {
			if nodes[c.Node] {
				errs = append(errs, fmt.Sprintf("duplicate node id %q", c.Node))
			}
			nodes[c.Node] = true
			loc = fmt.Sprintf("node %s", c.Node)
		}
		if len(c.Terminals) == 0 {
			errs = append(errs, fmt.Sprintf("%s: terminals must not be empty", loc))
		}
		for _, tid := range c.Terminals {
			if _, ok := terminals[tid]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown terminal %q", loc, tid))
				continue
			}
			if prev, ok := wired[tid]; ok {
				errs = append(errs, fmt.Sprintf("terminal %s wired twice (%s and %s)", tid, prev, loc))
				continue
			}
			wired[tid] = loc
		}
	}

	validateFeeders("feeder", cfg.Network.Feeders, terminals, &errs)
	validateFeeders("lv feeder", cfg.Network.LvFeeders, terminals, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateStatus(s string, nominal phase.Code, loc string, errs *[]string) {
	if s == "" {
		return
	}
	actual, err := phase.Parse(s)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, err))
		return
	}
	if actual.NumPhases() != nominal.NumPhases() {
		*errs = append(*errs, fmt.Sprintf("%s: %s does not match nominal phases %s", loc, actual, nominal))
	}
}

func validateFeeders(kind string, defs []FeederDef, terminals map[string]bool, errs *[]string) {
	ids := make(map[string]bool)
	for i, f := range defs {
		if f.ID == "" {
			*errs = append(*errs, fmt.Sprintf("%ss[%d]: id is required", kind, i))
			continue
		}
		if ids[f.ID] {
			*errs = append(*errs, fmt.Sprintf("duplicate %s id %q", kind, f.ID))
		}
		ids[f.ID] = true
		if _, ok := terminals[f.Head]; !ok {
			*errs = append(*errs, fmt.Sprintf("%s %s: unknown head terminal %q", kind, f.ID, f.Head))
		}
	}
}

// TerminalID is the id given to terminal seq of equipment id.
func TerminalID(equipmentID string, seq int) string {
	return equipmentID + "-t" + strconv.Itoa(seq)
}
