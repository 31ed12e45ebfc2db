package connectivity

import (
	"sort"

	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

// transformerPaths maps primary phases onto secondary phases:
//   - phases on both windings keep their letter,
//   - s1/s2 secondaries are fed from the primary conductors in order,
//   - leftover placeholders and letters pair up in order,
//   - a neutral only on the secondary is created there (NONE→N).
func transformerPaths(primary, secondary phase.Code) []phase.Path {
	var paths []phase.Path
	add := func(from, to phase.SinglePhaseKind) {
		paths = append(paths, phase.Path{From: from, To: to})
	}

	pp := primary.WithoutNeutral()
	sp := secondary.WithoutNeutral()
	for _, p := range pp.Intersect(sp).SinglePhases() {
		add(p, p)
	}

	fromOnly := pp.Without(sp).Without(phase.CodeS12)
	toOnly := sp.Without(pp)
	if split := toOnly.Secondary(); split != phase.CodeNONE {
		sources := pp.Without(phase.CodeS12).SinglePhases()
		for i, s := range split.SinglePhases() {
			if len(sources) == 0 {
				break
			}
			add(sources[min(i, len(sources)-1)], s)
		}
		toOnly = toOnly.Without(phase.CodeS12)
		fromOnly = phase.CodeNONE
	}

	f, t := fromOnly.SinglePhases(), toOnly.SinglePhases()
	for i := 0; i < len(f) && i < len(t); i++ {
		add(f[i], t[i])
	}

	switch {
	case primary.Contains(phase.N) && secondary.Contains(phase.N):
		add(phase.N, phase.N)
	case secondary.Contains(phase.N):
		add(phase.NONE, phase.N)
	}

	sortPaths(paths)
	return paths
}

// invert flips the direction of every path.
func invert(paths []phase.Path) []phase.Path {
	out := make([]phase.Path, 0, len(paths))
	for _, p := range paths {
		out = append(out, phase.Path{From: p.To, To: p.From})
	}
	sortPaths(out)
	return out
}

// sortPaths orders by source phase; SinglePhaseKind values follow the
// canonical phase order.
func sortPaths(paths []phase.Path) {
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].From < paths[j].From })
}
