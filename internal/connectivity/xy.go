package connectivity

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
)

var (
	ErrUntrackedPhase   = errors.New("untracked phase")
	ErrInvalidCandidate = errors.New("invalid candidate phase")
)

var (
	xPriority = []phase.SinglePhaseKind{phase.A, phase.B, phase.C}
	yPriority = []phase.SinglePhaseKind{phase.B, phase.C}
)

// XyCandidates gathers evidence for what the placeholder phases X and Y
// really are. Known assignments win over candidates; among candidates the
// most frequent wins, ties going to A then B then C.
type XyCandidates struct {
	known      map[phase.SinglePhaseKind]phase.SinglePhaseKind
	candidates map[phase.SinglePhaseKind][]phase.SinglePhaseKind
}

func NewXyCandidates() *XyCandidates {
	return &XyCandidates{
		known:      make(map[phase.SinglePhaseKind]phase.SinglePhaseKind, 2),
		candidates: make(map[phase.SinglePhaseKind][]phase.SinglePhaseKind, 2),
	}
}

// IsValidCandidate reports whether p may be used for placeholder xy: A, B or
// C for X, and B or C for Y.
func IsValidCandidate(xy, p phase.SinglePhaseKind) bool {
	switch xy {
	case phase.X:
		return p == phase.A || p == phase.B || p == phase.C
	case phase.Y:
		return p == phase.B || p == phase.C
	}
	return false
}

func validate(xy, p phase.SinglePhaseKind) error {
	if xy != phase.X && xy != phase.Y {
		return fmt.Errorf("%w: unable to track phase %s, expected X or Y", ErrUntrackedPhase, xy)
	}
	if IsValidCandidate(xy, p) {
		return nil
	}
	expected := "A, B or C"
	if xy == phase.Y {
		expected = "B or C"
	}
	return fmt.Errorf("%w: unable to use phase %s as a candidate for %s, expected %s", ErrInvalidCandidate, p, xy, expected)
}

// AddKnown records an observed assignment. The first known value for a
// placeholder is kept.
func (c *XyCandidates) AddKnown(xy, p phase.SinglePhaseKind) error {
	if err := validate(xy, p); err != nil {
		return err
	}
	c.offerKnown(xy, p)
	return nil
}

// offerKnown records p for xy when it is a valid assignment, reporting
// whether it was usable. The first known value is kept.
func (c *XyCandidates) offerKnown(xy, p phase.SinglePhaseKind) bool {
	if !IsValidCandidate(xy, p) {
		return false
	}
	if _, ok := c.known[xy]; !ok {
		c.known[xy] = p
	}
	return true
}

// AddCandidates records phases xy was seen next to. Nothing is recorded if
// any phase is invalid.
func (c *XyCandidates) AddCandidates(xy phase.SinglePhaseKind, phases ...phase.SinglePhaseKind) error {
	for _, p := range phases {
		if err := validate(xy, p); err != nil {
			return err
		}
	}
	c.candidates[xy] = append(c.candidates[xy], phases...)
	return nil
}

// offerCandidates records the phases in phases that are valid for xy and
// skips the rest, returning how many were kept.
func (c *XyCandidates) offerCandidates(xy phase.SinglePhaseKind, phases ...phase.SinglePhaseKind) int {
	n := 0
	for _, p := range phases {
		if IsValidCandidate(xy, p) {
			c.candidates[xy] = append(c.candidates[xy], p)
			n++
		}
	}
	return n
}

// Resolve returns the real phase for X and Y. A placeholder without evidence
// maps to NONE, and X and Y never map to the same phase.
func (c *XyCandidates) Resolve() map[phase.SinglePhaseKind]phase.SinglePhaseKind {
	x := c.known[phase.X]
	y := c.known[phase.Y]
	if y == x {
		y = phase.NONE
	}
	if x == phase.NONE {
		x = vote(c.candidates[phase.X], xPriority, y)
	}
	if y == phase.NONE {
		y = vote(c.candidates[phase.Y], yPriority, x)
	}
	return map[phase.SinglePhaseKind]phase.SinglePhaseKind{phase.X: x, phase.Y: y}
}

func vote(candidates, priority []phase.SinglePhaseKind, exclude phase.SinglePhaseKind) phase.SinglePhaseKind {
	counts := make(map[phase.SinglePhaseKind]int, len(priority))
	for _, p := range candidates {
		counts[p]++
	}
	best, bestCount := phase.NONE, 0
	for _, p := range priority {
		if p != exclude && counts[p] > bestCount {
			best, bestCount = p, counts[p]
		}
	}
	return best
}
