package network

import (
	"fmt"
	"strings"
)

// FeederDirection describes power flow at a terminal relative to the feeder
// head. UPSTREAM and DOWNSTREAM are independent bits; CONNECTOR marks busbar
// terminals that pass direction through without a polarity of their own.
type FeederDirection uint8

const (
	None       FeederDirection = 0
	Upstream   FeederDirection = 1
	Downstream FeederDirection = 2
	Both       FeederDirection = Upstream | Downstream
	Connector  FeederDirection = 4
)

const flowBits = Both

var directionNames = map[FeederDirection]string{
	None:       "NONE",
	Upstream:   "UPSTREAM",
	Downstream: "DOWNSTREAM",
	Both:       "BOTH",
	Connector:  "CONNECTOR",
}

func (d FeederDirection) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("FeederDirection(%d)", uint8(d))
}

// ParseFeederDirection is the inverse of String.
func ParseFeederDirection(s string) (FeederDirection, error) {
	for d, name := range directionNames {
		if strings.EqualFold(name, s) {
			return d, nil
		}
	}
	return None, fmt.Errorf("unknown feeder direction %q", s)
}

// Plus is the union of two directions. Flow components dominate the
// CONNECTOR marker, so BOTH absorbs everything.
func (d FeederDirection) Plus(o FeederDirection) FeederDirection {
	v := d | o
	if v&flowBits != 0 {
		return v & flowBits
	}
	return v
}

// Minus removes the components of o from d.
func (d FeederDirection) Minus(o FeederDirection) FeederDirection {
	return d &^ o
}

// Has reports whether every component of o is part of d. Nothing has NONE.
func (d FeederDirection) Has(o FeederDirection) bool {
	return o != None && d&o == o
}

// Covers reports whether adding o to d would change nothing.
func (d FeederDirection) Covers(o FeederDirection) bool {
	return d.Plus(o) == d
}

// Flip swaps UPSTREAM and DOWNSTREAM; NONE, BOTH and CONNECTOR are unchanged.
func (d FeederDirection) Flip() FeederDirection {
	switch d {
	case Upstream:
		return Downstream
	case Downstream:
		return Upstream
	}
	return d
}

// MarshalText implements encoding.TextMarshaler.
func (d FeederDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
