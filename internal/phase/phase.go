package phase

import (
	"fmt"
	"strings"
)

// SinglePhaseKind is one conductor of a terminal.
type SinglePhaseKind uint8

const (
	NONE SinglePhaseKind = iota
	A
	B
	C
	X
	Y
	S1
	S2
	N
)

// canonical is the order single phases appear in a Code.
var canonical = []SinglePhaseKind{A, B, C, X, Y, S1, S2, N}

var phaseNames = map[SinglePhaseKind]string{
	NONE: "NONE",
	A:    "A",
	B:    "B",
	C:    "C",
	X:    "X",
	Y:    "Y",
	S1:   "s1",
	S2:   "s2",
	N:    "N",
}

func (p SinglePhaseKind) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("SinglePhaseKind(%d)", uint8(p))
}

// IsPlaceholder reports whether p is X or Y.
func (p SinglePhaseKind) IsPlaceholder() bool { return p == X || p == Y }

// IsLettered reports whether p is A, B or C.
func (p SinglePhaseKind) IsLettered() bool { return p == A || p == B || p == C }

// IsSecondary reports whether p is s1 or s2.
func (p SinglePhaseKind) IsSecondary() bool { return p == S1 || p == S2 }

func (p SinglePhaseKind) bit() Code {
	if p == NONE {
		return 0
	}
	return 1 << (p - 1)
}

// Code is an ordered set of single phases, e.g. ABCN or XYN.
type Code uint16

const (
	CodeNONE Code = 0

	CodeA    = Code(1 << (A - 1))
	CodeB    = Code(1 << (B - 1))
	CodeC    = Code(1 << (C - 1))
	CodeX    = Code(1 << (X - 1))
	CodeY    = Code(1 << (Y - 1))
	CodeS1   = Code(1 << (S1 - 1))
	CodeS2   = Code(1 << (S2 - 1))
	CodeN    = Code(1 << (N - 1))
	CodeAB   = CodeA | CodeB
	CodeAC   = CodeA | CodeC
	CodeBC   = CodeB | CodeC
	CodeXY   = CodeX | CodeY
	CodeABC  = CodeA | CodeB | CodeC
	CodeAN   = CodeA | CodeN
	CodeBN   = CodeB | CodeN
	CodeCN   = CodeC | CodeN
	CodeXN   = CodeX | CodeN
	CodeYN   = CodeY | CodeN
	CodeABN  = CodeAB | CodeN
	CodeBCN  = CodeBC | CodeN
	CodeACN  = CodeAC | CodeN
	CodeXYN  = CodeXY | CodeN
	CodeABCN = CodeABC | CodeN
	CodeS12  = CodeS1 | CodeS2
	CodeS1N  = CodeS1 | CodeN
	CodeS2N  = CodeS2 | CodeN
	CodeS12N = CodeS12 | CodeN
)

// Of builds a Code from single phases. NONE is ignored.
func Of(phases ...SinglePhaseKind) Code {
	var c Code
	for _, p := range phases {
		c |= p.bit()
	}
	return c
}

// SinglePhases returns the phases in canonical order.
func (c Code) SinglePhases() []SinglePhaseKind {
	out := make([]SinglePhaseKind, 0, 4)
	for _, p := range canonical {
		if c&p.bit() != 0 {
			out = append(out, p)
		}
	}
	return out
}

// Contains reports whether p is part of the code.
func (c Code) Contains(p SinglePhaseKind) bool {
	return p != NONE && c&p.bit() != 0
}

// NumPhases counts the single phases, including N.
func (c Code) NumPhases() int { return len(c.SinglePhases()) }

// Intersect returns the phases present in both codes.
func (c Code) Intersect(o Code) Code { return c & o }

// Without removes the phases of o.
func (c Code) Without(o Code) Code { return c &^ o }

// Placeholders returns only the X and Y phases.
func (c Code) Placeholders() Code { return c & CodeXY }

// Lettered returns only the A, B and C phases.
func (c Code) Lettered() Code { return c & CodeABC }

// Secondary returns only the s1 and s2 phases.
func (c Code) Secondary() Code { return c & CodeS12 }

// WithoutNeutral drops N.
func (c Code) WithoutNeutral() Code { return c &^ CodeN }

func (c Code) String() string {
	if c == CodeNONE {
		return "NONE"
	}
	var sb strings.Builder
	for _, p := range c.SinglePhases() {
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Parse reads a code such as "ABCN", "XYN", "s1s2N" or "NONE".
func Parse(s string) (Code, error) {
	if s == "" || strings.EqualFold(s, "NONE") {
		return CodeNONE, nil
	}
	var c Code
	for i := 0; i < len(s); i++ {
		var p SinglePhaseKind
		switch s[i] {
		case 'A':
			p = A
		case 'B':
			p = B
		case 'C':
			p = C
		case 'X':
			p = X
		case 'Y':
			p = Y
		case 'N':
			p = N
		case 's':
			if i+1 >= len(s) {
				return CodeNONE, fmt.Errorf("phase code %q: dangling 's'", s)
			}
			i++
			switch s[i] {
			case '1':
				p = S1
			case '2':
				p = S2
			default:
				return CodeNONE, fmt.Errorf("phase code %q: unknown secondary phase s%c", s, s[i])
			}
		default:
			return CodeNONE, fmt.Errorf("phase code %q: unknown phase %q", s, s[i])
		}
		if c.Contains(p) {
			return CodeNONE, fmt.Errorf("phase code %q: duplicate phase %s", s, p)
		}
		c |= p.bit()
	}
	return c, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Code {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Path maps one nominal phase of a terminal onto a nominal phase of a
// connected terminal.
type Path struct {
	From SinglePhaseKind `json:"from"`
	To   SinglePhaseKind `json:"to"`
}

func (p Path) String() string { return p.From.String() + "->" + p.To.String() }

// MarshalText implements encoding.TextMarshaler.
func (p SinglePhaseKind) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
