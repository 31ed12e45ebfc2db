package connectivity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/feedertrace/internal/connectivity"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
)

func paths(pairs ...phase.SinglePhaseKind) []phase.Path {
	out := make([]phase.Path, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, phase.Path{From: pairs[i], To: pairs[i+1]})
	}
	return out
}

// wired creates two single-terminal junctions with the given phases on one node.
func wired(t *testing.T, from, to phase.Code) (*network.Network, *network.Terminal, *network.Terminal) {
	t.Helper()
	n := network.New()
	a := n.MustAdd(network.NewEquipment("a", network.KindJunction, from))
	b := n.MustAdd(network.NewEquipment("b", network.KindJunction, to))
	n.MustConnect("n1", a.Terminal(1), b.Terminal(1))
	return n, a.Terminal(1), b.Terminal(1)
}

func single(t *testing.T, results []connectivity.Result) connectivity.Result {
	t.Helper()
	require.Len(t, results, 1)
	return results[0]
}

func TestConnectedTerminals_Straight(t *testing.T) {
	_, t1, t2 := wired(t, phase.CodeABCN, phase.CodeAN)
	r := connectivity.NewResolver()

	res := single(t, r.ConnectedTerminals(t1))
	assert.Same(t, t1, res.From)
	assert.Same(t, t2, res.To)
	assert.Equal(t, paths(phase.A, phase.A, phase.N, phase.N), res.Paths)
	assert.Equal(t, phase.NONE, res.PathTo(phase.B))

	back := single(t, r.ConnectedTerminals(t2))
	assert.Equal(t, paths(phase.A, phase.A, phase.N, phase.N), back.Paths)
}

func TestConnectedTerminals_XyResolution(t *testing.T) {
	_, t1, t2 := wired(t, phase.CodeXYN, phase.CodeAN)
	r := connectivity.NewResolver()

	res := single(t, r.ConnectedTerminals(t1))
	assert.Equal(t, paths(phase.X, phase.A, phase.N, phase.N), res.Paths, "Y has no evidence")

	back := single(t, r.ConnectedTerminals(t2))
	assert.Equal(t, paths(phase.A, phase.X, phase.N, phase.N), back.Paths)

	t1.SetNormalPhases(phase.CodeBCN)
	res = single(t, r.ConnectedTerminals(t1))
	assert.Equal(t, paths(phase.N, phase.N), res.Paths, "known phases B and C are not on the other side")
}

func TestConnectedTerminals_KnownPhasesAreStateSpecific(t *testing.T) {
	_, t1, _ := wired(t, phase.CodeXYN, phase.CodeABCN)
	t1.SetCurrentPhases(phase.CodeBCN)
	r := connectivity.NewResolver()

	normal := single(t, r.ConnectedTerminalsIn(t1, state.Normal))
	assert.Equal(t, paths(phase.X, phase.A, phase.Y, phase.B, phase.N, phase.N), normal.Paths)

	current := single(t, r.ConnectedTerminalsIn(t1, state.Current))
	assert.Equal(t, paths(phase.X, phase.B, phase.Y, phase.C, phase.N, phase.N), current.Paths)
}

func TestConnectedTerminals_XyVotesAcrossChain(t *testing.T) {
	n := network.New()
	line := n.MustAdd(network.NewEquipment("line", network.KindAcLineSegment, phase.CodeXYN, phase.CodeXYN))
	c1 := n.MustAdd(network.NewEquipment("c1", network.KindEnergyConsumer, phase.CodeCN))
	c2 := n.MustAdd(network.NewEquipment("c2", network.KindEnergyConsumer, phase.CodeCN))
	c3 := n.MustAdd(network.NewEquipment("c3", network.KindEnergyConsumer, phase.CodeBN))
	src := n.MustAdd(network.NewEquipment("src", network.KindEnergySource, phase.CodeABCN))
	n.MustConnect("far", line.Terminal(2), c1.Terminal(1), c2.Terminal(1), c3.Terminal(1))
	n.MustConnect("near", line.Terminal(1), src.Terminal(1))

	r := connectivity.NewResolver()
	res := single(t, r.ConnectedTerminals(line.Terminal(1)))
	// X: A,B,C from src, C twice and B once downstream -> C. Y: B,C from src, C,C,B -> C taken by X -> B.
	assert.Equal(t, paths(phase.X, phase.C, phase.Y, phase.B, phase.N, phase.N), res.Paths)
}

func TestConnectedTerminals_SecondaryOnlyMeetsSecondary(t *testing.T) {
	n := network.New()
	a := n.MustAdd(network.NewEquipment("a", network.KindJunction, phase.CodeS12N))
	b := n.MustAdd(network.NewEquipment("b", network.KindJunction, phase.CodeABC))
	c := n.MustAdd(network.NewEquipment("c", network.KindJunction, phase.CodeS1N))
	n.MustConnect("n1", a.Terminal(1), b.Terminal(1), c.Terminal(1))

	results := connectivity.NewResolver().ConnectedTerminals(a.Terminal(1))
	res := single(t, results)
	assert.Same(t, c.Terminal(1), res.To)
	assert.Equal(t, paths(phase.S1, phase.S1, phase.N, phase.N), res.Paths)
}

func TestConnectedTerminals_Degenerate(t *testing.T) {
	r := connectivity.NewResolver()

	loose := network.NewEquipment("loose", network.KindJunction, phase.CodeABC)
	assert.Empty(t, r.ConnectedTerminals(loose.Terminal(1)), "terminal outside a network")

	n := network.New()
	a := n.MustAdd(network.NewEquipment("a", network.KindJunction, phase.CodeABC))
	assert.Empty(t, r.ConnectedTerminals(a.Terminal(1)), "disconnected terminal")
	assert.Empty(t, r.InternalTerminals(a.Terminal(1)), "single terminal equipment")
}

func TestConnectedTerminals_StaleNodeAfterRemoval(t *testing.T) {
	n, t1, t2 := wired(t, phase.CodeABC, phase.CodeABC)
	handle := t1.NodeHandle()
	require.NoError(t, n.Remove(t2.Equipment()))
	require.NoError(t, n.Remove(t1.Equipment()))

	assert.Nil(t, n.Node("n1"))
	assert.True(t, t1.NodeHandle().IsZero())
	assert.False(t, handle.IsZero())
	assert.Empty(t, connectivity.NewResolver().ConnectedTerminals(t1))
}

func TestInternalTerminals_Line(t *testing.T) {
	n := network.New()
	tee := n.MustAdd(network.NewEquipment("tee", network.KindJunction, phase.CodeABCN, phase.CodeAN, phase.CodeBC))

	results := connectivity.NewResolver().InternalTerminals(tee.Terminal(1))
	require.Len(t, results, 2)
	assert.Equal(t, paths(phase.A, phase.A, phase.N, phase.N), results[0].Paths)
	assert.Equal(t, paths(phase.B, phase.B, phase.C, phase.C), results[1].Paths)
	assert.Equal(t, phase.CodeBC, results[1].ToPhases())
}

func TestInternalTerminals_Transformer(t *testing.T) {
	cases := []struct {
		name               string
		primary, secondary phase.Code
		forward, backward  []phase.Path
	}{
		{
			name:      "three phase keeps letters",
			primary:   phase.CodeABC,
			secondary: phase.CodeABCN,
			forward:   paths(phase.NONE, phase.N, phase.A, phase.A, phase.B, phase.B, phase.C, phase.C),
			backward:  paths(phase.A, phase.A, phase.B, phase.B, phase.C, phase.C, phase.N, phase.NONE),
		},
		{
			name:      "single phase to split secondary",
			primary:   phase.CodeAN,
			secondary: phase.CodeS12N,
			forward:   paths(phase.A, phase.S1, phase.A, phase.S2, phase.N, phase.N),
			backward:  paths(phase.S1, phase.A, phase.S2, phase.A, phase.N, phase.N),
		},
		{
			name:      "two phase to single phase routes through the letter",
			primary:   phase.CodeBC,
			secondary: phase.CodeCN,
			forward:   paths(phase.NONE, phase.N, phase.C, phase.C),
			backward:  paths(phase.C, phase.C, phase.N, phase.NONE),
		},
		{
			name:      "placeholders pair with letters",
			primary:   phase.CodeXY,
			secondary: phase.CodeABN,
			forward:   paths(phase.NONE, phase.N, phase.X, phase.A, phase.Y, phase.B),
			backward:  paths(phase.A, phase.X, phase.B, phase.Y, phase.N, phase.NONE),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := network.New()
			tx := n.MustAdd(network.NewEquipment("tx", network.KindPowerTransformer, tc.primary, tc.secondary))
			r := connectivity.NewResolver()

			forward := single(t, r.InternalTerminals(tx.Terminal(1)))
			assert.Equal(t, tc.forward, forward.Paths)
			backward := single(t, r.InternalTerminals(tx.Terminal(2)))
			assert.Equal(t, tc.backward, backward.Paths)
		})
	}
}
