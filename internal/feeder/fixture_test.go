package feeder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/feedertrace/internal/connectivity"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/phase"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
)

// fixture builds small three-phase networks for the tracing tests.
type fixture struct {
	t   *testing.T
	net *network.Network
	res *connectivity.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, net: network.New(), res: connectivity.NewResolver()}
}

// add creates equipment with n ABC terminals.
func (f *fixture) add(id string, kind network.Kind, n int) *network.Equipment {
	codes := make([]phase.Code, n)
	for i := range codes {
		codes[i] = phase.CodeABC
	}
	return f.net.MustAdd(network.NewEquipment(id, kind, codes...))
}

func (f *fixture) addPhased(id string, kind network.Kind, codes ...phase.Code) *network.Equipment {
	return f.net.MustAdd(network.NewEquipment(id, kind, codes...))
}

func (f *fixture) wire(node string, ts ...*network.Terminal) {
	f.t.Helper()
	_, err := f.net.Connect(node, ts...)
	require.NoError(f.t, err)
}

// chain wires terminal 2 of each equipment to terminal 1 of the next.
func (f *fixture) chain(eqs ...*network.Equipment) {
	for i := 0; i+1 < len(eqs); i++ {
		f.wire(fmt.Sprintf("n-%s-%s", eqs[i].ID(), eqs[i+1].ID()), eqs[i].Terminal(2), eqs[i+1].Terminal(1))
	}
}

func (f *fixture) feeder(id string, head *network.Terminal) *network.Feeder {
	f.t.Helper()
	fd, err := f.net.AddFeeder(id, head)
	require.NoError(f.t, err)
	return fd
}

func (f *fixture) lvFeeder(id string, head *network.Terminal) *network.LvFeeder {
	f.t.Helper()
	fd, err := f.net.AddLvFeeder(id, head)
	require.NoError(f.t, err)
	return fd
}

func (f *fixture) assignor() *DirectionAssignor {
	return NewDirectionAssignor(f.net, f.res)
}

func (f *fixture) term(id string) *network.Terminal {
	f.t.Helper()
	t := f.net.Terminal(id)
	require.NotNil(f.t, t, "terminal %s", id)
	return t
}

// directions snapshots every terminal's label in view.
func (f *fixture) directions(view state.View) map[string]network.FeederDirection {
	out := make(map[string]network.FeederDirection)
	for _, t := range f.net.AllTerminals() {
		out[t.ID()] = view.Direction(t)
	}
	return out
}

// rebuild resets view and runs every feeder head.
func (f *fixture) rebuild(view state.View) {
	state.ResetDirections(view, f.net)
	a := f.assignor()
	for _, h := range f.net.FeederHeads() {
		a.Run(h, view)
	}
}
