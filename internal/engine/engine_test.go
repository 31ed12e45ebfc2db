package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/feedertrace/internal/config"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
)

const testNetwork = `
version: "1"
network:
  equipment:
    - id: b0
      kind: breaker
      base_voltage: 11000
      terminals: [{phases: ABC}, {phases: ABC}]
    - id: c1
      kind: ac_line_segment
      base_voltage: 11000
      terminals: [{phases: ABC}, {phases: ABC}]
    - id: sw
      kind: disconnector
      base_voltage: 11000
      terminals: [{phases: ABC}, {phases: ABC}]
    - id: c2
      kind: ac_line_segment
      base_voltage: 11000
      terminals: [{phases: ABC}, {phases: ABC}]
    - id: tx
      kind: power_transformer
      base_voltage: 11000
      terminals: [{phases: ABC}, {phases: ABCN, rated_voltage: 415}]
    - id: lv
      kind: ac_line_segment
      base_voltage: 415
      terminals: [{phases: ABCN}, {phases: ABCN}]
  connections:
    - {node: n1, terminals: [b0-t2, c1-t1]}
    - {node: n2, terminals: [c1-t2, sw-t1]}
    - {node: n3, terminals: [sw-t2, c2-t1]}
    - {node: n4, terminals: [c2-t2, tx-t1]}
    - {node: n5, terminals: [tx-t2, lv-t1]}
  feeders:
    - {id: f1, head: b0-t2}
  lv_feeders:
    - {id: lv1, head: tx-t2}
`

func buildNetwork(t *testing.T) (*network.Network, config.EngineConf) {
	t.Helper()
	cfg, err := config.Parse([]byte(testNetwork))
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	n, err := network.Build(cfg)
	require.NoError(t, err)
	return n, cfg.Engine
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	n, conf := buildNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())
	e := New(ctx, n, conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})
	return e
}

func directions(n *network.Network, view state.View) map[string]network.FeederDirection {
	out := make(map[string]network.FeederDirection)
	for _, t := range n.AllTerminals() {
		out[t.ID()] = view.Direction(t)
	}
	return out
}

func TestRebuild(t *testing.T) {
	e := newTestEngine(t)
	assert.False(t, e.Ready())

	res, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	require.Len(t, res.States, 2)
	assert.True(t, e.Ready())

	for _, s := range res.States {
		assert.Equal(t, "rebuild", s.Operation)
		assert.Equal(t, 1, s.Heads)
		assert.Equal(t, 5, s.Feeders, "b0 c1 sw c2 tx")
		assert.Equal(t, 2, s.LvFeeders, "tx lv")
	}

	info, err := e.Terminal("lv-t2")
	require.NoError(t, err)
	assert.Equal(t, network.Downstream, info.NormalDirection)
	assert.Equal(t, network.Downstream, info.CurrentDirection)
	assert.Equal(t, "ac_line_segment", info.Kind)
}

func TestSetOpen_RepairsOnlyThatState(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Rebuild(ctx)
	require.NoError(t, err)

	res, err := e.SetOpen(ctx, "sw", state.Current, true)
	require.NoError(t, err)
	assert.Equal(t, "switch", res.Operation)
	assert.Equal(t, 1, res.Heads)

	current, err := e.Feeder("f1", state.Current)
	require.NoError(t, err)
	assert.Equal(t, []string{"b0", "c1", "sw"}, current.Equipment)
	normal, err := e.Feeder("f1", state.Normal)
	require.NoError(t, err)
	assert.Equal(t, []string{"b0", "c1", "sw", "c2", "tx"}, normal.Equipment)

	n := e.Network()
	assert.Equal(t, network.None, state.Current.Direction(n.Terminal("c2-t1")))
	assert.Equal(t, network.Upstream, state.Normal.Direction(n.Terminal("c2-t1")))

	incremental := directions(n, state.Current)
	_, err = e.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, directions(n, state.Current), incremental, "incremental repair matches a full rebuild")

	_, err = e.SetOpen(ctx, "sw", state.Current, false)
	require.NoError(t, err)
	assert.Equal(t, directions(n, state.Normal), directions(n, state.Current))
}

func TestSetOpen_Errors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.SetOpen(ctx, "nope", state.Normal, true)
	assert.True(t, errors.Is(err, network.ErrUnknownEquipment))

	_, err = e.SetOpen(ctx, "c1", state.Normal, true)
	assert.True(t, errors.Is(err, ErrNotSwitch))

	res, err := e.SetOpen(ctx, "sw", state.Normal, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Heads, "already closed")
}

func TestQueries(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Rebuild(context.Background())
	require.NoError(t, err)

	_, err = e.Terminal("missing-t1")
	assert.True(t, errors.Is(err, network.ErrUnknownTerminal))

	conns, err := e.Connectivity("c1-t1", state.Normal)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "b0-t2", conns[0].To)
	assert.Len(t, conns[0].Paths, 3)

	lv, err := e.LvFeeder("lv1", state.Normal)
	require.NoError(t, err)
	assert.Equal(t, "tx-t2", lv.Head)
	assert.Equal(t, []string{"tx", "lv"}, lv.Equipment)

	_, err = e.Feeder("f9", state.Current)
	assert.True(t, errors.Is(err, network.ErrUnknownFeeder))
}

func TestSwapNetworkRequiresRebuild(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Rebuild(context.Background())
	require.NoError(t, err)

	n, _ := buildNetwork(t)
	e.SwapNetwork(n)
	assert.False(t, e.Ready())
	assert.Same(t, n, e.Network())

	info, err := e.Terminal("c1-t1")
	require.NoError(t, err)
	assert.Equal(t, network.None, info.NormalDirection)
}

func TestConcurrentOperations(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = e.Rebuild(ctx)
		}()
		go func(open bool) {
			defer wg.Done()
			_, _ = e.SetOpen(ctx, "sw", state.Current, open)
			_, _ = e.Feeder("f1", state.Normal)
		}(i%2 == 0)
	}
	wg.Wait()

	_, err := e.Rebuild(ctx)
	require.NoError(t, err)
	f, err := e.Feeder("f1", state.Normal)
	require.NoError(t, err)
	assert.Len(t, f.Equipment, 5)
}

func TestShutdownRejectsWork(t *testing.T) {
	n, conf := buildNetwork(t)
	e := New(context.Background(), n, conf, nil)
	e.Shutdown()

	_, err := e.Rebuild(context.Background())
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, 0.0, e.QueueUtilization())
}

func TestApply(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	before := e.Network()

	bad, err := config.Parse([]byte(testNetwork))
	require.NoError(t, err)
	bad.Network.Feeders[0].Head = "ghost-t1"
	_, err = e.Apply(ctx, bad)
	require.Error(t, err)
	assert.Same(t, before, e.Network(), "invalid config keeps the old network")
	require.NotNil(t, e.LastApply())
	assert.Contains(t, e.LastApply().Error, "ghost-t1")

	good, err := config.Parse([]byte(testNetwork))
	require.NoError(t, err)
	res, err := e.Apply(ctx, good)
	require.NoError(t, err)
	assert.NotSame(t, before, e.Network())
	assert.True(t, e.Ready())
	assert.Equal(t, res.RunID, e.LastApply().RunID)
	assert.Equal(t, 6, e.LastApply().Equipment)
	assert.Empty(t, e.LastApply().Error)
}

func TestExampleNetwork_TieSwitch(t *testing.T) {
	loader, err := config.NewLoader("../../configs/network.yaml")
	require.NoError(t, err)
	cfg := loader.Config()
	require.NoError(t, config.Validate(cfg))
	n, err := network.Build(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	e := New(ctx, n, cfg.Engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})
	_, err = e.Rebuild(ctx)
	require.NoError(t, err)

	f1, err := e.Feeder("F1", state.Normal)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cb1", "ln1", "spur1", "fu1", "nop", "dt1"}, f1.Equipment)
	f2, err := e.Feeder("F2", state.Normal)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cb2", "ln2", "nop"}, f2.Equipment)
	lv, err := e.LvFeeder("LV1", state.Normal)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dt1", "lv1", "ec1"}, lv.Equipment)

	_, err = e.SetOpen(ctx, "nop", state.Current, false)
	require.NoError(t, err)

	nopT1 := n.Terminal("nop-t1")
	assert.Equal(t, network.Upstream, state.Normal.Direction(nopT1))
	assert.Equal(t, network.Both, state.Current.Direction(nopT1))
	assert.Equal(t, network.Both, state.Current.Direction(n.Terminal("ln2-t2")))

	f1, err = e.Feeder("F1", state.Current)
	require.NoError(t, err)
	assert.Subset(t, f1.Equipment, []string{"ln2", "cb2"})
	f2, err = e.Feeder("F2", state.Current)
	require.NoError(t, err)
	assert.Subset(t, f2.Equipment, []string{"ln1", "cb1", "dt1"})
	assert.NotContains(t, f2.Equipment, "lv1", "LV equipment stays out of HV feeders")
}

// loopedNetwork joins two feeders through a junction that carries a loop
// back into itself, with a disconnector on the b1 side.
const loopedNetwork = `
version: "1"
network:
  equipment:
    - {id: b0, kind: breaker, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
    - {id: c1, kind: ac_line_segment, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
    - {id: j, kind: junction, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}, {phases: ABC}, {phases: ABC}]}
    - {id: c2, kind: ac_line_segment, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
    - {id: c3, kind: ac_line_segment, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
    - {id: sw, kind: disconnector, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
    - {id: c4, kind: ac_line_segment, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
    - {id: b1, kind: breaker, base_voltage: 11000, terminals: [{phases: ABC}, {phases: ABC}]}
  connections:
    - {node: n1, terminals: [b0-t2, c1-t1]}
    - {node: n2, terminals: [c1-t2, j-t1]}
    - {node: n3, terminals: [j-t2, c2-t1]}
    - {node: n4, terminals: [c2-t2, c3-t1]}
    - {node: n5, terminals: [c3-t2, j-t3]}
    - {node: n6, terminals: [j-t4, sw-t1]}
    - {node: n7, terminals: [sw-t2, c4-t1]}
    - {node: n8, terminals: [c4-t2, b1-t2]}
  feeders:
    - {id: f1, head: b0-t2}
    - {id: f2, head: b1-t2}
`

func TestSetOpen_MatchesRebuildOnLoopedNetwork(t *testing.T) {
	cfg, err := config.Parse([]byte(loopedNetwork))
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	n, err := network.Build(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	e := New(ctx, n, cfg.Engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})

	_, err = e.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, network.Both, state.Current.Direction(n.Terminal("b0-t2")))
	assert.Equal(t, network.Both, state.Current.Direction(n.Terminal("b1-t2")))

	for _, open := range []bool{true, false, true} {
		res, err := e.SetOpen(ctx, "sw", state.Current, open)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Heads)

		incremental := directions(n, state.Current)
		_, err = e.Rebuild(ctx)
		require.NoError(t, err)
		assert.Equal(t, directions(n, state.Current), incremental, "open=%v", open)
	}

	assert.Equal(t, network.Both, state.Current.Direction(n.Terminal("b0-t2")), "loop still feeds back into b0")
	assert.Equal(t, network.Downstream, state.Current.Direction(n.Terminal("b1-t2")))
	assert.Equal(t, network.Upstream, state.Current.Direction(n.Terminal("sw-t1")))
	assert.Equal(t, network.Upstream, state.Current.Direction(n.Terminal("sw-t2")), "fed from b1 only")
}

func TestDurationMsKeepsFractions(t *testing.T) {
	assert.Equal(t, 0.25, durationMs(250*time.Microsecond))
	assert.Equal(t, 1.5, durationMs(1500*time.Microsecond))
	assert.Equal(t, 0.0, durationMs(0))
}
