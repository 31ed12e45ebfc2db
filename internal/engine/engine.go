package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/feedertrace/internal/config"
	"github.com/gyaneshwarpardhi/feedertrace/internal/connectivity"
	"github.com/gyaneshwarpardhi/feedertrace/internal/feeder"
	"github.com/gyaneshwarpardhi/feedertrace/internal/metrics"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
	"github.com/gyaneshwarpardhi/feedertrace/internal/trace"
)

var (
	ErrQueueFull = errors.New("trace queue full")
	ErrNotSwitch = errors.New("equipment cannot be opened")
)

// StateResult is the outcome of tracing one state of the network.
type StateResult struct {
	State      string `json:"state"`
	Operation  string `json:"operation"`
	Heads      int    `json:"heads"`
	Steps      int    `json:"steps"`
	Feeders    int    `json:"feeder_equipment"`
	LvFeeders  int    `json:"lv_feeder_equipment"`
	DurationMs int64  `json:"duration_ms"`
}

// RebuildResult is the outcome of a full rebuild of both states.
type RebuildResult struct {
	RunID      string         `json:"run_id"`
	DurationMs int64          `json:"duration_ms"`
	States     []*StateResult `json:"states"`
}

type traceWork struct {
	view state.View
	op   string
	run  func(*network.Network) (*StateResult, error)
}

type traceOutcome struct {
	res *StateResult
	err error
}

// Engine owns the loaded network and serialises tracing per state. Normal and
// current work runs concurrently on the worker pool; two jobs for the same
// state take turns on that state's lock.
type Engine struct {
	net      atomic.Pointer[network.Network]
	resolver *connectivity.Resolver
	pool     *workerPool[*traceWork, traceOutcome]
	locks    map[state.View]*sync.RWMutex
	conf     *config.EngineConf
	order    trace.QueueOrder
	logger   *slog.Logger
	rebuilt  atomic.Bool

	lastApply atomic.Pointer[ApplyStatus]
}

// New creates an Engine over net using conf and starts the worker pool.
func New(ctx context.Context, net *network.Network, conf config.EngineConf, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	order, err := trace.ParseQueueOrder(conf.QueueOrder)
	if err != nil {
		logger.Warn("falling back to fifo queue order", "err", err)
	}
	workers := max(conf.TraceWorkers, 1)
	depth := max(conf.QueueDepth, len(state.All))
	e := &Engine{
		resolver: connectivity.NewResolver(),
		locks:    make(map[state.View]*sync.RWMutex, len(state.All)),
		conf:     &conf,
		order:    order,
		logger:   logger,
	}
	for _, v := range state.All {
		e.locks[v] = &sync.RWMutex{}
	}
	e.setNetwork(net)
	e.pool = newWorkerPool[*traceWork, traceOutcome](ctx, workers, depth,
		func(_ context.Context, w *traceWork) traceOutcome {
			return e.runLocked(w)
		},
	)
	return e
}

// Network returns the network currently being traced.
func (e *Engine) Network() *network.Network { return e.net.Load() }

// Ready reports whether a full rebuild has completed since the last swap.
func (e *Engine) Ready() bool { return e.rebuilt.Load() }

// SwapNetwork atomically replaces the network (used on hot-reload). The new
// network is untraced until the next Rebuild.
func (e *Engine) SwapNetwork(n *network.Network) {
	e.lockAll()
	defer e.unlockAll()
	e.setNetwork(n)
}

func (e *Engine) setNetwork(n *network.Network) {
	e.net.Store(n)
	e.rebuilt.Store(false)
	metrics.NetworkSize.WithLabelValues("equipment").Set(float64(n.EquipmentCount()))
	metrics.NetworkSize.WithLabelValues("nodes").Set(float64(n.NodeCount()))
	metrics.NetworkSize.WithLabelValues("feeders").Set(float64(len(n.Feeders())))
	metrics.NetworkSize.WithLabelValues("lv_feeders").Set(float64(len(n.LvFeeders())))
}

func (e *Engine) lockAll() {
	for _, v := range state.All {
		e.locks[v].Lock()
	}
}

func (e *Engine) unlockAll() {
	for i := len(state.All) - 1; i >= 0; i-- {
		e.locks[state.All[i]].Unlock()
	}
}

func (e *Engine) runLocked(w *traceWork) traceOutcome {
	mu := e.locks[w.view]
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	res, err := w.run(e.net.Load())
	elapsed := time.Since(start)
	metrics.TraceDuration.WithLabelValues(w.op, w.view.String()).Observe(durationMs(elapsed))
	if res != nil {
		res.State = w.view.String()
		res.Operation = w.op
		res.DurationMs = elapsed.Milliseconds()
	}
	return traceOutcome{res: res, err: err}
}

// durationMs converts d to fractional milliseconds so sub-millisecond traces
// land in the lowest histogram bucket instead of being truncated to zero.
func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// submit queues every job, or none when the queue cannot take them all, and
// waits for all results, bounded by the trace timeout and ctx.
func (e *Engine) submit(ctx context.Context, jobs ...*traceWork) ([]*StateResult, error) {
	pending, ok := e.pool.SubmitAll(jobs...)
	if !ok {
		metrics.RebuildsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}

	timeout := time.Duration(e.conf.TraceTimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	results := make([]*StateResult, 0, len(pending))
	var errs []error
	for _, c := range pending {
		select {
		case out := <-c:
			if out.err != nil {
				errs = append(errs, out.err)
				continue
			}
			results = append(results, out.res)
		case <-timer.C:
			return nil, fmt.Errorf("trace timeout after %v", timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, errors.Join(errs...)
}

// Rebuild resets and re-traces both states from every feeder head, then
// reassigns feeder and LV feeder membership. The states run concurrently.
func (e *Engine) Rebuild(ctx context.Context) (*RebuildResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	jobs := make([]*traceWork, 0, len(state.All))
	for _, view := range state.All {
		jobs = append(jobs, &traceWork{
			view: view,
			op:   "rebuild",
			run:  func(n *network.Network) (*StateResult, error) { return e.rebuildState(n, view), nil },
		})
	}
	states, err := e.submit(ctx, jobs...)
	if err != nil {
		metrics.Rebuilds.WithLabelValues("error").Inc()
		e.logger.Error("rebuild failed", "run_id", runID, "err", err)
		return nil, err
	}
	metrics.Rebuilds.WithLabelValues("success").Inc()
	e.rebuilt.Store(true)

	res := &RebuildResult{RunID: runID, DurationMs: time.Since(start).Milliseconds(), States: states}
	e.logger.Info("network rebuilt", "run_id", runID, "duration_ms", res.DurationMs)
	return res, nil
}

func (e *Engine) rebuildState(n *network.Network, view state.View) *StateResult {
	state.ResetDirections(view, n)
	res := &StateResult{}
	assignor := feeder.NewDirectionAssignor(n, e.resolver).WithOrder(e.order)
	for _, head := range n.FeederHeads() {
		stats := assignor.Run(head, view)
		res.Heads++
		res.Steps += stats.Steps
	}
	metrics.TracesRun.WithLabelValues("direction", view.String()).Add(float64(res.Heads))
	metrics.TraceSteps.WithLabelValues("direction").Add(float64(res.Steps))
	res.Feeders, res.LvFeeders = e.assignAll(n, view)
	return res
}

func (e *Engine) assignAll(n *network.Network, view state.View) (feeders, lvFeeders int) {
	feeders = feeder.NewFeederTracer(n, e.resolver).WithOrder(e.order).AssignAll(view)
	lvFeeders = feeder.NewLvFeederTracer(n, e.resolver).WithOrder(e.order).AssignAll(view)
	metrics.TracesRun.WithLabelValues("feeder_assignment", view.String()).Add(float64(len(n.Feeders())))
	metrics.TracesRun.WithLabelValues("lv_feeder_assignment", view.String()).Add(float64(len(n.LvFeeders())))
	return feeders, lvFeeders
}

// SetOpen opens or closes a switch in one state and incrementally repairs
// that state: directions are cleared from the switch terminals, every head
// the clear reached is re-run, and feeder membership is reassigned.
func (e *Engine) SetOpen(ctx context.Context, equipmentID string, view state.View, open bool) (*StateResult, error) {
	work := &traceWork{
		view: view,
		op:   "switch",
		run: func(n *network.Network) (*StateResult, error) {
			return e.switchState(n, equipmentID, view, open)
		},
	}
	results, err := e.submit(ctx, work)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (e *Engine) switchState(n *network.Network, equipmentID string, view state.View, open bool) (*StateResult, error) {
	eq := n.Equipment(equipmentID)
	if eq == nil {
		return nil, fmt.Errorf("equipment %s: %w", equipmentID, network.ErrUnknownEquipment)
	}
	if !eq.IsSwitch() {
		return nil, fmt.Errorf("equipment %s (%s): %w", equipmentID, eq.Kind(), ErrNotSwitch)
	}
	action := "close"
	if open {
		action = "open"
	}
	res := &StateResult{}
	if view.IsOpen(eq) == open {
		return res, nil
	}
	view.SetOpen(eq, open)
	metrics.SwitchOperations.WithLabelValues(view.String(), action).Inc()

	assignor := feeder.NewDirectionAssignor(n, e.resolver).WithOrder(e.order)
	seen := make(map[*network.Terminal]bool)
	var heads []*network.Terminal
	for _, t := range eq.Terminals() {
		for _, h := range assignor.Clear(t, view) {
			if !seen[h] {
				seen[h] = true
				heads = append(heads, h)
			}
		}
	}
	metrics.TracesRun.WithLabelValues("clear", view.String()).Add(float64(len(eq.Terminals())))
	for _, h := range heads {
		stats := assignor.Run(h, view)
		res.Heads++
		res.Steps += stats.Steps
	}
	metrics.TracesRun.WithLabelValues("direction", view.String()).Add(float64(res.Heads))
	metrics.TraceSteps.WithLabelValues("direction").Add(float64(res.Steps))
	res.Feeders, res.LvFeeders = e.assignAll(n, view)

	e.logger.Info("switch operated",
		"equipment", equipmentID, "state", view.String(), "action", action, "heads", res.Heads)
	return res, nil
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
