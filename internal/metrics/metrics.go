package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TracesRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedertrace_traces_total",
		Help: "Total number of traces run, labelled by algorithm and state.",
	}, []string{"algorithm", "state"})

	TraceSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedertrace_trace_steps_total",
		Help: "Total number of traversal steps processed, labelled by algorithm.",
	}, []string{"algorithm"})

	TraceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedertrace_trace_duration_ms",
		Help:    "Duration of a full state rebuild or incremental update in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"operation", "state"})

	SwitchOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedertrace_switch_operations_total",
		Help: "Total number of switch open/close operations, labelled by state and action.",
	}, []string{"state", "action"})

	Rebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedertrace_rebuilds_total",
		Help: "Total number of full network rebuilds, labelled by status.",
	}, []string{"status"})

	RebuildsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedertrace_rebuilds_dropped_total",
		Help: "Total number of rebuild jobs rejected due to a full queue.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedertrace_queue_utilization_ratio",
		Help: "Current trace queue utilization (0–1).",
	})

	NetworkSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "feedertrace_network_objects",
		Help: "Number of objects in the loaded network, labelled by kind.",
	}, []string{"kind"})
)
