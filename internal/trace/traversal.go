package trace

import (
	"fmt"
	"strings"
)

// QueueOrder selects how pending steps are taken off the work queue.
type QueueOrder int

const (
	FIFO QueueOrder = iota // breadth first
	LIFO                   // depth first
)

func (o QueueOrder) String() string {
	if o == LIFO {
		return "lifo"
	}
	return "fifo"
}

// ParseQueueOrder maps "fifo" or "lifo" to a QueueOrder.
func ParseQueueOrder(s string) (QueueOrder, error) {
	switch strings.ToLower(s) {
	case "", "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	}
	return FIFO, fmt.Errorf("unknown queue order %q", s)
}

// Step is one unit of traversal progress: an item and the number of
// expansions it took to reach it from a seed.
type Step[T any] struct {
	Item  T
	Count int
}

// StopCondition reports whether a step must not be expanded.
type StopCondition[T any] func(Step[T]) bool

// StepAction runs for every dequeued step, stopping or not.
type StepAction[T any] func(step Step[T], stopping bool)

// ExpandFunc produces the successors of a step. All graph knowledge lives
// here; the traversal itself knows nothing about the graph.
type ExpandFunc[T any] func(Step[T]) []T

// Stats summarises one run.
type Stats struct {
	Steps    int // steps dequeued
	Queued   int // steps accepted onto the queue, seeds included
	Rejected int // successors the tracker reported as already seen
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Steps += o.Steps
	s.Queued += o.Queued
	s.Rejected += o.Rejected
}

// Traversal is a work-queue traversal over items of type T identified by
// keys of type K.
type Traversal[T any, K comparable] struct {
	key            func(T) K
	expand         ExpandFunc[T]
	order          QueueOrder
	stops          []StopCondition[T]
	actions        []StepAction[T]
	canStopOnStart bool
	tracker        *Tracker[K]
}

// New creates a FIFO traversal. key gives the identity the step tracker uses.
func New[T any, K comparable](key func(T) K, expand ExpandFunc[T]) *Traversal[T, K] {
	return &Traversal[T, K]{
		key:            key,
		expand:         expand,
		canStopOnStart: true,
		tracker:        NewTracker[K](),
	}
}

// WithOrder selects FIFO or LIFO processing.
func (t *Traversal[T, K]) WithOrder(o QueueOrder) *Traversal[T, K] {
	t.order = o
	return t
}

// AddStopCondition adds a condition; any one returning true stops expansion.
func (t *Traversal[T, K]) AddStopCondition(c StopCondition[T]) *Traversal[T, K] {
	t.stops = append(t.stops, c)
	return t
}

// AddStepAction adds an action run on every dequeued step, in order added.
func (t *Traversal[T, K]) AddStepAction(a StepAction[T]) *Traversal[T, K] {
	t.actions = append(t.actions, a)
	return t
}

// StopOnStartItems controls whether stop conditions apply to seeds.
func (t *Traversal[T, K]) StopOnStartItems(b bool) *Traversal[T, K] {
	t.canStopOnStart = b
	return t
}

// Tracker exposes the visit record of the last run.
func (t *Traversal[T, K]) Tracker() *Tracker[K] { return t.tracker }

// Run clears the tracker and processes seeds until the queue is empty.
func (t *Traversal[T, K]) Run(seeds ...T) Stats {
	t.tracker.Clear()
	var stats Stats
	q := newQueue[T](t.order)
	for _, s := range seeds {
		if t.tracker.Visit(t.key(s), 0) {
			q.push(Step[T]{Item: s})
			stats.Queued++
		} else {
			stats.Rejected++
		}
	}
	for q.len() > 0 {
		step := q.pop()
		stats.Steps++
		stopping := (step.Count > 0 || t.canStopOnStart) && t.matchesStop(step)
		for _, a := range t.actions {
			a(step, stopping)
		}
		if stopping {
			continue
		}
		for _, next := range t.expand(step) {
			if !t.tracker.Visit(t.key(next), step.Count+1) {
				stats.Rejected++
				continue
			}
			q.push(Step[T]{Item: next, Count: step.Count + 1})
			stats.Queued++
		}
	}
	return stats
}

func (t *Traversal[T, K]) matchesStop(step Step[T]) bool {
	for _, c := range t.stops {
		if c(step) {
			return true
		}
	}
	return false
}

type queue[T any] struct {
	order QueueOrder
	items []Step[T]
	head  int
}

func newQueue[T any](order QueueOrder) *queue[T] {
	return &queue[T]{order: order}
}

func (q *queue[T]) push(s Step[T]) { q.items = append(q.items, s) }

func (q *queue[T]) len() int { return len(q.items) - q.head }

func (q *queue[T]) pop() Step[T] {
	if q.order == LIFO {
		last := len(q.items) - 1
		s := q.items[last]
		q.items = q.items[:last]
		return s
	}
	s := q.items[q.head]
	var zero Step[T]
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return s
}
