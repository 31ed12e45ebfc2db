package trace

// Tracker remembers the smallest step count at which each key was visited.
// A key is only worth expanding again when it is reached in strictly fewer
// steps than before; this monotonic rule is what keeps looped traversals
// from re-expanding the same item over and over.
type Tracker[K comparable] struct {
	best map[K]int
}

// NewTracker allocates an empty Tracker.
func NewTracker[K comparable]() *Tracker[K] {
	return &Tracker[K]{best: make(map[K]int)}
}

// Visit records step for key and reports whether the visit is novel: the key
// was never seen, or step is smaller than the recorded minimum.
func (t *Tracker[K]) Visit(key K, step int) bool {
	if prev, ok := t.best[key]; ok && step >= prev {
		return false
	}
	t.best[key] = step
	return true
}

// HasVisited reports whether key was recorded at any step.
func (t *Tracker[K]) HasVisited(key K) bool {
	_, ok := t.best[key]
	return ok
}

// Step returns the smallest recorded step for key.
func (t *Tracker[K]) Step(key K) (int, bool) {
	s, ok := t.best[key]
	return s, ok
}

// Len returns the number of keys recorded.
func (t *Tracker[K]) Len() int { return len(t.best) }

// Clear forgets every visit.
func (t *Tracker[K]) Clear() {
	clear(t.best)
}
