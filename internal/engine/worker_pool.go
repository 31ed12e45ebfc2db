package engine

import (
	"context"
	"sync"
)

// poolJob is the unit of work dispatched to a worker. result is buffered so a
// worker never blocks on a caller that gave up waiting.
type poolJob[T, R any] struct {
	payload T
	result  chan R
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
type workerPool[T, R any] struct {
	queue   chan poolJob[T, R]
	process func(ctx context.Context, t T) R
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) R) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan poolJob[T, R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			j.result <- p.process(ctx, j.payload)
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a job without blocking. It returns false if the queue is
// full or the pool has been drained.
func (p *workerPool[T, R]) Submit(t T) (<-chan R, bool) {
	results, ok := p.SubmitAll(t)
	if !ok {
		return nil, false
	}
	return results[0], true
}

// SubmitAll enqueues every job or none of them. It returns false, leaving
// the queue untouched, when there is not room for all of ts or the pool has
// been drained.
func (p *workerPool[T, R]) SubmitAll(ts ...T) ([]<-chan R, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || cap(p.queue)-len(p.queue) < len(ts) {
		return nil, false
	}
	// Workers only ever take from the queue, so the room checked above
	// cannot shrink while the lock is held.
	results := make([]<-chan R, 0, len(ts))
	for _, t := range ts {
		result := make(chan R, 1)
		p.queue <- poolJob[T, R]{payload: t, result: result}
		results = append(results, result)
	}
	return results, true
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// QueueLen returns how many jobs are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
