package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_SubmitAllIsAllOrNothing(t *testing.T) {
	// No workers, so queued jobs stay queued.
	p := newWorkerPool[int, int](context.Background(), 0, 3, func(_ context.Context, v int) int { return v })

	_, ok := p.Submit(1)
	require.True(t, ok)

	_, ok = p.SubmitAll(2, 3, 4)
	assert.False(t, ok, "only two slots left")
	assert.Equal(t, 1, p.QueueLen(), "a rejected batch queues nothing")

	results, ok := p.SubmitAll(2, 3)
	require.True(t, ok)
	assert.Len(t, results, 2)
	assert.Equal(t, 3, p.QueueLen())

	p.Drain()
	_, ok = p.SubmitAll()
	assert.False(t, ok, "drained pool")
}

func TestWorkerPool_DeliversResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := newWorkerPool[int, int](ctx, 2, 4, func(_ context.Context, v int) int { return v * 10 })
	defer p.Drain()

	results, ok := p.SubmitAll(1, 2, 3)
	require.True(t, ok)
	for i, c := range results {
		assert.Equal(t, (i+1)*10, <-c)
	}
}
