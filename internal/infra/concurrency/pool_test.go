package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	echo := func(_ context.Context, s string) string { return s }

	tests := []struct {
		name string
		size int
		want int
	}{
		{"explicit size", 4, 4},
		{"zero uses one per CPU", 0, min(runtime.NumCPU(), maxWorkers)},
		{"negative defaults to one", -1, 1},
		{"capped", 1000, maxWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewWorkerPool(tt.size, echo).Size())
		})
	}
}

func TestWorkerPool_Lifecycle(t *testing.T) {
	pool := NewWorkerPool(3, func(_ context.Context, n int) int { return n * n })
	ctx := context.Background()

	require.NoError(t, pool.Start(ctx))
	assert.ErrorIs(t, pool.Start(ctx), ErrPoolRunning)

	go func() {
		defer pool.CloseJobs()
		for i := 0; i < 10; i++ {
			assert.NoError(t, pool.Submit(ctx, Job[int]{Index: i, Item: i}))
		}
	}()

	got := map[int]int{}
	for r := range pool.Results() {
		got[r.Index] = r.Value
	}

	assert.Len(t, got, 10)
	assert.Equal(t, 81, got[9])
	assert.Equal(t, 10, pool.ProcessedJobs())
	assert.Equal(t, 0, pool.ActiveWorkers())
}

func TestWorkerPool_ContextCancellation(t *testing.T) {
	pool := NewWorkerPool(2, func(ctx context.Context, n int) int { return n })
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, pool.Start(ctx))
	cancel()

	select {
	case _, ok := <-pool.Results():
		assert.False(t, ok, "results close once workers exit")
	case <-time.After(time.Second):
		t.Fatal("workers did not stop after cancellation")
	}
	assert.ErrorIs(t, pool.Submit(ctx, Job[int]{}), context.Canceled)
}

func TestMap(t *testing.T) {
	items := make([]string, 50)
	for i := range items {
		items[i] = fmt.Sprintf("doc-%02d", i)
	}

	var calls atomic.Int32
	out, err := Map(context.Background(), items, 8, func(_ context.Context, s string) string {
		calls.Add(1)
		return s + ":done"
	})

	require.NoError(t, err)
	assert.Equal(t, int32(50), calls.Load())
	for i, item := range items {
		assert.Equal(t, item+":done", out[i], "order preserved")
	}
}

func TestMapSequentialAndCancelled(t *testing.T) {
	out, err := Map(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, n int) int { return -n })
	require.NoError(t, err)
	assert.Equal(t, []int{-1, -2, -3}, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Map(ctx, []int{1, 2, 3}, 4, func(_ context.Context, n int) int { return n })
	assert.ErrorIs(t, err, context.Canceled)

	out, err = Map(context.Background(), []int(nil), 4, func(_ context.Context, n int) int { return n })
	require.NoError(t, err)
	assert.Empty(t, out)
}
