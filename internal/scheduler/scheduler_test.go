package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScheduleRunsDueTasksInOrder verifies the priority queue dispatches
// tasks in timestamp order regardless of insertion order.
func TestScheduleRunsDueTasksInOrder(t *testing.T) {
	// A single worker keeps task execution serialized so appends to `order`
	// below don't race; exclusivity across many workers is instead
	// guaranteed per-zone by runZoneTick's re-enqueue-on-completion design.
	s := New(Config{Workers: 1}, nil)

	var order []int32
	done := make(chan struct{}, 3)
	record := func(n int32) func(int64) {
		return func(int64) {
			order = append(order, n)
			done <- struct{}{}
		}
	}

	now := time.Now().UnixMilli()
	s.Schedule(now+30, record(3))
	s.Schedule(now, record(1))
	s.Schedule(now+10, record(2))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go s.Start(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-ctx.Done():
			t.Fatal("timed out waiting for scheduled tasks")
		}
	}

	require.Len(t, order, 3)
	assert.Equal(t, []int32{1, 2, 3}, order)
}

func TestOneShotTaskRunsExactlyOnce(t *testing.T) {
	var calls atomic.Int32

	s := New(Config{Workers: 1}, nil)
	now := time.Now().UnixMilli()
	s.Schedule(now, func(n int64) { calls.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = s.Start(ctx)

	assert.Equal(t, int32(1), calls.Load())
}
