package timer_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/reelcore/internal/timer"
)

func startLoop(t *testing.T) *timer.Loop {
	t.Helper()
	loop := timer.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

func TestLoopRunsPostedFunctionsInOrder(t *testing.T) {
	loop := startLoop(t)

	var order []int
	for i := 0; i < 5; i++ {
		loop.Post(func() { order = append(order, i) })
	}
	require.NoError(t, loop.Call(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoopRunsCallbackOnTimer(t *testing.T) {
	loop := startLoop(t)

	fired := make(chan time.Time, 3)
	var cb *timer.Callback
	count := 0
	loop.Post(func() {
		cb = timer.NewCallback(loop, 10*time.Millisecond, func() bool {
			fired <- time.Now()
			count++
			return count < 3
		})
		cb.Set()
	})

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatalf("callback fire %d never arrived", i)
		}
	}

	var pending bool
	require.NoError(t, loop.Call(context.Background(), func() { pending = cb.Pending() }))
	assert.False(t, pending)
}

func TestLoopCancelDropsTimedItem(t *testing.T) {
	loop := startLoop(t)

	var runs atomic.Int32
	require.NoError(t, loop.Call(context.Background(), func() {
		cb := timer.NewCallback(loop, 20*time.Millisecond, func() bool {
			runs.Add(1)
			return false
		})
		cb.Set()
		cb.Cancel()
	}))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestLoopSurvivesPanickingItem(t *testing.T) {
	loop := startLoop(t)

	loop.Post(func() { panic("boom") })

	ran := false
	require.NoError(t, loop.Call(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoopCallRespectsContext(t *testing.T) {
	// A loop that is never run cannot answer
	loop := timer.NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := loop.Call(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
