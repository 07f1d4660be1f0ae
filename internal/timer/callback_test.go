package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/reelcore/internal/timer"
	"github.com/PizzaHomicide/reelcore/internal/timer/timertest"
)

const period = 100 * time.Millisecond

func TestCallbackSetFiresOnceAfterTimeout(t *testing.T) {
	q := timertest.New()
	runs := 0
	cb := timer.NewCallback(q, period, func() bool {
		runs++
		return false
	})

	cb.Set()
	assert.True(t, cb.Pending())
	assert.Equal(t, timertest.Epoch.Add(period), cb.NextFire())

	q.Advance(period - time.Millisecond)
	assert.Equal(t, 0, runs)

	q.Advance(time.Millisecond)
	assert.Equal(t, 1, runs)
	assert.False(t, cb.Pending())

	q.Advance(10 * period)
	assert.Equal(t, 1, runs, "one-shot work must not be rescheduled")
}

func TestCallbackSetWhilePendingKeepsTarget(t *testing.T) {
	q := timertest.New()
	cb := timer.NewCallback(q, period, func() bool { return false })

	cb.Set()
	q.Advance(60 * time.Millisecond)
	cb.Set()

	assert.Equal(t, timertest.Epoch.Add(period), cb.NextFire())
	assert.Equal(t, 1, q.Len(), "at most one fire may be queued per callback")
}

func TestCallbackResetRearmsFromNow(t *testing.T) {
	q := timertest.New()
	runs := 0
	cb := timer.NewCallback(q, period, func() bool {
		runs++
		return false
	})

	cb.Set()
	q.Advance(60 * time.Millisecond)
	cb.Reset()

	assert.Equal(t, 1, q.Len())
	q.Advance(60 * time.Millisecond)
	assert.Equal(t, 0, runs, "the first target was cancelled")
	q.Advance(40 * time.Millisecond)
	assert.Equal(t, 1, runs)
}

func TestCallbackExtendOnIdleIsNoop(t *testing.T) {
	q := timertest.New()
	runs := 0
	cb := timer.NewCallback(q, period, func() bool {
		runs++
		return true
	})

	cb.Extend()
	assert.False(t, cb.Pending())
	assert.Equal(t, 0, q.Len())

	cb.Set()
	cb.Cancel()
	cb.Extend()
	assert.False(t, cb.Pending())
	assert.Equal(t, 0, q.Len())

	q.Advance(10 * period)
	assert.Equal(t, 0, runs)
}

func TestCallbackExtendPostponesPendingFire(t *testing.T) {
	q := timertest.New()
	runs := 0
	cb := timer.NewCallback(q, period, func() bool {
		runs++
		return false
	})

	cb.Set()
	q.Advance(90 * time.Millisecond)
	cb.Extend()
	q.Advance(90 * time.Millisecond)
	assert.Equal(t, 0, runs)
	q.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, runs)
}

func TestCallbackCancelIsIdempotent(t *testing.T) {
	q := timertest.New()
	cb := timer.NewCallback(q, period, func() bool { return true })

	cb.Cancel()
	cb.Set()
	cb.Cancel()
	cb.Cancel()

	assert.False(t, cb.Pending())
	assert.Equal(t, 0, q.Len())
}

func TestCallbackPeriodicFiresAreDriftFree(t *testing.T) {
	jitter := []time.Duration{0, 37, 12, 95, 3, 61, 88, 20, 0, 74}
	q := timertest.New()
	n := 0
	cb := timer.NewCallback(q, period, func() bool {
		// Simulate a slow handler: time passes while the work runs
		q.Sleep(jitter[n%len(jitter)] * time.Millisecond)
		n++
		return n < len(jitter)
	})

	cb.Set()
	q.Advance(time.Duration(len(jitter)+5) * period)

	fires := q.FiredFor(cb)
	require.Len(t, fires, len(jitter))
	for i, f := range fires {
		assert.Equal(t, timertest.Epoch.Add(time.Duration(i+1)*period), f.Target, "fire %d", i)
	}
	assert.False(t, cb.Pending())
}

func TestCallbackDriftFreeWhenQueueRunsLate(t *testing.T) {
	q := timertest.New()
	n := 0
	cb := timer.NewCallback(q, period, func() bool {
		n++
		if n == 2 {
			// Longer than a whole period: the next fire is already overdue
			q.Sleep(150 * time.Millisecond)
		}
		return n < 5
	})

	cb.Set()
	q.Advance(time.Second)

	fires := q.FiredFor(cb)
	require.Len(t, fires, 5)
	for i, f := range fires {
		assert.Equal(t, timertest.Epoch.Add(time.Duration(i+1)*period), f.Target)
	}
	assert.True(t, fires[2].At.After(fires[2].Target), "the third fire was delivered late")
}

func TestCallbackDetachStopsChain(t *testing.T) {
	q := timertest.New()
	runs := 0
	cb := timer.NewCallback(q, period, func() bool {
		runs++
		return true
	})

	cb.Set()
	q.Advance(period)
	assert.Equal(t, 1, runs)

	cb.Detach()
	assert.False(t, cb.Pending())

	cb.Set()
	q.Advance(10 * period)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, q.Len())
}

func TestCallbackStaleFireAfterDetachIsIgnored(t *testing.T) {
	q := timertest.New()
	runs := 0
	cb := timer.NewCallback(q, period, func() bool {
		runs++
		return true
	})

	cb.Set()
	cb.Detach()
	// A queue that failed to drop the item still delivers it
	q.PostAt(q.Now().Add(period), cb)
	q.Advance(period)

	assert.Equal(t, 0, runs)
	assert.Equal(t, 0, q.Len())
}

func TestCallbackWorkMayRearmItself(t *testing.T) {
	q := timertest.New()
	var cb *timer.Callback
	runs := 0
	cb = timer.NewCallback(q, period, func() bool {
		runs++
		cb.Set()
		return true
	})

	cb.Set()
	q.Advance(period)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, q.Len(), "re-arming from the work must not double queue")
}

func TestIndependentChains(t *testing.T) {
	q := timer.Queue(timertest.New())
	a := timer.NewCallback(q, period, func() bool { return true })
	b := timer.NewCallback(q, 2*period, func() bool { return true })

	a.Set()
	b.Set()
	a.Cancel()

	assert.False(t, a.Pending())
	assert.True(t, b.Pending())
}
