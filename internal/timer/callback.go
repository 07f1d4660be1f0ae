package timer

import (
	"sync/atomic"
	"time"
)

// Work is the body of a scheduled callback.  Returning true asks for the next periodic fire.
type Work func() bool

// workRef is the callback's non-owning hold on its work.  The owner flips alive off at teardown and the next fire
// observes it and stops the chain.
type workRef struct {
	alive atomic.Bool
	fn    Work
}

// Callback is a cancellable, reschedulable timer on a Queue.  At most one fire is ever queued per Callback.
//
// Periodic fires are anchored to the previous target rather than to the moment the work ran, so a chain keeps a constant
// period however late the queue delivers it or however long the work takes.
//
// A Callback is not safe for concurrent use; it belongs to the goroutine driving its Queue.
type Callback struct {
	queue    Queue
	timeout  time.Duration
	nextFire time.Time
	pending  bool
	work     *workRef
}

// NewCallback creates an idle callback that runs work every timeout once set.
func NewCallback(queue Queue, timeout time.Duration, work Work) *Callback {
	ref := &workRef{fn: work}
	ref.alive.Store(true)
	return &Callback{
		queue:   queue,
		timeout: timeout,
		work:    ref,
	}
}

// Set arms the callback to fire one timeout from now.  It does nothing if a fire is already pending.
func (c *Callback) Set() {
	if c.pending {
		return
	}
	c.nextFire = c.queue.Now()
	c.schedule()
}

// Reset cancels any pending fire and arms again from now.
func (c *Callback) Reset() {
	c.Cancel()
	c.Set()
}

// Extend resets the callback only if it is pending.  An idle or cancelled callback stays idle.
func (c *Callback) Extend() {
	if c.pending {
		c.Reset()
	}
}

// Cancel drops the pending fire.  Cancelling an idle callback is a no-op.
func (c *Callback) Cancel() {
	if !c.pending {
		return
	}
	c.queue.Cancel(c)
	c.pending = false
}

// Detach cancels the callback and drops its reference to the work.  Any fire that still reaches it is ignored and
// the callback can never be armed again.  Owners call this from their teardown path.
func (c *Callback) Detach() {
	c.Cancel()
	c.work.alive.Store(false)
}

// Pending reports whether a fire is queued.
func (c *Callback) Pending() bool {
	return c.pending
}

// NextFire is the absolute target of the pending fire, or of the last one if idle.
func (c *Callback) NextFire() time.Time {
	return c.nextFire
}

// Timeout is the period between fires.
func (c *Callback) Timeout() time.Duration {
	return c.timeout
}

// SetTimeout changes the period.  A pending fire keeps its current target.
func (c *Callback) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Run is invoked by the Queue when the target time is reached.
func (c *Callback) Run() {
	c.pending = false
	if !c.work.alive.Load() {
		return
	}
	if c.work.fn() && c.work.alive.Load() && !c.pending {
		c.schedule()
	}
}

func (c *Callback) schedule() {
	if !c.work.alive.Load() {
		return
	}
	c.nextFire = c.nextFire.Add(c.timeout)
	c.pending = true
	c.queue.PostAt(c.nextFire, c)
}
