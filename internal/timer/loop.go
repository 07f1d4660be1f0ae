package timer

import (
	"container/heap"
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/log"
)

// Item is a unit of work posted to a Queue.  Items are compared by identity when cancelled, so implementations must
// be comparable (pointer receivers in practice).
type Item interface {
	Run()
}

// Queue is the host timer queue every Callback is scheduled on.
type Queue interface {
	Now() time.Time
	PostAt(at time.Time, item Item)
	Cancel(item Item)
}

type entry struct {
	at    time.Time
	seq   uint64
	item  Item
	index int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Loop is the single event goroutine that all playback state lives on.  Timed items and posted functions run on it
// one at a time, in order.  Other goroutines must reach playback state through Post or Call.
type Loop struct {
	mu     sync.Mutex
	timed  entryHeap
	posted []func()
	seq    uint64
	wake   chan struct{}
	now    func() time.Time
}

// NewLoop creates a loop driven by the wall clock.  It does nothing until Run is called.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		now:  time.Now,
	}
}

func (l *Loop) Now() time.Time {
	return l.now()
}

// PostAt schedules item to run at the given time.  Items due at the same time run in the order they were posted.
func (l *Loop) PostAt(at time.Time, item Item) {
	l.mu.Lock()
	l.seq++
	heap.Push(&l.timed, &entry{at: at, seq: l.seq, item: item})
	l.mu.Unlock()
	l.signal()
}

// Cancel removes every pending occurrence of item.
func (l *Loop) Cancel(item Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < len(l.timed); {
		if l.timed[i].item == item {
			heap.Remove(&l.timed, i)
			continue
		}
		i++
	}
}

// Post queues fn to run on the loop as soon as possible.  Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

// Call runs fn on the loop and waits for it to finish, or for ctx to be done.  It must not be called from the loop
// itself.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	log.Debug("Event loop started")
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		for _, fn := range l.takePosted() {
			l.safeRun(fn)
		}
		for {
			item, ok := l.popDue()
			if !ok {
				break
			}
			l.safeRun(item.Run)
		}

		wait := l.untilNext()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			log.Debug("Event loop stopped", "reason", ctx.Err())
			return nil
		case <-l.wake:
		case <-timer.C:
		}
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) takePosted() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fns := l.posted
	l.posted = nil
	return fns
}

func (l *Loop) popDue() (Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timed) == 0 || l.timed[0].at.After(l.now()) {
		return nil, false
	}
	e := heap.Pop(&l.timed).(*entry)
	return e.item, true
}

func (l *Loop) untilNext() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.posted) > 0 {
		return 0
	}
	if len(l.timed) == 0 {
		return time.Hour
	}
	return max(l.timed[0].at.Sub(l.now()), 0)
}

// safeRun keeps a misbehaving item from taking the loop down with it.
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered panic on event loop", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	fn()
}
