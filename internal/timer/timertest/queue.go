// Package timertest provides a manually driven timer.Queue for deterministic tests.
package timertest

import (
	"sort"
	"time"

	"github.com/PizzaHomicide/reelcore/internal/timer"
)

// Epoch is the time a Queue starts at unless told otherwise.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type entry struct {
	at   time.Time
	seq  int
	item timer.Item
}

// Fire records one item being run.
type Fire struct {
	// Target is the time the item was posted for.
	Target time.Time
	// At is the clock reading when it actually ran.
	At   time.Time
	Item timer.Item
}

// Queue is a timer.Queue whose clock only moves when the test says so.
type Queue struct {
	now     time.Time
	seq     int
	entries []entry
	fired   []Fire
}

func New() *Queue {
	return &Queue{now: Epoch}
}

func (q *Queue) Now() time.Time {
	return q.now
}

func (q *Queue) PostAt(at time.Time, item timer.Item) {
	q.seq++
	q.entries = append(q.entries, entry{at: at, seq: q.seq, item: item})
	sort.SliceStable(q.entries, func(i, j int) bool {
		if q.entries[i].at.Equal(q.entries[j].at) {
			return q.entries[i].seq < q.entries[j].seq
		}
		return q.entries[i].at.Before(q.entries[j].at)
	})
}

func (q *Queue) Cancel(item timer.Item) {
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.item != item {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

// Advance moves the clock forward by d, running every item that comes due on the way.  Items run late when an
// earlier item slept past their target; the clock never moves backwards.
func (q *Queue) Advance(d time.Duration) {
	until := q.now.Add(d)
	for len(q.entries) > 0 && !q.entries[0].at.After(until) {
		e := q.entries[0]
		q.entries = q.entries[1:]
		if e.at.After(q.now) {
			q.now = e.at
		}
		q.fired = append(q.fired, Fire{Target: e.at, At: q.now, Item: e.item})
		e.item.Run()
	}
	if until.After(q.now) {
		q.now = until
	}
}

// Sleep moves the clock without running anything.  Call it from inside a running item to simulate a slow handler.
func (q *Queue) Sleep(d time.Duration) {
	q.now = q.now.Add(d)
}

// Elapsed is the time since Epoch.
func (q *Queue) Elapsed() time.Duration {
	return q.now.Sub(Epoch)
}

// Len is the number of queued items.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Scheduled reports whether item is queued.
func (q *Queue) Scheduled(item timer.Item) bool {
	for _, e := range q.entries {
		if e.item == item {
			return true
		}
	}
	return false
}

// Fired returns every run so far, in order.
func (q *Queue) Fired() []Fire {
	return q.fired
}

// FiredFor returns the runs of one item.
func (q *Queue) FiredFor(item timer.Item) []Fire {
	var out []Fire
	for _, f := range q.fired {
		if f.Item == item {
			out = append(out, f)
		}
	}
	return out
}
