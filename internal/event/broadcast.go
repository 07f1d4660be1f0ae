package event

import "sync"

const subscriptionBufferSize = 64

// Subscription delivers events to a consumer on another goroutine.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	eventCh chan Event
	doneCh  chan struct{}
	once    sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, subscriptionBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// send never blocks the event loop.  A consumer that falls behind loses events rather than stalling playback.
func (s *Subscription) send(e Event) bool {
	select {
	case s.eventCh <- e:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.doneCh) })
}

// Broadcaster is a Sink that copies every event to all current subscriptions.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new consumer.
func (b *Broadcaster) Subscribe() *Subscription {
	s := newSubscription()
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes the consumer and closes its Done channel.
func (b *Broadcaster) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
	s.close()
}

func (b *Broadcaster) Emit(e Event) {
	b.mu.RLock()
	dropped := 0
	for s := range b.subs {
		if !s.send(e) {
			dropped++
		}
	}
	b.mu.RUnlock()

	if dropped > 0 {
		b.mu.Lock()
		b.dropped += dropped
		b.mu.Unlock()
	}
}

// Dropped is the number of deliveries lost to full subscriber buffers.
func (b *Broadcaster) Dropped() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Close unsubscribes everyone.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*Subscription]struct{})
	b.mu.Unlock()
	for s := range subs {
		s.close()
	}
}
