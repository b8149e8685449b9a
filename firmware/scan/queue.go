package scan

import "sync/atomic"

// Queue is a bounded single-producer single-consumer event queue between the
// scan handler and the resolver. Overflow drops the newest event and counts
// a scan overrun: losing one edge under extreme load beats stalling the tick.
type Queue struct {
	_        [0]func() // prevent accidental copying.
	head     atomic.Uint32
	tail     atomic.Uint32
	overruns atomic.Uint32
	slots    []Event
}

// NewQueue creates a queue with the given capacity (rounded up to a power of
// two, minimum 8).
func NewQueue(capacity int) *Queue {
	n := 8
	for n < capacity {
		n <<= 1
	}
	return &Queue{slots: make([]Event, n)}
}

// Push enqueues one event, returning false (and counting an overrun) when full.
func (q *Queue) Push(ev Event) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= uint32(len(q.slots)) {
		q.overruns.Add(1)
		return false
	}
	q.slots[head%uint32(len(q.slots))] = ev
	q.head.Store(head + 1)
	return true
}

// Pop dequeues one event, returning false when empty.
func (q *Queue) Pop() (Event, bool) {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail == head {
		return Event{}, false
	}
	ev := q.slots[tail%uint32(len(q.slots))]
	q.tail.Store(tail + 1)
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

// Overruns returns the number of events dropped on overflow.
func (q *Queue) Overruns() uint32 {
	return q.overruns.Load()
}
