package kernel

import "sync/atomic"

// ByteRing is a fixed-size single-producer single-consumer byte queue.
//
// It carries serial RX bytes from the receive callback into the parser
// handler: no allocations, no locks, atomic head/tail. Capacity must be a
// power of two. Overflow drops the newest byte and counts it; bytes that
// make it in are delivered strictly in arrival order.
type ByteRing struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	drops atomic.Uint32
	slots [byteRingSlots]byte
}

const byteRingSlots = 256

// Put enqueues one byte, returning false (and counting a drop) when full.
func (r *ByteRing) Put(b byte) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= byteRingSlots {
		r.drops.Add(1)
		return false
	}
	r.slots[head%byteRingSlots] = b
	r.head.Store(head + 1)
	return true
}

// PutSlice enqueues as much of p as fits and returns the count stored.
func (r *ByteRing) PutSlice(p []byte) int {
	for i, b := range p {
		if !r.Put(b) {
			return i
		}
	}
	return len(p)
}

// Get dequeues one byte, returning false when empty.
func (r *ByteRing) Get() (byte, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail == head {
		return 0, false
	}
	b := r.slots[tail%byteRingSlots]
	r.tail.Store(tail + 1)
	return b, true
}

// Len returns the number of queued bytes.
func (r *ByteRing) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Drops returns the number of bytes rejected on overflow.
func (r *ByteRing) Drops() uint32 {
	return r.drops.Load()
}
