//go:build !tinygo

package hal

import "time"

// One firmware tick is 1ms nominal; the scanner and the radio deadlines both
// count these.
const hostTickDuration = time.Millisecond

// hostTime converts wall time into the firmware tick stream. The window runs
// at 60 fps, so each frame owes the firmware roughly 16 ticks; the
// accumulator carries the remainder so the scan cadence stays at 1ms on
// average no matter how unevenly frames arrive.
type hostTime struct {
	ch  chan uint64
	seq uint64

	last    time.Time
	carried time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// advance runs once per host frame. The first call emits a single seed tick
// instead of charging the whole gap since construction.
func (t *hostTime) advance() {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.carried = 0
		t.emit(1)
		return
	}

	t.carried += now.Sub(t.last)
	t.last = now

	due := uint64(t.carried / hostTickDuration)
	if due == 0 {
		return
	}
	t.carried %= hostTickDuration
	t.emit(due)
}

// emit pushes n ticks, dropping on a full channel: a stalled consumer gets a
// compressed past, never a frozen present.
func (t *hostTime) emit(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
