package kernel

import "sync/atomic"

// Priority is a fixed handler priority level. Higher values run first.
type Priority uint8

const (
	PriorityIdle Priority = iota
	PriorityWired
	PrioritySerial
	PriorityScan
)

const maxHandlers = 16

// HandlerID identifies a registered handler.
type HandlerID uint8

// Handler is a run-to-completion dispatch unit.
//
// A handler must not block and must not hold a ceiling across its return.
// The tick argument is the most recent tick observed by the dispatcher.
type Handler func(tick uint64)

type handlerSlot struct {
	fn   Handler
	prio Priority
}

// Dispatcher is a priority-ordered pended-handler executor.
//
// Registration happens once at boot; Pend is safe from any goroutine or
// interrupt callback; RunPending executes on exactly one goroutine and runs
// each pended handler to completion, highest priority first. This mirrors a
// pended-interrupt controller: a handler can pend others (including itself)
// but never preempts one mid-execution.
type Dispatcher struct {
	_ [0]func() // prevent accidental copying.

	handlers [maxHandlers]handlerSlot
	count    uint8

	pending atomic.Uint32
	tick    atomic.Uint64

	kick chan struct{}
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{kick: make(chan struct{}, 1)}
}

// Register adds a handler at the given priority and returns its ID.
// It must only be called before the dispatch loop starts.
func (d *Dispatcher) Register(prio Priority, fn Handler) HandlerID {
	if d.count >= maxHandlers || fn == nil {
		return 0
	}
	id := HandlerID(d.count)
	d.handlers[id] = handlerSlot{fn: fn, prio: prio}
	d.count++
	return id
}

// Pend marks a handler runnable. Duplicate pends coalesce.
func (d *Dispatcher) Pend(id HandlerID) {
	if uint8(id) >= d.count {
		return
	}
	for {
		old := d.pending.Load()
		if old&(1<<id) != 0 {
			return
		}
		if d.pending.CompareAndSwap(old, old|1<<id) {
			break
		}
	}
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// SetTick records the latest tick for handlers to observe.
func (d *Dispatcher) SetTick(tick uint64) {
	d.tick.Store(tick)
}

// Tick returns the last recorded tick.
func (d *Dispatcher) Tick() uint64 {
	return d.tick.Load()
}

// Step executes at most one pended handler (the highest-priority one) and
// reports whether anything ran.
func (d *Dispatcher) Step() bool {
	pend := d.pending.Load()
	if pend == 0 {
		return false
	}

	best := -1
	for i := uint8(0); i < d.count; i++ {
		if pend&(1<<i) == 0 {
			continue
		}
		if best < 0 || d.handlers[i].prio > d.handlers[best].prio {
			best = int(i)
		}
	}
	if best < 0 {
		return false
	}

	// Clear before running so the handler can re-pend itself.
	for {
		old := d.pending.Load()
		if d.pending.CompareAndSwap(old, old&^(1<<best)) {
			break
		}
	}
	d.handlers[best].fn(d.tick.Load())
	return true
}

// RunPending drains every pended handler in priority order.
func (d *Dispatcher) RunPending() {
	for d.Step() {
	}
}

// Wait blocks until at least one handler has been pended since the last
// drain. It is the idle point of the dispatch loop.
func (d *Dispatcher) Wait() {
	if d.pending.Load() != 0 {
		return
	}
	<-d.kick
}
