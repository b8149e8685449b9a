package kernel

import "sync"

// Ceiling is a priority-ceiling lock over state shared across priorities.
//
// The discipline: every handler that touches the protected state acquires
// the ceiling first, which conceptually raises it to the priority of the
// highest such handler, so no other sharer can preempt it mid-section. On
// bare metal this is interrupt-priority masking; on the host, where HAL
// callbacks arrive on real goroutines, it degrades to a mutex. Sections are
// short and never span a return to the dispatcher, so the lock is never
// held across blocking calls.
type Ceiling struct {
	_    [0]func() // prevent accidental copying.
	mu   sync.Mutex
	prio Priority
}

// NewCeiling creates a ceiling lock at the given priority level.
func NewCeiling(prio Priority) *Ceiling {
	return &Ceiling{prio: prio}
}

// Priority returns the statically assigned ceiling level.
func (c *Ceiling) Priority() Priority { return c.prio }

// Lock enters the critical section.
func (c *Ceiling) Lock() { c.mu.Lock() }

// Unlock leaves the critical section.
func (c *Ceiling) Unlock() { c.mu.Unlock() }
