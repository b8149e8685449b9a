package scan

import "quill/hal"

// keyState is the per-position debounce record. Only the scanner mutates it,
// once per tick.
type keyState struct {
	raw        bool
	settled    bool
	count      uint8
	lastChange uint64
}

// Scanner walks the matrix once per tick, settles raw transitions through
// the debounce window, and emits one Event per settled edge.
//
// Scan order is fixed row-major, so no position can be reported twice in one
// tick. A permanently stuck contact simply stops producing events.
type Scanner struct {
	m      hal.Matrix
	window uint8
	states []keyState
	q      *Queue

	// packed is the settled key bitmap, one bit per position in row-major
	// order, refreshed in place each scan for the backlight forwarder.
	packed      []byte
	packedDirty bool
}

// New allocates scanner state from the matrix geometry.
func New(m hal.Matrix, debounceWindow uint8, q *Queue) *Scanner {
	if debounceWindow == 0 {
		debounceWindow = 1
	}
	n := m.Rows() * m.Cols()
	return &Scanner{
		m:      m,
		window: debounceWindow,
		states: make([]keyState, n),
		q:      q,
		packed: make([]byte, (n+7)/8),
	}
}

// Scan runs one full matrix pass at the given tick.
func (s *Scanner) Scan(tick uint64) {
	cols := s.m.Cols()
	for row := 0; row < s.m.Rows(); row++ {
		s.m.SelectRow(row)
		sense := s.m.ReadRow()
		for col := 0; col < cols; col++ {
			s.sample(row, col, sense&(1<<col) != 0, tick)
		}
	}
}

func (s *Scanner) sample(row, col int, raw bool, tick uint64) {
	idx := row*s.m.Cols() + col
	st := &s.states[idx]
	st.raw = raw

	if raw == st.settled {
		st.count = 0
		return
	}

	st.count++
	if st.count < s.window {
		return
	}

	st.settled = raw
	st.count = 0
	st.lastChange = tick
	s.setPacked(idx, raw)

	kind := Released
	if raw {
		kind = Pressed
	}
	_ = s.q.Push(Event{
		Pos:  Position{Row: uint8(row), Col: uint8(col)},
		Kind: kind,
		Tick: tick,
	})
}

func (s *Scanner) setPacked(idx int, down bool) {
	if down {
		s.packed[idx/8] |= 1 << (idx % 8)
	} else {
		s.packed[idx/8] &^= 1 << (idx % 8)
	}
	s.packedDirty = true
}

// Settled reports the debounced level of one position.
func (s *Scanner) Settled(pos Position) bool {
	idx := int(pos.Row)*s.m.Cols() + int(pos.Col)
	if idx < 0 || idx >= len(s.states) {
		return false
	}
	return s.states[idx].settled
}

// PackedBits returns the settled key bitmap and whether it changed since the
// previous call. The returned slice is reused; callers copy if they keep it.
func (s *Scanner) PackedBits() ([]byte, bool) {
	dirty := s.packedDirty
	s.packedDirty = false
	return s.packed, dirty
}
