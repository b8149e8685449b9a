//go:build !tinygo

package hal

import "sync"

// hostMatrix is the virtual key grid. The window's key handler sets levels;
// the scanner strobes them like real hardware.
type hostMatrix struct {
	mu       sync.Mutex
	rows     []uint32
	cols     int
	selected int
}

func newHostMatrix(rows, cols int) *hostMatrix {
	return &hostMatrix{rows: make([]uint32, rows), cols: cols}
}

func (m *hostMatrix) Rows() int { return len(m.rows) }
func (m *hostMatrix) Cols() int { return m.cols }

func (m *hostMatrix) SelectRow(row int) {
	m.mu.Lock()
	m.selected = row
	m.mu.Unlock()
}

func (m *hostMatrix) ReadRow() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected < 0 || m.selected >= len(m.rows) {
		return 0
	}
	return m.rows[m.selected]
}

func (m *hostMatrix) setKey(row, col int, down bool) {
	if row < 0 || row >= len(m.rows) || col < 0 || col >= m.cols {
		return
	}
	m.mu.Lock()
	if down {
		m.rows[row] |= 1 << col
	} else {
		m.rows[row] &^= 1 << col
	}
	m.mu.Unlock()
}

func (m *hostMatrix) snapshot(dst []uint32) {
	m.mu.Lock()
	copy(dst, m.rows)
	m.mu.Unlock()
}
