package app

import (
	"bytes"
	"errors"
	"testing"

	"quill/firmware/radio"
	"quill/firmware/transport"
	"quill/hal"
)

type nullLogger struct{}

func (nullLogger) WriteLineString(string) {}
func (nullLogger) WriteLineBytes([]byte)  {}

type testLED struct{ on bool }

func (l *testLED) High() { l.on = true }
func (l *testLED) Low()  { l.on = false }

type testMatrix struct {
	rows, cols int
	level      [][]bool
	selected   int
}

func newTestMatrix(rows, cols int) *testMatrix {
	m := &testMatrix{rows: rows, cols: cols}
	m.level = make([][]bool, rows)
	for i := range m.level {
		m.level[i] = make([]bool, cols)
	}
	return m
}

func (m *testMatrix) Rows() int         { return m.rows }
func (m *testMatrix) Cols() int         { return m.cols }
func (m *testMatrix) SelectRow(row int) { m.selected = row }

func (m *testMatrix) ReadRow() uint32 {
	var bits uint32
	for c, down := range m.level[m.selected] {
		if down {
			bits |= 1 << c
		}
	}
	return bits
}

type testSerial struct {
	rx bytes.Buffer // firmware reads this
	tx bytes.Buffer // firmware writes this
}

func (s *testSerial) Read(p []byte) (int, error)  { return s.rx.Read(p) }
func (s *testSerial) Write(p []byte) (int, error) { return s.tx.Write(p) }

type testWired struct {
	reports [][]byte
	ready   bool
	busy    bool
	sent    func()
}

func (w *testWired) Submit(rep []byte) error {
	if w.busy {
		return hal.ErrBusy
	}
	w.reports = append(w.reports, append([]byte(nil), rep...))
	return nil
}

func (w *testWired) OnSent(fn func()) { w.sent = fn }
func (w *testWired) Ready() bool      { return w.ready }

type testFlash struct{ data []byte }

func newTestFlash(size uint32) *testFlash {
	f := &testFlash{data: make([]byte, size)}
	for i := range f.data {
		f.data[i] = 0xFF
	}
	return f
}

func (f *testFlash) SizeBytes() uint32       { return uint32(len(f.data)) }
func (f *testFlash) EraseBlockBytes() uint32 { return 256 }

func (f *testFlash) ReadAt(p []byte, off uint32) (int, error) {
	if int(off)+len(p) > len(f.data) {
		return 0, errors.New("oob")
	}
	copy(p, f.data[off:])
	return len(p), nil
}

func (f *testFlash) WriteAt(p []byte, off uint32) (int, error) {
	if int(off)+len(p) > len(f.data) {
		return 0, errors.New("oob")
	}
	copy(f.data[off:], p)
	return len(p), nil
}

func (f *testFlash) Erase(off, size uint32) error {
	for i := off; i < off+size; i++ {
		f.data[i] = 0xFF
	}
	return nil
}

type testStatus struct {
	link, trans string
	layer       int
}

func (s *testStatus) ShowLink(v string)      { s.link = v }
func (s *testStatus) ShowTransport(v string) { s.trans = v }
func (s *testStatus) ShowLayer(n int)        { s.layer = n }

type testHAL struct {
	led    *testLED
	matrix *testMatrix
	rser   *testSerial
	lser   *testSerial
	wired  *testWired
	flash  *testFlash
	status *testStatus
}

func newTestHAL() *testHAL {
	return &testHAL{
		led:    &testLED{},
		matrix: newTestMatrix(5, 14),
		rser:   &testSerial{},
		lser:   &testSerial{},
		wired:  &testWired{ready: true},
		flash:  newTestFlash(4096),
		status: &testStatus{},
	}
}

func (h *testHAL) Logger() hal.Logger      { return nullLogger{} }
func (h *testHAL) LED() hal.LED            { return h.led }
func (h *testHAL) Matrix() hal.Matrix      { return h.matrix }
func (h *testHAL) RadioSerial() hal.Serial { return h.rser }
func (h *testHAL) LEDSerial() hal.Serial   { return h.lser }
func (h *testHAL) Wired() hal.Wired        { return h.wired }
func (h *testHAL) Flash() hal.Flash        { return h.flash }
func (h *testHAL) Time() hal.Time          { return nil }
func (h *testHAL) Status() hal.Status      { return h.status }

// tick pends every periodic handler once, as the time goroutine would.
func (s *system) tick(t uint64) {
	s.d.SetTick(t)
	s.d.Pend(s.scanH)
	s.d.Pend(s.serialH)
	s.d.Pend(s.idleH)
	s.d.RunPending()
}

func TestKeyPressReachesWiredTransport(t *testing.T) {
	h := newTestHAL()
	s := newSystem(h, Config{})

	// Default map puts "a" at row 2, col 1.
	h.matrix.level[2][1] = true
	for i := uint64(1); i <= 10; i++ {
		s.tick(i)
	}

	if len(h.wired.reports) == 0 {
		t.Fatalf("no wired report after debounced press")
	}
	last := h.wired.reports[len(h.wired.reports)-1]
	if last[2] != 0x04 {
		t.Fatalf("report = %v, want usage 0x04 in first slot", last)
	}

	h.matrix.level[2][1] = false
	for i := uint64(11); i <= 20; i++ {
		s.tick(i)
	}
	last = h.wired.reports[len(h.wired.reports)-1]
	for _, b := range last {
		if b != 0 {
			t.Fatalf("release report = %v, want all zero", last)
		}
	}
}

func TestModifierAndLayerViaMatrix(t *testing.T) {
	h := newTestHAL()
	s := newSystem(h, Config{})

	// Hold fn (row 4, col 8), then press the key over "1" for f1.
	h.matrix.level[4][8] = true
	for i := uint64(1); i <= 10; i++ {
		s.tick(i)
	}
	if h.status.layer != 1 {
		t.Fatalf("status layer = %d, want 1", h.status.layer)
	}

	h.matrix.level[0][1] = true
	for i := uint64(11); i <= 20; i++ {
		s.tick(i)
	}
	last := h.wired.reports[len(h.wired.reports)-1]
	if last[2] != 0x3A { // F1
		t.Fatalf("report = %v, want F1", last)
	}
}

func TestTransportSwitchHandsOffWithRelease(t *testing.T) {
	h := newTestHAL()
	s := newSystem(h, Config{})

	// Hold "a", then tap the transport-switch key (row 4, col 10).
	h.matrix.level[2][1] = true
	for i := uint64(1); i <= 10; i++ {
		s.tick(i)
	}
	h.matrix.level[4][10] = true
	for i := uint64(11); i <= 20; i++ {
		s.tick(i)
	}

	if s.mux.Active() != transport.Radio {
		t.Fatalf("active transport = %v, want radio", s.mux.Active())
	}
	last := h.wired.reports[len(h.wired.reports)-1]
	for _, b := range last {
		if b != 0 {
			t.Fatalf("wired handoff report = %v, want all-released", last)
		}
	}
	if h.status.trans != "radio" {
		t.Fatalf("status transport = %q, want radio", h.status.trans)
	}

	// Preference was persisted: a rebooted system comes up on radio.
	s2 := newSystem(h, Config{})
	if s2.mux.Active() != transport.Radio {
		t.Fatalf("restored transport = %v, want radio", s2.mux.Active())
	}
}

func TestRadioHandshakeThroughApp(t *testing.T) {
	h := newTestHAL()
	s := newSystem(h, Config{})

	s.tick(1)
	if got := h.rser.tx.String(); got != "NAME=quill\r\n" {
		t.Fatalf("first command = %q", got)
	}

	h.rser.rx.WriteString("OK\n")
	s.tick(2)
	h.rser.rx.WriteString("OK\n")
	s.tick(3)
	if s.client.State() != radio.Advertising {
		t.Fatalf("state = %v, want advertising", s.client.State())
	}

	h.rser.rx.WriteString("EVT CONN\n")
	s.tick(4)
	if s.client.State() != radio.Connected {
		t.Fatalf("state = %v, want connected", s.client.State())
	}
	if !h.led.on {
		t.Fatalf("link LED not lit after connect")
	}
	if h.status.link != "connected" {
		t.Fatalf("status link = %q", h.status.link)
	}

	// The LED controller was told to show the connected pattern.
	if h.lser.tx.Len() == 0 {
		t.Fatalf("no indicator frame on LED serial")
	}
}

func TestWiredBusyRetriesOnCompletion(t *testing.T) {
	h := newTestHAL()
	s := newSystem(h, Config{})

	h.wired.busy = true
	h.matrix.level[2][1] = true
	for i := uint64(1); i <= 10; i++ {
		s.tick(i)
	}
	if len(h.wired.reports) != 0 {
		t.Fatalf("report submitted while endpoint busy")
	}

	h.wired.busy = false
	h.wired.sent() // completion interrupt
	s.d.RunPending()

	if len(h.wired.reports) != 1 || h.wired.reports[0][2] != 0x04 {
		t.Fatalf("reports after completion = %v", h.wired.reports)
	}
}
