//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

// Host matrix shape; the window key mapping and the compiled-in keymap both
// assume it.
const (
	hostMatrixRows = 5
	hostMatrixCols = 14
)

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	matrix *hostMatrix
	bridge *hostBridge
	ledser *hostLEDSerial
	wired  *hostWired
	flash  *hostFlash
	t      *hostTime
	status *hostStatus
}

// New returns a host HAL implementation: a simulated board with a virtual
// matrix, a scripted bridge module and a logging wired endpoint.
func New() HAL {
	logger := &hostLogger{w: os.Stdout}
	return &hostHAL{
		logger: logger,
		led:    &hostLED{logger: logger},
		matrix: newHostMatrix(hostMatrixRows, hostMatrixCols),
		bridge: newHostBridge(logger),
		ledser: newHostLEDSerial(logger),
		wired:  newHostWired(logger),
		flash:  newHostFlash(),
		t:      newHostTime(),
		status: &hostStatus{},
	}
}

func (h *hostHAL) Logger() Logger      { return h.logger }
func (h *hostHAL) LED() LED            { return h.led }
func (h *hostHAL) Matrix() Matrix      { return h.matrix }
func (h *hostHAL) RadioSerial() Serial { return h.bridge }
func (h *hostHAL) LEDSerial() Serial   { return h.ledser }
func (h *hostHAL) Wired() Wired        { return h.wired }
func (h *hostHAL) Flash() Flash        { return h.flash }
func (h *hostHAL) Time() Time          { return h.t }
func (h *hostHAL) Status() Status      { return h.status }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	on     bool
	logger *hostLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.on {
		l.logger.WriteLineString("led: HIGH")
	}
	l.on = true
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on {
		l.logger.WriteLineString("led: LOW")
	}
	l.on = false
}

// hostStatus keeps the latest indicator strings for the window overlay.
type hostStatus struct {
	mu    sync.Mutex
	link  string
	trans string
	layer int
}

func (s *hostStatus) ShowLink(v string) {
	s.mu.Lock()
	s.link = v
	s.mu.Unlock()
}

func (s *hostStatus) ShowTransport(v string) {
	s.mu.Lock()
	s.trans = v
	s.mu.Unlock()
}

func (s *hostStatus) ShowLayer(n int) {
	s.mu.Lock()
	s.layer = n
	s.mu.Unlock()
}

func (s *hostStatus) snapshot() (link, trans string, layer int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link, s.trans, s.layer
}
