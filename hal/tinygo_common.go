//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

// byteWriter is satisfied by machine.Serial (USB CDC) and machine.UART.
type byteWriter interface {
	WriteByte(b byte) error
}

type lineLogger struct {
	w byteWriter
}

func (l *lineLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.w.WriteByte(s[i])
	}
	l.w.WriteByte('\r')
	l.w.WriteByte('\n')
}

func (l *lineLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.w.WriteByte(b[i])
	}
	l.w.WriteByte('\r')
	l.w.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

type uartSerial struct {
	uart *machine.UART
}

func (s *uartSerial) Read(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	return s.uart.Read(p)
}

func (s *uartSerial) Write(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	return s.uart.Write(p)
}

// gpioMatrix strobes row pins high one at a time and samples pulled-down
// column inputs.
type gpioMatrix struct {
	rowPins []machine.Pin
	colPins []machine.Pin
}

func newGPIOMatrix(rows, cols []machine.Pin) *gpioMatrix {
	for _, p := range rows {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	for _, p := range cols {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	}
	return &gpioMatrix{rowPins: rows, colPins: cols}
}

func (m *gpioMatrix) Rows() int { return len(m.rowPins) }
func (m *gpioMatrix) Cols() int { return len(m.colPins) }

func (m *gpioMatrix) SelectRow(row int) {
	for i, p := range m.rowPins {
		if i == row {
			p.High()
		} else {
			p.Low()
		}
	}
}

func (m *gpioMatrix) ReadRow() uint32 {
	var bits uint32
	for i, p := range m.colPins {
		if p.Get() {
			bits |= 1 << i
		}
	}
	return bits
}
