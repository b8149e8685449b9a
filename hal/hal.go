package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// ErrBusy is returned by Wired.Submit while a previous report is still in flight.
var ErrBusy = errors.New("busy")

// Matrix drives and samples the physical key grid.
//
// SelectRow energizes exactly one strobe line; ReadRow returns the sensed
// column levels for that row as a bitmask (bit 0 = column 0, set = closed).
// Both must be callable from interrupt context.
type Matrix interface {
	Rows() int
	Cols() int
	SelectRow(row int)
	ReadRow() uint32
}

// Serial is a byte stream to an external controller MCU.
//
// Read returns what is buffered and never waits for more.
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Wired is the wired HID report primitive.
//
// Submit hands one fixed-size report to the endpoint and returns ErrBusy if
// the previous one has not completed. OnSent registers a completion callback
// invoked from interrupt context. Ready reports whether the host side is up
// (configured and not suspended).
type Wired interface {
	Submit(report []byte) error
	OnSent(fn func())
	Ready() bool
}

// Flash provides raw access to non-volatile memory.
//
// It is intentionally low-level: addresses and erase blocks only.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Time provides a base tick stream.
//
// The tick duration is 1ms nominal on every backend; the firmware counts
// ticks, never wall time.
type Time interface {
	Ticks() <-chan uint64
}

// Status is an optional indicator surface (OLED on hardware, window overlay
// on host). Implementations are called once per state edge, never per tick.
type Status interface {
	ShowLink(s string)
	ShowTransport(s string)
	ShowLayer(n int)
}

// HAL provides the only contact point between the firmware and the machine.
//
// RadioSerial talks to the wireless bridge module, LEDSerial to the
// backlight controller; either may be nil on boards without the part.
type HAL interface {
	Logger() Logger
	LED() LED
	Matrix() Matrix
	RadioSerial() Serial
	LEDSerial() Serial
	Wired() Wired
	Flash() Flash
	Time() Time
	Status() Status
}
