//go:build tinygo && baremetal

package hal

import (
	"machine/usb/hid/keyboard"
)

// hidPort is the slice of the USB keyboard port the diffing needs; the
// concrete type behind keyboard.Port() is unexported.
type hidPort interface {
	Down(keyboard.Keycode) error
	Up(keyboard.Keycode) error
}

// usbWired feeds boot and consumer reports into the USB HID keyboard port
// by diffing against the previously submitted state.
type usbWired struct {
	port hidPort
	last [8]byte
	mods uint8
	cons uint16
	fn   func()
}

func newUSBWired() *usbWired {
	return &usbWired{port: keyboard.Port()}
}

func basicKey(usage uint8) keyboard.Keycode {
	return keyboard.Keycode(0xF000 | uint16(usage))
}

func modKey(bit uint8) keyboard.Keycode {
	return keyboard.Keycode(0xE000 | uint16(bit))
}

func (w *usbWired) Submit(report []byte) error {
	switch len(report) {
	case 8:
		w.submitBoot(report)
	case 2:
		w.submitConsumer(uint16(report[0]) | uint16(report[1])<<8)
	default:
		return ErrNotImplemented
	}
	if w.fn != nil {
		w.fn()
	}
	return nil
}

func (w *usbWired) submitBoot(report []byte) {
	for bit := uint8(1); bit != 0; bit <<= 1 {
		was := w.mods&bit != 0
		is := report[0]&bit != 0
		if is && !was {
			w.port.Down(modKey(bit))
		}
		if was && !is {
			w.port.Up(modKey(bit))
		}
	}
	w.mods = report[0]

	for _, u := range w.last[2:] {
		if u != 0 && !containsUsage(report[2:8], u) {
			w.port.Up(basicKey(u))
		}
	}
	for _, u := range report[2:8] {
		if u != 0 && !containsUsage(w.last[2:], u) {
			w.port.Down(basicKey(u))
		}
	}
	copy(w.last[:], report)
}

func (w *usbWired) submitConsumer(usage uint16) {
	if usage == w.cons {
		return
	}
	if w.cons != 0 {
		if k, ok := mediaKey(w.cons); ok {
			w.port.Up(k)
		}
	}
	if usage != 0 {
		if k, ok := mediaKey(usage); ok {
			w.port.Down(k)
		}
	}
	w.cons = usage
}

func mediaKey(usage uint16) (keyboard.Keycode, bool) {
	switch usage {
	case 0x00CD:
		return keyboard.KeyMediaPlayPause, true
	case 0x00B5:
		return keyboard.KeyMediaNextTrack, true
	case 0x00B6:
		return keyboard.KeyMediaPrevTrack, true
	case 0x00E2:
		return keyboard.KeyMediaMute, true
	case 0x00E9:
		return keyboard.KeyMediaVolumeInc, true
	case 0x00EA:
		return keyboard.KeyMediaVolumeDec, true
	}
	return 0, false
}

func containsUsage(s []byte, u byte) bool {
	for _, v := range s {
		if v == u {
			return true
		}
	}
	return false
}

func (w *usbWired) OnSent(fn func()) { w.fn = fn }

// Ready is optimistic: the RP2 port does not surface suspend state, so
// failover on hardware only happens through an explicit transport switch.
func (w *usbWired) Ready() bool { return true }
