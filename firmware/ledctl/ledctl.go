// Package ledctl drives the dedicated backlight controller MCU over its own
// serial link. Frames are fire-and-forget; acks only refresh cached state.
package ledctl

import (
	"quill/firmware/keymap"
	"quill/firmware/radio"
	"quill/hal"
)

// Frame layout on the wire: [msgType, length, op, payload...], where length
// counts the op byte plus the payload.
const (
	msgLED     = 0x01
	maxPayload = 64
)

// Op identifies one LED controller operation.
type Op uint8

const (
	OpThemeMode         Op = 0x01
	OpSetTheme          Op = 0x02
	OpConfigCmd         Op = 0x03
	OpSetIndividualKeys Op = 0x04
	OpKeyBitmap         Op = 0x05
	OpGetThemeID        Op = 0x06

	OpAckThemeMode         Op = 0x81
	OpAckConfigCmd         Op = 0x83
	OpAckSetIndividualKeys Op = 0x84
	OpAckThemeID           Op = 0x86
)

// Per-key modes inside an OpSetIndividualKeys payload.
const (
	keyModeOn    = 1
	keyModeFlash = 2
)

// setKeysMagic opens an OpSetIndividualKeys payload; the next byte is the
// entry count, then 5 bytes per entry: index, r, g, b, mode.
const setKeysMagic = 0xCA

// Key indices on the controller used for the link-state indicator strip.
const (
	idxEscape = 0
	idxDigit1 = 1
	idxDigit2 = 2
	idxDigit3 = 3
)

type rxPhase uint8

const (
	rxType rxPhase = iota
	rxLen
	rxOp
	rxPayload
)

// Controller is the client side of the LED serial protocol. All methods are
// non-blocking: a failed write drops the frame and bumps a counter.
type Controller struct {
	serial hal.Serial
	logger hal.Logger

	themeOn bool
	themeID uint8
	bright  uint8
	speed   uint8

	txDrops   uint32
	malformed uint32
	onTheme   func(uint8)

	phase     rxPhase
	rxMsgType uint8
	rxNeed    uint8
	rxOpByte  uint8
	rxBuf     [maxPayload]byte
	rxN       uint8

	txBuf [3 + maxPayload]byte
}

func New(serial hal.Serial, logger hal.Logger) *Controller {
	return &Controller{serial: serial, logger: logger, themeOn: true}
}

// NotifyTheme registers a callback fired whenever an ack carries a new
// theme id.
func (c *Controller) NotifyTheme(fn func(uint8)) { c.onTheme = fn }

// ThemeID returns the last theme id reported by the controller.
func (c *Controller) ThemeID() uint8 { return c.themeID }

// TxDrops counts frames discarded because the serial write failed.
func (c *Controller) TxDrops() uint32 { return c.txDrops }

// Malformed counts inbound frames the parser had to throw away.
func (c *Controller) Malformed() uint32 { return c.malformed }

// Handle dispatches one Backlight action keycode.
func (c *Controller) Handle(op keymap.BacklightOp) {
	switch op {
	case keymap.BacklightToggle:
		c.Toggle()
	case keymap.BacklightNextTheme:
		c.send(OpConfigCmd, []byte{1, 0, 0})
	case keymap.BacklightNextBrightness:
		c.send(OpConfigCmd, []byte{0, 0, 1})
	case keymap.BacklightNextSpeed:
		c.send(OpConfigCmd, []byte{0, 1, 0})
	}
}

// Toggle alternates between the animated theme and theme 0 (off).
func (c *Controller) Toggle() {
	if c.themeOn {
		c.send(OpSetTheme, []byte{0})
	} else {
		c.send(OpThemeMode, nil)
	}
	c.themeOn = !c.themeOn
}

// SetTheme selects a fixed theme.
func (c *Controller) SetTheme(id uint8) {
	c.send(OpSetTheme, []byte{id})
	c.themeOn = id != 0
}

// ThemeMode re-enters the controller's animated theme mode.
func (c *Controller) ThemeMode() {
	c.send(OpThemeMode, nil)
	c.themeOn = true
}

// QueryThemeID asks the controller for its current theme; the answer comes
// back as an ack frame.
func (c *Controller) QueryThemeID() {
	c.send(OpGetThemeID, nil)
}

// SendKeys forwards the packed key-down bitmap so reactive themes can light
// pressed keys.
func (c *Controller) SendKeys(packed []byte) {
	c.send(OpKeyBitmap, packed)
}

// SetKeys paints individual keys; payload is the raw controller format.
func (c *Controller) SetKeys(payload []byte) {
	c.send(OpSetIndividualKeys, payload)
}

// Indicate paints the link-state strip: the escape key carries the radio
// state color, the digit keys show activity.
func (c *Controller) Indicate(s radio.State) {
	var r, g, b, mode uint8
	switch s {
	case radio.Connected:
		g, mode = 0xFF, keyModeOn
	case radio.Advertising:
		r, g, mode = 0xFF, 0xFF, keyModeFlash
	default:
		r, mode = 0xFF, keyModeOn
	}
	c.SetKeys([]byte{
		setKeysMagic, 4,
		idxEscape, r, g, b, mode,
		idxDigit1, r, g, b, mode,
		idxDigit2, r, g, b, mode,
		idxDigit3, r, g, b, mode,
	})
}

func (c *Controller) send(op Op, payload []byte) {
	if len(payload) > maxPayload {
		c.txDrops++
		return
	}
	n := 3 + len(payload)
	c.txBuf[0] = msgLED
	c.txBuf[1] = uint8(len(payload) + 1)
	c.txBuf[2] = uint8(op)
	copy(c.txBuf[3:], payload)
	if wn, err := c.serial.Write(c.txBuf[:n]); err != nil || wn != n {
		c.txDrops++
	}
}

// Feed pushes inbound serial bytes through the frame parser.
func (c *Controller) Feed(p []byte) {
	for _, b := range p {
		c.feedByte(b)
	}
}

func (c *Controller) feedByte(b byte) {
	switch c.phase {
	case rxType:
		c.rxMsgType = b
		c.phase = rxLen
	case rxLen:
		if b == 0 || int(b)-1 > maxPayload {
			c.malformed++
			c.phase = rxType
			return
		}
		c.rxNeed = b - 1
		c.phase = rxOp
	case rxOp:
		c.rxOpByte = b
		c.rxN = 0
		if c.rxNeed == 0 {
			c.finishFrame()
			return
		}
		c.phase = rxPayload
	case rxPayload:
		c.rxBuf[c.rxN] = b
		c.rxN++
		if c.rxN == c.rxNeed {
			c.finishFrame()
		}
	}
}

func (c *Controller) finishFrame() {
	c.phase = rxType
	data := c.rxBuf[:c.rxN]
	if c.rxMsgType != msgLED {
		c.logLine("ledctl: frame for unknown type")
		return
	}
	switch Op(c.rxOpByte) {
	case OpAckThemeMode, OpAckThemeID:
		if len(data) >= 1 {
			c.setTheme(data[0])
		}
	case OpAckConfigCmd:
		// data: [theme id, brightness, animation speed]
		if len(data) >= 3 {
			c.setTheme(data[0])
			c.bright = data[1]
			c.speed = data[2]
		}
	case OpAckSetIndividualKeys:
		// data: [202]
	default:
		c.logLine("ledctl: unexpected op")
	}
}

func (c *Controller) setTheme(id uint8) {
	changed := id != c.themeID
	c.themeID = id
	if changed && c.onTheme != nil {
		c.onTheme(id)
	}
}

func (c *Controller) logLine(s string) {
	if c.logger != nil {
		c.logger.WriteLineString(s)
	}
}
