package keymap

// Keycode is a tagged 16-bit code: the top nibble selects the kind, the low
// bits carry the kind-specific argument. The zero value is None.
type Keycode uint16

// Kind is the keycode variant tag.
type Kind uint8

const (
	KindNone Kind = iota
	KindBasic
	KindModifier
	KindLayer
	KindMacro
	KindConsumer
	KindSystem
	KindTransportSwitch
	KindBacklight
	KindTransparent Kind = 0xE
)

const (
	kindShift = 12
	argMask   = 0x0FFF
)

// Layer operations carried in bits 10..11 of a KindLayer code.
type LayerOp uint8

const (
	LayerPush LayerOp = iota
	LayerPop
	LayerToggle
)

// Backlight operations carried in the argument of a KindBacklight code.
type BacklightOp uint8

const (
	BacklightToggle BacklightOp = iota
	BacklightNextTheme
	BacklightNextBrightness
	BacklightNextSpeed
)

// None is the unmapped entry: pressing it does nothing.
const None Keycode = 0

// Transparent defers to the next lower active layer.
const Transparent Keycode = Keycode(KindTransparent) << kindShift

// TransportSwitch toggles the active transport.
const TransportSwitch Keycode = Keycode(KindTransportSwitch) << kindShift

// Basic builds a keycode for a plain HID keyboard usage.
func Basic(usage uint8) Keycode {
	return Keycode(KindBasic)<<kindShift | Keycode(usage)
}

// Mod builds a modifier keycode from a modifier bit index (0..7).
func Mod(bit uint8) Keycode {
	return Keycode(KindModifier)<<kindShift | Keycode(bit&0x7)
}

// Layer builds a layer-action keycode.
func Layer(op LayerOp, layer uint8) Keycode {
	return Keycode(KindLayer)<<kindShift | Keycode(op)<<10 | Keycode(layer)
}

// Macro builds a reference to an entry in the macro table.
func Macro(index uint8) Keycode {
	return Keycode(KindMacro)<<kindShift | Keycode(index)
}

// Consumer builds a consumer-control keycode (12-bit usage).
func Consumer(usage uint16) Keycode {
	return Keycode(KindConsumer)<<kindShift | Keycode(usage&argMask)
}

// System builds a system-control keycode.
func System(usage uint8) Keycode {
	return Keycode(KindSystem)<<kindShift | Keycode(usage)
}

// Backlight builds a backlight-action keycode.
func Backlight(op BacklightOp) Keycode {
	return Keycode(KindBacklight)<<kindShift | Keycode(op)
}

// Kind returns the variant tag.
func (k Keycode) Kind() Kind {
	return Kind(k >> kindShift)
}

// Arg returns the raw kind-specific argument bits.
func (k Keycode) Arg() uint16 {
	return uint16(k) & argMask
}

// Usage returns the HID usage byte of a Basic/System code.
func (k Keycode) Usage() uint8 {
	return uint8(k)
}

// ModBit returns the modifier bit index of a Modifier code.
func (k Keycode) ModBit() uint8 {
	return uint8(k) & 0x7
}

// LayerOp returns the operation of a Layer code.
func (k Keycode) LayerOp() LayerOp {
	return LayerOp(k >> 10 & 0x3)
}

// LayerArg returns the target layer of a Layer code.
func (k Keycode) LayerArg() uint8 {
	return uint8(k) & 0xF // bits 10..11 hold the op
}

// BacklightOp returns the operation of a Backlight code.
func (k Keycode) BacklightOp() BacklightOp {
	return BacklightOp(uint8(k))
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBasic:
		return "basic"
	case KindModifier:
		return "modifier"
	case KindLayer:
		return "layer"
	case KindMacro:
		return "macro"
	case KindConsumer:
		return "consumer"
	case KindSystem:
		return "system"
	case KindTransportSwitch:
		return "transport_switch"
	case KindBacklight:
		return "backlight"
	case KindTransparent:
		return "transparent"
	default:
		return "unknown"
	}
}

// Modifier bit indexes, matching the boot report modifier byte.
const (
	ModLCtrl uint8 = iota
	ModLShift
	ModLAlt
	ModLGUI
	ModRCtrl
	ModRShift
	ModRAlt
	ModRGUI
)

// HID keyboard page usages used by the default keymap and the name table.
const (
	UsageErrRollOver uint8 = 0x01
	UsageA           uint8 = 0x04
	UsageZ           uint8 = 0x1D
	Usage1           uint8 = 0x1E
	Usage0           uint8 = 0x27
	UsageEnter       uint8 = 0x28
	UsageEscape      uint8 = 0x29
	UsageBackspace   uint8 = 0x2A
	UsageTab         uint8 = 0x2B
	UsageSpace       uint8 = 0x2C
	UsageMinus       uint8 = 0x2D
	UsageEqual       uint8 = 0x2E
	UsageLBracket    uint8 = 0x2F
	UsageRBracket    uint8 = 0x30
	UsageBackslash   uint8 = 0x31
	UsageSemicolon   uint8 = 0x33
	UsageQuote       uint8 = 0x34
	UsageGrave       uint8 = 0x35
	UsageComma       uint8 = 0x36
	UsageDot         uint8 = 0x37
	UsageSlash       uint8 = 0x38
	UsageCapsLock    uint8 = 0x39
	UsageF1          uint8 = 0x3A
	UsageF12         uint8 = 0x45
	UsageRight       uint8 = 0x4F
	UsageLeft        uint8 = 0x50
	UsageDown        uint8 = 0x51
	UsageUp          uint8 = 0x52
)

// Consumer page usages for the media keys the default keymap exposes.
const (
	ConsumerPlayPause  uint16 = 0x0CD
	ConsumerNextTrack  uint16 = 0x0B5
	ConsumerPrevTrack  uint16 = 0x0B6
	ConsumerMute       uint16 = 0x0E2
	ConsumerVolumeUp   uint16 = 0x0E9
	ConsumerVolumeDown uint16 = 0x0EA
)
