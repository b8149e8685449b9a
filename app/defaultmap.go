package app

import (
	"quill/firmware/keymap"
	"quill/firmware/scan"
)

// The compiled-in layout: a 5x14 60% board with a momentary function layer.
// Key names follow keymap.ParseName.
var defaultLayers = [][][]string{
	{
		{"esc", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "minus", "equal", "bspc"},
		{"tab", "q", "w", "e", "r", "t", "y", "u", "i", "o", "p", "lbrc", "rbrc", "bsls"},
		{"caps", "a", "s", "d", "f", "g", "h", "j", "k", "l", "scln", "quot", "enter", "none"},
		{"lshift", "z", "x", "c", "v", "b", "n", "m", "comm", "dot", "slsh", "rshift", "up", "none"},
		{"lctrl", "lgui", "lalt", "space", "space", "space", "space", "space", "mo(1)", "ralt", "swap", "left", "down", "right"},
	},
	{
		{"grv", "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12", "trns"},
		{"trns", "trns", "up", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "prev", "vol-", "vol+", "mute"},
		{"trns", "left", "down", "right", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "play", "trns", "none"},
		{"trns", "bl", "bl.thm", "bl.brt", "bl.spd", "trns", "trns", "m(0)", "trns", "trns", "trns", "trns", "trns", "none"},
		{"trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns", "trns"},
	},
}

// defaultKeymap builds the compiled-in keymap and macro table. The name
// table is covered by tests, so a parse failure here is a programming error.
func defaultKeymap() (*keymap.Keymap, keymap.MacroTable) {
	km := buildKeymap(defaultLayers)

	shift := keymap.Mod(keymap.ModLShift)
	h := keymap.Basic(keymap.UsageA + 'h' - 'a')
	i := keymap.Basic(keymap.UsageA + 'i' - 'a')

	// m(0) types "Hi".
	var hi []keymap.Step
	hi = append(hi, keymap.Press(shift))
	hi = append(hi, keymap.Tap(h)...)
	hi = append(hi, keymap.Release(shift))
	hi = append(hi, keymap.Tap(i)...)

	return km, keymap.MacroTable{hi}
}

func buildKeymap(layers [][][]string) *keymap.Keymap {
	rows, cols := len(layers[0]), len(layers[0][0])
	km := keymap.NewKeymap(rows, cols, len(layers))
	for li, layer := range layers {
		for ri, row := range layer {
			for ci, name := range row {
				code, err := keymap.ParseName(name)
				if err != nil {
					panic("app: bad default keymap entry " + name)
				}
				km.Set(li, scan.Position{Row: uint8(ri), Col: uint8(ci)}, code)
			}
		}
	}
	return km
}
