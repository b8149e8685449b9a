package keymap

import (
	"fmt"
	"strconv"
	"strings"
)

// byName maps the fixed key names used in keymap files.
var byName = map[string]Keycode{
	"none":  None,
	"trns":  Transparent,
	"enter": Basic(UsageEnter),
	"esc":   Basic(UsageEscape),
	"bspc":  Basic(UsageBackspace),
	"tab":   Basic(UsageTab),
	"space": Basic(UsageSpace),
	"minus": Basic(UsageMinus),
	"equal": Basic(UsageEqual),
	"lbrc":  Basic(UsageLBracket),
	"rbrc":  Basic(UsageRBracket),
	"bsls":  Basic(UsageBackslash),
	"scln":  Basic(UsageSemicolon),
	"quot":  Basic(UsageQuote),
	"grv":   Basic(UsageGrave),
	"comm":  Basic(UsageComma),
	"dot":   Basic(UsageDot),
	"slsh":  Basic(UsageSlash),
	"caps":  Basic(UsageCapsLock),
	"right": Basic(UsageRight),
	"left":  Basic(UsageLeft),
	"down":  Basic(UsageDown),
	"up":    Basic(UsageUp),

	"lctrl":  Mod(ModLCtrl),
	"lshift": Mod(ModLShift),
	"lalt":   Mod(ModLAlt),
	"lgui":   Mod(ModLGUI),
	"rctrl":  Mod(ModRCtrl),
	"rshift": Mod(ModRShift),
	"ralt":   Mod(ModRAlt),
	"rgui":   Mod(ModRGUI),

	"play": Consumer(ConsumerPlayPause),
	"next": Consumer(ConsumerNextTrack),
	"prev": Consumer(ConsumerPrevTrack),
	"mute": Consumer(ConsumerMute),
	"vol+": Consumer(ConsumerVolumeUp),
	"vol-": Consumer(ConsumerVolumeDown),

	"swap": TransportSwitch,

	"bl":     Backlight(BacklightToggle),
	"bl.thm": Backlight(BacklightNextTheme),
	"bl.brt": Backlight(BacklightNextBrightness),
	"bl.spd": Backlight(BacklightNextSpeed),
}

// ParseName turns one keymap-file token into a keycode.
//
// Besides the fixed names, it accepts single letters and digits, "fN" for
// function keys, and the parameterized forms "mo(N)" (momentary layer),
// "po(N)" (explicit pop), "tg(N)" (toggle), and "m(N)" (macro reference).
func ParseName(name string) (Keycode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "____" {
		return Transparent, nil
	}

	if kc, ok := byName[name]; ok {
		return kc, nil
	}

	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Basic(UsageA + c - 'a'), nil
		case c == '0':
			return Basic(Usage0), nil
		case c >= '1' && c <= '9':
			return Basic(Usage1 + c - '1'), nil
		}
	}

	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 12 {
			return Basic(UsageF1 + uint8(n-1)), nil
		}
	}

	if arg, ok := paren(name, "mo"); ok {
		return layerRef(LayerPush, arg)
	}
	if arg, ok := paren(name, "po"); ok {
		return layerRef(LayerPop, arg)
	}
	if arg, ok := paren(name, "tg"); ok {
		return layerRef(LayerToggle, arg)
	}
	if arg, ok := paren(name, "m"); ok {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 || n > 255 {
			return None, fmt.Errorf("keymap: bad macro reference %q", name)
		}
		return Macro(uint8(n)), nil
	}

	return None, fmt.Errorf("keymap: unknown key name %q", name)
}

func paren(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix+"(") || !strings.HasSuffix(name, ")") {
		return "", false
	}
	return name[len(prefix)+1 : len(name)-1], true
}

func layerRef(op LayerOp, arg string) (Keycode, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 15 {
		return None, fmt.Errorf("keymap: bad layer reference %q", arg)
	}
	return Layer(op, uint8(n)), nil
}
