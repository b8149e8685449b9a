//go:build !tinygo

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"quill/firmware/keymap"
	"quill/firmware/scan"
)

// ParsePolicy applies a YAML override file on top of the defaults; absent
// fields keep their default values.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("config: policy: %w", err)
	}
	if p.DebounceTicks == 0 {
		return Policy{}, fmt.Errorf("config: policy: debounce_ticks must be positive")
	}
	return p, nil
}

// keymapFile is the YAML schema for keymap files. Each layer is a grid of
// key names as accepted by keymap.ParseName; macros are ordered step lists.
type keymapFile struct {
	Layers [][][]string `yaml:"layers"`
	Macros []struct {
		Steps []macroStep `yaml:"steps"`
	} `yaml:"macros"`
}

// macroStep is a one-entry map: tap, press or release of a named key.
type macroStep struct {
	Tap     string `yaml:"tap"`
	Press   string `yaml:"press"`
	Release string `yaml:"release"`
}

// ParseKeymap builds a keymap and macro table from a YAML keymap file. Every
// layer must have the same grid shape.
func ParseKeymap(data []byte) (*keymap.Keymap, keymap.MacroTable, error) {
	var f keymapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("config: keymap: %w", err)
	}
	if len(f.Layers) == 0 || len(f.Layers[0]) == 0 || len(f.Layers[0][0]) == 0 {
		return nil, nil, fmt.Errorf("config: keymap: no layers")
	}

	rows, cols := len(f.Layers[0]), len(f.Layers[0][0])
	km := keymap.NewKeymap(rows, cols, len(f.Layers))
	for li, layer := range f.Layers {
		if len(layer) != rows {
			return nil, nil, fmt.Errorf("config: keymap: layer %d has %d rows, want %d", li, len(layer), rows)
		}
		for ri, row := range layer {
			if len(row) != cols {
				return nil, nil, fmt.Errorf("config: keymap: layer %d row %d has %d keys, want %d", li, ri, len(row), cols)
			}
			for ci, name := range row {
				code, err := keymap.ParseName(name)
				if err != nil {
					return nil, nil, fmt.Errorf("config: keymap: layer %d row %d col %d: %w", li, ri, ci, err)
				}
				km.Set(li, scan.Position{Row: uint8(ri), Col: uint8(ci)}, code)
			}
		}
	}

	macros := make(keymap.MacroTable, 0, len(f.Macros))
	for mi, m := range f.Macros {
		var steps []keymap.Step
		for si, st := range m.Steps {
			parsed, err := parseStep(st)
			if err != nil {
				return nil, nil, fmt.Errorf("config: keymap: macro %d step %d: %w", mi, si, err)
			}
			steps = append(steps, parsed...)
		}
		macros = append(macros, steps)
	}
	return km, macros, nil
}

func parseStep(st macroStep) ([]keymap.Step, error) {
	set := 0
	for _, v := range []string{st.Tap, st.Press, st.Release} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("want exactly one of tap/press/release")
	}
	switch {
	case st.Tap != "":
		code, err := keymap.ParseName(st.Tap)
		if err != nil {
			return nil, err
		}
		return keymap.Tap(code), nil
	case st.Press != "":
		code, err := keymap.ParseName(st.Press)
		if err != nil {
			return nil, err
		}
		return []keymap.Step{keymap.Press(code)}, nil
	default:
		code, err := keymap.ParseName(st.Release)
		if err != nil {
			return nil, err
		}
		return []keymap.Step{keymap.Release(code)}, nil
	}
}
