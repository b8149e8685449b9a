package keymap

import "quill/firmware/scan"

// Keymap is the full layer table for one keyboard: layers × positions.
// Layer 0 is the base layer and is always present.
type Keymap struct {
	rows, cols int
	layers     [][]Keycode
}

// NewKeymap allocates an all-None keymap for the given geometry.
func NewKeymap(rows, cols, layers int) *Keymap {
	if layers < 1 {
		layers = 1
	}
	km := &Keymap{rows: rows, cols: cols, layers: make([][]Keycode, layers)}
	for i := range km.layers {
		km.layers[i] = make([]Keycode, rows*cols)
	}
	return km
}

// Rows returns the matrix row count.
func (km *Keymap) Rows() int { return km.rows }

// Cols returns the matrix column count.
func (km *Keymap) Cols() int { return km.cols }

// Layers returns the number of layers.
func (km *Keymap) Layers() int { return len(km.layers) }

// Set stores one entry. Out-of-range coordinates are ignored.
func (km *Keymap) Set(layer int, pos scan.Position, kc Keycode) {
	idx := km.index(pos)
	if layer < 0 || layer >= len(km.layers) || idx < 0 {
		return
	}
	km.layers[layer][idx] = kc
}

// At returns the entry for a position on one layer.
func (km *Keymap) At(layer int, pos scan.Position) Keycode {
	idx := km.index(pos)
	if layer < 0 || layer >= len(km.layers) || idx < 0 {
		return None
	}
	return km.layers[layer][idx]
}

func (km *Keymap) index(pos scan.Position) int {
	if int(pos.Row) >= km.rows || int(pos.Col) >= km.cols {
		return -1
	}
	return int(pos.Row)*km.cols + int(pos.Col)
}
