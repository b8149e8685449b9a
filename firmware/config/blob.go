package config

import (
	"encoding/binary"
	"errors"
	"fmt"

	"quill/firmware/keymap"
	"quill/firmware/scan"
)

// Keymap override blob, stored in flash and produced by cmd/mkkeymap.
//
// Layout (little-endian):
//
//	magic   [4]byte "QKM1"
//	rows    uint8
//	cols    uint8
//	layers  uint8
//	macros  uint8
//	layers*rows*cols keycodes, uint16 each, layer-major row-major
//	per macro: uint16 step count, then per step uint16 code + uint8 flag
//	           (1 = press, 0 = release)
var blobMagic = [4]byte{'Q', 'K', 'M', '1'}

var ErrBadBlob = errors.New("config: bad keymap blob")

const (
	maxBlobDim    = 32
	maxBlobLayers = 16
	maxMacroSteps = 256
)

// EncodeKeymap serializes a keymap and its macro table.
func EncodeKeymap(km *keymap.Keymap, macros keymap.MacroTable) ([]byte, error) {
	if km.Rows() > maxBlobDim || km.Cols() > maxBlobDim || km.Layers() > maxBlobLayers {
		return nil, fmt.Errorf("%w: dimensions %dx%dx%d", ErrBadBlob, km.Rows(), km.Cols(), km.Layers())
	}
	if len(macros) > 255 {
		return nil, fmt.Errorf("%w: %d macros", ErrBadBlob, len(macros))
	}

	out := make([]byte, 0, 8+km.Layers()*km.Rows()*km.Cols()*2)
	out = append(out, blobMagic[:]...)
	out = append(out, uint8(km.Rows()), uint8(km.Cols()), uint8(km.Layers()), uint8(len(macros)))

	for layer := 0; layer < km.Layers(); layer++ {
		for row := 0; row < km.Rows(); row++ {
			for col := 0; col < km.Cols(); col++ {
				pos := scan.Position{Row: uint8(row), Col: uint8(col)}
				out = binary.LittleEndian.AppendUint16(out, uint16(km.At(layer, pos)))
			}
		}
	}

	for i, steps := range macros {
		if len(steps) > maxMacroSteps {
			return nil, fmt.Errorf("%w: macro %d has %d steps", ErrBadBlob, i, len(steps))
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(len(steps)))
		for _, st := range steps {
			out = binary.LittleEndian.AppendUint16(out, uint16(st.Code))
			if st.Press {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

// DecodeKeymap parses a blob back into a keymap and macro table.
func DecodeKeymap(blob []byte) (*keymap.Keymap, keymap.MacroTable, error) {
	if len(blob) < 8 || [4]byte(blob[:4]) != blobMagic {
		return nil, nil, fmt.Errorf("%w: missing magic", ErrBadBlob)
	}
	rows, cols, layers, nmacros := int(blob[4]), int(blob[5]), int(blob[6]), int(blob[7])
	if rows == 0 || cols == 0 || layers == 0 || rows > maxBlobDim || cols > maxBlobDim || layers > maxBlobLayers {
		return nil, nil, fmt.Errorf("%w: dimensions %dx%dx%d", ErrBadBlob, rows, cols, layers)
	}

	need := 8 + layers*rows*cols*2
	if len(blob) < need {
		return nil, nil, fmt.Errorf("%w: truncated key table", ErrBadBlob)
	}

	km := keymap.NewKeymap(rows, cols, layers)
	off := 8
	for layer := 0; layer < layers; layer++ {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				code := keymap.Keycode(binary.LittleEndian.Uint16(blob[off:]))
				km.Set(layer, scan.Position{Row: uint8(row), Col: uint8(col)}, code)
				off += 2
			}
		}
	}

	macros := make(keymap.MacroTable, 0, nmacros)
	for i := 0; i < nmacros; i++ {
		if len(blob) < off+2 {
			return nil, nil, fmt.Errorf("%w: truncated macro %d", ErrBadBlob, i)
		}
		count := int(binary.LittleEndian.Uint16(blob[off:]))
		off += 2
		if count > maxMacroSteps || len(blob) < off+count*3 {
			return nil, nil, fmt.Errorf("%w: truncated macro %d", ErrBadBlob, i)
		}
		steps := make([]keymap.Step, count)
		for j := 0; j < count; j++ {
			code := keymap.Keycode(binary.LittleEndian.Uint16(blob[off:]))
			steps[j] = keymap.Step{Code: code, Press: blob[off+2] == 1}
			off += 3
		}
		macros = append(macros, steps)
	}
	return km, macros, nil
}
