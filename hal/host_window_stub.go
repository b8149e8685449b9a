//go:build !tinygo && !cgo

package hal

import "errors"

// RunWindow needs the ebiten display backend, which needs cgo. Headless mode
// still works in a CGO_ENABLED=0 build.
func RunWindow(_ func(h HAL) func() error) error {
	return errors.New("the matrix window requires cgo; rebuild with CGO_ENABLED=1 or pass -headless")
}
