//go:build !tinygo

package hal

import (
	"encoding/hex"
	"sync"
)

// hostWired logs reports instead of talking to a USB peripheral block.
// Completion fires immediately after every accepted report.
type hostWired struct {
	logger *hostLogger

	mu    sync.Mutex
	ready bool
	fn    func()
	last  []byte
}

func newHostWired(logger *hostLogger) *hostWired {
	return &hostWired{logger: logger, ready: true}
}

func (w *hostWired) Submit(report []byte) error {
	w.mu.Lock()
	if !w.ready {
		w.mu.Unlock()
		return ErrBusy
	}
	w.last = append(w.last[:0], report...)
	fn := w.fn
	w.mu.Unlock()

	w.logger.WriteLineString("wired: " + hex.EncodeToString(report))
	if fn != nil {
		fn()
	}
	return nil
}

func (w *hostWired) OnSent(fn func()) {
	w.mu.Lock()
	w.fn = fn
	w.mu.Unlock()
}

func (w *hostWired) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

// setReady simulates USB suspend/resume from the window.
func (w *hostWired) setReady(v bool) {
	w.mu.Lock()
	w.ready = v
	w.mu.Unlock()
}
