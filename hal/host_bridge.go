//go:build !tinygo

package hal

import (
	"encoding/hex"
	"sync"

	"quill/kernel"
)

// hostBridge simulates the wireless bridge module on the other end of the
// radio serial link. It answers the line protocol, acknowledges transparent
// report frames and can be told to drop the link for testing failover.
type hostBridge struct {
	logger *hostLogger

	mu        sync.Mutex
	line      []byte
	payload   int // pending report bytes after a frame marker
	connected bool
	reports   uint64

	out kernel.ByteRing
}

func newHostBridge(logger *hostLogger) *hostBridge {
	return &hostBridge{logger: logger}
}

func (b *hostBridge) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c, ok := b.out.Get()
		if !ok {
			break
		}
		p[n] = c
		n++
	}
	return n, nil
}

func (b *hostBridge) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range p {
		if b.payload > 0 {
			b.line = append(b.line, c)
			b.payload--
			if b.payload == 0 {
				b.handleReport(b.line)
				b.line = b.line[:0]
			}
			continue
		}
		if len(b.line) == 0 && c == 0xFD {
			b.payload = 8
			continue
		}
		if len(b.line) == 0 && c == 0xFE {
			b.payload = 2
			continue
		}
		if c == '\n' {
			b.handleCommand(string(trimCR(b.line)))
			b.line = b.line[:0]
			continue
		}
		b.line = append(b.line, c)
	}
	return len(p), nil
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

func (b *hostBridge) handleCommand(cmd string) {
	switch {
	case cmd == "":
	case cmd == "AT":
		b.reply("OK\n")
	case cmd == "ADV":
		b.reply("OK\n")
		// The simulated peer pairs instantly.
		b.reply("EVT CONN\n")
		b.connected = true
	case len(cmd) > 5 && cmd[:5] == "NAME=":
		b.logger.WriteLineString("bridge: name set to " + cmd[5:])
		b.reply("OK\n")
	default:
		b.logger.WriteLineString("bridge: unknown command " + cmd)
		b.reply("ERR 1\n")
	}
}

func (b *hostBridge) handleReport(payload []byte) {
	b.reports++
	if !b.connected {
		b.logger.WriteLineString("bridge: report while not connected")
		return
	}
	b.logger.WriteLineString("bridge: report " + hex.EncodeToString(payload))
}

// drop simulates the peer going away. The firmware sees an unsolicited
// disconnect event.
func (b *hostBridge) drop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return
	}
	b.connected = false
	b.reply("EVT DROP\n")
}

func (b *hostBridge) reply(s string) {
	for i := 0; i < len(s); i++ {
		if !b.out.Put(s[i]) {
			b.logger.WriteLineString("bridge: response ring full")
			return
		}
	}
}
