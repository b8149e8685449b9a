//go:build !tinygo

package hal

import (
	"sync"

	"quill/kernel"
)

// hostLEDSerial simulates the backlight controller MCU: it decodes the
// framed protocol, tracks a theme id and answers with acks like the real
// part does.
type hostLEDSerial struct {
	logger *hostLogger

	mu     sync.Mutex
	frame  []byte
	need   int
	theme  uint8
	bright uint8
	speed  uint8

	out kernel.ByteRing
}

func newHostLEDSerial(logger *hostLogger) *hostLEDSerial {
	return &hostLEDSerial{logger: logger, bright: 5, speed: 1}
}

func (s *hostLEDSerial) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c, ok := s.out.Get()
		if !ok {
			break
		}
		p[n] = c
		n++
	}
	return n, nil
}

func (s *hostLEDSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range p {
		s.frame = append(s.frame, c)
		if len(s.frame) == 2 {
			s.need = 2 + int(c)
		}
		if s.need > 0 && len(s.frame) == s.need {
			s.handleFrame(s.frame)
			s.frame = s.frame[:0]
			s.need = 0
		}
	}
	return len(p), nil
}

// Frame layout matches the controller protocol: [msgType, length, op,
// payload...]. The op values mirror firmware/ledctl.
func (s *hostLEDSerial) handleFrame(f []byte) {
	op := f[2]
	data := f[3:]
	switch op {
	case 0x01: // theme mode
		s.logger.WriteLineString("ledsim: theme mode")
		s.ack(0x81, []byte{s.theme})
	case 0x02: // set theme
		if len(data) >= 1 {
			s.theme = data[0]
		}
		s.logger.WriteLineString("ledsim: theme set")
		s.ack(0x81, []byte{s.theme})
	case 0x03: // config step
		if len(data) >= 3 {
			if data[0] == 1 {
				s.theme++
			}
			if data[1] == 1 {
				s.speed++
			}
			if data[2] == 1 {
				s.bright++
			}
		}
		s.ack(0x83, []byte{s.theme, s.bright, s.speed})
	case 0x04: // individual keys
		s.ack(0x84, []byte{0xCA})
	case 0x05: // key-down bitmap, no ack
	case 0x06: // theme id query
		s.ack(0x86, []byte{s.theme})
	default:
		s.logger.WriteLineString("ledsim: unknown op")
	}
}

func (s *hostLEDSerial) ack(op byte, data []byte) {
	hdr := []byte{0x01, byte(len(data) + 1), op}
	for _, c := range append(hdr, data...) {
		if !s.out.Put(c) {
			return
		}
	}
}
