// Package report serializes held-key state into fixed-size host reports.
package report

import "quill/firmware/keymap"

// MaxKeys is the boot-protocol slot count.
const MaxKeys = 6

// BootSize is the wire size of a boot keyboard report.
const BootSize = 8

// Boot is the boot keyboard report: modifier byte, reserved byte, six usage
// slots, zero-padded, no duplicates.
type Boot [BootSize]byte

// Empty is the all-released report sent before a transport switch.
var Empty Boot

// Consumer is the 2-byte consumer-control report, little-endian usage.
type Consumer [2]byte

// Assembler builds reports from held-state snapshots. It keeps the last
// assembled pair so unchanged state produces byte-identical output.
type Assembler struct {
	boot     Boot
	consumer Consumer
}

// Assemble serializes the snapshot. Assembly is a pure function of the
// snapshot: the caller takes it under the ceiling, so no partial reads of
// concurrent mutation can occur here.
func (a *Assembler) Assemble(s *keymap.Snapshot) (Boot, Consumer) {
	var b Boot
	b[0] = s.Mods

	if len(s.Keys) > MaxKeys {
		// Rollover: report the condition in every slot instead of silently
		// dropping a key, so the host knows reporting is inaccurate.
		for i := 0; i < MaxKeys; i++ {
			b[2+i] = keymap.UsageErrRollOver
		}
	} else {
		for i, usage := range s.Keys {
			b[2+i] = usage
		}
	}

	var c Consumer
	c[0] = byte(s.Control)
	c[1] = byte(s.Control >> 8)

	a.boot = b
	a.consumer = c
	return b, c
}

// Last returns the most recently assembled reports.
func (a *Assembler) Last() (Boot, Consumer) {
	return a.boot, a.consumer
}
