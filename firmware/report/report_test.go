package report

import (
	"testing"

	"quill/firmware/keymap"
)

func TestAssembleBasic(t *testing.T) {
	var a Assembler
	s := keymap.Snapshot{
		Mods: 1 << keymap.ModLShift,
		Keys: []uint8{keymap.UsageA, keymap.UsageA + 1},
	}

	b, _ := a.Assemble(&s)

	want := Boot{1 << keymap.ModLShift, 0, keymap.UsageA, keymap.UsageA + 1, 0, 0, 0, 0}
	if b != want {
		t.Fatalf("Assemble() = %v, want %v", b, want)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	var a Assembler
	s := keymap.Snapshot{Keys: []uint8{keymap.UsageA}}

	b1, c1 := a.Assemble(&s)
	b2, c2 := a.Assemble(&s)

	if b1 != b2 || c1 != c2 {
		t.Fatalf("repeated assembly differs: %v/%v vs %v/%v", b1, c1, b2, c2)
	}
}

func TestAssembleRollover(t *testing.T) {
	var a Assembler
	s := keymap.Snapshot{
		Mods: 1 << keymap.ModLCtrl,
		Keys: []uint8{4, 5, 6, 7, 8, 9, 10},
	}

	b, _ := a.Assemble(&s)

	if b[0] != 1<<keymap.ModLCtrl {
		t.Fatalf("modifiers = %#x, want %#x; rollover must not hide them", b[0], 1<<keymap.ModLCtrl)
	}
	for i := 2; i < BootSize; i++ {
		if b[i] != keymap.UsageErrRollOver {
			t.Fatalf("slot %d = %#x, want rollover marker %#x", i, b[i], keymap.UsageErrRollOver)
		}
	}

	// Dropping back to the limit resumes accurate reporting immediately.
	s.Keys = s.Keys[:MaxKeys]
	b, _ = a.Assemble(&s)
	for i := 0; i < MaxKeys; i++ {
		if b[2+i] != s.Keys[i] {
			t.Fatalf("slot %d = %#x after recovery, want %#x", i, b[2+i], s.Keys[i])
		}
	}
}

func TestAssembleConsumer(t *testing.T) {
	var a Assembler
	s := keymap.Snapshot{Control: keymap.ConsumerVolumeUp}

	_, c := a.Assemble(&s)

	got := uint16(c[0]) | uint16(c[1])<<8
	if got != keymap.ConsumerVolumeUp {
		t.Fatalf("consumer usage = %#x, want %#x", got, keymap.ConsumerVolumeUp)
	}
}
