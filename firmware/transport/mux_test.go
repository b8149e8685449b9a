package transport

import (
	"testing"

	"quill/firmware/report"
	"quill/hal"
)

type fakeWired struct {
	submitted [][]byte
	busy      bool
	ready     bool
}

func (w *fakeWired) Submit(rep []byte) error {
	if w.busy {
		return hal.ErrBusy
	}
	cp := append([]byte(nil), rep...)
	w.submitted = append(w.submitted, cp)
	return nil
}

func (w *fakeWired) OnSent(fn func()) {}
func (w *fakeWired) Ready() bool      { return w.ready }

type fakeLink struct {
	connected bool
	sent      [][]byte
}

func (l *fakeLink) SendReport(payload []byte) bool {
	if !l.connected {
		return false
	}
	cp := append([]byte(nil), payload...)
	l.sent = append(l.sent, cp)
	return true
}

func bootWith(keys ...byte) report.Boot {
	var b report.Boot
	copy(b[2:], keys)
	return b
}

func TestMuxRoutesWired(t *testing.T) {
	w := &fakeWired{ready: true}
	l := &fakeLink{connected: true}
	m := NewMux(w, l, nil, 0, nil)

	m.SendBoot(bootWith(4))

	if len(w.submitted) != 1 || len(l.sent) != 0 {
		t.Fatalf("wired=%d radio=%d, want 1/0", len(w.submitted), len(l.sent))
	}
}

func TestMuxSwitchSendsReleaseFirst(t *testing.T) {
	w := &fakeWired{ready: true}
	l := &fakeLink{connected: true}
	m := NewMux(w, l, nil, 0, nil)

	// Three keys held when the user hits the transport switch.
	m.SendBoot(bootWith(4, 5, 6))
	m.Switch()
	m.SendBoot(bootWith(4, 5, 6))

	if len(w.submitted) != 2 {
		t.Fatalf("wired got %d reports, want held + release", len(w.submitted))
	}
	var empty [report.BootSize]byte
	if got := w.submitted[1]; string(got) != string(empty[:]) {
		t.Fatalf("last wired report = %v, want all-released", got)
	}
	if len(l.sent) != 1 {
		t.Fatalf("radio got %d reports, want 1 after switch", len(l.sent))
	}
}

func TestMuxDropsWhileDisconnected(t *testing.T) {
	w := &fakeWired{ready: true}
	l := &fakeLink{connected: false}
	m := NewMux(w, l, nil, 0, nil)
	m.Restore(Radio)

	m.SendBoot(bootWith(4))
	m.SendBoot(bootWith(5))

	if len(l.sent) != 0 {
		t.Fatalf("radio got %d reports while disconnected, want 0", len(l.sent))
	}
	if m.DroppedRadio() != 2 {
		t.Fatalf("DroppedRadio() = %d, want 2", m.DroppedRadio())
	}

	// Reconnection resumes delivery with current state, no stale replays.
	l.connected = true
	m.SendBoot(bootWith(6))
	if len(l.sent) != 1 || l.sent[0][2] != 6 {
		t.Fatalf("radio reports after reconnect = %v, want only the fresh one", l.sent)
	}
}

func TestMuxWiredBusyKeepsNewest(t *testing.T) {
	w := &fakeWired{ready: true, busy: true}
	m := NewMux(w, &fakeLink{}, nil, 0, nil)

	m.SendBoot(bootWith(4))
	m.SendBoot(bootWith(5))

	w.busy = false
	m.FlushWired()

	if len(w.submitted) != 1 || w.submitted[0][2] != 5 {
		t.Fatalf("flushed = %v, want only the newest report", w.submitted)
	}
}

func TestMuxWiredHealthFailover(t *testing.T) {
	w := &fakeWired{ready: false}
	var changes []Kind
	m := NewMux(w, &fakeLink{connected: true}, nil, 3, func(k Kind) { changes = append(changes, k) })

	m.TickHealth()
	m.TickHealth()
	if m.Active() != Wired {
		t.Fatalf("failed over after %d ticks, want 3", 2)
	}
	m.TickHealth()
	if m.Active() != Radio {
		t.Fatalf("Active() = %v after threshold, want radio", m.Active())
	}
	if len(changes) != 1 || changes[0] != Radio {
		t.Fatalf("changes = %v, want [radio]", changes)
	}

	// Health checking stops once radio is active.
	m.TickHealth()
	if m.Active() != Radio {
		t.Fatalf("Active() = %v, want radio to stick", m.Active())
	}
}

func TestMuxBusyFailoverReleasesWiredOnFlush(t *testing.T) {
	w := &fakeWired{ready: false, busy: true}
	l := &fakeLink{connected: true}
	m := NewMux(w, l, nil, 3, nil)

	// Three keys held when the endpoint stops responding.
	m.SendBoot(bootWith(4, 5, 6))
	m.TickHealth()
	m.TickHealth()
	m.TickHealth()
	if m.Active() != Radio {
		t.Fatalf("Active() = %v after threshold, want radio", m.Active())
	}

	// The endpoint comes back after the failover; the completion callback
	// must still deliver the all-released handoff to the deselected sink.
	w.busy = false
	m.FlushWired()

	if len(w.submitted) != 1 {
		t.Fatalf("wired got %d reports after flush, want the release", len(w.submitted))
	}
	var empty [report.BootSize]byte
	if got := w.submitted[0]; string(got) != string(empty[:]) {
		t.Fatalf("flushed wired report = %v, want all-released", got)
	}
}

func TestMuxWiredBusyConsumerRetries(t *testing.T) {
	w := &fakeWired{ready: true, busy: true}
	m := NewMux(w, &fakeLink{}, nil, 0, nil)

	m.SendConsumer(report.Consumer{0xE9, 0x00})
	if len(w.submitted) != 0 {
		t.Fatalf("busy endpoint accepted %d reports, want 0", len(w.submitted))
	}

	w.busy = false
	m.FlushWired()

	if len(w.submitted) != 1 || w.submitted[0][0] != 0xE9 {
		t.Fatalf("flushed = %v, want the held consumer report", w.submitted)
	}
}

func TestMuxSwitchReleasesConsumer(t *testing.T) {
	w := &fakeWired{ready: true}
	l := &fakeLink{connected: true}
	m := NewMux(w, l, nil, 0, nil)

	m.SendConsumer(report.Consumer{0xE9, 0x00})
	m.Switch()

	// Handoff: all-released boot report plus a zero consumer report.
	if len(w.submitted) != 3 {
		t.Fatalf("wired got %d reports, want press + boot release + consumer release", len(w.submitted))
	}
	if got := w.submitted[2]; len(got) != 2 || got[0] != 0 || got[1] != 0 {
		t.Fatalf("last wired report = %v, want zero consumer", got)
	}

	// The dedupe cache was reset, so the new sink sees the still-held control.
	m.SendConsumer(report.Consumer{0xE9, 0x00})
	if len(l.sent) != 1 || l.sent[0][0] != 0xE9 {
		t.Fatalf("radio reports = %v, want the re-sent consumer", l.sent)
	}
}

func TestMuxConsumerDeduplicated(t *testing.T) {
	w := &fakeWired{ready: true}
	m := NewMux(w, &fakeLink{}, nil, 0, nil)

	c := report.Consumer{0xE9, 0x00}
	m.SendConsumer(c)
	m.SendConsumer(c)
	m.SendConsumer(report.Consumer{})

	if len(w.submitted) != 2 {
		t.Fatalf("wired got %d consumer reports, want 2 (press, release)", len(w.submitted))
	}
}
