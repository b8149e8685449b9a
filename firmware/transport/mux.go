// Package transport routes assembled reports to the active sink and owns
// transport switching.
package transport

import (
	"quill/firmware/report"
	"quill/hal"
)

// Kind identifies an output sink.
type Kind uint8

const (
	Wired Kind = iota
	Radio
)

func (k Kind) String() string {
	switch k {
	case Wired:
		return "wired"
	case Radio:
		return "radio"
	default:
		return "unknown"
	}
}

// Link is the radio-side sink. SendReport returns false while the bridge is
// not connected; the mux drops the report in that case, never queues it,
// because queued reports would replay stale key state after reconnection.
type Link interface {
	SendReport(payload []byte) bool
}

// Mux forwards reports to the active transport and handles switch requests.
type Mux struct {
	wired  hal.Wired
	link   Link
	logger hal.Logger

	active   Kind
	onChange func(Kind)

	// pendingBoot and pendingConsumer hold the newest report of each kind
	// that could not be submitted while the wired endpoint was busy; the
	// completion callback flushes them even after a failover, so the
	// deselected sink still receives its handoff.
	pendingBoot      report.Boot
	pendingValid     bool
	pendingConsumer  report.Consumer
	pendingConsValid bool
	lastConsumer     report.Consumer
	notReady         uint32
	failThreshold    uint32
	droppedRadio     uint32
}

// NewMux creates a multiplexer over both sinks. failThreshold is the number
// of consecutive not-ready ticks after which an active wired transport fails
// over to radio; zero disables the health check.
func NewMux(wired hal.Wired, link Link, logger hal.Logger, failThreshold uint32, onChange func(Kind)) *Mux {
	return &Mux{wired: wired, link: link, logger: logger, failThreshold: failThreshold, onChange: onChange}
}

// Active returns the current transport.
func (m *Mux) Active() Kind { return m.active }

// Restore sets the boot-time transport preference without emitting the
// all-released handoff report.
func (m *Mux) Restore(k Kind) { m.active = k }

// DroppedRadio counts reports discarded while the bridge was down.
func (m *Mux) DroppedRadio() uint32 { return m.droppedRadio }

// SendBoot routes one boot report to the active sink.
func (m *Mux) SendBoot(b report.Boot) {
	switch m.active {
	case Wired:
		m.submitWired(b)
	case Radio:
		if !m.link.SendReport(b[:]) {
			m.droppedRadio++
		}
	}
}

// SendConsumer routes one consumer-control report to the active sink.
func (m *Mux) SendConsumer(c report.Consumer) {
	if c == m.lastConsumer {
		return
	}
	m.lastConsumer = c
	switch m.active {
	case Wired:
		m.submitConsumer(c)
	case Radio:
		if !m.link.SendReport(c[:]) {
			m.droppedRadio++
		}
	}
}

// Switch toggles the active transport. The old sink first gets an
// all-released report so no stale pressed state survives on it.
func (m *Mux) Switch() {
	m.releaseActive()
	if m.active == Wired {
		m.active = Radio
	} else {
		m.active = Wired
	}
	m.notReady = 0
	m.logLine("transport: " + m.active.String())
	if m.onChange != nil {
		m.onChange(m.active)
	}
}

// TickHealth runs the wired health check once per tick. It also retries a
// stashed report when the endpoint is ready again, so a handoff report left
// behind by a failover does not depend on a completion that may never come.
func (m *Mux) TickHealth() {
	if (m.pendingValid || m.pendingConsValid) && m.wired.Ready() {
		m.FlushWired()
	}
	if m.failThreshold == 0 || m.active != Wired {
		return
	}
	if m.wired.Ready() {
		m.notReady = 0
		return
	}
	m.notReady++
	if m.notReady >= m.failThreshold {
		m.logLine("transport: wired link down, failing over")
		m.Switch()
	}
}

// FlushWired retries the pending wired reports; the completion callback
// drives it. It runs regardless of the active transport so a handoff report
// stashed during a busy failover still reaches the deselected sink.
func (m *Mux) FlushWired() {
	if m.pendingValid {
		b := m.pendingBoot
		m.pendingValid = false
		m.submitWired(b)
	}
	if m.pendingConsValid {
		c := m.pendingConsumer
		m.pendingConsValid = false
		m.submitConsumer(c)
	}
}

func (m *Mux) submitWired(b report.Boot) {
	if err := m.wired.Submit(b[:]); err != nil {
		// Keep only the newest report; intermediate states are obsolete.
		m.pendingBoot = b
		m.pendingValid = true
	}
}

func (m *Mux) submitConsumer(c report.Consumer) {
	if err := m.wired.Submit(c[:]); err != nil {
		m.pendingConsumer = c
		m.pendingConsValid = true
	}
}

func (m *Mux) releaseActive() {
	var zero report.Consumer
	switch m.active {
	case Wired:
		// The handoff report supersedes anything still pending; route it
		// through the busy path so a not-ready endpoint gets it on the next
		// completion instead of keeping the held keys pressed.
		m.pendingValid = false
		m.pendingConsValid = false
		m.submitWired(report.Empty)
		if m.lastConsumer != zero {
			m.submitConsumer(zero)
		}
	case Radio:
		if !m.link.SendReport(report.Empty[:]) {
			m.droppedRadio++
		}
		if m.lastConsumer != zero && !m.link.SendReport(zero[:]) {
			m.droppedRadio++
		}
	}
	m.lastConsumer = zero
}

func (m *Mux) logLine(s string) {
	if m.logger != nil {
		m.logger.WriteLineString(s)
	}
}
