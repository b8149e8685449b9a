// Package radio manages the wireless bridge module: a command/response
// client over a serial byte stream plus a transparent data mode for reports.
package radio

import "quill/hal"

// State is the bridge connection lifecycle. It is owned exclusively by the
// Client and transitions only on a confirmed response, a deadline expiry, or
// an unsolicited module notification.
type State uint8

const (
	Disconnected State = iota
	Advertising
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Advertising:
		return "advertising"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Module command vocabulary. The wire strings are specific to the bridge
// firmware; everything above them is not.
const (
	cmdName      = "NAME=quill"
	cmdAdvertise = "ADV"
	cmdPingWire  = "AT"
)

// Transparent-data frame markers. A boot frame carries exactly 8 bytes, a
// consumer frame exactly 2; the receiver counts payload from the marker.
const (
	frameBoot     byte = 0xFD
	frameConsumer byte = 0xFE
)

type cmdKind uint8

const (
	cmdNone cmdKind = iota
	cmdSetName
	cmdStartAdv
	cmdPing
)

const reportQueueSlots = 8

type queuedReport struct {
	buf [9]byte
	n   uint8
}

// Config is the client's policy knobs.
type Config struct {
	CommandTicks   uint64 // response deadline per attempt
	Retries        uint8  // additional attempts after the first
	ReconnectTicks uint64 // delay before re-advertising after a drop
	KeepaliveTicks uint64 // ping interval while connected
}

// Client drives the bridge lifecycle. Inbound bytes arrive through Feed in
// arbitrary chunks from the serial drain handler; Poll runs once per tick to
// enforce deadlines. Exactly one command is in flight at any time; send
// requests that arrive meanwhile wait in a bounded queue that drops its
// oldest entry on overflow, because stale key state is worse than no report.
type Client struct {
	serial hal.Serial
	logger hal.Logger
	cfg    Config

	p     parser
	state State

	inflight  cmdKind
	attempt   uint8
	deadline  uint64
	named     bool
	nextStart uint64

	nextPing uint64

	queue    [reportQueueSlots]queuedReport
	qHead    uint32
	qTail    uint32
	qDrops    uint32
	timeouts  uint32
	cmdErrors uint32
	onState   func(State)
}

// NewClient creates a client over the bridge serial link.
func NewClient(serial hal.Serial, logger hal.Logger, cfg Config, onState func(State)) *Client {
	if cfg.CommandTicks == 0 {
		cfg.CommandTicks = 100
	}
	if cfg.ReconnectTicks == 0 {
		cfg.ReconnectTicks = 500
	}
	if cfg.KeepaliveTicks == 0 {
		cfg.KeepaliveTicks = 1000
	}
	return &Client{serial: serial, logger: logger, cfg: cfg, onState: onState}
}

// State returns the current connection state.
func (c *Client) State() State { return c.state }

// Timeouts returns the count of command attempts that hit their deadline.
func (c *Client) Timeouts() uint32 { return c.timeouts }

// CommandErrors returns the count of explicit ERR responses from the module.
func (c *Client) CommandErrors() uint32 { return c.cmdErrors }

// Malformed returns the count of discarded protocol lines.
func (c *Client) Malformed() uint32 { return c.p.malformed }

// DroppedReports returns the count of reports evicted from the send queue.
func (c *Client) DroppedReports() uint32 { return c.qDrops }

// Feed consumes inbound serial bytes.
func (c *Client) Feed(buf []byte, now uint64) {
	for _, b := range buf {
		ln, ok := c.p.feed(b)
		if ok {
			c.handleLine(ln, now)
		}
	}
}

// Poll enforces the in-flight deadline and starts lifecycle commands. It
// runs once per tick and never blocks.
func (c *Client) Poll(now uint64) {
	if c.inflight != cmdNone {
		if now < c.deadline {
			return
		}
		c.timeouts++
		if c.attempt < c.cfg.Retries {
			c.attempt++
			c.transmit(c.inflight, now)
			return
		}
		c.logLine("radio: command timed out, link down")
		c.abandon(now)
		return
	}

	if c.state == Disconnected && now >= c.nextStart {
		if !c.named {
			c.start(cmdSetName, now)
		} else {
			c.start(cmdStartAdv, now)
		}
		return
	}

	if c.state == Connected {
		c.drainQueue()
		if now >= c.nextPing {
			c.start(cmdPing, now)
		}
	}
}

// SendReport submits one framed report for the radio sink. It returns false
// when the link is not connected; the caller drops the report in that case.
func (c *Client) SendReport(payload []byte) bool {
	if c.state != Connected || frameMarker(payload) == 0 {
		return false
	}
	if c.inflight != cmdNone || c.qHead != c.qTail {
		c.enqueue(payload)
		return true
	}
	c.writeFrame(payload)
	return true
}

func frameMarker(payload []byte) byte {
	switch len(payload) {
	case 8:
		return frameBoot
	case 2:
		return frameConsumer
	default:
		return 0
	}
}

func (c *Client) enqueue(payload []byte) {
	if c.qHead-c.qTail >= reportQueueSlots {
		c.qTail++ // evict the oldest
		c.qDrops++
	}
	q := &c.queue[c.qHead%reportQueueSlots]
	q.buf[0] = frameMarker(payload)
	copy(q.buf[1:], payload)
	q.n = uint8(len(payload) + 1)
	c.qHead++
}

func (c *Client) drainQueue() {
	for c.qTail != c.qHead {
		q := &c.queue[c.qTail%reportQueueSlots]
		c.qTail++
		_, _ = c.serial.Write(q.buf[:q.n])
	}
}

func (c *Client) writeFrame(payload []byte) {
	var buf [9]byte
	buf[0] = frameMarker(payload)
	copy(buf[1:], payload)
	_, _ = c.serial.Write(buf[:len(payload)+1])
}

func (c *Client) start(kind cmdKind, now uint64) {
	c.inflight = kind
	c.attempt = 0
	c.transmit(kind, now)
}

func (c *Client) transmit(kind cmdKind, now uint64) {
	c.deadline = now + c.cfg.CommandTicks
	var cmd string
	switch kind {
	case cmdSetName:
		cmd = cmdName
	case cmdStartAdv:
		cmd = cmdAdvertise
	case cmdPing:
		cmd = cmdPingWire
	default:
		return
	}
	_, _ = c.serial.Write([]byte(cmd + "\r\n"))
}

// abandon gives up on the in-flight command and drops the link.
func (c *Client) abandon(now uint64) {
	c.inflight = cmdNone
	c.setState(Disconnected, now)
	c.nextStart = now + c.cfg.ReconnectTicks
}

func (c *Client) handleLine(ln line, now uint64) {
	switch ln.kind {
	case lineEvent:
		c.handleEvent(ln.text, now)
		return
	case lineOK:
		c.complete(true, now)
	case lineErr:
		c.logLine("radio: " + ln.text)
		c.complete(false, now)
	case lineData:
		// Data responses complete the command like an OK; none of the
		// lifecycle commands currently expect a payload.
		c.complete(true, now)
	}
}

func (c *Client) complete(ok bool, now uint64) {
	kind := c.inflight
	if kind == cmdNone {
		return // stray response
	}

	if !ok {
		c.cmdErrors++
		if c.attempt < c.cfg.Retries {
			c.attempt++
			c.transmit(kind, now)
			return
		}
		c.abandon(now)
		return
	}

	c.inflight = cmdNone
	switch kind {
	case cmdSetName:
		c.named = true
		c.start(cmdStartAdv, now)
	case cmdStartAdv:
		c.setState(Advertising, now)
	case cmdPing:
		c.nextPing = now + c.cfg.KeepaliveTicks
	}
}

func (c *Client) handleEvent(name string, now uint64) {
	switch name {
	case "CONN":
		c.setState(Connected, now)
	case "ADV":
		if c.state != Connected {
			c.setState(Advertising, now)
		}
	case "DROP":
		// Forced down regardless of any in-flight command.
		c.inflight = cmdNone
		c.setState(Disconnected, now)
	}
}

func (c *Client) setState(s State, now uint64) {
	if c.state == s {
		return
	}
	c.state = s
	switch s {
	case Disconnected:
		c.qHead, c.qTail = 0, 0 // queued reports are stale intent
		c.nextStart = now + c.cfg.ReconnectTicks
	case Connected:
		c.nextPing = now + c.cfg.KeepaliveTicks
	}
	c.logLine("radio: " + s.String())
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Client) logLine(s string) {
	if c.logger != nil {
		c.logger.WriteLineString(s)
	}
}
