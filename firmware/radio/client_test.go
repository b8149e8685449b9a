package radio

import (
	"bytes"
	"strings"
	"testing"
)

// fakeSerial records writes; reads are unused because bytes are pushed
// through Feed.
type fakeSerial struct {
	out bytes.Buffer
}

func (s *fakeSerial) Read(p []byte) (int, error)  { return 0, nil }
func (s *fakeSerial) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *fakeSerial) lines() []string {
	var lines []string
	for _, l := range strings.Split(s.out.String(), "\r\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func newTestClient(serial *fakeSerial, onState func(State)) *Client {
	return NewClient(serial, nil, Config{
		CommandTicks:   100,
		Retries:        2,
		ReconnectTicks: 500,
		KeepaliveTicks: 1000,
	}, onState)
}

func connect(t *testing.T, c *Client, s *fakeSerial) {
	t.Helper()
	c.Poll(1) // NAME
	c.Feed([]byte("OK\r\n"), 2)
	c.Feed([]byte("OK\r\n"), 3) // ADV confirmed
	if c.State() != Advertising {
		t.Fatalf("state = %v after handshake, want advertising", c.State())
	}
	c.Feed([]byte("EVT CONN\r\n"), 4)
	if c.State() != Connected {
		t.Fatalf("state = %v after EVT CONN, want connected", c.State())
	}
	s.out.Reset()
}

func TestClientHandshake(t *testing.T) {
	s := &fakeSerial{}
	var states []State
	c := newTestClient(s, func(st State) { states = append(states, st) })

	connect(t, c, s)

	want := []State{Advertising, Connected}
	if len(states) != len(want) {
		t.Fatalf("state edges = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state edge %d = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestClientTimeoutRetriesThenDisconnects(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	// Trigger the keepalive and never answer it.
	c.Poll(2000)
	c.Poll(2100) // first retry
	c.Poll(2200) // second retry
	if c.State() != Connected {
		t.Fatalf("state = %v before retries exhausted, want connected", c.State())
	}
	c.Poll(2300)
	if c.State() != Disconnected {
		t.Fatalf("state = %v after retries exhausted, want disconnected", c.State())
	}

	sent := s.lines()
	if len(sent) != 3 || sent[0] != "AT" || sent[1] != "AT" || sent[2] != "AT" {
		t.Fatalf("wire = %v, want three AT attempts", sent)
	}
	if c.Timeouts() != 3 {
		t.Fatalf("Timeouts() = %d, want 3", c.Timeouts())
	}

	// Re-advertising waits out the reconnect delay.
	c.Poll(2400)
	if got := s.lines(); len(got) != 3 {
		t.Fatalf("wire = %v before reconnect delay, want no new commands", got)
	}
	c.Poll(2300 + 500)
	if got := s.lines(); len(got) != 4 || got[3] != "ADV" {
		t.Fatalf("wire = %v after reconnect delay, want trailing ADV", got)
	}
}

func TestClientParsesChunkedInput(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)

	c.Poll(1)
	// Deliver the response one byte at a time across "chunks".
	for _, b := range []byte("O") {
		c.Feed([]byte{b}, 2)
	}
	for _, b := range []byte("K\r\n") {
		c.Feed([]byte{b}, 2)
	}
	c.Feed([]byte("OK\r\nEVT C"), 3)
	c.Feed([]byte("ONN\r\n"), 4)

	if c.State() != Connected {
		t.Fatalf("state = %v, want connected", c.State())
	}
}

func TestClientDiscardsMalformedLines(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	long := bytes.Repeat([]byte{'x'}, 3*maxLineBytes)
	c.Feed(long, 10)
	c.Feed([]byte("\r\n"), 10)
	if c.Malformed() == 0 {
		t.Fatalf("Malformed() = 0 after overlong line, want > 0")
	}

	// The parser resynchronized: the next event still lands.
	c.Feed([]byte("EVT DROP\r\n"), 11)
	if c.State() != Disconnected {
		t.Fatalf("state = %v after EVT DROP, want disconnected", c.State())
	}
}

func TestClientUnsolicitedDropCancelsCommand(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	c.Poll(2000) // keepalive in flight
	c.Feed([]byte("EVT DROP\r\n"), 2001)
	if c.State() != Disconnected {
		t.Fatalf("state = %v, want disconnected", c.State())
	}

	// A late response to the cancelled command is a stray, not a crash.
	c.Feed([]byte("OK\r\n"), 2002)
	if c.State() != Disconnected {
		t.Fatalf("state = %v after stray OK, want disconnected", c.State())
	}
}

func TestClientErrResponsesCountedSeparately(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	// The module rejects the keepalive every time.
	c.Poll(2000)
	c.Feed([]byte("ERR 4\r\n"), 2001)
	c.Feed([]byte("ERR 4\r\n"), 2002)
	c.Feed([]byte("ERR 4\r\n"), 2003)

	if c.State() != Disconnected {
		t.Fatalf("state = %v after repeated ERR, want disconnected", c.State())
	}
	if c.CommandErrors() != 3 {
		t.Fatalf("CommandErrors() = %d, want 3", c.CommandErrors())
	}
	if c.Timeouts() != 0 {
		t.Fatalf("Timeouts() = %d after ERR responses, want 0", c.Timeouts())
	}
}

func TestClientSendReportFrames(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	payload := []byte{0, 0, 4, 0, 0, 0, 0, 0}
	if !c.SendReport(payload) {
		t.Fatalf("SendReport() = false while connected, want true")
	}

	got := s.out.Bytes()
	if len(got) != 9 || got[0] != frameBoot || got[3] != 4 {
		t.Fatalf("frame = %v, want 0xFD-prefixed report", got)
	}
}

func TestClientSendConsumerFrame(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	if !c.SendReport([]byte{0xE9, 0x00}) {
		t.Fatalf("SendReport(consumer) = false while connected, want true")
	}

	got := s.out.Bytes()
	if len(got) != 3 || got[0] != frameConsumer || got[1] != 0xE9 {
		t.Fatalf("frame = %v, want 0xFE-prefixed consumer report", got)
	}
}

func TestClientSendReportRefusedWhileDown(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)

	if c.SendReport([]byte{0, 0, 4, 0, 0, 0, 0, 0}) {
		t.Fatalf("SendReport() = true while disconnected, want false")
	}
	if s.out.Len() != 0 {
		t.Fatalf("wire = %v while disconnected, want nothing", s.out.Bytes())
	}
}

func TestClientQueuesDuringCommandAndDropsOldest(t *testing.T) {
	s := &fakeSerial{}
	c := newTestClient(s, nil)
	connect(t, c, s)

	c.Poll(2000) // keepalive in flight
	s.out.Reset()

	for i := 0; i < reportQueueSlots+2; i++ {
		rep := []byte{0, 0, byte(i + 4), 0, 0, 0, 0, 0}
		if !c.SendReport(rep) {
			t.Fatalf("SendReport(%d) = false, want true", i)
		}
	}
	if s.out.Len() != 0 {
		t.Fatalf("reports hit the wire during a command exchange: %v", s.out.Bytes())
	}
	if c.DroppedReports() != 2 {
		t.Fatalf("DroppedReports() = %d, want 2", c.DroppedReports())
	}

	// Completing the command lets Poll drain the survivors, oldest first.
	c.Feed([]byte("OK\r\n"), 2001)
	c.Poll(2002)

	frames := s.out.Bytes()
	if len(frames) != reportQueueSlots*9 {
		t.Fatalf("drained %d bytes, want %d", len(frames), reportQueueSlots*9)
	}
	if frames[3] != byte(2+4) {
		t.Fatalf("first drained usage = %d, want %d (two oldest dropped)", frames[3], 2+4)
	}
}
