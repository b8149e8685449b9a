package radio

// The bridge module speaks a line-oriented command/response protocol:
// requests are "CMD" or "CMD=arg" lines, answers are "OK", "ERR <code>" or a
// data line, and the module may interject unsolicited "EVT <name>" lines at
// any time, including while a command is in flight. Lines end in LF with an
// optional CR.

const maxLineBytes = 64

type lineKind uint8

const (
	lineNone lineKind = iota
	lineOK
	lineErr
	lineEvent
	lineData
)

type line struct {
	kind lineKind
	text string
}

// parser accumulates serial bytes into protocol lines. Bytes arrive in
// arbitrary chunks; the parser resumes cleanly across any split point.
// Overlong lines are discarded through to their terminator and counted.
type parser struct {
	buf       [maxLineBytes]byte
	n         int
	discard   bool
	malformed uint32
}

// feed consumes one byte and returns a completed line when one terminates.
func (p *parser) feed(b byte) (line, bool) {
	if b != '\n' {
		if p.discard {
			return line{}, false
		}
		if p.n >= len(p.buf) {
			p.discard = true
			p.malformed++
			return line{}, false
		}
		p.buf[p.n] = b
		p.n++
		return line{}, false
	}

	if p.discard {
		p.discard = false
		p.n = 0
		return line{}, false
	}

	n := p.n
	p.n = 0
	if n > 0 && p.buf[n-1] == '\r' {
		n--
	}
	if n == 0 {
		return line{}, false
	}
	return classify(string(p.buf[:n])), true
}

func classify(text string) line {
	switch {
	case text == "OK":
		return line{kind: lineOK, text: text}
	case hasWord(text, "ERR"):
		return line{kind: lineErr, text: text}
	case hasWord(text, "EVT"):
		return line{kind: lineEvent, text: trimWord(text, "EVT")}
	default:
		return line{kind: lineData, text: text}
	}
}

func hasWord(s, word string) bool {
	if len(s) < len(word) || s[:len(word)] != word {
		return false
	}
	return len(s) == len(word) || s[len(word)] == ' '
}

func trimWord(s, word string) string {
	s = s[len(word):]
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}
