package scan

// Position is a physical key location in the matrix, fixed at build time.
type Position struct {
	Row uint8
	Col uint8
}

// EventKind tags a settled key transition.
type EventKind uint8

const (
	Pressed EventKind = iota + 1
	Released
)

func (k EventKind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Event is one settled key transition. It is produced exactly once by the
// scanner and consumed exactly once by the resolver.
type Event struct {
	Pos  Position
	Kind EventKind
	Tick uint64
}
