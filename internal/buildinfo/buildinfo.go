// Package buildinfo carries the identity stamped into the firmware image at
// link time via -ldflags; the host window title shows it.
package buildinfo

var (
	// Version is the release tag, or "dev" for untagged builds.
	Version = "dev"
	// Commit is the short VCS revision.
	Commit = "unknown"
)

// Short picks the most specific identifier available.
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		return Version
	case Commit != "" && Commit != "unknown":
		return Commit
	default:
		return "dev"
	}
}
