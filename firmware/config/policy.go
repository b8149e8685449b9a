// Package config holds the tunable firmware policy, keymap file handling and
// the persistent settings store.
package config

// Policy collects every timing and capacity knob in one place. Values are in
// scan ticks (1 ms nominal) unless noted.
type Policy struct {
	// DebounceTicks is the stability window a contact must hold before a
	// key event settles.
	DebounceTicks uint8 `yaml:"debounce_ticks"`

	// EventQueueDepth sizes the scan-to-resolver event queue. Rounded up
	// to a power of two.
	EventQueueDepth int `yaml:"event_queue_depth"`

	// MacroDepth bounds nested macro expansion.
	MacroDepth int `yaml:"macro_depth"`

	RadioCommandTicks   uint64 `yaml:"radio_command_ticks"`
	RadioRetries        int    `yaml:"radio_retries"`
	RadioReconnectTicks uint64 `yaml:"radio_reconnect_ticks"`
	RadioKeepaliveTicks uint64 `yaml:"radio_keepalive_ticks"`

	// WiredFailTicks is how long the wired endpoint may report not-ready
	// before the mux fails over to radio. Zero disables failover.
	WiredFailTicks uint32 `yaml:"wired_fail_ticks"`
}

// DefaultPolicy returns the compiled-in policy used when no override file is
// present.
func DefaultPolicy() Policy {
	return Policy{
		DebounceTicks:       5,
		EventQueueDepth:     32,
		MacroDepth:          4,
		RadioCommandTicks:   100,
		RadioRetries:        2,
		RadioReconnectTicks: 500,
		RadioKeepaliveTicks: 1000,
		WiredFailTicks:      250,
	}
}
