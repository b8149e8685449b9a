// Package app assembles the firmware: it builds every component over the
// HAL, registers the dispatch handlers and owns the boot sequence.
package app

import (
	"quill/firmware/config"
	"quill/firmware/keymap"
	"quill/firmware/ledctl"
	"quill/firmware/radio"
	"quill/firmware/report"
	"quill/firmware/scan"
	"quill/firmware/transport"
	"quill/hal"
	"quill/kernel"
)

// Config carries boot-time overrides; zero values fall back to the
// compiled-in defaults.
type Config struct {
	Policy config.Policy
	Keymap *keymap.Keymap
	Macros keymap.MacroTable
}

type system struct {
	h hal.HAL
	d *kernel.Dispatcher

	store    *config.Store
	events   *scan.Queue
	scanner  *scan.Scanner
	resolver *keymap.Resolver
	asm      report.Assembler
	client   *radio.Client
	mux      *transport.Mux
	leds     *ledctl.Controller

	// lock guards the snapshot/assembly path against HAL-side readers.
	lock  *kernel.Ceiling
	snap  keymap.Snapshot
	dirty bool

	scanH   kernel.HandlerID
	serialH kernel.HandlerID
	wiredH  kernel.HandlerID
	idleH   kernel.HandlerID
}

// New boots the firmware with defaults and returns the per-frame step
// function used by the host runner.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, Config{})
}

// NewWithConfig boots the firmware with explicit overrides.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	s := newSystem(h, cfg)
	return func() error {
		s.d.RunPending()
		return nil
	}
}

// Run boots the firmware and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, Config{})
}

func RunWithConfig(h hal.HAL, cfg Config) {
	s := newSystem(h, cfg)
	for {
		s.d.Wait()
		s.d.RunPending()
	}
}

// noLink stands in for the radio on boards without a bridge module.
type noLink struct{}

func (noLink) SendReport([]byte) bool { return false }

func newSystem(h hal.HAL, cfg Config) *system {
	policy := cfg.Policy
	if policy.DebounceTicks == 0 {
		policy = config.DefaultPolicy()
	}

	s := &system{
		h:    h,
		d:    kernel.NewDispatcher(),
		lock: kernel.NewCeiling(kernel.PriorityScan),
	}
	logger := h.Logger()

	s.store = config.NewStore(h.Flash(), logger)
	if err := s.store.Load(); err != nil {
		logger.WriteLineString("app: settings store unavailable: " + err.Error())
		s.store = nil
	}

	km, macros := s.pickKeymap(cfg, h.Matrix())

	s.events = scan.NewQueue(policy.EventQueueDepth)
	s.scanner = scan.New(h.Matrix(), policy.DebounceTicks, s.events)

	if ls := h.LEDSerial(); ls != nil {
		s.leds = ledctl.New(ls, logger)
		s.leds.NotifyTheme(func(id uint8) {
			if s.store != nil {
				_ = s.store.Put(config.KeyTheme, []byte{id})
			}
		})
	}

	var link transport.Link = noLink{}
	if rs := h.RadioSerial(); rs != nil {
		s.client = radio.NewClient(rs, logger, radio.Config{
			CommandTicks:   policy.RadioCommandTicks,
			Retries:        uint8(policy.RadioRetries),
			ReconnectTicks: policy.RadioReconnectTicks,
			KeepaliveTicks: policy.RadioKeepaliveTicks,
		}, s.onLinkState)
		link = s.client
	}

	s.mux = transport.NewMux(h.Wired(), link, logger, policy.WiredFailTicks, s.onTransport)

	s.resolver = keymap.NewResolver(km, macros, uint8(policy.MacroDepth),
		func() { s.dirty = true },
		keymap.Actions{
			TransportSwitch: func() { s.mux.Switch() },
			Backlight:       s.onBacklight,
			LayerChange:     s.onLayer,
		})

	s.scanH = s.d.Register(kernel.PriorityScan, s.scanStep)
	s.serialH = s.d.Register(kernel.PrioritySerial, s.serialStep)
	s.wiredH = s.d.Register(kernel.PriorityWired, s.wiredStep)
	s.idleH = s.d.Register(kernel.PriorityIdle, s.idleStep)

	h.Wired().OnSent(func() { s.d.Pend(s.wiredH) })

	s.restorePrefs()
	if st := h.Status(); st != nil {
		st.ShowTransport(s.mux.Active().String())
		st.ShowLink(radio.Disconnected.String())
		st.ShowLayer(0)
	}

	if ht := h.Time(); ht != nil {
		if ch := ht.Ticks(); ch != nil {
			go func() {
				for seq := range ch {
					s.d.SetTick(seq)
					s.d.Pend(s.scanH)
					s.d.Pend(s.serialH)
					s.d.Pend(s.idleH)
				}
			}()
		}
	}

	return s
}

// pickKeymap prefers an explicit override, then a stored blob that matches
// the matrix shape, then the compiled-in map.
func (s *system) pickKeymap(cfg Config, m hal.Matrix) (*keymap.Keymap, keymap.MacroTable) {
	if cfg.Keymap != nil {
		return cfg.Keymap, cfg.Macros
	}
	if s.store != nil {
		if blob, ok := s.store.Get(config.KeyKeymap, nil); ok {
			km, macros, err := config.DecodeKeymap(blob)
			if err == nil && km.Rows() == m.Rows() && km.Cols() == m.Cols() {
				return km, macros
			}
			s.h.Logger().WriteLineString("app: ignoring stored keymap")
		}
	}
	return defaultKeymap()
}

func (s *system) restorePrefs() {
	if s.store == nil {
		return
	}
	var buf [1]byte
	if v, ok := s.store.Get(config.KeyTransport, buf[:]); ok && len(v) == 1 {
		if k := transport.Kind(v[0]); k == transport.Wired || k == transport.Radio {
			s.mux.Restore(k)
		}
	}
	if s.leds != nil {
		if v, ok := s.store.Get(config.KeyTheme, buf[:]); ok && len(v) == 1 {
			s.leds.SetTheme(v[0])
		}
	}
}

// scanStep runs at the top priority: sample the matrix, resolve settled
// events and push any changed report toward the active transport.
func (s *system) scanStep(tick uint64) {
	s.scanner.Scan(tick)
	for {
		ev, ok := s.events.Pop()
		if !ok {
			break
		}
		s.resolver.HandleEvent(ev)
	}
	if s.dirty {
		s.dirty = false
		// On the single dispatch goroutine the ceiling is uncontended; it
		// orders this section against HAL-side readers of s.snap (a window
		// overlay, a debug dump), which must take s.lock before reading.
		s.lock.Lock()
		s.resolver.Snapshot(&s.snap)
		boot, consumer := s.asm.Assemble(&s.snap)
		s.lock.Unlock()
		s.mux.SendBoot(boot)
		s.mux.SendConsumer(consumer)
	}
	if s.leds != nil {
		if bits, changed := s.scanner.PackedBits(); changed {
			s.leds.SendKeys(bits)
		}
	}
}

// serialStep drains both controller links and advances the radio protocol.
func (s *system) serialStep(tick uint64) {
	var buf [64]byte
	if rs := s.h.RadioSerial(); rs != nil && s.client != nil {
		for {
			n, err := rs.Read(buf[:])
			if n > 0 {
				s.client.Feed(buf[:n], tick)
			}
			if n == 0 || err != nil {
				break
			}
		}
		s.client.Poll(tick)
	}
	if ls := s.h.LEDSerial(); ls != nil && s.leds != nil {
		for {
			n, err := ls.Read(buf[:])
			if n > 0 {
				s.leds.Feed(buf[:n])
			}
			if n == 0 || err != nil {
				break
			}
		}
	}
}

func (s *system) wiredStep(uint64) {
	s.mux.FlushWired()
}

func (s *system) idleStep(uint64) {
	s.mux.TickHealth()
}

func (s *system) onLinkState(st radio.State) {
	if s.leds != nil {
		s.leds.Indicate(st)
	}
	if st == radio.Connected {
		s.h.LED().High()
	} else {
		s.h.LED().Low()
	}
	if hs := s.h.Status(); hs != nil {
		hs.ShowLink(st.String())
	}
}

func (s *system) onTransport(k transport.Kind) {
	if s.store != nil {
		_ = s.store.Put(config.KeyTransport, []byte{byte(k)})
	}
	if hs := s.h.Status(); hs != nil {
		hs.ShowTransport(k.String())
	}
}

func (s *system) onBacklight(op keymap.BacklightOp) {
	if s.leds != nil {
		s.leds.Handle(op)
	}
}

func (s *system) onLayer(top int) {
	if hs := s.h.Status(); hs != nil {
		hs.ShowLayer(top)
	}
}
