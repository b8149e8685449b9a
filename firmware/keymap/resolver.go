package keymap

import "quill/firmware/scan"

const maxStack = 8

// activation is one live layer on the stack. A layer stays active while it
// has momentary references or a surviving toggle.
type activation struct {
	layer   uint8
	refs    uint8
	toggled bool
}

// Actions receives resolver side effects that do not touch held state.
type Actions struct {
	TransportSwitch func()
	Backlight       func(op BacklightOp)
	LayerChange     func(top int)
}

// Resolver consumes settled key events in arrival order and owns the layer
// stack and held state. Any held-state or control change fires onDirty
// exactly once per consumed event.
type Resolver struct {
	km     *Keymap
	macros MacroTable

	stack [maxStack]activation
	depth uint8

	modCount [8]uint8
	modMask  uint8
	keyCount [256]uint8
	keyOrder []uint8
	control  uint16

	// pressedAt remembers the keycode resolved at press time for each
	// position, so releases after a layer change undo the right thing.
	pressedAt []Keycode

	onDirty func()
	acts    Actions
	dirty   bool

	macroDepth     uint8
	macroOverflows uint32
	stackResets    uint32
}

// NewResolver builds a resolver over a keymap and macro table.
func NewResolver(km *Keymap, macros MacroTable, macroDepth uint8, onDirty func(), acts Actions) *Resolver {
	r := &Resolver{
		km:         km,
		macros:     macros,
		onDirty:    onDirty,
		acts:       acts,
		macroDepth: macroDepth,
		keyOrder:   make([]uint8, 0, 16),
		pressedAt:  make([]Keycode, km.Rows()*km.Cols()),
	}
	r.stack[0] = activation{layer: 0, refs: 1}
	r.depth = 1
	return r
}

// HandleEvent applies one settled key transition.
func (r *Resolver) HandleEvent(ev scan.Event) {
	r.dirty = false

	idx := int(ev.Pos.Row)*r.km.Cols() + int(ev.Pos.Col)
	if idx < 0 || idx >= len(r.pressedAt) {
		return
	}

	switch ev.Kind {
	case scan.Pressed:
		kc := r.resolve(ev.Pos)
		r.pressedAt[idx] = kc
		r.press(kc)
	case scan.Released:
		kc := r.pressedAt[idx]
		if kc == None {
			return // releasing a never-pressed key is a no-op
		}
		r.pressedAt[idx] = None
		r.release(kc)
	}

	if r.dirty && r.onDirty != nil {
		r.onDirty()
	}
}

// resolve walks the activation stack top-down and returns the first
// non-transparent entry for the position.
func (r *Resolver) resolve(pos scan.Position) Keycode {
	for i := int(r.depth) - 1; i >= 0; i-- {
		kc := r.km.At(int(r.stack[i].layer), pos)
		if kc.Kind() == KindTransparent {
			continue
		}
		return kc
	}
	return None
}

func (r *Resolver) press(kc Keycode) {
	switch kc.Kind() {
	case KindBasic:
		r.addKey(kc.Usage())
	case KindModifier:
		r.addMod(kc.ModBit())
	case KindLayer:
		switch kc.LayerOp() {
		case LayerPush:
			r.pushLayer(kc.LayerArg())
		case LayerPop:
			r.popLayer(kc.LayerArg())
		case LayerToggle:
			r.toggleLayer(kc.LayerArg())
		}
	case KindMacro:
		r.runMacro(int(kc.Arg()))
	case KindConsumer:
		r.setControl(kc.Arg())
	case KindSystem:
		r.setControl(uint16(kc.Usage()))
	case KindTransportSwitch:
		if r.acts.TransportSwitch != nil {
			r.acts.TransportSwitch()
		}
	case KindBacklight:
		if r.acts.Backlight != nil {
			r.acts.Backlight(kc.BacklightOp())
		}
	}
}

func (r *Resolver) release(kc Keycode) {
	switch kc.Kind() {
	case KindBasic:
		r.removeKey(kc.Usage())
	case KindModifier:
		r.removeMod(kc.ModBit())
	case KindLayer:
		// A push key is momentary: its release is the matching pop.
		if kc.LayerOp() == LayerPush {
			r.popLayer(kc.LayerArg())
		}
	case KindConsumer:
		r.clearControl(kc.Arg())
	case KindSystem:
		r.clearControl(uint16(kc.Usage()))
	}
}

func (r *Resolver) addKey(usage uint8) {
	if usage == 0 {
		return
	}
	r.keyCount[usage]++
	if r.keyCount[usage] == 1 {
		r.keyOrder = append(r.keyOrder, usage)
		r.dirty = true
	}
}

func (r *Resolver) removeKey(usage uint8) {
	if usage == 0 || r.keyCount[usage] == 0 {
		return
	}
	r.keyCount[usage]--
	if r.keyCount[usage] > 0 {
		return
	}
	for i, u := range r.keyOrder {
		if u == usage {
			r.keyOrder = append(r.keyOrder[:i], r.keyOrder[i+1:]...)
			break
		}
	}
	r.dirty = true
}

func (r *Resolver) addMod(bit uint8) {
	r.modCount[bit]++
	if r.modMask&(1<<bit) == 0 {
		r.modMask |= 1 << bit
		r.dirty = true
	}
}

func (r *Resolver) removeMod(bit uint8) {
	if r.modCount[bit] == 0 {
		return
	}
	r.modCount[bit]--
	if r.modCount[bit] == 0 {
		r.modMask &^= 1 << bit
		r.dirty = true
	}
}

func (r *Resolver) setControl(usage uint16) {
	if r.control != usage {
		r.control = usage
		r.dirty = true
	}
}

func (r *Resolver) clearControl(usage uint16) {
	if r.control == usage && usage != 0 {
		r.control = 0
		r.dirty = true
	}
}

func (r *Resolver) pushLayer(layer uint8) {
	if layer == 0 || int(layer) >= r.km.Layers() {
		return
	}
	if a := r.find(layer); a != nil {
		a.refs++
		return
	}
	if r.depth >= maxStack {
		return
	}
	r.stack[r.depth] = activation{layer: layer, refs: 1}
	r.depth++
	r.notifyLayer()
}

func (r *Resolver) popLayer(layer uint8) {
	a := r.find(layer)
	if a == nil || a.refs == 0 {
		// Unmatched pop: unreachable under correct resolver logic. The
		// lowest-risk recovery is resetting the stack to base.
		r.resetStack()
		return
	}
	a.refs--
	if a.refs == 0 && !a.toggled {
		r.remove(layer)
	}
}

func (r *Resolver) toggleLayer(layer uint8) {
	if layer == 0 || int(layer) >= r.km.Layers() {
		return
	}
	if a := r.find(layer); a != nil {
		a.toggled = !a.toggled
		if !a.toggled && a.refs == 0 {
			r.remove(layer)
		}
		return
	}
	if r.depth >= maxStack {
		return
	}
	r.stack[r.depth] = activation{layer: layer, toggled: true}
	r.depth++
	r.notifyLayer()
}

func (r *Resolver) find(layer uint8) *activation {
	for i := int(r.depth) - 1; i >= 1; i-- {
		if r.stack[i].layer == layer {
			return &r.stack[i]
		}
	}
	return nil
}

func (r *Resolver) remove(layer uint8) {
	for i := int(r.depth) - 1; i >= 1; i-- {
		if r.stack[i].layer != layer {
			continue
		}
		copy(r.stack[i:r.depth-1], r.stack[i+1:r.depth])
		r.depth--
		r.notifyLayer()
		return
	}
}

func (r *Resolver) resetStack() {
	if r.depth > 1 {
		r.depth = 1
		r.notifyLayer()
	}
	r.stackResets++
}

func (r *Resolver) notifyLayer() {
	if r.acts.LayerChange != nil {
		r.acts.LayerChange(int(r.stack[r.depth-1].layer))
	}
}

// TopLayer returns the index of the topmost active layer.
func (r *Resolver) TopLayer() int {
	return int(r.stack[r.depth-1].layer)
}

// Snapshot is a consistent copy of held state for report assembly.
type Snapshot struct {
	Mods    uint8
	Keys    []uint8
	Control uint16
}

// Snapshot copies the held state into dst, reusing dst.Keys.
func (r *Resolver) Snapshot(dst *Snapshot) {
	dst.Mods = r.modMask
	dst.Keys = append(dst.Keys[:0], r.keyOrder...)
	dst.Control = r.control
}

// MacroOverflows returns the number of aborted macro expansions.
func (r *Resolver) MacroOverflows() uint32 {
	return r.macroOverflows
}

// StackResets returns the number of layer-stack recoveries.
func (r *Resolver) StackResets() uint32 {
	return r.stackResets
}
