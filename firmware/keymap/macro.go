package keymap

// Step is one synthetic key transition inside a macro.
type Step struct {
	Code  Keycode
	Press bool
}

// MacroTable holds the macro definitions referenced by KindMacro keycodes.
type MacroTable [][]Step

// Press returns a press step.
func Press(kc Keycode) Step { return Step{Code: kc, Press: true} }

// Release returns a release step.
func Release(kc Keycode) Step { return Step{Code: kc, Press: false} }

// Tap returns a press immediately followed by a release.
func Tap(kc Keycode) []Step {
	return []Step{{Code: kc, Press: true}, {Code: kc, Press: false}}
}

const macroQueueSlots = 64

type macroEntry struct {
	step  Step
	depth uint8
}

// runMacro expands a macro through an explicit bounded FIFO rather than
// recursion, so the depth bound and overflow handling stay observable.
// Exceeding the depth or the queue releases every key the expansion already
// pressed and counts a MacroOverflow.
func (r *Resolver) runMacro(index int) {
	if index < 0 || index >= len(r.macros) {
		return
	}

	var queue [macroQueueSlots]macroEntry
	head, tail := 0, 0
	enqueue := func(steps []Step, depth uint8) bool {
		for _, st := range steps {
			if head-tail >= macroQueueSlots {
				return false
			}
			queue[head%macroQueueSlots] = macroEntry{step: st, depth: depth}
			head++
		}
		return true
	}

	var pressed []Keycode
	abort := func() {
		for i := len(pressed) - 1; i >= 0; i-- {
			r.release(pressed[i])
		}
		r.macroOverflows++
	}

	if !enqueue(r.macros[index], 1) {
		abort()
		return
	}

	for tail < head {
		e := queue[tail%macroQueueSlots]
		tail++

		if e.step.Code.Kind() == KindMacro {
			if !e.step.Press {
				continue
			}
			if e.depth >= r.macroDepth {
				abort()
				return
			}
			ref := int(e.step.Code.Arg())
			if ref < 0 || ref >= len(r.macros) {
				continue
			}
			if !enqueue(r.macros[ref], e.depth+1) {
				abort()
				return
			}
			continue
		}

		if e.step.Press {
			r.press(e.step.Code)
			pressed = append(pressed, e.step.Code)
		} else {
			r.release(e.step.Code)
			for i := len(pressed) - 1; i >= 0; i-- {
				if pressed[i] == e.step.Code {
					pressed = append(pressed[:i], pressed[i+1:]...)
					break
				}
			}
		}
	}
}
