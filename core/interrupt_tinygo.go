//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks every interrupt and returns the previous state.
// Used around the few foreground sections that race a peripheral ISR.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
