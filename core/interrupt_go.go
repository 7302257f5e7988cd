//go:build !tinygo

package core

// State mirrors interrupt.State on regular Go
type State uintptr

// criticalSections counts masked sections so tests can check that state
// shared with an ISR is only touched with interrupts disabled
var criticalSections uint32

// disableInterrupts only counts on regular Go (for testing)
func disableInterrupts() State {
	criticalSections++
	return 0
}

// restoreInterrupts is a no-op on regular Go (for testing)
func restoreInterrupts(state State) {}
