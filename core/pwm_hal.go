package core

// HeldTicks is the compare value that never matches within a period
const HeldTicks = ^uint32(0)

// PulseTimer is the single auto-reload timer with one compare channel that
// clocks the servo outputs. One tick is one microsecond.
// The platform ISR calls Scheduler.HandleEvent on update and compare events.
type PulseTimer interface {
	// SetPeriod programs the auto-reload value in ticks
	SetPeriod(ticks uint32) error

	// SetCompare programs the compare register; HeldTicks disables matching
	SetCompare(ticks uint32)

	// Compare returns the value currently programmed
	Compare() uint32

	// Start enables the counter; the first update event fires one period later
	Start()

	// Stop disables the counter and its interrupts
	Stop()

	// Running reports whether the counter is enabled
	Running() bool
}
