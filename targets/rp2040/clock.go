//go:build rp2040

package main

import (
	"hexcore/core"
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// InitClock publishes the hardware time before anything reads it.
// The RP2040 has a 64-bit microsecond timer at 1MHz, matching core.TimerFreq.
func InitClock() {
	UpdateSystemTime()
}

// GetHardwareTime reads the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// hardwareClock is a core.Clock read straight from the hardware timer, for
// deadlines that must advance while the foreground spins
type hardwareClock struct{}

func (hardwareClock) Millis() uint32 {
	return uint32(GetHardwareUptime() / 1000)
}

// UpdateSystemTime updates the core tick and millisecond counters.
// Called from the main loop before any timeout is evaluated.
func UpdateSystemTime() {
	uptime := GetHardwareUptime()
	core.SetTime(uint32(uptime))
	core.SetMillis(uint32(uptime / 1000))
}
