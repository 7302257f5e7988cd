//go:build tinygo

package core

import "sync/atomic"

var (
	systemTicksValue  uint32
	systemMillisValue uint32
)

// getSystemTicks returns the current system ticks
func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicksValue)
}

// setSystemTicks sets the system ticks
func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}

// getSystemMillis returns the millisecond counter, it is also read from ISRs
func getSystemMillis() uint32 {
	return atomic.LoadUint32(&systemMillisValue)
}

func setSystemMillis(ms uint32) {
	atomic.StoreUint32(&systemMillisValue, ms)
}
