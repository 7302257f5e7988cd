//go:build !tinygo

package core

var (
	systemTicks  uint32
	systemMillis uint32
)

// getSystemTicks returns the current system ticks (regular Go implementation)
func getSystemTicks() uint32 {
	return systemTicks
}

// setSystemTicks sets the system ticks (regular Go implementation)
func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}

func getSystemMillis() uint32 {
	return systemMillis
}

func setSystemMillis(ms uint32) {
	systemMillis = ms
}
