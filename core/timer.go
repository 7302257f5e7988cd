package core

// TimerFreq is the system timer rate: one tick per microsecond
const TimerFreq = 1000000

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// Millis returns the millisecond uptime counter used by link and bus timeouts
func Millis() uint32 {
	return getSystemMillis()
}

// SetMillis sets the millisecond counter (called by the target clock code)
func SetMillis(ms uint32) {
	setSystemMillis(ms)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// Clock is the millisecond time source of the foreground supervisors
type Clock interface {
	Millis() uint32
}

// SystemClock reads the global millisecond counter
type SystemClock struct{}

// Millis implements Clock
func (SystemClock) Millis() uint32 {
	return Millis()
}

// elapsed returns the wrap-safe distance between two millisecond stamps
func elapsed(now, since uint32) uint32 {
	return now - since
}
