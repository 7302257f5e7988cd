package protocol

import "time"

const (
	// BitsPerChar is start + 8 data + stop
	BitsPerChar = 10

	// IdleBits is the receiver timeout: 3.5 characters of line silence
	IdleBits = 35
)

// IdleDetector delimits frames by the inter-character timeout. Bytes are fed
// with their arrival time in microseconds; the frame is complete once the
// line has been silent for IdleBits bit periods.
type IdleDetector struct {
	timeoutUS uint32
	last      uint32
	active    bool
}

// NewIdleDetector returns a detector for the given baud rate
func NewIdleDetector(baud uint32) IdleDetector {
	timeout := uint32(1)
	if baud > 0 {
		timeout = (IdleBits*1000000 + baud - 1) / baud
	}
	return IdleDetector{timeoutUS: timeout}
}

// Timeout returns the silence needed to close a frame
func (d *IdleDetector) Timeout() time.Duration {
	return time.Duration(d.timeoutUS) * time.Microsecond
}

// Byte records a byte arrival
func (d *IdleDetector) Byte(nowUS uint32) {
	d.last = nowUS
	d.active = true
}

// Expired reports the end of a frame exactly once per burst of bytes
func (d *IdleDetector) Expired(nowUS uint32) bool {
	if !d.active || nowUS-d.last < d.timeoutUS {
		return false
	}
	d.active = false
	return true
}

// Pending reports bytes received since the last frame end
func (d *IdleDetector) Pending() bool {
	return d.active
}

// Remaining returns the silence still needed before Expired reports the
// pending frame; zero when nothing is pending or the frame is already due
func (d *IdleDetector) Remaining(nowUS uint32) time.Duration {
	if !d.active {
		return 0
	}
	quiet := nowUS - d.last
	if quiet >= d.timeoutUS {
		return 0
	}
	return time.Duration(d.timeoutUS-quiet) * time.Microsecond
}

// Reset forgets a partial frame
func (d *IdleDetector) Reset() {
	d.active = false
}
