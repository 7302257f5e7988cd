package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdleDetectorTimeout(t *testing.T) {
	d := NewIdleDetector(115200)
	// 35 bits at 115200 baud is 303.8us, rounded up
	require.Equal(t, 304*time.Microsecond, d.Timeout())

	d = NewIdleDetector(500000)
	require.Equal(t, 70*time.Microsecond, d.Timeout())
}

func TestIdleDetectorFrames(t *testing.T) {
	d := NewIdleDetector(500000)

	require.False(t, d.Expired(1000), "no bytes yet")

	now := uint32(1000)
	for i := 0; i < 22; i++ {
		d.Byte(now)
		now += 20 // one character at 500k baud
		require.False(t, d.Expired(now))
	}

	require.False(t, d.Expired(now+40))
	require.True(t, d.Expired(now+60))
	require.False(t, d.Expired(now+500), "reported once per burst")

	d.Byte(now + 600)
	d.Reset()
	require.False(t, d.Expired(now+10000))
}

func TestIdleDetectorWrap(t *testing.T) {
	d := NewIdleDetector(500000)
	d.Byte(0xFFFFFFF0)
	require.False(t, d.Expired(0x00000010))
	require.True(t, d.Expired(0x00000060))
}

func TestIdleDetectorRemaining(t *testing.T) {
	d := NewIdleDetector(500000)
	require.False(t, d.Pending())
	require.Zero(t, d.Remaining(100))

	d.Byte(1000)
	require.True(t, d.Pending())
	require.Equal(t, 70*time.Microsecond, d.Remaining(1000))
	require.Equal(t, 25*time.Microsecond, d.Remaining(1045))

	// An early wakeup waits out the rest; the real deadline closes the frame
	require.False(t, d.Expired(1045))
	require.Zero(t, d.Remaining(1070))
	require.True(t, d.Expired(1070))
	require.False(t, d.Pending())

	d.Byte(0xFFFFFFF0)
	require.Equal(t, 40*time.Microsecond, d.Remaining(0x0000000E))
	d.Reset()
	require.Zero(t, d.Remaining(0x0000000E))
}
