package core

import (
	"encoding/binary"
	"sync"
)

const (
	// SensorFrameSize is the feed frame: marker, 6 x i16, 2 x i32, marker
	SensorFrameSize = 22

	// SensorFrameMarker opens and closes every feed frame
	SensorFrameMarker = 0xAA

	// FootSensors is the number of foot load cells
	FootSensors = 6

	// AccelAxes is the number of accelerometer values
	AccelAxes = 2

	// DefaultSensorBaud is the feed line rate
	DefaultSensorBaud = 500000

	// DefaultSensorTimeoutMS disables the feed after this silence
	DefaultSensorTimeoutMS = 50
)

// SensorData is one decoded feed sample. Accel is in 1e-4 units.
type SensorData struct {
	Foot  [FootSensors]int16
	Accel [AccelAxes]int32
}

// SensorFeed is the FrameHandler of the secondary MCU sensor link. It
// never replies.
type SensorFeed struct {
	mu   sync.Mutex
	data SensorData
}

var _ FrameHandler = (*SensorFeed)(nil)

// HandleFrame implements FrameHandler
func (f *SensorFeed) HandleFrame(rx, _ []byte) (int, bool) {
	if len(rx) != SensorFrameSize || rx[0] != SensorFrameMarker || rx[SensorFrameSize-1] != SensorFrameMarker {
		return 0, false
	}

	var d SensorData
	pos := 1
	for i := range d.Foot {
		d.Foot[i] = int16(binary.LittleEndian.Uint16(rx[pos:]))
		pos += 2
	}
	for i := range d.Accel {
		d.Accel[i] = int32(binary.LittleEndian.Uint32(rx[pos:]))
		pos += 4
	}

	f.mu.Lock()
	f.data = d
	f.mu.Unlock()
	return 0, true
}

// Data returns the latest sample, zero while the feed is lost
func (f *SensorFeed) Data() SensorData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

// Zero clears the sample, called when the link times out
func (f *SensorFeed) Zero() {
	f.mu.Lock()
	f.data = SensorData{}
	f.mu.Unlock()
}

// EncodeSensorFrame writes d as a feed frame into dst
func EncodeSensorFrame(dst []byte, d SensorData) []byte {
	frame := dst[:SensorFrameSize]
	frame[0] = SensorFrameMarker
	pos := 1
	for _, v := range d.Foot {
		binary.LittleEndian.PutUint16(frame[pos:], uint16(v))
		pos += 2
	}
	for _, v := range d.Accel {
		binary.LittleEndian.PutUint32(frame[pos:], uint32(v))
		pos += 4
	}
	frame[SensorFrameSize-1] = SensorFrameMarker
	return frame
}
