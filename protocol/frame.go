package protocol

import (
	"encoding/binary"
	"errors"
)

var (
	ErrFrameSize   = errors.New("frame size mismatch")
	ErrFrameCRC    = errors.New("frame CRC mismatch")
	ErrStartMark   = errors.New("frame start mark mismatch")
	ErrPayloadSize = errors.New("payload size mismatch")
	ErrBufferSize  = errors.New("buffer too small for frame")
)

// Layout describes one fixed-size frame variant:
//
//	u32 start_mark | [u16 frame_number] | payload[PayloadSize] | u16 crc16
//
// All fields are little-endian.
type Layout struct {
	Name           string
	StartMark      uint32
	HasFrameNumber bool
	PayloadSize    int
}

var (
	// LayoutWired is the board-to-board request/response link
	LayoutWired = Layout{
		Name:           "wired",
		StartMark:      StartMark,
		HasFrameNumber: true,
		PayloadSize:    16,
	}

	// LayoutWireless is the radio link, it carries no frame number
	LayoutWireless = Layout{
		Name:        "wireless",
		StartMark:   StartMark,
		PayloadSize: 18,
	}
)

// Size returns the total frame size in bytes
func (l Layout) Size() int {
	return StartMarkSize + l.headerExtra() + l.PayloadSize + CRCSize
}

func (l Layout) headerExtra() int {
	if l.HasFrameNumber {
		return FrameNumberSize
	}
	return 0
}

func (l Layout) payloadOffset() int {
	return StartMarkSize + l.headerExtra()
}

// Encode writes a complete frame into dst and returns the frame slice.
// The CRC covers every byte before the CRC field.
func (l Layout) Encode(dst []byte, frameNumber uint16, payload []byte) ([]byte, error) {
	if len(payload) != l.PayloadSize {
		return nil, ErrPayloadSize
	}
	size := l.Size()
	if len(dst) < size {
		return nil, ErrBufferSize
	}
	frame := dst[:size]

	binary.LittleEndian.PutUint32(frame, l.StartMark)
	if l.HasFrameNumber {
		binary.LittleEndian.PutUint16(frame[StartMarkSize:], frameNumber)
	}
	copy(frame[l.payloadOffset():], payload)
	l.Seal(frame)

	return frame, nil
}

// Seal stamps the start mark and recomputes the CRC of a frame whose
// payload was written in place
func (l Layout) Seal(frame []byte) {
	binary.LittleEndian.PutUint32(frame, l.StartMark)
	crcPos := len(frame) - CRCSize
	binary.LittleEndian.PutUint16(frame[crcPos:], CRC16(frame[:crcPos]))
}

// Validate checks size, then CRC over the whole frame, then start mark
func (l Layout) Validate(frame []byte) error {
	if len(frame) != l.Size() {
		return ErrFrameSize
	}
	if CRC16(frame) != 0 {
		return ErrFrameCRC
	}
	if binary.LittleEndian.Uint32(frame) != l.StartMark {
		return ErrStartMark
	}
	return nil
}

// FrameNumber returns the frame number field, or 0 for layouts without one
func (l Layout) FrameNumber(frame []byte) uint16 {
	if !l.HasFrameNumber {
		return 0
	}
	return binary.LittleEndian.Uint16(frame[StartMarkSize:])
}

// SetFrameNumber writes the frame number field (no-op for layouts without one)
func (l Layout) SetFrameNumber(frame []byte, n uint16) {
	if l.HasFrameNumber {
		binary.LittleEndian.PutUint16(frame[StartMarkSize:], n)
	}
}

// Payload returns the payload view of a frame of this layout
func (l Layout) Payload(frame []byte) []byte {
	off := l.payloadOffset()
	return frame[off : off+l.PayloadSize]
}
