// Package protocol implements the hexapod board frame links
package protocol

// Version represents the hexcore firmware version
const Version = "0.1.0"

// Frame constants shared by every link variant
const (
	StartMark       = 0xAABBCCDD // u32 magic at offset 0
	StartMarkSize   = 4
	FrameNumberSize = 2
	CRCSize         = 2

	// FrameMax bounds every frame buffer in the firmware
	FrameMax = 32
)
