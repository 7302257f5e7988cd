package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeRequest(t *testing.T, l Layout, frameNumber uint16, cmd Command) []byte {
	payload := make([]byte, l.PayloadSize)
	MarshalRequest(payload, Request{Command: cmd})
	frame, err := l.Encode(make([]byte, FrameMax), frameNumber, payload)
	require.NoError(t, err)
	return frame
}

func TestLayoutSizes(t *testing.T) {
	require.Equal(t, 24, LayoutWired.Size())
	require.Equal(t, 24, LayoutWireless.Size())
}

func TestEncodeValidateRoundTrip(t *testing.T) {
	for _, l := range []Layout{LayoutWired, LayoutWireless} {
		frame := encodeRequest(t, l, 7, CmdUp)
		require.Zerof(t, CRC16(frame), "%s: residue", l.Name)
		require.NoErrorf(t, l.Validate(frame), "%s: validate", l.Name)
		require.Equal(t, byte(0xDD), frame[0])
		require.Equal(t, byte(0xAA), frame[3])
		if l.HasFrameNumber {
			require.Equal(t, uint16(7), l.FrameNumber(frame))
		} else {
			require.Zero(t, l.FrameNumber(frame))
		}
		require.Equal(t, CmdUp, UnmarshalRequest(l.Payload(frame)).Command)
	}
}

func TestValidateSingleBitErrors(t *testing.T) {
	frame := encodeRequest(t, LayoutWired, 0x1234, CmdDance)
	for bit := 0; bit < len(frame)*8; bit++ {
		corrupted := append([]byte{}, frame...)
		corrupted[bit/8] ^= 1 << (bit % 8)
		require.Errorf(t, LayoutWired.Validate(corrupted), "bit %d flip not detected", bit)
	}
}

func TestValidateOrder(t *testing.T) {
	frame := encodeRequest(t, LayoutWireless, 0, CmdNone)

	require.ErrorIs(t, LayoutWireless.Validate(frame[:len(frame)-1]), ErrFrameSize)

	bad := append([]byte{}, frame...)
	bad[5] ^= 0xFF
	require.ErrorIs(t, LayoutWireless.Validate(bad), ErrFrameCRC)

	wrongMark := LayoutWireless
	wrongMark.StartMark = 0x11223344
	other, err := wrongMark.Encode(make([]byte, FrameMax), 0, make([]byte, wrongMark.PayloadSize))
	require.NoError(t, err)
	require.ErrorIs(t, LayoutWireless.Validate(other), ErrStartMark)
}

func TestEncodeErrors(t *testing.T) {
	_, err := LayoutWired.Encode(make([]byte, FrameMax), 0, make([]byte, 3))
	require.ErrorIs(t, err, ErrPayloadSize)

	_, err = LayoutWired.Encode(make([]byte, 10), 0, make([]byte, LayoutWired.PayloadSize))
	require.ErrorIs(t, err, ErrBufferSize)
}

func TestResponsePayload(t *testing.T) {
	resp := Response{
		Command:        CmdRotateX,
		CommandStatus:  StatusOK,
		ModuleStatus:   0x40,
		SystemStatus:   0x80,
		CellVoltage:    [3]uint16{4100, 4090, 4080},
		BatteryVoltage: 12270,
		BatteryCharge:  90,
	}

	wireless := make([]byte, LayoutWireless.PayloadSize)
	MarshalResponse(wireless, resp)
	require.Equal(t, resp, UnmarshalResponse(wireless))

	wired := make([]byte, LayoutWired.PayloadSize)
	MarshalResponse(wired, resp)
	got := UnmarshalResponse(wired)
	require.Equal(t, resp.CellVoltage, got.CellVoltage)
	require.Zero(t, got.BatteryVoltage)
	require.Equal(t, []byte{0x04, 0x10}, wired[4:6])
}

func TestCommandNames(t *testing.T) {
	cmd, ok := ParseCommand("switch_light")
	require.True(t, ok)
	require.Equal(t, CmdSwitchLight, cmd)
	require.Equal(t, "unknown", Command(0x55).String())

	cmds := Commands()
	require.Len(t, cmds, 20)
	require.Equal(t, CmdNone, cmds[0])
	require.Equal(t, CmdReset, cmds[len(cmds)-1])
}
