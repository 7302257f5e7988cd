package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hexcore/protocol"
)

func TestRegisterCommands(t *testing.T) {
	var now uint32
	gpio := newFakeGPIO(&now)
	light, err := NewLight(gpio, 25)
	require.NoError(t, err)
	require.True(t, gpio.config[25])

	mon := NewSystemMonitor()
	mailbox := NewSequenceMailbox(mon)
	resets := 0

	r := NewCommandRegistry()
	RegisterCommands(r, Handlers{Sequences: mailbox, Light: light, Reset: func() { resets++ }})
	require.Equal(t, protocol.Commands(), r.Codes(), "every protocol command is served")

	require.NoError(t, r.Dispatch(protocol.Request{Command: protocol.CmdSwitchLight}))
	require.True(t, light.On())
	require.True(t, gpio.level[25])
	require.NoError(t, r.Dispatch(protocol.Request{Command: protocol.CmdSwitchLight}))
	require.False(t, gpio.level[25])

	require.NoError(t, r.Dispatch(protocol.Request{Command: protocol.CmdRotateX}))
	seq, changed := mailbox.Take()
	require.True(t, changed)
	require.Equal(t, protocol.CmdRotateX, seq)
	_, changed = mailbox.Take()
	require.False(t, changed)

	mon.DisableModule(ModuleMotionCore)
	require.ErrorIs(t, r.Dispatch(protocol.Request{Command: protocol.CmdUp}), ErrMotionDisabled)

	cmd, ok := r.Lookup(protocol.CmdReset)
	require.True(t, ok)
	require.NoError(t, r.Dispatch(protocol.Request{Command: protocol.CmdReset}))
	require.Zero(t, resets, "reset only runs after the reply")
	cmd.AfterReply()
	require.Equal(t, 1, resets)
}

func TestRegisterCommandsPartial(t *testing.T) {
	r := NewCommandRegistry()
	RegisterCommands(r, Handlers{})
	require.Equal(t, []protocol.Command{protocol.CmdNone}, r.Codes())
}
