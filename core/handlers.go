package core

import (
	"errors"
	"sync/atomic"

	"hexcore/protocol"
)

var ErrMotionDisabled = errors.New("motion core disabled")

// SequenceSelector is the boundary to the motion planner: motion commands
// select the sequence it plays next
type SequenceSelector interface {
	SelectSequence(cmd protocol.Command) error
}

// SequenceMailbox hands the last selected sequence to the motion loop
type SequenceMailbox struct {
	mon     *SystemMonitor
	pending atomic.Uint32
	changed atomic.Bool
}

// NewSequenceMailbox creates a mailbox holding CmdSequenceNone
func NewSequenceMailbox(mon *SystemMonitor) *SequenceMailbox {
	m := &SequenceMailbox{mon: mon}
	m.pending.Store(uint32(protocol.CmdSequenceNone))
	return m
}

// SelectSequence implements SequenceSelector. It fails while the motion
// core module is disabled.
func (m *SequenceMailbox) SelectSequence(cmd protocol.Command) error {
	if m.mon != nil && m.mon.ModuleDisabled(ModuleMotionCore) {
		return ErrMotionDisabled
	}
	m.pending.Store(uint32(cmd))
	m.changed.Store(true)
	return nil
}

// Take returns the selected sequence and whether it changed since the
// last call
func (m *SequenceMailbox) Take() (protocol.Command, bool) {
	return protocol.Command(m.pending.Load()), m.changed.Swap(false)
}

// MotionCommands are the request codes forwarded to the motion planner
var MotionCommands = []protocol.Command{
	protocol.CmdUp,
	protocol.CmdDown,
	protocol.CmdRun,
	protocol.CmdDirect,
	protocol.CmdReverse,
	protocol.CmdRotateLeft,
	protocol.CmdRotateRight,
	protocol.CmdDirectSlow,
	protocol.CmdReverseSlow,
	protocol.CmdShiftLeft,
	protocol.CmdShiftRight,
	protocol.CmdAttackLeft,
	protocol.CmdAttackRight,
	protocol.CmdDance,
	protocol.CmdRotateX,
	protocol.CmdRotateZ,
	protocol.CmdSequenceNone,
}

// Light drives the headlight line
type Light struct {
	gpio GPIODriver
	pin  GPIOPin
	on   atomic.Bool
}

// NewLight configures pin as an output, switched off
func NewLight(gpio GPIODriver, pin GPIOPin) (*Light, error) {
	if err := gpio.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	l := &Light{gpio: gpio, pin: pin}
	return l, gpio.SetPin(pin, false)
}

// Toggle flips the light
func (l *Light) Toggle() error {
	on := !l.on.Load()
	if err := l.gpio.SetPin(l.pin, on); err != nil {
		return err
	}
	l.on.Store(on)
	return nil
}

// On reports the light state
func (l *Light) On() bool {
	return l.on.Load()
}

// Handlers are the collaborators behind the command set. Nil members leave
// their commands unregistered.
type Handlers struct {
	Sequences SequenceSelector
	Light     *Light
	Reset     func()
}

// RegisterCommands fills r with the standard command set
func RegisterCommands(r *CommandRegistry, h Handlers) {
	r.Register(protocol.CmdNone, nil)

	if h.Sequences != nil {
		for _, code := range MotionCommands {
			r.Register(code, func(req protocol.Request) error {
				return h.Sequences.SelectSequence(req.Command)
			})
		}
	}

	if h.Light != nil {
		r.Register(protocol.CmdSwitchLight, func(protocol.Request) error {
			return h.Light.Toggle()
		})
	}

	if h.Reset != nil {
		cmd := r.Register(protocol.CmdReset, nil)
		cmd.AfterReply = h.Reset
	}
}
