package protocol

// Command is the first payload byte of a request
type Command uint8

// Commands understood by the request/response links
const (
	CmdNone         Command = 0x00
	CmdUp           Command = 0x01
	CmdDown         Command = 0x02
	CmdRun          Command = 0x03
	CmdDirect       Command = 0x04
	CmdReverse      Command = 0x05
	CmdRotateLeft   Command = 0x06
	CmdRotateRight  Command = 0x07
	CmdDirectSlow   Command = 0x08
	CmdReverseSlow  Command = 0x09
	CmdShiftLeft    Command = 0x10
	CmdShiftRight   Command = 0x11
	CmdAttackLeft   Command = 0x20
	CmdAttackRight  Command = 0x21
	CmdDance        Command = 0x30
	CmdRotateX      Command = 0x31
	CmdRotateZ      Command = 0x33
	CmdSequenceNone Command = 0x90
	CmdSwitchLight  Command = 0xA0
	CmdReset        Command = 0xFE
)

// CommandStatus reports whether the board accepted the command
type CommandStatus uint8

const (
	StatusError CommandStatus = 0x00
	StatusOK    CommandStatus = 0x01
)

var commandNames = map[Command]string{
	CmdNone:         "none",
	CmdUp:           "up",
	CmdDown:         "down",
	CmdRun:          "run",
	CmdDirect:       "direct",
	CmdReverse:      "reverse",
	CmdRotateLeft:   "rotate_left",
	CmdRotateRight:  "rotate_right",
	CmdDirectSlow:   "direct_slow",
	CmdReverseSlow:  "reverse_slow",
	CmdShiftLeft:    "shift_left",
	CmdShiftRight:   "shift_right",
	CmdAttackLeft:   "attack_left",
	CmdAttackRight:  "attack_right",
	CmdDance:        "dance",
	CmdRotateX:      "rotate_x",
	CmdRotateZ:      "rotate_z",
	CmdSequenceNone: "sequence_none",
	CmdSwitchLight:  "switch_light",
	CmdReset:        "reset",
}

// String returns the command name used by the host tools
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand looks up a command by name
func ParseCommand(name string) (Command, bool) {
	for cmd, n := range commandNames {
		if n == name {
			return cmd, true
		}
	}
	return 0, false
}

// Commands returns every known command in ascending code order
func Commands() []Command {
	out := make([]Command, 0, len(commandNames))
	for c := 0; c < 256; c++ {
		if _, ok := commandNames[Command(c)]; ok {
			out = append(out, Command(c))
		}
	}
	return out
}
