package protocol

import "encoding/binary"

// Request payload: command u8 followed by reserved bytes
type Request struct {
	Command Command
}

// Response payload
//
//	command u8 | command_status u8 | module_status u8 | system_status u8 |
//	cell_voltage [3]u16 | battery_voltage u16 | battery_charge u8 | reserved
//
// The wired layout stops after cell_voltage, its payload is too short for
// the battery fields.
type Response struct {
	Command        Command
	CommandStatus  CommandStatus
	ModuleStatus   uint8
	SystemStatus   uint8
	CellVoltage    [3]uint16
	BatteryVoltage uint16
	BatteryCharge  uint8
}

const (
	responseCellsOffset   = 4
	responseBatteryOffset = responseCellsOffset + 6
	responseChargeOffset  = responseBatteryOffset + 2
	responseBatteryEnd    = responseChargeOffset + 1
)

// MarshalRequest writes r into payload, zeroing the reserved bytes
func MarshalRequest(payload []byte, r Request) {
	clear(payload)
	payload[0] = byte(r.Command)
}

// UnmarshalRequest decodes a request payload
func UnmarshalRequest(payload []byte) Request {
	return Request{Command: Command(payload[0])}
}

// MarshalResponse writes r into payload. Fields that do not fit the
// payload are left out.
func MarshalResponse(payload []byte, r Response) {
	clear(payload)
	payload[0] = byte(r.Command)
	payload[1] = byte(r.CommandStatus)
	payload[2] = r.ModuleStatus
	payload[3] = r.SystemStatus
	for i, v := range r.CellVoltage {
		binary.LittleEndian.PutUint16(payload[responseCellsOffset+2*i:], v)
	}
	if len(payload) >= responseBatteryEnd {
		binary.LittleEndian.PutUint16(payload[responseBatteryOffset:], r.BatteryVoltage)
		payload[responseChargeOffset] = r.BatteryCharge
	}
}

// UnmarshalResponse decodes a response payload
func UnmarshalResponse(payload []byte) Response {
	r := Response{
		Command:       Command(payload[0]),
		CommandStatus: CommandStatus(payload[1]),
		ModuleStatus:  payload[2],
		SystemStatus:  payload[3],
	}
	for i := range r.CellVoltage {
		r.CellVoltage[i] = binary.LittleEndian.Uint16(payload[responseCellsOffset+2*i:])
	}
	if len(payload) >= responseBatteryEnd {
		r.BatteryVoltage = binary.LittleEndian.Uint16(payload[responseBatteryOffset:])
		r.BatteryCharge = payload[responseChargeOffset]
	}
	return r
}
