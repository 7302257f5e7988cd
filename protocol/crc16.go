package protocol

import "github.com/sigurn/crc16"

// CRC16/MODBUS: polynomial 0xA001 (reflected 0x8005), init 0xFFFF, no final xor
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// CRC16 calculates the frame checksum over data.
// Running it over a frame that ends with its own little-endian CRC yields 0.
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// CRC16Parts calculates the checksum over several slices without joining them
func CRC16Parts(parts ...[]byte) uint16 {
	crc := crc16.Init(crcTable)
	for _, p := range parts {
		crc = crc16.Update(crc, p, crcTable)
	}
	return crc16.Complete(crc, crcTable)
}
