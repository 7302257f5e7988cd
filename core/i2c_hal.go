package core

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// I2CPeripheral is the register-level view of one I2C controller with a
// TX DMA channel. The platform ISRs call back into AsyncWriter.
type I2CPeripheral interface {
	// Begin enables the controller and issues START for a write of total bytes
	Begin(addr I2CAddress, total int)

	// TxEmpty reports the transmit data register empty flag
	TxEmpty() bool

	// BusError reports any of overrun, arbitration lost, bus error or NACK
	BusError() bool

	// WriteByte loads the transmit data register
	WriteByte(b byte)

	// StartDMA hands the payload to the TX DMA channel and enables the
	// transfer-complete, NACK and error interrupts
	StartDMA(data []byte) error

	// Stop issues STOP, disables DMA and the controller
	Stop()
}
