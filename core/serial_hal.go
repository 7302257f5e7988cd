package core

// SerialDriver is the asynchronous byte transport under a FrameLink.
// Implementations deliver completion through the FrameLink callbacks:
// OnFrame after an inter-character timeout, OnError on framing, noise,
// overrun or parity errors, OnTransmitComplete/OnTransmitError when the
// reply has left.
type SerialDriver interface {
	// StartAsyncReceive arms reception into the RX buffer from offset 0
	StartAsyncReceive() error

	// RxBuffer returns the receive storage. Only read after OnFrame.
	RxBuffer() []byte

	// StartAsyncTransmit sends data in the background. data stays owned by
	// the driver until the transmit callback fires.
	StartAsyncTransmit(data []byte) error
}
