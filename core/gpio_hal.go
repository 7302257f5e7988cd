package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// MaxGPIOPin bounds the pins reachable by the bulk set/clear registers
const MaxGPIOPin = 31

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// SetPins drives every pin in mask to the same level in one register write
	SetPins(mask uint32, value bool)
}
