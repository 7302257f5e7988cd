//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"hexcore/core"
	"machine"
)

// bank0Pins is the number of user GPIOs of the RP2040
const bank0Pins = 30

var errPinRange = errors.New("gpio pin out of range")

// RPGPIODriver implements core.GPIODriver for the RP2040. Bulk updates go
// straight to the SIO set/clear registers so all servo lines switch in
// the same bus cycle.
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a low push-pull output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin >= bank0Pins {
		return errPinRange
	}
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}

	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	machinePin.Low()

	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin drives a single configured pin
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return errPinRange
	}
	machinePin.Set(value)
	return nil
}

// SetPins drives every pin in mask with one SIO register write
func (d *RPGPIODriver) SetPins(mask uint32, value bool) {
	if value {
		rp.SIO.GPIO_OUT_SET.Set(mask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(mask)
	}
}
