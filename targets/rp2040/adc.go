//go:build rp2040

package main

import (
	"errors"
	"hexcore/core"
	"machine"
)

// RPADCSampler implements core.ADCSampler on one external ADC input
type RPADCSampler struct {
	adc machine.ADC
}

// NewRPADCSampler configures the ADC input of a GPIO (gpio26..gpio29)
func NewRPADCSampler(pin core.GPIOPin) (*RPADCSampler, error) {
	var adcPin machine.Pin

	switch pin {
	case 26:
		adcPin = machine.ADC0
	case 27:
		adcPin = machine.ADC1
	case 28:
		adcPin = machine.ADC2
	case 29:
		adcPin = machine.ADC3
	default:
		return nil, errors.New("pin has no ADC input")
	}

	machine.InitADC()
	s := &RPADCSampler{adc: machine.ADC{Pin: adcPin}}
	if err := s.adc.Configure(machine.ADCConfig{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Sample returns a 12-bit reading. TinyGo scales the result to 16 bits.
func (s *RPADCSampler) Sample() (core.ADCValue, error) {
	return core.ADCValue(s.adc.Get() >> 4), nil
}
