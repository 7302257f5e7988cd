package core

// ADCValue is a raw 12-bit conversion result
type ADCValue uint16

// ADCMax is the full-scale 12-bit reading
const ADCMax = 4095

// ADCSampler is the abstract one-channel ADC the battery monitor samples.
// Targets return 12-bit values even when the hardware scales to 16 bits.
type ADCSampler interface {
	// Sample performs one conversion
	Sample() (ADCValue, error)
}
