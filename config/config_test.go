package config

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"hexcore/core"
)

func TestDefaultConfigValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	sc, err := c.SchedulerConfig()
	require.NoError(t, err)
	require.Equal(t, uint32(core.DefaultServoHz), sc.PeriodHz)
	require.Equal(t, uint32(core.OutputTrim), sc.Trim)
	require.Equal(t, core.GPIOPin(17), sc.Pins[17])
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig([]byte(`{
		"servo": {"period_hz": 200, "pins": ["gpio0"]},
		"wired": {"enabled": true, "tx_pin": "GPIO4", "rx_pin": "gpio5"}
	}`))
	require.NoError(t, err)

	require.Equal(t, uint32(200), c.Servo.PeriodHz)
	require.Equal(t, uint32(core.OutputTrim), c.Servo.Trim)
	require.Equal(t, uint32(DefaultWiredBaud), c.Wired.Baud)
	require.Equal(t, uint32(DefaultLinkTimeoutMS), c.Wired.TimeoutMS)
	require.Equal(t, uint32(core.DefaultSensorBaud), c.Sensors.Baud)
	require.Equal(t, uint32(core.DefaultSensorTimeoutMS), c.Sensors.TimeoutMS)
	require.Equal(t, uint32(core.DefaultI2CMaxByteTime), c.I2C.MaxByteTimeMS)

	_, err = LoadConfig([]byte(`{"servo": 1}`))
	require.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	c := DefaultConfig()
	c.Servo.PeriodHz = 10
	c.Servo.Pins[3] = c.Servo.Pins[4]
	c.Wired.TXPin = "pa9"
	c.Sensors.UART = c.Wired.UART
	c.I2C.SDAPin = "gpio99"

	err := c.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 5)

	require.ErrorIs(t, err, ErrPinName)
}

func TestValidateBatteryCells(t *testing.T) {
	c := DefaultConfig()
	c.Wired.Enabled = false
	c.Battery.CellADCPins = []string{"gpio27", "gpio28", "gpio29"}
	require.NoError(t, c.Validate())

	c.Battery.CellADCPins = []string{"GPIO26", "gpio27", "gpio27", "adc3"}
	errs := multierr.Errors(c.Validate())
	require.Len(t, errs, 4)
	require.ErrorIs(t, c.Validate(), ErrPinName)

	c.Battery.ADCPin = ""
	c.Battery.CellADCPins = []string{"gpio27"}
	require.ErrorContains(t, c.Validate(), "need adc_pin")
}

func TestParsePin(t *testing.T) {
	pin, err := ParsePin("gpio25")
	require.NoError(t, err)
	require.Equal(t, core.GPIOPin(25), pin)

	for _, bad := range []string{"", "gpio", "gpio32", "led", "gpio-1"} {
		_, err := ParsePin(bad)
		require.ErrorIsf(t, err, ErrPinName, "pin %q", bad)
	}
}
