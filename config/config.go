package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"hexcore/core"
)

const (
	// MinServoHz is the slowest rate whose period fits the 16-bit timer
	MinServoHz = 16
	MaxServoHz = 1000

	DefaultWiredBaud      = 115200
	DefaultWirelessBaud   = 9600
	DefaultLinkTimeoutMS  = 1000
	DefaultBatteryEveryMS = 5
	DefaultSupervisorMS   = 20
)

var ErrPinName = errors.New("pin must be named gpioN")

// BoardConfig is the complete board description
type BoardConfig struct {
	Servo    ServoConfig   `json:"servo"`
	Wired    LinkConfig    `json:"wired"`
	Wireless LinkConfig    `json:"wireless"`
	Sensors  LinkConfig    `json:"sensors"`
	I2C      I2CConfig     `json:"i2c"`
	Battery  BatteryConfig `json:"battery"`
	LightPin string        `json:"light_pin"`
	LEDPin   string        `json:"led_pin"`

	// SupervisorMS is the period of the servo sync check
	SupervisorMS uint32 `json:"supervisor_ms"`
}

// ServoConfig describes the PWM outputs
type ServoConfig struct {
	PeriodHz uint32   `json:"period_hz"`
	Trim     uint32   `json:"trim"`
	Pins     []string `json:"pins"`
}

// LinkConfig describes one serial link
type LinkConfig struct {
	Enabled   bool   `json:"enabled"`
	UART      int    `json:"uart"`
	Baud      uint32 `json:"baud"`
	TimeoutMS uint32 `json:"timeout_ms"`
	TXPin     string `json:"tx_pin"`
	RXPin     string `json:"rx_pin"`
}

// I2CConfig holds the async writer timings
type I2CConfig struct {
	Enabled       bool   `json:"enabled"`
	SDAPin        string `json:"sda_pin"`
	SCLPin        string `json:"scl_pin"`
	Frequency     uint32 `json:"frequency"`
	ByteTimeoutMS uint32 `json:"byte_timeout_ms"`
	MaxByteTimeMS uint32 `json:"max_byte_time_ms"`
}

// BatteryConfig describes the battery divider input and the optional
// cell tap inputs, first cell first
type BatteryConfig struct {
	ADCPin      string   `json:"adc_pin"`
	CellADCPins []string `json:"cell_adc_pins"`
	EveryMS     uint32   `json:"every_ms"`
}

// LoadConfig parses a JSON configuration and applies defaults
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *BoardConfig) {
	if config.Servo.PeriodHz == 0 {
		config.Servo.PeriodHz = core.DefaultServoHz
	}
	if config.Servo.Trim == 0 {
		config.Servo.Trim = core.OutputTrim
	}

	if config.Wired.Baud == 0 {
		config.Wired.Baud = DefaultWiredBaud
	}
	if config.Wired.TimeoutMS == 0 {
		config.Wired.TimeoutMS = DefaultLinkTimeoutMS
	}
	if config.Wireless.Baud == 0 {
		config.Wireless.Baud = DefaultWirelessBaud
	}
	if config.Wireless.TimeoutMS == 0 {
		config.Wireless.TimeoutMS = DefaultLinkTimeoutMS
	}
	if config.Sensors.Baud == 0 {
		config.Sensors.Baud = core.DefaultSensorBaud
	}
	if config.Sensors.TimeoutMS == 0 {
		config.Sensors.TimeoutMS = core.DefaultSensorTimeoutMS
	}

	if config.I2C.Frequency == 0 {
		config.I2C.Frequency = 400000
	}
	if config.I2C.ByteTimeoutMS == 0 {
		config.I2C.ByteTimeoutMS = core.DefaultI2CByteTimeout
	}
	if config.I2C.MaxByteTimeMS == 0 {
		config.I2C.MaxByteTimeMS = core.DefaultI2CMaxByteTime
	}

	if config.Battery.EveryMS == 0 {
		config.Battery.EveryMS = DefaultBatteryEveryMS
	}
	if config.SupervisorMS == 0 {
		config.SupervisorMS = DefaultSupervisorMS
	}
}

// DefaultConfig returns the reference board wiring
func DefaultConfig() *BoardConfig {
	pins := make([]string, core.ServoChannels)
	for i := range pins {
		pins[i] = "gpio" + strconv.Itoa(i)
	}

	config := &BoardConfig{
		Servo: ServoConfig{Pins: pins},
		Wired: LinkConfig{
			Enabled: true,
			UART:    0,
			TXPin:   "gpio28",
			RXPin:   "gpio29",
		},
		Wireless: LinkConfig{
			UART:  1,
			TXPin: "gpio20",
			RXPin: "gpio21",
		},
		Sensors: LinkConfig{
			Enabled: true,
			UART:    1,
			TXPin:   "gpio24",
			RXPin:   "gpio25",
		},
		I2C: I2CConfig{
			Enabled: true,
			SDAPin:  "gpio18",
			SCLPin:  "gpio19",
		},
		Battery: BatteryConfig{
			ADCPin:      "gpio26",
			CellADCPins: []string{"gpio27"},
		},
		LightPin: "gpio22",
		LEDPin:   "gpio23",
	}
	applyDefaults(config)
	return config
}

// ParsePin converts a "gpioN" name into a pin number
func ParsePin(name string) (core.GPIOPin, error) {
	num, ok := strings.CutPrefix(strings.ToLower(name), "gpio")
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrPinName)
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil || n > core.MaxGPIOPin {
		return 0, fmt.Errorf("%q: %w", name, ErrPinName)
	}
	return core.GPIOPin(n), nil
}

// ServoPins resolves the 18 servo pin names
func (c *BoardConfig) ServoPins() ([core.ServoChannels]core.GPIOPin, error) {
	var pins [core.ServoChannels]core.GPIOPin
	if len(c.Servo.Pins) != core.ServoChannels {
		return pins, fmt.Errorf("servo: %d pins, want %d", len(c.Servo.Pins), core.ServoChannels)
	}
	for i, name := range c.Servo.Pins {
		pin, err := ParsePin(name)
		if err != nil {
			return pins, fmt.Errorf("servo channel %d: %w", i, err)
		}
		pins[i] = pin
	}
	return pins, nil
}

// SchedulerConfig builds the servo scheduler configuration
func (c *BoardConfig) SchedulerConfig() (core.SchedulerConfig, error) {
	pins, err := c.ServoPins()
	if err != nil {
		return core.SchedulerConfig{}, err
	}
	return core.SchedulerConfig{PeriodHz: c.Servo.PeriodHz, Trim: c.Servo.Trim, Pins: pins}, nil
}

// Validate reports every problem of the configuration at once
func (c *BoardConfig) Validate() error {
	var err error

	if c.Servo.PeriodHz < MinServoHz || c.Servo.PeriodHz > MaxServoHz {
		err = multierr.Append(err, fmt.Errorf("servo: period_hz %d outside %d..%d", c.Servo.PeriodHz, MinServoHz, MaxServoHz))
	}
	if pins, perr := c.ServoPins(); perr != nil {
		err = multierr.Append(err, perr)
	} else {
		seen := make(map[core.GPIOPin]int)
		for i, pin := range pins {
			if prev, dup := seen[pin]; dup {
				err = multierr.Append(err, fmt.Errorf("servo: channels %d and %d share gpio%d", prev, i, pin))
			}
			seen[pin] = i
		}
	}

	err = multierr.Append(err, c.Wired.validate("wired"))
	err = multierr.Append(err, c.Wireless.validate("wireless"))
	err = multierr.Append(err, c.Sensors.validate("sensors"))
	if c.Wired.Enabled && c.Wireless.Enabled && c.Wired.UART == c.Wireless.UART {
		err = multierr.Append(err, fmt.Errorf("wired and wireless links share uart%d", c.Wired.UART))
	}
	if c.Sensors.Enabled && (c.Wired.Enabled && c.Sensors.UART == c.Wired.UART ||
		c.Wireless.Enabled && c.Sensors.UART == c.Wireless.UART) {
		err = multierr.Append(err, fmt.Errorf("sensors link shares uart%d", c.Sensors.UART))
	}

	if c.I2C.Enabled {
		err = multierr.Append(err, checkPin("i2c sda", c.I2C.SDAPin))
		err = multierr.Append(err, checkPin("i2c scl", c.I2C.SCLPin))
		if c.I2C.ByteTimeoutMS == 0 || c.I2C.MaxByteTimeMS == 0 {
			err = multierr.Append(err, errors.New("i2c: timeouts must be positive"))
		}
	}

	if c.LightPin != "" {
		err = multierr.Append(err, checkPin("light", c.LightPin))
	}
	if c.LEDPin != "" {
		err = multierr.Append(err, checkPin("led", c.LEDPin))
	}
	err = multierr.Append(err, c.Battery.validate())

	return err
}

func (b BatteryConfig) validate() error {
	var err error
	if b.ADCPin != "" {
		err = multierr.Append(err, checkPin("battery", b.ADCPin))
	} else if len(b.CellADCPins) > 0 {
		err = multierr.Append(err, errors.New("battery: cell_adc_pins need adc_pin"))
	}
	if len(b.CellADCPins) > core.BatteryCells {
		err = multierr.Append(err, fmt.Errorf("battery: %d cell pins, at most %d", len(b.CellADCPins), core.BatteryCells))
	}
	seen := map[string]bool{strings.ToLower(b.ADCPin): true}
	for i, name := range b.CellADCPins {
		err = multierr.Append(err, checkPin("battery cell "+strconv.Itoa(i), name))
		if seen[strings.ToLower(name)] {
			err = multierr.Append(err, fmt.Errorf("battery: cell %d reuses %s", i, name))
		}
		seen[strings.ToLower(name)] = true
	}
	return err
}

func (l LinkConfig) validate(name string) error {
	if !l.Enabled {
		return nil
	}
	var err error
	if l.Baud == 0 {
		err = multierr.Append(err, fmt.Errorf("%s: baud must be positive", name))
	}
	if l.TimeoutMS == 0 {
		err = multierr.Append(err, fmt.Errorf("%s: timeout_ms must be positive", name))
	}
	if l.UART < 0 || l.UART > 1 {
		err = multierr.Append(err, fmt.Errorf("%s: uart%d does not exist", name, l.UART))
	}
	err = multierr.Append(err, checkPin(name+" tx", l.TXPin))
	err = multierr.Append(err, checkPin(name+" rx", l.RXPin))
	return err
}

func checkPin(what, name string) error {
	if _, err := ParsePin(name); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
