//go:build rp2040

package main

import (
	"strconv"

	"hexcore/config"
	"hexcore/core"
	"hexcore/protocol"
	"hexcore/targets/pio"
)

// Timing ring OIDs of the links
const (
	wiredOID = iota
	wirelessOID
	sensorsOID
)

// sequencePollMS is how often a selected sequence is handed to the motion core
const sequencePollMS = 10

// panelEveryMS is the status panel refresh period
const panelEveryMS = 100

// board holds everything the main loop drives
type board struct {
	mon     *core.SystemMonitor
	servos  *core.Scheduler
	links   []*core.FrameLink
	tasks   *core.TaskList
	mailbox *core.SequenceMailbox
	feed    *core.SensorFeed
}

// setupBoard builds the firmware from the board configuration. Optional
// peripherals that fail to come up only disable their module.
func setupBoard(cfg *config.BoardConfig) (*board, error) {
	b := &board{
		mon:   core.NewSystemMonitor(),
		tasks: core.NewTaskList(core.SystemClock{}),
		feed:  &core.SensorFeed{},
	}
	b.mailbox = core.NewSequenceMailbox(b.mon)

	gpio := NewRPGPIODriver()

	if err := b.setupServos(cfg, gpio); err != nil {
		return nil, err
	}

	var light *core.Light
	if cfg.LightPin != "" {
		pin, err := config.ParsePin(cfg.LightPin)
		if err != nil {
			return nil, err
		}
		if light, err = core.NewLight(gpio, pin); err != nil {
			return nil, err
		}
	}

	registry := core.NewCommandRegistry()
	core.RegisterCommands(registry, core.Handlers{
		Sequences: b.mailbox,
		Light:     light,
		Reset:     resetBoard,
	})

	hostWatch := core.Watchers{core.ConnLostWatcher{Monitor: b.mon}}
	if cfg.LEDPin != "" {
		pin, err := config.ParsePin(cfg.LEDPin)
		if err != nil {
			return nil, err
		}
		led, err := pio.NewLinkLED(pin)
		if err != nil {
			core.DebugAsync("link LED: " + err.Error())
		} else {
			hostWatch = append(hostWatch, led)
		}
	}

	if cfg.Wired.Enabled {
		dispatcher := core.NewDispatcher(protocol.LayoutWired, registry, b.mon)
		if err := b.addLink("wired", wiredOID, cfg.Wired, true, dispatcher, hostWatch); err != nil {
			return nil, err
		}
	}
	if cfg.Wireless.Enabled {
		dispatcher := core.NewDispatcher(protocol.LayoutWireless, registry, b.mon)
		if err := b.addLink("wireless", wirelessOID, cfg.Wireless, true, dispatcher, hostWatch); err != nil {
			return nil, err
		}
	}
	if cfg.Sensors.Enabled {
		watch := core.ModuleWatcher{Monitor: b.mon, Module: core.ModuleSensorFeed, OnLost: b.feed.Zero}
		if err := b.addLink("sensors", sensorsOID, cfg.Sensors, false, b.feed, watch); err != nil {
			return nil, err
		}
	} else {
		b.mon.DisableModule(core.ModuleSensorFeed)
	}

	b.setupBattery(cfg)
	b.setupPanel(cfg)

	b.tasks.Every("sequence", sequencePollMS, func() {
		if cmd, changed := b.mailbox.Take(); changed {
			core.DebugAsync("sequence " + cmd.String())
		}
	})

	return b, nil
}

func (b *board) setupServos(cfg *config.BoardConfig, gpio core.GPIODriver) error {
	sc, err := cfg.SchedulerConfig()
	if err != nil {
		return err
	}

	timer := initPulseTimer()
	b.servos, err = core.NewScheduler(sc, gpio, timer)
	if err != nil {
		return err
	}
	timer.attach(b.servos)

	// Outputs stay Held until the motion core writes widths
	b.servos.Enable()

	supervisor := core.NewSyncSupervisor(b.servos, b.servos, b.mon, nil)
	b.tasks.Every("sync", cfg.SupervisorMS, func() {
		if b.servos.Enabled() {
			supervisor.Check()
		}
	})
	return nil
}

func (b *board) addLink(name string, oid uint8, lc config.LinkConfig, lostAtStart bool, handler core.FrameHandler, watch core.LinkWatcher) error {
	tx, err := config.ParsePin(lc.TXPin)
	if err != nil {
		return err
	}
	rx, err := config.ParsePin(lc.RXPin)
	if err != nil {
		return err
	}

	drv, err := NewUARTDriver(lc.UART, lc.Baud, tx, rx)
	if err != nil {
		return err
	}

	link := core.NewFrameLink(core.LinkConfig{
		Name:        name,
		ID:          oid,
		TimeoutMS:   lc.TimeoutMS,
		LostAtStart: lostAtStart,
	}, drv, handler, nil, watch)
	drv.start(link)

	b.links = append(b.links, link)
	return nil
}

func (b *board) setupBattery(cfg *config.BoardConfig) {
	if cfg.Battery.ADCPin == "" {
		b.mon.DisableModule(core.ModuleSystemMonitor)
	} else if pin, err := config.ParsePin(cfg.Battery.ADCPin); err != nil {
		b.mon.DisableModule(core.ModuleSystemMonitor)
	} else if adc, err := NewRPADCSampler(pin); err != nil {
		core.DebugAsync("battery: " + err.Error())
		b.mon.DisableModule(core.ModuleSystemMonitor)
	} else {
		battery := core.NewBatteryMonitor(adc, b.mon, cellSamplers(cfg.Battery.CellADCPins)...)
		b.tasks.Every("battery", cfg.Battery.EveryMS, func() {
			if err := battery.Process(); err != nil {
				b.mon.SetError(core.ErrorInternal)
			}
		})
		return
	}

	// Reports 0 mV and 0 %
	b.mon.SetBattery(0, 0)
}

// cellSamplers opens the cell tap inputs; a tap that fails reads as 0 mV
func cellSamplers(names []string) []core.ADCSampler {
	var cells []core.ADCSampler
	for i, name := range names {
		pin, err := config.ParsePin(name)
		if err != nil {
			break
		}
		adc, err := NewRPADCSampler(pin)
		if err != nil {
			core.DebugAsync("battery cell " + strconv.Itoa(i) + ": " + err.Error())
			break
		}
		cells = append(cells, adc)
	}
	return cells
}

func (b *board) setupPanel(cfg *config.BoardConfig) {
	if !cfg.I2C.Enabled {
		b.mon.DisableModule(core.ModulePCA9555)
		return
	}

	sda, _ := config.ParsePin(cfg.I2C.SDAPin)
	scl, _ := config.ParsePin(cfg.I2C.SCLPin)
	periph, err := NewRPI2CPeripheral(i2cBusForPins(sda), sda, scl, cfg.I2C.Frequency)
	if err != nil {
		core.DebugAsync("i2c: " + err.Error())
		b.mon.SetError(core.ErrorI2C)
		b.mon.DisableModule(core.ModulePCA9555)
		return
	}

	writer := core.NewAsyncWriter(periph, hardwareClock{}, core.I2CConfig{
		ByteTimeoutMS: cfg.I2C.ByteTimeoutMS,
		MaxByteTimeMS: cfg.I2C.MaxByteTimeMS,
	})
	periph.attach(writer)

	panel := core.NewStatusPanel(writer, b.mon, core.PanelAddress)
	if err := panel.Init(core.NewBusAdapter(writer)); err != nil {
		core.DebugAsync("status panel: " + err.Error())
		return
	}
	b.tasks.Every("panel", panelEveryMS, panel.Update)
}

// poll runs one main loop iteration
func (b *board) poll() {
	for _, link := range b.links {
		link.Poll()
	}
	b.tasks.Dispatch()
}
