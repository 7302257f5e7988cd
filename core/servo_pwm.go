package core

import (
	"errors"
	"slices"
	"sync/atomic"
)

const (
	// ServoChannels is the number of servo outputs driven by one timer
	ServoChannels = 18

	// OutputTrim compensates the fixed ISR latency between the compare match
	// and the falling edge
	OutputTrim = 3

	// DefaultServoHz is the default servo refresh rate
	DefaultServoHz = 160

	// maxPeriodTicks is the 16-bit auto-reload limit
	maxPeriodTicks = 0xFFFF
)

var (
	ErrServoPeriod  = errors.New("servo period does not fit the timer")
	ErrChannelRange = errors.New("servo channel out of range")
	ErrServoPins    = errors.New("servo pins must be distinct and below 32")
)

// Pulse is the width of one channel: either Active(ticks) or Held.
// A held channel never falls, its output stays high across periods.
type Pulse struct {
	raw uint32
}

// Active returns a pulse that falls after ticks
func Active(ticks uint32) Pulse {
	return Pulse{raw: min(ticks, maxPeriodTicks)}
}

// Held is the continuously high pulse
var Held = Pulse{raw: HeldTicks}

// IsHeld reports whether the pulse never falls
func (p Pulse) IsHeld() bool {
	return p.raw == HeldTicks
}

// Ticks returns the falling edge offset, ok is false for Held
func (p Pulse) Ticks() (ticks uint32, ok bool) {
	return p.raw, !p.IsHeld()
}

// TimerEvent is an interrupt raised by the pulse timer
type TimerEvent uint8

const (
	TimerUpdate  TimerEvent = iota // period boundary
	TimerCompare                   // compare match
)

// TimerAction reports what the scheduler did with an event
type TimerAction uint8

const (
	TimerNoAction TimerAction = iota
	TimerStopped              // disable honoured at the boundary
	TimerRise                 // all lines driven high, first compare armed
	TimerFall                 // lines driven low, next compare armed
	TimerDone                 // every non-held channel is low for this period
)

// SchedulerConfig describes the servo outputs
type SchedulerConfig struct {
	PeriodHz uint32
	Trim     uint32
	Pins     [ServoChannels]GPIOPin
}

// slot is one entry of the active schedule
type slot struct {
	index uint8
	line  GPIOPin
	ticks uint32
}

// Scheduler drives ServoChannels lines from one timer. The foreground writes
// the shadow widths; the timer ISR owns the active schedule and rebuilds it
// from the shadow at every period boundary unless the shadow is locked.
type Scheduler struct {
	gpio  GPIODriver
	timer PulseTimer

	periodTicks uint32
	trim        uint32
	lines       [ServoChannels]GPIOPin
	mask        uint32

	// Foreground side
	shadow    [ServoChannels]atomic.Uint32
	locked    atomic.Bool
	disableRq atomic.Bool

	// ISR side
	active  [ServoChannels]slot
	cursor  int
	periods atomic.Uint32
}

// NewScheduler validates the configuration, configures the lines as outputs
// and programs the timer period. Every channel starts Held.
func NewScheduler(cfg SchedulerConfig, gpio GPIODriver, timer PulseTimer) (*Scheduler, error) {
	if cfg.PeriodHz == 0 {
		return nil, ErrServoPeriod
	}
	period := TimerFreq / cfg.PeriodHz
	if period == 0 || period > maxPeriodTicks {
		return nil, ErrServoPeriod
	}

	s := &Scheduler{
		gpio:        gpio,
		timer:       timer,
		periodTicks: period,
		trim:        cfg.Trim,
		lines:       cfg.Pins,
	}

	for i, pin := range cfg.Pins {
		if pin > MaxGPIOPin || s.mask&(1<<pin) != 0 {
			return nil, ErrServoPins
		}
		s.mask |= 1 << pin
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		s.shadow[i].Store(HeldTicks)
		s.active[i] = slot{index: uint8(i), line: pin, ticks: HeldTicks}
	}

	if err := timer.SetPeriod(period); err != nil {
		return nil, err
	}
	s.disableRq.Store(true)

	return s, nil
}

// PeriodTicks returns the programmed period in timer ticks
func (s *Scheduler) PeriodTicks() uint32 {
	return s.periodTicks
}

// Enable starts the timer if it is not already running
func (s *Scheduler) Enable() {
	s.disableRq.Store(false)
	if !s.timer.Running() {
		s.timer.SetCompare(HeldTicks)
		s.timer.Start()
		RecordTiming(EvtPeriod, 1, GetTime(), s.periodTicks, s.periods.Load())
	}
}

// Disable stops the outputs at the next period boundary, never mid-pulse
func (s *Scheduler) Disable() {
	s.disableRq.Store(true)
}

// ForceDisable stops the timer now and drives every line low. Used when
// the timer has faulted and no boundary will come.
func (s *Scheduler) ForceDisable() {
	s.disableRq.Store(true)
	state := disableInterrupts()
	s.timer.Stop()
	s.gpio.SetPins(s.mask, false)
	s.cursor = ServoChannels
	restoreInterrupts(state)
}

// Enabled reports whether the outputs are (or will stay) running
func (s *Scheduler) Enabled() bool {
	return !s.disableRq.Load() && s.timer.Running()
}

// SetShadowLock freezes the active schedule; read once per period
func (s *Scheduler) SetShadowLock(locked bool) {
	s.locked.Store(locked)
}

// SetWidth sets the pulse width of a channel in timer ticks
func (s *Scheduler) SetWidth(channel int, width uint32) error {
	ticks := Clamp(int64(width)-int64(s.trim), 0, maxPeriodTicks)
	return s.SetPulse(channel, Active(uint32(ticks)))
}

// SetHeld keeps a channel high across periods
func (s *Scheduler) SetHeld(channel int) error {
	return s.SetPulse(channel, Held)
}

// SetPulse stores a raw pulse for a channel, without trim
func (s *Scheduler) SetPulse(channel int, p Pulse) error {
	if channel < 0 || channel >= ServoChannels {
		return ErrChannelRange
	}
	s.shadow[channel].Store(p.raw)
	return nil
}

// Pulse returns the shadow pulse of a channel
func (s *Scheduler) Pulse(channel int) Pulse {
	if channel < 0 || channel >= ServoChannels {
		return Held
	}
	return Pulse{raw: s.shadow[channel].Load()}
}

// Periods returns the number of periods started since boot
func (s *Scheduler) Periods() uint32 {
	return s.periods.Load()
}

// HandleEvent runs the timer ISR logic for one event
func (s *Scheduler) HandleEvent(e TimerEvent) TimerAction {
	switch e {
	case TimerUpdate:
		return s.onUpdate()
	case TimerCompare:
		return s.onCompare()
	}
	return TimerNoAction
}

func (s *Scheduler) onUpdate() TimerAction {
	if s.disableRq.Load() {
		s.timer.Stop()
		RecordTiming(EvtPeriod, 0, GetTime(), s.periodTicks, s.periods.Load())
		return TimerStopped
	}

	if !s.locked.Load() {
		for i := range s.active {
			s.active[i] = slot{index: uint8(i), line: s.lines[i], ticks: s.shadow[i].Load()}
		}
	}
	slices.SortFunc(s.active[:], compareSlots)

	s.gpio.SetPins(s.mask, true)
	s.cursor = 0
	s.timer.SetCompare(s.active[0].ticks)
	s.periods.Add(1)

	return TimerRise
}

func (s *Scheduler) onCompare() TimerAction {
	match := s.timer.Compare()
	for s.cursor < ServoChannels {
		next := &s.active[s.cursor]
		if next.ticks != match {
			s.timer.SetCompare(next.ticks)
			return TimerFall
		}
		s.gpio.SetPin(next.line, false)
		s.cursor++
	}
	return TimerDone
}

// compareSlots orders by falling time, then by channel index
func compareSlots(a, b slot) int {
	switch {
	case a.ticks < b.ticks:
		return -1
	case a.ticks > b.ticks:
		return 1
	}
	return int(a.index) - int(b.index)
}
