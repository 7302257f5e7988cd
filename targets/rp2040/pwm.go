//go:build rp2040

package main

import (
	"device/rp"
	"hexcore/core"
	"runtime/interrupt"
	"runtime/volatile"
)

// Alarms 0 and 1 belong to the TinyGo runtime
const (
	updateAlarm  = 2
	compareAlarm = 3

	updateBit  = 1 << updateAlarm
	compareBit = 1 << compareAlarm
)

// alarmTimer implements core.PulseTimer on two alarms of the 1MHz system
// timer. The update alarm re-arms itself every period; the compare alarm
// is armed relative to the start of the current period.
type alarmTimer struct {
	sched *core.Scheduler

	period  uint32
	base    uint32
	compare uint32
	running volatile.Register8
}

// pulseTimer is reached from the interrupt handlers
var pulseTimer alarmTimer

// initPulseTimer installs the alarm interrupts
func initPulseTimer() *alarmTimer {
	interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) {
		pulseTimer.onUpdate()
	}).Enable()
	interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) {
		pulseTimer.onCompare()
	}).Enable()
	pulseTimer.compare = core.HeldTicks
	return &pulseTimer
}

// attach routes the alarm events to the scheduler
func (t *alarmTimer) attach(s *core.Scheduler) {
	t.sched = s
}

func (t *alarmTimer) SetPeriod(ticks uint32) error {
	t.period = ticks
	return nil
}

func (t *alarmTimer) SetCompare(ticks uint32) {
	t.compare = ticks
	if ticks == core.HeldTicks || ticks >= t.period {
		rp.TIMER.ARMED.Set(compareBit)
		return
	}
	target := t.base + ticks
	rp.TIMER.ALARM3.Set(target)
	if int32(target-rp.TIMER.TIMERAWL.Get()) <= 0 {
		// Already passed, the alarm would only match after a wrap
		rp.TIMER.ARMED.Set(compareBit)
		rp.TIMER.INTF.SetBits(compareBit)
	}
}

func (t *alarmTimer) Compare() uint32 {
	return t.compare
}

func (t *alarmTimer) Start() {
	t.base = rp.TIMER.TIMERAWL.Get()
	rp.TIMER.INTR.Set(updateBit | compareBit)
	rp.TIMER.INTE.SetBits(updateBit | compareBit)
	rp.TIMER.ALARM2.Set(t.base + t.period)
	t.running.Set(1)
}

func (t *alarmTimer) Stop() {
	rp.TIMER.INTE.ClearBits(updateBit | compareBit)
	rp.TIMER.INTF.ClearBits(compareBit)
	rp.TIMER.ARMED.Set(updateBit | compareBit)
	rp.TIMER.INTR.Set(updateBit | compareBit)
	t.running.Set(0)
}

func (t *alarmTimer) Running() bool {
	return t.running.Get() != 0
}

func (t *alarmTimer) onUpdate() {
	rp.TIMER.INTR.Set(updateBit)
	t.base += t.period
	rp.TIMER.ALARM2.Set(t.base + t.period)
	if t.sched != nil {
		t.sched.HandleEvent(core.TimerUpdate)
	}
}

func (t *alarmTimer) onCompare() {
	rp.TIMER.INTF.ClearBits(compareBit)
	rp.TIMER.INTR.Set(compareBit)
	if t.sched != nil {
		t.sched.HandleEvent(core.TimerCompare)
	}
}
