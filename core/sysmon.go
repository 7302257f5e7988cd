package core

import (
	"sync/atomic"

	"hexcore/protocol"
)

// System status error bits
const (
	ErrorFatal       uint8 = 0x01
	ErrorInternal    uint8 = 0x02 | ErrorFatal
	ErrorVoltage     uint8 = 0x04
	ErrorSync        uint8 = 0x08
	ErrorMath        uint8 = 0x10
	ErrorI2C         uint8 = 0x20
	ErrorCalibration uint8 = 0x40
	ErrorConnLost    uint8 = 0x80
)

// Module status bits, a set bit means the module is disabled
const (
	ModuleMotionCore    uint8 = 0x01
	ModuleServoDriver   uint8 = 0x02
	ModuleSystemMonitor uint8 = 0x04
	ModuleDisplay       uint8 = 0x08
	ModuleMPU6050       uint8 = 0x10
	ModulePCA9555       uint8 = 0x20
	ModuleSensorFeed    uint8 = 0x40
)

const (
	// InitialBatteryMV is reported until the first measurement
	InitialBatteryMV = 12600
	// InitialBatteryCharge is reported until the first measurement
	InitialBatteryCharge = 99
)

// SystemMonitor holds the process-wide status reported in every response.
// All fields are atomics; ISRs and the foreground may update them.
type SystemMonitor struct {
	system  atomic.Uint32
	modules atomic.Uint32

	cells     [BatteryCells]atomic.Uint32
	batteryMV atomic.Uint32
	charge    atomic.Uint32
}

// NewSystemMonitor starts with the link lost and calibration pending
func NewSystemMonitor() *SystemMonitor {
	m := &SystemMonitor{}
	m.system.Store(uint32(ErrorConnLost | ErrorCalibration))
	m.batteryMV.Store(InitialBatteryMV)
	m.charge.Store(InitialBatteryCharge)
	return m
}

func setBits(a *atomic.Uint32, mask uint8) {
	for {
		old := a.Load()
		if old&uint32(mask) == uint32(mask) || a.CompareAndSwap(old, old|uint32(mask)) {
			return
		}
	}
}

func clearBits(a *atomic.Uint32, mask uint8) {
	for {
		old := a.Load()
		if old&uint32(mask) == 0 || a.CompareAndSwap(old, old&^uint32(mask)) {
			return
		}
	}
}

// SetError sets error bits
func (m *SystemMonitor) SetError(mask uint8) { setBits(&m.system, mask) }

// ClearError clears error bits
func (m *SystemMonitor) ClearError(mask uint8) { clearBits(&m.system, mask) }

// HasError reports whether any bit of mask is set
func (m *SystemMonitor) HasError(mask uint8) bool {
	return uint8(m.system.Load())&mask != 0
}

// SystemStatus returns the error bits
func (m *SystemMonitor) SystemStatus() uint8 {
	return uint8(m.system.Load())
}

// DisableModule marks modules disabled
func (m *SystemMonitor) DisableModule(mask uint8) { setBits(&m.modules, mask) }

// EnableModule marks modules enabled
func (m *SystemMonitor) EnableModule(mask uint8) { clearBits(&m.modules, mask) }

// ModuleDisabled reports whether any module of mask is disabled
func (m *SystemMonitor) ModuleDisabled(mask uint8) bool {
	return uint8(m.modules.Load())&mask != 0
}

// ModuleStatus returns the module disable bits
func (m *SystemMonitor) ModuleStatus() uint8 {
	return uint8(m.modules.Load())
}

// SetCellVoltage stores one cell voltage in mV
func (m *SystemMonitor) SetCellVoltage(cell int, mv uint16) {
	if cell >= 0 && cell < len(m.cells) {
		m.cells[cell].Store(uint32(mv))
	}
}

// SetBattery stores the battery voltage (mV) and charge (%)
func (m *SystemMonitor) SetBattery(mv uint16, charge uint8) {
	m.batteryMV.Store(uint32(mv))
	m.charge.Store(uint32(charge))
}

// Battery returns the battery voltage (mV) and charge (%)
func (m *SystemMonitor) Battery() (mv uint16, charge uint8) {
	return uint16(m.batteryMV.Load()), uint8(m.charge.Load())
}

// Status fills the status and telemetry fields of a response
func (m *SystemMonitor) Status() protocol.Response {
	mv, charge := m.Battery()
	r := protocol.Response{
		ModuleStatus:   m.ModuleStatus(),
		SystemStatus:   m.SystemStatus(),
		BatteryVoltage: mv,
		BatteryCharge:  charge,
	}
	for i := range m.cells {
		r.CellVoltage[i] = uint16(m.cells[i].Load())
	}
	return r
}

// ConnLostWatcher mirrors a link's health into ErrorConnLost
type ConnLostWatcher struct {
	Monitor *SystemMonitor
}

func (w ConnLostWatcher) LinkLost()     { w.Monitor.SetError(ErrorConnLost) }
func (w ConnLostWatcher) LinkRestored() { w.Monitor.ClearError(ErrorConnLost) }

// ModuleWatcher disables a module while its link is lost. OnLost, when
// set, runs on every lost poll.
type ModuleWatcher struct {
	Monitor *SystemMonitor
	Module  uint8
	OnLost  func()
}

func (w ModuleWatcher) LinkLost() {
	if w.OnLost != nil {
		w.OnLost()
	}
	w.Monitor.DisableModule(w.Module)
}

func (w ModuleWatcher) LinkRestored() { w.Monitor.EnableModule(w.Module) }

// Watchers fans link health out to several watchers
type Watchers []LinkWatcher

func (ws Watchers) LinkLost() {
	for _, w := range ws {
		w.LinkLost()
	}
}

func (ws Watchers) LinkRestored() {
	for _, w := range ws {
		w.LinkRestored()
	}
}
