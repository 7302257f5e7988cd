package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"hexcore/protocol"
)

func TestSystemMonitorBits(t *testing.T) {
	m := NewSystemMonitor()
	require.Equal(t, ErrorConnLost|ErrorCalibration, m.SystemStatus())
	mv, charge := m.Battery()
	require.Equal(t, uint16(12600), mv)
	require.Equal(t, uint8(99), charge)

	m.SetError(ErrorInternal)
	require.True(t, m.HasError(ErrorFatal), "internal implies fatal")
	m.ClearError(ErrorConnLost | ErrorCalibration)
	require.Equal(t, ErrorInternal, m.SystemStatus())

	m.DisableModule(ModuleSensorFeed | ModuleDisplay)
	require.True(t, m.ModuleDisabled(ModuleDisplay))
	m.EnableModule(ModuleDisplay)
	require.Equal(t, ModuleSensorFeed, m.ModuleStatus())

	m.SetCellVoltage(1, 4100)
	m.SetCellVoltage(3, 1)
	require.Equal(t, [3]uint16{0, 4100, 0}, m.Status().CellVoltage)
}

type fakeADC struct {
	value ADCValue
	err   error
	reads int
}

func (a *fakeADC) Sample() (ADCValue, error) {
	a.reads++
	return a.value, a.err
}

func runBattery(t *testing.T, b *BatteryMonitor, samples int) {
	for i := 0; i < samples; i++ {
		require.NoError(t, b.Process())
	}
}

func TestBatteryMonitor(t *testing.T) {
	m := NewSystemMonitor()
	adc := &fakeADC{value: 3000}
	b := NewBatteryMonitor(adc, m)

	// Nothing is published before a full accumulation
	runBattery(t, b, BatterySamples-1)
	mv, _ := m.Battery()
	require.Equal(t, uint16(InitialBatteryMV), mv)

	// 3000 * 13300 / 4096 = 9741, + 90
	runBattery(t, b, 1)
	mv, charge := m.Battery()
	require.Equal(t, uint16(9831), mv)
	require.Equal(t, uint8(23), charge)
	require.False(t, m.HasError(ErrorVoltage))

	// A higher reading never raises the voltage
	adc.value = 3800
	runBattery(t, b, BatterySamples)
	mv, _ = m.Battery()
	require.Equal(t, uint16(9831), mv)

	adc.value = 2000
	runBattery(t, b, BatterySamples)
	mv, charge = m.Battery()
	require.Equal(t, uint16(2000*13300/4096+BatteryOffsetMV), mv)
	require.Zero(t, charge)
	require.True(t, m.HasError(ErrorVoltage))
}

func TestBatteryMonitorDisabled(t *testing.T) {
	m := NewSystemMonitor()
	adc := &fakeADC{value: 4000}
	b := NewBatteryMonitor(adc, m)

	m.DisableModule(ModuleSystemMonitor)
	require.NoError(t, b.Process())
	require.Zero(t, adc.reads)
	mv, charge := m.Battery()
	require.Zero(t, mv)
	require.Zero(t, charge)

	m.EnableModule(ModuleSystemMonitor)
	adc.err = errors.New("adc busy")
	require.ErrorIs(t, b.Process(), adc.err)
}

func TestBatteryCharge(t *testing.T) {
	require.Equal(t, uint8(0), batteryCharge(8000))
	require.Equal(t, uint8(0), batteryCharge(9000))
	require.Equal(t, uint8(50), batteryCharge(10800))
	require.Equal(t, uint8(99), batteryCharge(12600))
	require.Equal(t, uint8(99), batteryCharge(13000))
}

func TestBatteryMonitorCellsInReply(t *testing.T) {
	r := newLinkRig(t, protocol.LayoutWired)
	cell0 := &fakeADC{value: 1000}
	cell1 := &fakeADC{value: 1200}
	b := NewBatteryMonitor(&fakeADC{value: 3800}, r.mon, cell0, cell1)

	runBattery(t, b, BatterySamples)
	require.Equal(t, BatterySamples, cell1.reads)

	r.drv.deliver(r.link, encodeRequest(t, protocol.LayoutWired, 1, protocol.CmdNone))
	r.link.Poll()
	require.Len(t, r.drv.sent, 1)

	// 1000 * 13300 / 4096 = 3247, 1200 * 13300 / 4096 = 3896, each + 90
	resp := protocol.UnmarshalResponse(protocol.LayoutWired.Payload(r.drv.sent[0]))
	require.Equal(t, [BatteryCells]uint16{3337, 3986, 0}, resp.CellVoltage)

	r.mon.DisableModule(ModuleSystemMonitor)
	require.NoError(t, b.Process())
	require.Equal(t, [BatteryCells]uint16{}, r.mon.Status().CellVoltage)

	r.mon.EnableModule(ModuleSystemMonitor)
	cell1.err = errors.New("adc busy")
	require.ErrorIs(t, b.Process(), cell1.err)
}
