package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newPanelRig() (*StatusPanel, *fakeI2C, *AsyncWriter, *SystemMonitor) {
	p := &fakeI2C{txEmpty: true}
	w := NewAsyncWriter(p, &fakeClock{now: 10}, I2CConfig{})
	p.onDMA = w.OnTransferComplete
	mon := NewSystemMonitor()
	return NewStatusPanel(w, mon, PanelAddress), p, w, mon
}

func TestStatusPanelInit(t *testing.T) {
	panel, p, w, mon := newPanelRig()

	require.NoError(t, panel.Init(NewBusAdapter(w)))
	require.Equal(t, PanelAddress, p.addr)
	require.Equal(t, []byte{pca9555Config0}, p.written)
	require.Equal(t, []byte{0x00, 0x00}, p.dma)
	require.False(t, mon.ModuleDisabled(ModulePCA9555))
}

func TestStatusPanelMirrorsStatus(t *testing.T) {
	panel, p, _, mon := newPanelRig()

	panel.Update()
	require.Equal(t, []byte{pca9555Output0}, p.written)
	require.Equal(t, []byte{0x00, ErrorConnLost | ErrorCalibration}, p.dma)

	// Unchanged status is not rewritten
	p.dma = nil
	panel.Update()
	panel.Update()
	require.Nil(t, p.dma)

	mon.ClearError(ErrorConnLost)
	mon.DisableModule(ModuleSensorFeed)
	panel.Update()
	require.Equal(t, []byte{ModuleSensorFeed, ErrorCalibration}, p.dma)
}

func TestStatusPanelNackDisablesModule(t *testing.T) {
	panel, p, w, mon := newPanelRig()
	p.onDMA = w.OnNack

	panel.Update()
	require.False(t, mon.HasError(ErrorI2C))

	// The failure is collected on the next update
	panel.Update()
	require.True(t, mon.HasError(ErrorI2C))
	require.True(t, mon.ModuleDisabled(ModulePCA9555))

	p.dma = nil
	mon.SetError(ErrorVoltage)
	panel.Update()
	require.Nil(t, p.dma)
}

func TestStatusPanelInitFailure(t *testing.T) {
	panel, p, w, mon := newPanelRig()
	p.onDMA = w.OnBusError

	require.ErrorIs(t, panel.Init(NewBusAdapter(w)), ErrI2CBus)
	require.True(t, mon.HasError(ErrorI2C))
	require.True(t, mon.ModuleDisabled(ModulePCA9555))
}
