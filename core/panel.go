package core

import "tinygo.org/x/drivers"

// PCA9555 I/O expander registers
const (
	PanelAddress I2CAddress = 0x20

	pca9555Output0 = 0x02
	pca9555Config0 = 0x06
)

// StatusPanel mirrors the status bytes on the two output ports of a
// PCA9555: port 0 shows the disabled modules, port 1 the error bits. A
// failed write sets ErrorI2C and disables ModulePCA9555 for good.
type StatusPanel struct {
	w    *AsyncWriter
	mon  *SystemMonitor
	addr I2CAddress

	out     [2]byte
	shown   uint16
	pending bool
	valid   bool
}

// NewStatusPanel creates a panel writing through w
func NewStatusPanel(w *AsyncWriter, mon *SystemMonitor, addr I2CAddress) *StatusPanel {
	return &StatusPanel{w: w, mon: mon, addr: addr}
}

// Init switches both ports to outputs. bus is usually a BusAdapter over
// the same writer.
func (p *StatusPanel) Init(bus drivers.I2C) error {
	if err := bus.Tx(uint16(p.addr), []byte{pca9555Config0, 0x00, 0x00}, nil); err != nil {
		p.fail()
		return err
	}
	return nil
}

// Update collects the result of the previous write and starts a new one
// when the status changed. It never blocks.
func (p *StatusPanel) Update() {
	if p.mon.ModuleDisabled(ModulePCA9555) {
		return
	}
	if !p.w.IsOperationCompleted() {
		return
	}
	if p.pending {
		p.pending = false
		if p.w.Result() != nil {
			p.fail()
			return
		}
		p.valid = true
	}

	status := uint16(p.mon.ModuleStatus()) | uint16(p.mon.SystemStatus())<<8
	if p.valid && status == p.shown {
		return
	}

	p.out = [2]byte{byte(status), byte(status >> 8)}
	if err := p.w.StartWrite(p.addr, pca9555Output0, 1, p.out[:]); err != nil {
		p.fail()
		return
	}
	p.shown = status
	p.valid = false
	p.pending = true
}

func (p *StatusPanel) fail() {
	p.mon.SetError(ErrorI2C)
	p.mon.DisableModule(ModulePCA9555)
	DebugAsync("status panel disabled")
}
