package core

const (
	// BatterySamples are averaged per measurement
	BatterySamples = 100

	// BatteryOffsetMV corrects the divider and reference error
	BatteryOffsetMV = 90

	BatteryEmptyMV = 9000
	BatteryFullMV  = 12600

	// BatteryCells is the number of cell taps a response carries
	BatteryCells = 3

	// Divider 10k over 3k3 in front of a 3.3 V, 12-bit ADC:
	// mV = avg * 3.3/4096 * 13300/3300 * 1000 = avg * 13300/4096
	batteryDividerNum = 13300
	batteryDividerDen = ADCMax + 1
)

// BatteryMonitor accumulates ADC samples and publishes battery voltage and
// charge through a SystemMonitor. The reported voltage only decreases;
// load transients lift the reading, never the battery. Optional cell taps
// are sampled alongside and published as plain averages.
type BatteryMonitor struct {
	adc   ADCSampler
	cells []ADCSampler
	mon   *SystemMonitor

	sum     uint32
	cellSum [BatteryCells]uint32
	count   uint32
	mv      uint32
}

// NewBatteryMonitor creates a monitor starting at the full-battery reading.
// Cell samplers beyond BatteryCells are ignored.
func NewBatteryMonitor(adc ADCSampler, mon *SystemMonitor, cells ...ADCSampler) *BatteryMonitor {
	if len(cells) > BatteryCells {
		cells = cells[:BatteryCells]
	}
	return &BatteryMonitor{adc: adc, cells: cells, mon: mon, mv: BatteryFullMV}
}

// Process takes one sample of every input and publishes a measurement
// every BatterySamples samples. A disabled system monitor module reports
// 0 mV and 0 % with zeroed cells.
func (b *BatteryMonitor) Process() error {
	if b.mon.ModuleDisabled(ModuleSystemMonitor) {
		b.mon.SetBattery(0, 0)
		for i := 0; i < BatteryCells; i++ {
			b.mon.SetCellVoltage(i, 0)
		}
		return nil
	}

	raw, err := b.adc.Sample()
	if err != nil {
		return err
	}
	var cells [BatteryCells]ADCValue
	for i, adc := range b.cells {
		if cells[i], err = adc.Sample(); err != nil {
			return err
		}
	}

	b.sum += uint32(raw)
	for i := range b.cells {
		b.cellSum[i] += uint32(cells[i])
	}
	b.count++
	if b.count < BatterySamples {
		return nil
	}

	for i := range b.cells {
		b.mon.SetCellVoltage(i, uint16(adcToMV(b.cellSum[i]/b.count)))
		b.cellSum[i] = 0
	}

	avg := b.sum / b.count
	b.sum, b.count = 0, 0

	b.mv = min(b.mv, adcToMV(avg))

	charge := batteryCharge(b.mv)
	b.mon.SetBattery(uint16(b.mv), charge)
	if charge == 0 {
		b.mon.SetError(ErrorVoltage)
	}
	return nil
}

// Voltage returns the last published voltage in mV
func (b *BatteryMonitor) Voltage() uint32 {
	return b.mv
}

// adcToMV converts an averaged reading behind the input divider
func adcToMV(avg uint32) uint32 {
	return avg*batteryDividerNum/batteryDividerDen + BatteryOffsetMV
}

func batteryCharge(mv uint32) uint8 {
	pct := (int64(mv) - BatteryEmptyMV) * 100 / (BatteryFullMV - BatteryEmptyMV)
	return uint8(Clamp(pct, 0, 99))
}
