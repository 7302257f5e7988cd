package core

import (
	"errors"
	"runtime"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

const (
	// DefaultI2CByteTimeout bounds each wait for the TX register (ms)
	DefaultI2CByteTimeout = 5

	// DefaultI2CMaxByteTime is the watchdog budget per DMA byte (ms)
	DefaultI2CMaxByteTime = 2
)

var (
	ErrI2CBusy         = errors.New("i2c operation in progress")
	ErrI2CRegisterSize = errors.New("i2c register address must be 1 to 4 bytes")
	ErrI2CTimeout      = errors.New("i2c transmit register timeout")
	ErrI2CBus          = errors.New("i2c bus error")
	ErrI2CNack         = errors.New("i2c NACK")
	ErrI2CWatchdog     = errors.New("i2c watchdog expired")
	ErrI2CRead         = errors.New("i2c read not supported by async writer")
)

// Operation results stored by the ISR
const (
	i2cResultOK uint32 = iota
	i2cResultTimeout
	i2cResultBus
	i2cResultNack
	i2cResultWatchdog
)

var i2cResultErrors = [...]error{nil, ErrI2CTimeout, ErrI2CBus, ErrI2CNack, ErrI2CWatchdog}

// I2CConfig holds the timing limits of the async writer
type I2CConfig struct {
	ByteTimeoutMS uint32
	MaxByteTimeMS uint32
}

// AsyncWriter performs register writes where the register address is sent
// synchronously and the payload goes out by DMA. Completion is reported by
// the peripheral ISRs; a watchdog deadline covers a bus that never raises
// them.
type AsyncWriter struct {
	p     I2CPeripheral
	clock Clock
	cfg   I2CConfig

	busy     atomic.Bool
	result   atomic.Uint32
	deadline uint32

	aborts atomic.Uint32
}

// NewAsyncWriter creates a writer, zero config fields take the defaults
func NewAsyncWriter(p I2CPeripheral, clock Clock, cfg I2CConfig) *AsyncWriter {
	if cfg.ByteTimeoutMS == 0 {
		cfg.ByteTimeoutMS = DefaultI2CByteTimeout
	}
	if cfg.MaxByteTimeMS == 0 {
		cfg.MaxByteTimeMS = DefaultI2CMaxByteTime
	}
	return &AsyncWriter{p: p, clock: clock, cfg: cfg}
}

// StartWrite begins a write of data to register reg of device addr.
// regSize bytes of reg are sent MSB first before the DMA payload.
// The data slice must stay untouched until the operation completes.
func (w *AsyncWriter) StartWrite(addr I2CAddress, reg uint32, regSize int, data []byte) error {
	if !w.IsOperationCompleted() {
		return ErrI2CBusy
	}
	if regSize < 1 || regSize > 4 {
		return ErrI2CRegisterSize
	}

	w.p.Begin(addr, regSize+len(data))

	for i := regSize - 1; i >= 0; i-- {
		if code := w.waitTxEmpty(); code != i2cResultOK {
			return w.fail(code)
		}
		w.p.WriteByte(byte(reg >> (8 * i)))
	}
	if code := w.waitTxEmpty(); code != i2cResultOK {
		return w.fail(code)
	}

	w.result.Store(i2cResultOK)
	w.deadline = w.clock.Millis() + uint32(len(data))*w.cfg.MaxByteTimeMS
	w.busy.Store(true)
	if err := w.p.StartDMA(data); err != nil {
		w.busy.Store(false)
		w.p.Stop()
		w.result.Store(i2cResultBus)
		return err
	}
	return nil
}

// Write runs a complete operation and waits for its result. The wait
// yields, so a peripheral may complete from another goroutine.
func (w *AsyncWriter) Write(addr I2CAddress, reg uint32, regSize int, data []byte) error {
	if err := w.StartWrite(addr, reg, regSize, data); err != nil {
		return err
	}
	for !w.IsOperationCompleted() {
		runtime.Gosched()
	}
	return w.Result()
}

// IsOperationCompleted reports whether the last operation finished. A
// transfer still busy at its deadline is aborted and completes with
// ErrI2CWatchdog.
func (w *AsyncWriter) IsOperationCompleted() bool {
	if !w.busy.Load() {
		return true
	}
	if int32(w.clock.Millis()-w.deadline) < 0 {
		return false
	}

	state := disableInterrupts()
	if w.busy.Load() {
		w.p.Stop()
		w.result.Store(i2cResultWatchdog)
		w.busy.Store(false)
		w.aborts.Add(1)
		RecordTiming(EvtI2CAbort, 0, GetTime(), w.deadline, 0)
	}
	restoreInterrupts(state)
	return true
}

// Result returns the error of the last completed operation
func (w *AsyncWriter) Result() error {
	return i2cResultErrors[w.result.Load()]
}

// Aborts returns how many operations the watchdog cancelled
func (w *AsyncWriter) Aborts() uint32 {
	return w.aborts.Load()
}

// OnTransferComplete is called from the event ISR on transfer complete
func (w *AsyncWriter) OnTransferComplete() {
	w.finish(i2cResultOK)
}

// OnNack is called from the event ISR when the device NACKs
func (w *AsyncWriter) OnNack() {
	w.finish(i2cResultNack)
}

// OnBusError is called from the error ISR
func (w *AsyncWriter) OnBusError() {
	w.finish(i2cResultBus)
}

func (w *AsyncWriter) finish(code uint32) {
	if !w.busy.Load() {
		return
	}
	w.p.Stop()
	w.result.Store(code)
	w.busy.Store(false)
}

// waitTxEmpty spins until the TX register is empty, a bus error shows up or
// the per-byte timeout expires
func (w *AsyncWriter) waitTxEmpty() uint32 {
	start := w.clock.Millis()
	for {
		if w.p.BusError() {
			return i2cResultBus
		}
		if w.p.TxEmpty() {
			return i2cResultOK
		}
		if elapsed(w.clock.Millis(), start) > w.cfg.ByteTimeoutMS {
			return i2cResultTimeout
		}
		runtime.Gosched()
	}
}

func (w *AsyncWriter) fail(code uint32) error {
	w.p.Stop()
	w.result.Store(code)
	return i2cResultErrors[code]
}

// BusAdapter exposes an AsyncWriter as a tinygo drivers.I2C for device
// drivers that only write registers. The first written byte is the
// register address.
type BusAdapter struct {
	w *AsyncWriter
}

var _ drivers.I2C = (*BusAdapter)(nil)

// NewBusAdapter wraps w
func NewBusAdapter(w *AsyncWriter) *BusAdapter {
	return &BusAdapter{w: w}
}

// Tx implements drivers.I2C for write-only transactions
func (b *BusAdapter) Tx(addr uint16, wr, r []byte) error {
	if len(r) > 0 {
		return ErrI2CRead
	}
	if len(wr) == 0 {
		return nil
	}
	return b.w.Write(I2CAddress(addr), uint32(wr[0]), 1, wr[1:])
}
