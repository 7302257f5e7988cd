//go:build rp2040

package main

import (
	"errors"
	"hexcore/core"
	"machine"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

var (
	errI2CBus   = errors.New("unsupported I2C bus ID")
	errI2CInUse = errors.New("i2c transfer still running")
)

// i2cMessage is one staged write handed to the transfer goroutine
type i2cMessage struct {
	addr uint16
	data []byte
}

// RPI2CPeripheral implements core.I2CPeripheral over a blocking drivers.I2C
// bus. Register bytes are staged and the whole message is handed to a
// transfer goroutine with the payload; the writer hears about the result
// through its callbacks and its watchdog covers a transfer that hangs.
type RPI2CPeripheral struct {
	bus    drivers.I2C
	writer *core.AsyncWriter

	addr core.I2CAddress
	buf  []byte

	// inflight is set while the transfer goroutine owns msg
	inflight atomic.Bool
	msg      []byte
	txq      chan i2cMessage
}

// NewRPI2CPeripheral configures I2C0 or I2C1 on the given pins
func NewRPI2CPeripheral(bus int, sda, scl core.GPIOPin, frequencyHz uint32) (*RPI2CPeripheral, error) {
	var i2c *machine.I2C

	switch bus {
	case 0:
		i2c = machine.I2C0
	case 1:
		i2c = machine.I2C1
	default:
		return nil, errI2CBus
	}

	err := i2c.Configure(machine.I2CConfig{
		Frequency: frequencyHz,
		SDA:       machine.Pin(sda),
		SCL:       machine.Pin(scl),
	})
	if err != nil {
		return nil, err
	}

	return &RPI2CPeripheral{
		bus: i2c,
		buf: make([]byte, 0, 16),
		msg: make([]byte, 0, 16),
		txq: make(chan i2cMessage, 1),
	}, nil
}

// i2cBusForPins maps an SDA pin to its controller
func i2cBusForPins(sda core.GPIOPin) int {
	// SDA pins of I2C0 sit at 0, 4, 8, ... and I2C1 at 2, 6, 10, ...
	return int(sda/2) % 2
}

// attach routes the completion callbacks to the writer and starts the
// transfer goroutine
func (p *RPI2CPeripheral) attach(w *core.AsyncWriter) {
	p.writer = w
	go p.transferLoop()
}

func (p *RPI2CPeripheral) Begin(addr core.I2CAddress, total int) {
	p.addr = addr
	p.buf = p.buf[:0]
}

// TxEmpty holds off the next operation while an aborted transfer still
// owns the bus
func (p *RPI2CPeripheral) TxEmpty() bool { return !p.inflight.Load() }

func (p *RPI2CPeripheral) BusError() bool { return false }

func (p *RPI2CPeripheral) WriteByte(b byte) {
	p.buf = append(p.buf, b)
}

func (p *RPI2CPeripheral) StartDMA(data []byte) error {
	if p.inflight.Load() {
		return errI2CInUse
	}
	p.buf = append(p.buf, data...)
	p.msg = append(p.msg[:0], p.buf...)
	p.inflight.Store(true)
	p.txq <- i2cMessage{addr: uint16(p.addr), data: p.msg}
	return nil
}

func (p *RPI2CPeripheral) transferLoop() {
	for m := range p.txq {
		if err := p.bus.Tx(m.addr, m.data, nil); err != nil {
			p.writer.OnNack()
		} else {
			p.writer.OnTransferComplete()
		}
		p.inflight.Store(false)
	}
}

func (p *RPI2CPeripheral) Stop() {
	p.buf = p.buf[:0]
}
