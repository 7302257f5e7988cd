//go:build rp2040

package main

import (
	"context"
	"errors"
	"hexcore/core"
	"hexcore/protocol"
	"machine"
	"sync/atomic"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

var (
	errUARTID = errors.New("unsupported UART ID")
	errTxBusy = errors.New("uart transmit in progress")
)

// UARTDriver implements core.SerialDriver on a uartx port. A receive
// goroutine collects bytes into the RX buffer and closes the frame once
// the line has been idle for the inter-character timeout; a transmit
// goroutine writes one reply at a time.
type UARTDriver struct {
	hw   *uartx.UART
	link *core.FrameLink
	idle protocol.IdleDetector

	rx    protocol.RxBuffer
	armed atomic.Bool
	txq   chan []byte
}

// NewUARTDriver configures UART0 or UART1
func NewUARTDriver(id int, baud uint32, tx, rx core.GPIOPin) (*UARTDriver, error) {
	var hw *uartx.UART

	switch id {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, errUARTID
	}

	err := hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.Pin(tx),
		RX:       machine.Pin(rx),
	})
	if err != nil {
		return nil, err
	}

	return &UARTDriver{
		hw:   hw,
		idle: protocol.NewIdleDetector(baud),
		txq:  make(chan []byte, 1),
	}, nil
}

// start attaches the link and runs the receive and transmit loops
func (d *UARTDriver) start(link *core.FrameLink) {
	d.link = link
	go d.receiveLoop()
	go d.transmitLoop()
	link.StartReceive()
}

func (d *UARTDriver) StartAsyncReceive() error {
	d.rx.Reset()
	d.armed.Store(true)
	return nil
}

func (d *UARTDriver) RxBuffer() []byte {
	return d.rx.Storage()
}

func (d *UARTDriver) StartAsyncTransmit(data []byte) error {
	select {
	case d.txq <- data:
		return nil
	default:
		return errTxBusy
	}
}

func (d *UARTDriver) receiveLoop() {
	var chunk [protocol.FrameMax]byte

	for {
		ctx, cancel := context.Background(), context.CancelFunc(nil)
		if d.idle.Pending() {
			ctx, cancel = context.WithTimeout(ctx, d.idle.Remaining(GetHardwareTime()))
		}
		n, err := d.hw.RecvSomeContext(ctx, chunk[:])
		if cancel != nil {
			cancel()
		}
		now := GetHardwareTime()

		switch {
		case n > 0:
			// Bytes outside a receive window are discarded
			if !d.armed.Load() {
				continue
			}
			for _, b := range chunk[:n] {
				d.rx.Put(b)
			}
			d.idle.Byte(now)
		case errors.Is(err, context.DeadlineExceeded):
			// An early wakeup leaves the frame pending for the next wait
			if d.idle.Expired(now) && d.armed.Swap(false) {
				d.link.OnFrame(uint32(d.rx.Len()))
			}
		case err != nil:
			d.idle.Reset()
			d.armed.Store(false)
			d.link.OnError()
		}
	}
}

func (d *UARTDriver) transmitLoop() {
	for data := range d.txq {
		if _, err := d.hw.Write(data); err != nil {
			d.link.OnTransmitError()
			continue
		}
		d.link.OnTransmitComplete()
	}
}
