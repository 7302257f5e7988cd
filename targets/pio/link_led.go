//go:build rp2040

package pio

// Link health LED driven by a PIO state machine, so blinking costs the CPU
// one FIFO write per blink train.

import (
	"hexcore/core"
	"machine"
	"sync/atomic"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO program for LED blinks
// Command word: number of blinks minus one
//
// Program flow:
//  1. Pull 32-bit command from FIFO
//  2. Move blink count into X register
//  3. Pin high for 64 cycles, low for 64 cycles
//  4. Repeat X more times
//
// buildBlinkProgram creates the blink PIO program using AssemblerV0
func buildBlinkProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),        // 0: pull block
		asm.Out(rp2pio.OutDestX, 32).Encode(), // 1: out x, 32 (blinks - 1)
		// blink:
		asm.Set(rp2pio.SetDestPins, 1).Delay(31).Encode(), // 2: set pins, 1 [31]
		asm.Jmp(4, rp2pio.JmpAlways).Delay(31).Encode(),   // 3: jmp 4 [31]
		asm.Set(rp2pio.SetDestPins, 0).Delay(31).Encode(), // 4: set pins, 0 [31]
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Delay(31).Encode(), // 5: jmp x--, 2 [31]
		// .wrap
	}
}

const blinkPIOOrigin = -1 // Relocatable, jumps are patched on load

// blinkClkDiv slows the state machine so one blink lasts about 67 ms
const blinkClkDiv = 65535

// LinkLED implements core.LinkWatcher. While the link is lost the LED
// blinks continuously; a restored link gets one short train of three.
type LinkLED struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
	lost   atomic.Bool
}

var _ core.LinkWatcher = (*LinkLED)(nil)

// NewLinkLED claims a state machine and loads the blink program
func NewLinkLED(pin core.GPIOPin) (*LinkLED, error) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, ErrNoStateMachine
	}

	l := &LinkLED{
		pio: pioBlock(pioNum),
		pin: machine.Pin(pin),
	}
	l.sm = l.pio.StateMachine(smNum)
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LinkLED) init() error {
	// Claim the state machine first
	l.sm.TryClaim()

	program := buildBlinkProgram()
	offset, err := l.pio.AddProgram(program, blinkPIOOrigin)
	if err != nil {
		return err
	}
	l.offset = offset

	l.pin.Configure(machine.PinConfig{Mode: l.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(l.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(blinkClkDiv, 0)

	// Initialize state machine before pin directions
	l.sm.Init(offset, cfg)
	l.sm.SetPindirsConsecutive(l.pin, 1, true)
	l.sm.SetPinsConsecutive(l.pin, 1, false)
	l.sm.SetEnabled(true)

	return nil
}

// Blink queues n blinks; it never waits for FIFO space
func (l *LinkLED) Blink(n uint32) bool {
	if n == 0 || l.sm.IsTxFIFOFull() {
		return false
	}
	l.sm.TxPut(n - 1)
	return true
}

// LinkLost keeps one blink queued
func (l *LinkLED) LinkLost() {
	l.lost.Store(true)
	if l.sm.IsTxFIFOEmpty() {
		l.Blink(1)
	}
}

// LinkRestored signals the first good poll after an outage
func (l *LinkLED) LinkRestored() {
	if l.lost.Swap(false) {
		l.Blink(3)
	}
}
