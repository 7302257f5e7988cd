//go:build rp2040

package main

import (
	_ "embed"
	"hexcore/config"
	"hexcore/core"
	"machine"
	"time"
)

//go:embed board.json
var boardJSON []byte

// watchdogMS bounds one main loop iteration
const watchdogMS = 500

var (
	// Debug counters
	loopErrors uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitClock()
	core.SetDebugWriter(func(s string) { println(s) })
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	cfg, err := config.LoadConfig(boardJSON)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		halt("config: " + err.Error())
	}

	b, err := setupBoard(cfg)
	if err != nil {
		halt("setup: " + err.Error())
	}

	err = machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogMS})
	if err == nil {
		err = machine.Watchdog.Start()
	}
	if err != nil {
		core.DebugAsync("watchdog: " + err.Error())
	}

	// Main loop
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
					b.mon.SetError(core.ErrorInternal)
					core.DumpTimingRing()
				}
			}()

			UpdateSystemTime()
			b.poll()
		}()

		machine.Watchdog.Update()

		// Yield to the link goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// resetBoard runs after the reply to a reset command has been sent
func resetBoard() {
	// Use watchdog reset instead of ARM SYSRESETREQ
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	if err != nil {
		return
	}
	err = machine.Watchdog.Start()
	if err != nil {
		return
	}
	// Wait for reset (should happen in ~1ms)
	for {
		time.Sleep(1 * time.Millisecond)
	}
}

// halt reports a fatal setup error forever; the outputs are never started
func halt(msg string) {
	for {
		println("hexcore:", msg)
		time.Sleep(time.Second)
	}
}
