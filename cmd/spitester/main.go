//go:build lpc1768

// Command spitester: SPI slave compliance tester firmware for the mbed LPC1768.
//
// Build/flash (TinyGo):
//   tinygo flash -target=lpc1768 ./cmd/spitester
//
// Wiring assumptions (the controller under test drives the left column):
// - SCK0  = P0.15, also jumpered to CAP2.0 = P0.4 for clock-time capture.
// - SSEL0 = P0.16 (active-low select).
// - MISO0 = P0.17, MOSI0 = P0.18.
// - Interrupt line to the controller: MAT2.0 = P0.6 (active-low).
// - Activity LED on P1.18 (LED1 on the mbed board).

package main

import (
	"github.com/ms-iot/busses-tester/config"
	"github.com/ms-iot/busses-tester/hal/lpc17xx"
	"github.com/ms-iot/busses-tester/spitester"
	"github.com/ms-iot/busses-tester/x/dbg"
)

const board = "mbed-lpc1768"

func main() {
	profile, err := config.Load(board)
	if err != nil {
		// Broken embedded profile: report at the default rate and park.
		dbg.SetOutput(lpc17xx.DebugWriter(115200))
		dbg.Printf("spitester: %s\n", err.Error())
		for {
		}
	}

	dbg.SetOutput(lpc17xx.DebugWriter(profile.DebugBaud))
	dbg.Printf("\n== spitester: SPI slave compliance tester (%s) ==\n", profile.Board)

	dev := lpc17xx.Setup(profile)

	tester := spitester.New(dev)
	tester.LimitClockRate(profile.MaxClockRateHz)
	tester.Init()

	for {
		tester.Poll()
	}
}
