//go:build lpc1768

// Package lpc17xx binds hal.Device to the LPC176x silicon: SSP0 as the slave
// serial port, TIMER2 for clock capture and edge generation, and the port-0
// GPIO interrupt block for wire-clock edge detection. Register addresses and
// programming sequences follow UM10360.
package lpc17xx

import (
	"github.com/ms-iot/busses-tester/config"
	"github.com/ms-iot/busses-tester/hal"
)

var _ hal.Device = (*Device)(nil)

// cclkHz is the core clock the mbed bootloader leaves us with. SSP0 and
// TIMER2 both run their peripheral clocks at CCLK/1.
const cclkHz = 96_000_000

// Device is the register-level hal.Device. Construct it with Setup.
type Device struct {
	ledMask uint32
}

// Setup powers, clocks and muxes everything the tester needs and returns the
// bound device. Call once before Tester.Init.
func Setup(p config.Profile) *Device {
	d := &Device{ledMask: 1 << p.ActivityLEDPin}

	pconp.SetBits(pconpSSP0 | pconpTimer2)
	setClockDiv(pclksel1, 10, 0x1) // SSP0 at CCLK/1
	setClockDiv(pclksel1, 12, 0x1) // TIMER2 at CCLK/1

	muxPin(&pincon.PINSEL0, sckPin, 0x2)
	muxPin(&pincon.PINSEL1, csPin, 0x2)
	muxPin(&pincon.PINSEL1, misoPin, 0x2)
	muxPin(&pincon.PINSEL1, mosiPin, 0x2)
	muxPin(&pincon.PINSEL0, capPin, 0x3)

	// Slave port: interrupts off, fastest sampling the block allows.
	ssp0.IMSC.Set(0)
	ssp0.CPSR.Set(2)

	// Measurement timer: clear, stopped, counting every peripheral tick.
	tim2.TCR.Set(tcrReset)
	tim2.TCR.Set(0)
	tim2.PR.Set(0)
	tim2.EMR.SetBits(emrOutputHigh)

	// The edge pin parks as a high GPIO output until a session attaches it
	// to the match unit.
	fio0.SET.Set(1 << edgePin)
	fio0.DIR.SetBits(1 << edgePin)

	fio1.CLR.Set(d.ledMask)
	fio1.DIR.SetBits(d.ledMask)

	return d
}

// ---- hal.Pins ----

// AttachEdgeOutput hands the edge pin to the timer's match output.
func (d *Device) AttachEdgeOutput() {
	muxPin(&pincon.PINSEL0, edgePin, 0x3)
}

// DetachEdgeOutput forces the match output high and parks the pin back as a
// plain GPIO output, which Setup left driven high.
func (d *Device) DetachEdgeOutput() {
	tim2.EMR.Set(emrOutputHigh)
	muxPin(&pincon.PINSEL0, edgePin, 0x0)
}

func (d *Device) SetActivityLED(on bool) {
	if on {
		fio1.SET.Set(d.ledMask)
	} else {
		fio1.CLR.Set(d.ledMask)
	}
}

// ---- hal.Board ----

func (d *Device) CoreClockHz() uint32 { return cclkHz }
func (d *Device) LinkClockHz() uint32 { return cclkHz }
