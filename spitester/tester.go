// Package spitester implements the bus-slave compliance tester: a polled
// command plane answering framed status responses, a transfer-capture engine
// that validates one full-duplex exchange while timing the wire clock, and a
// periodic-interrupt experiment that grades how quickly the external
// controller acknowledges each edge.
//
// Everything the package touches goes through hal.Device, so the same
// engines run against the in-memory simulator in tests and against the real
// peripheral block in firmware.
package spitester

import (
	"sync/atomic"

	"github.com/ms-iot/busses-tester/hal"
	"github.com/ms-iot/busses-tester/protocol"
	"github.com/ms-iot/busses-tester/x/dbg"
	"github.com/ms-iot/busses-tester/x/mathx"
)

// maxLinkFrequencyHz caps the advertised wire clock; the slave port needs
// twelve peripheral clocks per bit to keep its FIFOs fed.
const maxLinkFrequencyHz = 5_000_000

// Tester is the device-side state machine. Create one with New, call Init
// once the hardware is up, then call Poll from the main loop.
type Tester struct {
	dev      hal.Device
	clockCap uint32
	info     protocol.DeviceInfo

	lastTransfer protocol.TransferInfo
	lastPeriodic protocol.PeriodicInterruptInfo

	remaining atomic.Uint32
}

func New(dev hal.Device) *Tester {
	return &Tester{dev: dev, clockCap: maxLinkFrequencyHz}
}

// LimitClockRate lowers the advertised clock rate below the sampling limit,
// for boards whose wiring cannot sustain it. Call before Init; zero is
// ignored.
func (t *Tester) LimitClockRate(hz uint32) {
	if hz != 0 && hz < t.clockCap {
		t.clockCap = hz
	}
}

// Init computes the capability descriptor, installs the timer match handler
// and puts the link into the 8-bit command configuration.
func (t *Tester) Init() {
	linkClk := t.dev.LinkClockHz()
	t.info = protocol.DeviceInfo{
		DeviceID:                    protocol.DeviceID,
		Version:                     protocol.Version,
		MaxFrequencyHz:              mathx.Min(t.clockCap, linkClk/12),
		ClockMeasurementFrequencyHz: t.dev.CoreClockHz(),
		MinDataBitLength:            protocol.MinDataBitLength,
		MaxDataBitLength:            protocol.MaxDataBitLength,
	}
	t.lastTransfer = protocol.TransferInfo{}
	t.lastPeriodic = protocol.PeriodicInterruptInfo{}

	t.dev.SetTimerHandler(t.onTimerMatch)
	t.dev.ConfigureLink(idleLinkConfig)

	dbg.Printf("link clock = %d, maximum clock rate = %d\n", linkClk, t.info.MaxFrequencyHz)
}

// DeviceInfo returns the descriptor computed by Init.
func (t *Tester) DeviceInfo() protocol.DeviceInfo { return t.info }

// Poll runs one iteration of the command loop. If no complete command frame
// is waiting it returns immediately; a capture or periodic command runs its
// whole session before Poll returns.
func (t *Tester) Poll() {
	var frame protocol.CommandFrame
	if !t.receiveCommand(&frame) {
		return
	}
	switch frame.Command() {
	case protocol.GetDeviceInfo:
		buf := t.info.Encode()
		t.send(buf[:])
	case protocol.CaptureNextTransfer:
		t.lastTransfer = t.captureTransfer(frame.CaptureRequest())
	case protocol.GetTransferInfo:
		buf := t.lastTransfer.Encode()
		t.send(buf[:])
	case protocol.StartPeriodicInterrupts:
		t.lastPeriodic = t.runPeriodicInterrupts(frame.PeriodicRequest())
	case protocol.GetPeriodicInterruptInfo:
		buf := t.lastPeriodic.Encode()
		t.send(buf[:])
	default:
		// invalid command, ignore
	}
}

// onTimerMatch answers each period match. On the final edge the match
// circuit is silenced but the counter keeps running, so the last
// acknowledgement can still be timed.
func (t *Tester) onTimerMatch() {
	if t.remaining.Add(^uint32(0)) == 0 {
		t.dev.StopMatchEvents()
	}
}
