// Command simtester: scripted conformance session against the simulated device.
//
// Run:
//   go run ./cmd/simtester
//
// The simulator stands in for the LPC1768 wiring: a virtual controller drives
// select, clock and data, advances virtual time, and watches the interrupt
// line, while the tester runs unmodified on top of the simulated device. The
// script walks the whole command set and prints the reports it reads back.

package main

import (
	"fmt"
	"os"

	"github.com/ms-iot/busses-tester/hal/sim"
	"github.com/ms-iot/busses-tester/protocol"
	"github.com/ms-iot/busses-tester/spitester"
	"github.com/ms-iot/busses-tester/x/crc16"
	"github.com/ms-iot/busses-tester/x/dbg"
)

const (
	coreClockHz = 96_000_000
	linkClockHz = 96_000_000
)

func main() {
	fmt.Println("== simtester: SPI compliance session against the simulated device ==")
	dbg.SetOutput(os.Stdout)

	dev := sim.NewDevice(coreClockHz, linkClockHz)
	ctrl := sim.NewController(dev)
	tester := spitester.New(dev)
	tester.Init()
	s := session{ctrl: ctrl, tr: tester}

	// ---- Device identity ----

	info, ok := protocol.DecodeDeviceInfo(s.collect(protocol.GetDeviceInfo, protocol.DeviceInfoFrameSize))
	if !ok {
		fail("device info frame failed verification")
	}
	fmt.Printf("device %#x version %d: clock up to %d Hz, measured at %d Hz, %d..%d bit words\n",
		info.DeviceID, info.Version, info.MaxFrequencyHz,
		info.ClockMeasurementFrequencyHz, info.MinDataBitLength, info.MaxDataBitLength)

	// ---- Transfer capture ----

	req := protocol.CaptureRequest{
		DataBitLength: 8,
		Mode:          protocol.Mode3,
		SendValue:     0x20,
		ReceiveValue:  0x40,
	}
	fmt.Printf("capturing a 16-word exchange: mode %d, %d-bit, send from %#x, expect from %#x\n",
		req.Mode, req.DataBitLength, req.SendValue, req.ReceiveValue)

	ctrl.SendCommand(protocol.EncodeCapture(req))
	done := s.dispatch()
	ctrl.WaitTransmitRefilled()
	ctrl.AssertCS()
	ctrl.WaitCounterRunning()

	var sent []byte
	for i := 0; i < 16; i++ {
		ctrl.AdvanceTime(40)
		w := uint16(0x20 + i)
		sent = append(sent, byte(w))
		got := ctrl.ExchangeWords([]uint16{w})
		if got[0] != uint16(0x40+i) {
			fail("echo word %d = %#x; want %#x", i, got[0], 0x40+i)
		}
		ctrl.WaitTransmitRefilled()
	}
	ctrl.DeassertCS()
	<-done

	tr, ok := protocol.DecodeTransferInfo(s.collect(protocol.GetTransferInfo, protocol.TransferInfoFrameSize))
	if !ok {
		fail("transfer info frame failed verification")
	}
	fmt.Printf("capture report: %d words, clock active for %d ticks (status %d), checksum %#x\n",
		tr.ElementCount, tr.ClockActiveTime, tr.ClockActiveTimeStatus, tr.Checksum)
	if tr.MismatchIndex == tr.ElementCount {
		fmt.Println("every word the tester received matched the expected pattern")
	} else {
		fail("tester saw a mismatch at word %d", tr.MismatchIndex)
	}
	if want := uint32(crc16.Checksum(sent)); tr.Checksum != want {
		fail("checksum mismatch: report %#x, wire %#x", tr.Checksum, want)
	}

	// ---- Periodic interrupts ----

	const freq = 4
	fmt.Printf("periodic experiment: %d interrupts/s for 1 s of virtual time\n", freq)
	ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: freq,
		DurationSeconds:      1,
	}))
	done = s.dispatch()

	p := &edgePacer{ctrl: ctrl, period: coreClockHz / freq}
	steps := []struct {
		periods, latency uint32
		stale            bool
		note             string
	}{
		{periods: 1, latency: 120, note: "prompt acknowledgement"},
		{periods: 2, latency: 64, note: "acknowledgement one edge late"},
		{stale: true, note: "duplicate acknowledgement"},
		{periods: 1, latency: 48, note: "prompt acknowledgement"},
	}
	for _, st := range steps {
		var rep protocol.AckReply
		var ok bool
		if st.stale {
			rep, ok = p.ackStale()
		} else {
			rep, ok = p.ack(st.periods, st.latency)
		}
		if !ok {
			fail("acknowledgement reply failed its checksum")
		}
		if rep.TimeSinceFallingEdge == protocol.InvalidTimeSinceFallingEdge {
			fmt.Printf("  %s: no edge was pending\n", st.note)
		} else {
			fmt.Printf("  %s: replied %d ticks after the edge\n", st.note, rep.TimeSinceFallingEdge)
		}
	}
	<-done

	pi, ok := protocol.DecodePeriodicInterruptInfo(s.collect(protocol.GetPeriodicInterruptInfo, protocol.PeriodicInterruptInfoFrameSize))
	if !ok {
		fail("periodic info frame failed verification")
	}
	fmt.Printf("periodic report: %d interrupts, %d acknowledged before the next edge, %d after, %d duplicates (status %d)\n",
		pi.InterruptCount, pi.AcknowledgedBeforeDeadlineCount,
		pi.AcknowledgedAfterDeadlineCount, pi.AlreadyAcknowledgedCount, pi.Status)

	fmt.Println("== session complete ==")
}

func fail(format string, a ...any) {
	fmt.Printf("FAIL: "+format+"\n", a...)
	os.Exit(1)
}

type session struct {
	ctrl *sim.Controller
	tr   *spitester.Tester
}

// dispatch runs one Poll on its own goroutine so main can play the controller
// side of the exchange concurrently.
func (s *session) dispatch() chan struct{} {
	done := make(chan struct{})
	go func() {
		s.tr.Poll()
		close(done)
	}()
	return done
}

// collect asks for one framed response and returns its payload bytes.
func (s *session) collect(cmd protocol.Command, size int) []byte {
	s.ctrl.SendCommand(protocol.EncodeCommand(cmd))
	done := s.dispatch()
	frame := s.ctrl.CollectFrame(size)
	<-done
	return frame
}

// edgePacer walks virtual time edge by edge. The counter restarts on every
// match, so the pacer carries the phase the previous acknowledgement left the
// counter at.
type edgePacer struct {
	ctrl   *sim.Controller
	period uint32
	phase  uint32
}

func (p *edgePacer) ack(periods, latency uint32) (protocol.AckReply, bool) {
	p.ctrl.WaitEdgeRearmed()
	p.ctrl.AdvanceTime(periods*p.period - p.phase + latency)
	p.phase = latency
	return p.ctrl.AckWindow()
}

func (p *edgePacer) ackStale() (protocol.AckReply, bool) {
	p.ctrl.WaitEdgeRearmed()
	return p.ctrl.AckWindow()
}
