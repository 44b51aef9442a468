package spitester

import (
	"github.com/ms-iot/busses-tester/hal"
	"github.com/ms-iot/busses-tester/protocol"
	"github.com/ms-iot/busses-tester/x/dbg"
)

// An acknowledge exchange clocks one command frame against the preloaded
// dummy words, so the frame must fit the FIFO exactly.
const _ uint = protocol.CommandFrameSize - hal.LinkFifoDepth
const _ uint = hal.LinkFifoDepth - protocol.CommandFrameSize

// periodicSession carries one experiment's bookkeeping across
// acknowledgement rounds.
type periodicSession struct {
	t      *Tester
	period uint32

	lastAcked      uint32
	beforeDeadline uint32
	afterDeadline  uint32
	alreadyAcked   uint32

	status protocol.SessionStatus
}

// runPeriodicInterrupts drives one periodic-interrupt experiment: the timer
// drops the interrupt line every period, the controller answers each edge
// with an acknowledge exchange, and every acknowledgement is graded against
// the one-period deadline.
func (t *Tester) runPeriodicInterrupts(req protocol.PeriodicRequest) protocol.PeriodicInterruptInfo {
	dbg.Printf("entering periodic interrupt mode\n")

	var info protocol.PeriodicInterruptInfo
	d := t.dev

	// Refuse degenerate requests before touching the timer.
	if req.InterruptFrequencyHz == 0 {
		info.Status |= protocol.StatusArithmeticOverflow
		return info
	}
	period := t.info.ClockMeasurementFrequencyHz / req.InterruptFrequencyHz
	count, ok := req.InterruptCount()
	if period == 0 || !ok || count == 0 {
		dbg.Printf(
			"unusable interrupt parameters (duration=%d, frequency=%d)\n",
			req.DurationSeconds, req.InterruptFrequencyHz)
		info.Status |= protocol.StatusArithmeticOverflow
		return info
	}

	t.remaining.Store(count)

	d.ResetCounter()
	d.ArmPeriodicMatch(period)
	d.AttachEdgeOutput()
	d.EnableTimerInterrupt()
	d.StartCounter()

	s := periodicSession{t: t, period: period, lastAcked: count}

	d.EnableEdgeDetect()
	d.SetActivityLED(true)
	defer func() {
		d.DisableEdgeDetect()
		d.ResetCounter()
		d.DisableTimerInterrupt()
		d.DeassertEdgeOutput()
		d.DetachEdgeOutput()
		d.SetActivityLED(false)
	}()

	for t.remaining.Load() != 0 {
		if !s.ackRound() {
			info.Status = s.status
			return info
		}
	}

	info.InterruptCount = count
	info.AcknowledgedBeforeDeadlineCount = s.beforeDeadline
	info.AcknowledgedAfterDeadlineCount = s.afterDeadline
	info.AlreadyAcknowledgedCount = s.alreadyAcked
	info.Status = s.status
	dbg.Printf(
		"leaving periodic interrupt mode (before=%d, after=%d, already=%d, count=%d)\n",
		s.beforeDeadline, s.afterDeadline, s.alreadyAcked, count)
	return info
}

// ackRound handles one falling edge: preload, wait for the controller's
// exchange, grade the acknowledgement and stream the reply. It reports
// whether the session continues.
func (s *periodicSession) ackRound() bool {
	t := s.t
	d := t.dev

	// Drain the receive FIFO and queue dummy words for the command half of
	// the next exchange.
	for i := 0; i < hal.LinkFifoDepth; i++ {
		d.WriteLink(0)
		d.ReadLink()
	}

	dbg.Printf("waiting for wire clock (rx pending = %t)\n", d.LinkStatus().RxNotEmpty())

	// While this waits, the match fires, the interrupt line drops and the
	// handler advances the edge count.
	t.waitClockFallingEdge()
	capture := d.CounterNow()
	d.DeassertEdgeOutput()

	restore := d.MaskInterrupts()
	defer restore()

	for !d.LinkStatus().RxNotEmpty() {
		if !d.ChipSelectAsserted() {
			s.status |= protocol.StatusIncompleteReceive
			return false
		}
	}
	if cmd := protocol.Command(d.ReadLink()); cmd != protocol.AcknowledgeInterrupt {
		s.status |= protocol.StatusNotAcknowledged
		t.waitChipSelectDeassert()
		return false
	}

	// Edges acknowledged in time differ by exactly one; a duplicate ack
	// differs by zero, a late one by how many deadlines have passed.
	difference := int32(s.lastAcked - t.remaining.Load())
	var reply protocol.AckReply
	switch {
	case difference < 0:
		s.status |= protocol.StatusArithmeticOverflow
		return false
	case difference == 0:
		s.alreadyAcked++
		reply = protocol.MakeAckReply(protocol.InvalidTimeSinceFallingEdge)
	case difference == 1:
		s.beforeDeadline++
		reply = protocol.MakeAckReply(capture)
	default:
		s.afterDeadline++
		reply = protocol.MakeAckReply(uint32(difference-1)*s.period + capture)
	}
	s.lastAcked -= uint32(difference)

	buf := reply.Encode()
	for i := 0; i < len(buf); {
		status := d.LinkStatus()
		if status.TxEmpty() {
			s.status |= protocol.StatusTransmitUnderrun
			break
		}
		if status.TxNotFull() {
			d.WriteLink(uint16(buf[i]))
			i++
		}
		if !d.ChipSelectAsserted() {
			s.status |= protocol.StatusIncompleteTransmit
			break
		}
	}

	t.waitChipSelectDeassert()
	return true
}

// waitClockFallingEdge arms the edge watch and spins until the controller
// produces a falling wire-clock edge.
func (t *Tester) waitClockFallingEdge() {
	t.dev.ClearEdgeDetect()
	for !t.dev.EdgeDetected() {
	}
}
