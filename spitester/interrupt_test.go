package spitester

import (
	"testing"

	"github.com/ms-iot/busses-tester/hal/sim"
	"github.com/ms-iot/busses-tester/protocol"
)

// edgeDriver advances time edge by edge, tracking where the counter sits in
// the current period so scripted latencies come out exact.
type edgeDriver struct {
	ctrl   *sim.Controller
	period uint32
	phase  uint32
}

// ack waits for the tester to arm the next round, lets the given number of
// periods plus latency ticks elapse, then runs one acknowledge window.
func (e *edgeDriver) ack(periods, latency uint32) (protocol.AckReply, bool) {
	e.ctrl.WaitEdgeRearmed()
	e.ctrl.AdvanceTime(periods*e.period - e.phase + latency)
	e.phase = latency
	return e.ctrl.AckWindow()
}

// ackStale runs an acknowledge window without any new edge.
func (e *edgeDriver) ackStale() (protocol.AckReply, bool) {
	e.ctrl.WaitEdgeRearmed()
	return e.ctrl.AckWindow()
}

func TestPeriodicAllAckedOnTime(t *testing.T) {
	r := newRig()

	r.ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: 3,
		DurationSeconds:      1,
	}))
	done := r.dispatch()

	e := &edgeDriver{ctrl: r.ctrl, period: testCoreClockHz / 3}
	for i, lat := range []uint32{150, 250, 90} {
		rep, ok := e.ack(1, lat)
		if !ok {
			t.Fatalf("ack %d: reply failed its checksum", i)
		}
		if rep.TimeSinceFallingEdge != lat {
			t.Errorf("ack %d latency = %d; want %d", i, rep.TimeSinceFallingEdge, lat)
		}
		if i == 0 && !r.dev.ActivityLED() {
			t.Error("activity LED off mid-session")
		}
	}
	r.wait(t, done)

	info := r.periodicInfo(t)
	if info.InterruptCount != 3 || info.AcknowledgedBeforeDeadlineCount != 3 ||
		info.AcknowledgedAfterDeadlineCount != 0 || info.AlreadyAcknowledgedCount != 0 {
		t.Errorf("counts = %+v; want 3 edges all acknowledged on time", info)
	}
	if info.Status != 0 {
		t.Errorf("status = %#x; want clean", info.Status)
	}
	if r.dev.ActivityLED() {
		t.Error("activity LED left on")
	}
	if r.dev.EdgeLineLow() {
		t.Error("interrupt line left asserted")
	}
}

func TestPeriodicLateAckRetiresMissedEdges(t *testing.T) {
	r := newRig()

	r.ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: 4,
		DurationSeconds:      1,
	}))
	done := r.dispatch()

	period := uint32(testCoreClockHz / 4)
	e := &edgeDriver{ctrl: r.ctrl, period: period}

	rep, ok := e.ack(1, 100)
	if !ok || rep.TimeSinceFallingEdge != 100 {
		t.Fatalf("ack 0 = %+v, %t; want latency 100", rep, ok)
	}

	// Sleep through one edge; the next acknowledgement retires both, timed
	// from the older one.
	rep, ok = e.ack(2, 70)
	if !ok || rep.TimeSinceFallingEdge != period+70 {
		t.Fatalf("late ack = %+v, %t; want latency %d", rep, ok, period+70)
	}

	rep, ok = e.ack(1, 55)
	if !ok || rep.TimeSinceFallingEdge != 55 {
		t.Fatalf("final ack = %+v, %t; want latency 55", rep, ok)
	}
	r.wait(t, done)

	info := r.periodicInfo(t)
	if info.InterruptCount != 4 {
		t.Errorf("InterruptCount = %d; want 4", info.InterruptCount)
	}
	if info.AcknowledgedBeforeDeadlineCount != 2 || info.AcknowledgedAfterDeadlineCount != 1 {
		t.Errorf("before/after = %d/%d; want 2/1",
			info.AcknowledgedBeforeDeadlineCount, info.AcknowledgedAfterDeadlineCount)
	}
	if info.Status != 0 {
		t.Errorf("status = %#x; want clean", info.Status)
	}
}

func TestPeriodicDuplicateAckGetsSentinel(t *testing.T) {
	r := newRig()

	r.ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: 2,
		DurationSeconds:      1,
	}))
	done := r.dispatch()

	e := &edgeDriver{ctrl: r.ctrl, period: testCoreClockHz / 2}

	if rep, ok := e.ack(1, 80); !ok || rep.TimeSinceFallingEdge != 80 {
		t.Fatalf("ack 0 = %+v, %t; want latency 80", rep, ok)
	}
	rep, ok := e.ackStale()
	if !ok {
		t.Fatal("stale ack reply failed its checksum")
	}
	if rep.TimeSinceFallingEdge != protocol.InvalidTimeSinceFallingEdge {
		t.Fatalf("stale ack latency = %#x; want invalid sentinel", rep.TimeSinceFallingEdge)
	}
	if rep, ok := e.ack(1, 60); !ok || rep.TimeSinceFallingEdge != 60 {
		t.Fatalf("final ack = %+v, %t; want latency 60", rep, ok)
	}
	r.wait(t, done)

	info := r.periodicInfo(t)
	if info.AlreadyAcknowledgedCount != 1 || info.AcknowledgedBeforeDeadlineCount != 2 {
		t.Errorf("already/before = %d/%d; want 1/2",
			info.AlreadyAcknowledgedCount, info.AcknowledgedBeforeDeadlineCount)
	}
	if info.Status != 0 {
		t.Errorf("status = %#x; want clean", info.Status)
	}
}

func TestPeriodicNotAcknowledgedAborts(t *testing.T) {
	r := newRig()

	r.ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: 3,
		DurationSeconds:      1,
	}))
	done := r.dispatch()

	r.ctrl.WaitEdgeRearmed()
	r.ctrl.AdvanceTime(testCoreClockHz/3 + 10)
	r.ctrl.AssertCS()
	for i := 0; i < protocol.CommandFrameSize; i++ {
		r.ctrl.ClockByte(0)
	}
	r.ctrl.DeassertCS()
	r.wait(t, done)

	info := r.periodicInfo(t)
	if info.Status != protocol.StatusNotAcknowledged {
		t.Errorf("status = %#x; want not-acknowledged", info.Status)
	}
	// An aborted session reports no counts.
	if info.InterruptCount != 0 {
		t.Errorf("InterruptCount = %d; want 0", info.InterruptCount)
	}
	if r.dev.ActivityLED() || r.dev.EdgeLineLow() {
		t.Error("session cleanup incomplete after abort")
	}
}

func TestPeriodicIncompleteReceiveAborts(t *testing.T) {
	r := newRig()

	r.ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: 3,
		DurationSeconds:      1,
	}))
	done := r.dispatch()

	r.ctrl.WaitEdgeRearmed()
	r.ctrl.AdvanceTime(testCoreClockHz/3 + 10)
	// Clock edges without ever completing a word, then drop the window.
	r.ctrl.AssertCS()
	r.ctrl.PulseClock()
	r.ctrl.DeassertCS()
	r.wait(t, done)

	info := r.periodicInfo(t)
	if info.Status != protocol.StatusIncompleteReceive {
		t.Errorf("status = %#x; want incomplete-receive", info.Status)
	}
	if info.InterruptCount != 0 {
		t.Errorf("InterruptCount = %d; want 0", info.InterruptCount)
	}
}

func TestPeriodicIncompleteTransmitStillCompletes(t *testing.T) {
	r := newRig()

	r.ctrl.SendCommand(protocol.EncodePeriodic(protocol.PeriodicRequest{
		InterruptFrequencyHz: 1,
		DurationSeconds:      1,
	}))
	done := r.dispatch()

	r.ctrl.WaitEdgeRearmed()
	r.ctrl.AdvanceTime(testCoreClockHz + 20)

	// Deliver a valid acknowledge command but cut the window before the
	// reply can stream out.
	cmd := protocol.EncodeCommand(protocol.AcknowledgeInterrupt)
	r.ctrl.AssertCS()
	for i := 0; i < 4; i++ {
		r.ctrl.ClockByte(cmd[i])
	}
	r.ctrl.DeassertCS()
	r.wait(t, done)

	info := r.periodicInfo(t)
	if info.Status != protocol.StatusIncompleteTransmit {
		t.Errorf("status = %#x; want incomplete-transmit", info.Status)
	}
	// The acknowledgement itself was graded and the session ran to its end.
	if info.InterruptCount != 1 || info.AcknowledgedBeforeDeadlineCount != 1 {
		t.Errorf("counts = %+v; want 1 edge acknowledged", info)
	}
}

func TestPeriodicRefusesDegenerateRequests(t *testing.T) {
	tests := []struct {
		name string
		req  protocol.PeriodicRequest
	}{
		{"zero frequency", protocol.PeriodicRequest{InterruptFrequencyHz: 0, DurationSeconds: 1}},
		{"period under one tick", protocol.PeriodicRequest{InterruptFrequencyHz: 2 * testCoreClockHz, DurationSeconds: 1}},
		{"zero duration", protocol.PeriodicRequest{InterruptFrequencyHz: 1000, DurationSeconds: 0}},
		{"count overflow", protocol.PeriodicRequest{InterruptFrequencyHz: 0x0200_0000, DurationSeconds: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig()
			r.ctrl.SendCommand(protocol.EncodePeriodic(tt.req))
			r.tr.Poll()

			info := r.periodicInfo(t)
			if info.Status != protocol.StatusArithmeticOverflow {
				t.Errorf("status = %#x; want arithmetic-overflow", info.Status)
			}
			if info.InterruptCount != 0 {
				t.Errorf("InterruptCount = %d; want 0", info.InterruptCount)
			}
		})
	}
}
