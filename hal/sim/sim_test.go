package sim

import (
	"testing"

	"tinygo.org/x/drivers"

	"github.com/ms-iot/busses-tester/hal"
)

func TestLinkFifoDepthAndStatus(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)

	if s := d.LinkStatus(); !s.TxEmpty() || !s.TxNotFull() || s.RxNotEmpty() {
		t.Fatalf("idle status = %08b; want tx empty, tx not full, rx empty", s)
	}

	for i := 0; i < hal.LinkFifoDepth+2; i++ {
		d.WriteLink(uint16(i))
	}
	if n := d.txQueueLen(); n != hal.LinkFifoDepth {
		t.Fatalf("tx queue after overfill = %d; want %d", n, hal.LinkFifoDepth)
	}
	if s := d.LinkStatus(); s.TxEmpty() || s.TxNotFull() {
		t.Fatalf("full status = %08b; want tx not empty and tx full", s)
	}

	c := NewController(d)
	c.AssertCS()
	for i := 0; i < hal.LinkFifoDepth; i++ {
		if got := c.ClockWord(0xAA); got != uint16(i) {
			t.Fatalf("word %d = %#x; want %#x", i, got, i)
		}
	}
	c.DeassertCS()

	if got := d.ReadLink(); got != 0xAA {
		t.Fatalf("first received word = %#x; want 0xAA", got)
	}
	if n := d.rxQueueLen(); n != hal.LinkFifoDepth-1 {
		t.Fatalf("rx queue = %d; want %d", n, hal.LinkFifoDepth-1)
	}
}

func TestWordWidthMasksBothDirections(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	d.ConfigureLink(hal.LinkConfig{ClockIdleHigh: true, SampleSecondEdge: true, WordBits: 12})

	d.WriteLink(0xFFFF)
	c := NewController(d)
	if got := c.ClockWord(0xFFFF); got != 0x0FFF {
		t.Fatalf("outbound word = %#x; want 0x0FFF", got)
	}
	if got := d.ReadLink(); got != 0x0FFF {
		t.Fatalf("inbound word = %#x; want 0x0FFF", got)
	}
}

func TestCaptureLatchesLastEdgeAndStops(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	c := NewController(d)

	d.ResetCounter()
	d.ArmCapture(1000)
	d.StartCounter()

	c.AdvanceTime(40)
	c.ClockWord(0)
	if got := d.ReadCapture(); got != 40 {
		t.Fatalf("capture after first edge = %d; want 40", got)
	}

	c.AdvanceTime(25)
	c.ClockWord(0)
	if got := d.ReadCapture(); got != 65 {
		t.Fatalf("capture after second edge = %d; want 65", got)
	}

	c.AdvanceTime(5000)
	if d.CounterRunning() {
		t.Fatal("counter still running past its stop value")
	}
	if got := d.CounterNow(); got != 1000 {
		t.Fatalf("counter = %d; want clamped at 1000", got)
	}
	if got := d.ReadCapture(); got != 65 {
		t.Fatalf("capture after stop = %d; want 65", got)
	}
}

func TestResetClearsStaleCapture(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	c := NewController(d)

	d.ResetCounter()
	d.ArmCapture(1000)
	d.StartCounter()
	c.AdvanceTime(77)
	c.ClockWord(0)

	d.ResetCounter()
	if got := d.ReadCapture(); got != 0 {
		t.Fatalf("capture after reset = %d; want 0", got)
	}
}

func TestPeriodicMatchResetsCounterAndFires(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	c := NewController(d)

	fired := 0
	d.SetTimerHandler(func() { fired++ })
	d.EnableTimerInterrupt()
	d.AttachEdgeOutput()

	d.ResetCounter()
	d.ArmPeriodicMatch(100)
	d.StartCounter()

	c.AdvanceTime(250)
	if fired != 2 {
		t.Fatalf("handler fired %d times; want 2", fired)
	}
	if got := d.CounterNow(); got != 50 {
		t.Fatalf("counter = %d; want 50", got)
	}
	if !d.EdgeLineLow() {
		t.Fatal("interrupt line not asserted after a match")
	}

	d.DeassertEdgeOutput()
	if d.EdgeLineLow() {
		t.Fatal("interrupt line still low after deassert")
	}
}

func TestMaskedMatchPendsOneDeep(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	c := NewController(d)

	fired := 0
	d.SetTimerHandler(func() { fired++ })
	d.EnableTimerInterrupt()
	d.ResetCounter()
	d.ArmPeriodicMatch(100)
	d.StartCounter()

	restore := d.MaskInterrupts()
	c.AdvanceTime(350)
	if fired != 0 {
		t.Fatalf("handler fired %d times under mask; want 0", fired)
	}
	restore()
	if fired != 1 {
		t.Fatalf("handler fired %d times after unmask; want 1 pended event", fired)
	}
}

func TestStopMatchEventsRestartsCounter(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	c := NewController(d)

	remaining := 3
	d.SetTimerHandler(func() {
		remaining--
		if remaining == 0 {
			d.StopMatchEvents()
		}
	})
	d.EnableTimerInterrupt()
	d.ResetCounter()
	d.ArmPeriodicMatch(100)
	d.StartCounter()

	c.AdvanceTime(10_000)
	if remaining != 0 {
		t.Fatalf("remaining = %d; want 0", remaining)
	}
	if !d.CounterRunning() {
		t.Fatal("counter stopped; want free running after the final match")
	}
	// 3 periods consumed 300 ticks, the rest ran free from zero.
	if got := d.CounterNow(); got != 10_000-300 {
		t.Fatalf("counter = %d; want %d", got, 10_000-300)
	}
}

func TestEdgeWatchLatchesUntilCleared(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	c := NewController(d)

	c.ClockWord(0)
	if d.EdgeDetected() {
		t.Fatal("edge detected while watch disabled")
	}

	d.EnableEdgeDetect()
	c.ClockWord(0)
	if !d.EdgeDetected() {
		t.Fatal("edge not detected")
	}
	c.AdvanceTime(1)
	if !d.EdgeDetected() {
		t.Fatal("edge flag did not latch")
	}
	d.ClearEdgeDetect()
	if d.EdgeDetected() {
		t.Fatal("edge flag survived a clear")
	}
}

func TestControllerImplementsSPIBus(t *testing.T) {
	d := NewDevice(96_000_000, 96_000_000)
	var link drivers.SPI = NewController(d)

	for i := 0; i < 4; i++ {
		d.WriteLink(uint16(0x10 + i))
	}
	w := []byte{1, 2, 3, 4}
	r := make([]byte, 4)
	if err := link.Tx(w, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	for i := range r {
		if r[i] != byte(0x10+i) {
			t.Fatalf("r[%d] = %#x; want %#x", i, r[i], 0x10+i)
		}
	}
	if d.ChipSelectAsserted() {
		t.Fatal("chip select left asserted after Tx")
	}
	for i := range w {
		if got := d.ReadLink(); got != uint16(w[i]) {
			t.Fatalf("device received %#x at %d; want %#x", got, i, w[i])
		}
	}

	d.WriteLink(0x7E)
	got, err := link.Transfer(0x55)
	if err != nil || got != 0x7E {
		t.Fatalf("Transfer = %#x, %v; want 0x7E, nil", got, err)
	}
}
