// Package sim implements the tester's hardware in memory with a virtual
// measurement clock, so every timing-sensitive test is deterministic. The
// Device side implements hal.Device for the core; the Controller side plays
// the external bus master, scripting chip-select windows, word clocks and
// explicit time advancement.
//
// Time never passes on its own. The controller advances the virtual clock,
// and match crossings fire the installed timer handler on the controller's
// goroutine (or pend, one deep, while the core holds the interrupt mask),
// which mirrors how the interrupt controller treats a masked match event.
package sim

import (
	"runtime"
	"sync"

	"github.com/ms-iot/busses-tester/hal"
)

var _ hal.Device = (*Device)(nil)

// Device is the simulated hardware. All state is guarded by one mutex; the
// polled accessors yield the processor after each read so the core's
// busy-wait loops cannot starve the controller goroutine.
type Device struct {
	mu sync.Mutex

	coreClockHz uint32
	linkClockHz uint32

	cfg hal.LinkConfig
	cs  bool
	txq []uint16
	rxq []uint16

	counter    uint32
	running    bool
	capArmed   bool
	capVal     uint32
	stopAt     uint32
	matchArmed bool
	period     uint32
	edgeOutLow bool

	edgeWatch   bool
	edgePending bool
	edgeClears  uint32

	handler    func()
	timerIRQOn bool
	masked     bool
	irqPending bool

	edgeOutAttached bool
	led             bool
}

func NewDevice(coreClockHz, linkClockHz uint32) *Device {
	return &Device{
		coreClockHz: coreClockHz,
		linkClockHz: linkClockHz,
		cfg:         hal.LinkConfig{ClockIdleHigh: true, SampleSecondEdge: true, WordBits: 8},
	}
}

func (d *Device) wordMaskLocked() uint16 {
	return uint16(uint32(1)<<d.cfg.WordBits - 1)
}

// ---- hal.Link ----

func (d *Device) LinkStatus() hal.LinkStatus {
	d.mu.Lock()
	var s hal.LinkStatus
	if len(d.txq) == 0 {
		s |= hal.LinkTxEmpty
	}
	if len(d.txq) < hal.LinkFifoDepth {
		s |= hal.LinkTxNotFull
	}
	if len(d.rxq) > 0 {
		s |= hal.LinkRxNotEmpty
	}
	d.mu.Unlock()
	runtime.Gosched()
	return s
}

func (d *Device) WriteLink(v uint16) {
	d.mu.Lock()
	if len(d.txq) < hal.LinkFifoDepth {
		d.txq = append(d.txq, v&d.wordMaskLocked())
	}
	d.mu.Unlock()
}

func (d *Device) ReadLink() uint16 {
	d.mu.Lock()
	var v uint16
	if len(d.rxq) > 0 {
		v = d.rxq[0]
		d.rxq = d.rxq[1:]
	}
	d.mu.Unlock()
	return v
}

func (d *Device) ConfigureLink(cfg hal.LinkConfig) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

func (d *Device) ChipSelectAsserted() bool {
	d.mu.Lock()
	cs := d.cs
	d.mu.Unlock()
	runtime.Gosched()
	return cs
}

// ---- hal.Timer ----

func (d *Device) ResetCounter() {
	d.mu.Lock()
	d.running = false
	d.counter = 0
	d.capVal = 0
	d.mu.Unlock()
}

func (d *Device) StartCounter() {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()
}

func (d *Device) CounterRunning() bool {
	d.mu.Lock()
	r := d.running
	d.mu.Unlock()
	runtime.Gosched()
	return r
}

func (d *Device) CounterNow() uint32 {
	d.mu.Lock()
	c := d.counter
	d.mu.Unlock()
	return c
}

func (d *Device) ArmCapture(stopAt uint32) {
	d.mu.Lock()
	d.capArmed = true
	d.stopAt = stopAt
	d.capVal = 0
	d.matchArmed = false
	d.mu.Unlock()
}

func (d *Device) ReadCapture() uint32 {
	d.mu.Lock()
	v := d.capVal
	d.mu.Unlock()
	runtime.Gosched()
	return v
}

func (d *Device) ArmPeriodicMatch(period uint32) {
	d.mu.Lock()
	d.matchArmed = true
	d.period = period
	d.capArmed = false
	d.edgeOutLow = false
	d.irqPending = false
	d.mu.Unlock()
}

func (d *Device) StopMatchEvents() {
	d.mu.Lock()
	d.matchArmed = false
	d.counter = 0
	d.running = true
	d.mu.Unlock()
}

func (d *Device) DeassertEdgeOutput() {
	d.mu.Lock()
	d.edgeOutLow = false
	d.mu.Unlock()
}

// ---- hal.EdgeDetect ----

func (d *Device) EnableEdgeDetect() {
	d.mu.Lock()
	d.edgeWatch = true
	d.mu.Unlock()
}

func (d *Device) DisableEdgeDetect() {
	d.mu.Lock()
	d.edgeWatch = false
	d.mu.Unlock()
}

func (d *Device) ClearEdgeDetect() {
	d.mu.Lock()
	d.edgePending = false
	d.edgeClears++
	d.mu.Unlock()
}

func (d *Device) EdgeDetected() bool {
	d.mu.Lock()
	p := d.edgePending
	d.mu.Unlock()
	runtime.Gosched()
	return p
}

// ---- hal.Interrupts ----

func (d *Device) SetTimerHandler(fn func()) {
	d.mu.Lock()
	d.handler = fn
	d.mu.Unlock()
}

func (d *Device) EnableTimerInterrupt() {
	d.mu.Lock()
	d.timerIRQOn = true
	d.mu.Unlock()
}

func (d *Device) DisableTimerInterrupt() {
	d.mu.Lock()
	d.timerIRQOn = false
	d.mu.Unlock()
}

func (d *Device) MaskInterrupts() func() {
	d.mu.Lock()
	prev := d.masked
	d.masked = true
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.masked = prev
		var fn func()
		if !d.masked && d.irqPending && d.timerIRQOn && d.handler != nil {
			d.irqPending = false
			fn = d.handler
		}
		d.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

// ---- hal.Pins ----

func (d *Device) AttachEdgeOutput() {
	d.mu.Lock()
	d.edgeOutAttached = true
	d.mu.Unlock()
}

func (d *Device) DetachEdgeOutput() {
	d.mu.Lock()
	d.edgeOutAttached = false
	d.mu.Unlock()
}

func (d *Device) SetActivityLED(on bool) {
	d.mu.Lock()
	d.led = on
	d.mu.Unlock()
}

// ---- hal.Board ----

func (d *Device) CoreClockHz() uint32 { return d.coreClockHz }
func (d *Device) LinkClockHz() uint32 { return d.linkClockHz }

// ---- wire-side effects, used by the Controller ----

func (d *Device) setChipSelect(on bool) {
	d.mu.Lock()
	d.cs = on
	d.mu.Unlock()
}

// clockWord moves one full-duplex word across the wire at the current
// virtual time: every falling edge of the word collapses to this instant, so
// the capture channel latches the current counter and the edge watch trips.
// An empty transmit FIFO reads as zero (the controller out-clocked the
// device); a full receive FIFO drops the incoming word.
func (d *Device) clockWord(v uint16) uint16 {
	d.mu.Lock()
	if d.edgeWatch {
		d.edgePending = true
	}
	if d.capArmed && d.running {
		d.capVal = d.counter
	}
	mask := d.wordMaskLocked()
	var out uint16
	if len(d.txq) > 0 {
		out = d.txq[0] & mask
		d.txq = d.txq[1:]
	}
	if len(d.rxq) < hal.LinkFifoDepth {
		d.rxq = append(d.rxq, v&mask)
	}
	d.mu.Unlock()
	return out
}

// pulseClock models wire-clock edges with no completed word, the footprint
// of a window cut short mid-word. The edge watch and the capture channel see
// it; the FIFOs do not.
func (d *Device) pulseClock() {
	d.mu.Lock()
	if d.edgeWatch {
		d.edgePending = true
	}
	if d.capArmed && d.running {
		d.capVal = d.counter
	}
	d.mu.Unlock()
}

// advance moves the virtual clock forward, firing match events as periods
// elapse. Handlers run unlocked on the caller's goroutine; a masked event
// pends (one deep) until the core releases the mask.
func (d *Device) advance(ticks uint32) {
	for ticks > 0 {
		d.mu.Lock()
		if !d.running {
			d.mu.Unlock()
			return
		}
		var fn func()
		switch {
		case d.matchArmed && d.period > 0:
			remain := d.period - d.counter
			if ticks >= remain {
				d.counter = 0
				ticks -= remain
				d.edgeOutLow = true
				if d.timerIRQOn && d.handler != nil {
					if d.masked {
						d.irqPending = true
					} else {
						fn = d.handler
					}
				}
			} else {
				d.counter += ticks
				ticks = 0
			}
		case d.capArmed:
			remain := d.stopAt - d.counter
			if ticks >= remain {
				d.counter = d.stopAt
				d.running = false
				ticks = 0
			} else {
				d.counter += ticks
				ticks = 0
			}
		default:
			d.counter += ticks
			ticks = 0
		}
		d.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

// ---- observers for assertions ----

func (d *Device) Config() hal.LinkConfig {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()
	return cfg
}

func (d *Device) ActivityLED() bool {
	d.mu.Lock()
	led := d.led
	d.mu.Unlock()
	return led
}

// EdgeLineLow reports the level the controller sees on the interrupt line:
// low only while the match output is asserted and the pin is attached to the
// timer function.
func (d *Device) EdgeLineLow() bool {
	d.mu.Lock()
	low := d.edgeOutLow && d.edgeOutAttached
	d.mu.Unlock()
	return low
}

func (d *Device) txQueueLen() int {
	d.mu.Lock()
	n := len(d.txq)
	d.mu.Unlock()
	return n
}

func (d *Device) rxQueueLen() int {
	d.mu.Lock()
	n := len(d.rxq)
	d.mu.Unlock()
	return n
}

func (d *Device) edgeClearCount() uint32 {
	d.mu.Lock()
	n := d.edgeClears
	d.mu.Unlock()
	return n
}
