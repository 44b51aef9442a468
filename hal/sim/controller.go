package sim

import (
	"runtime"

	"tinygo.org/x/drivers"

	"github.com/ms-iot/busses-tester/hal"
	"github.com/ms-iot/busses-tester/protocol"
)

var _ drivers.SPI = (*Controller)(nil)

// Controller scripts the bus-master side of the simulated link. It owns chip
// select and the virtual clock, and offers two kinds of exchange:
//
//   - eager: words are clocked as fast as the script runs, regardless of what
//     the device has queued. Commands and fault injection use this; a device
//     that falls behind underruns, exactly as on the real wire.
//   - paced: words are clocked only when popping cannot strand the device's
//     transmit path. Response collection uses this, so a healthy exchange can
//     never underrun no matter how the goroutines interleave.
//
// The pacing rule: pop the next word only when the device has at least two
// words queued, or has already queued the window's full complement. The first
// arm keeps the queue nonempty under the device's feet; the second lets the
// tail drain once the device is done writing.
type Controller struct {
	dev       *Device
	lastRearm uint32
}

func NewController(d *Device) *Controller {
	return &Controller{dev: d, lastRearm: d.edgeClearCount()}
}

func (c *Controller) AssertCS()   { c.dev.setChipSelect(true) }
func (c *Controller) DeassertCS() { c.dev.setChipSelect(false) }

// AdvanceTime moves the device's measurement clock forward by ticks,
// delivering any match events that the crossing produces.
func (c *Controller) AdvanceTime(ticks uint32) { c.dev.advance(ticks) }

// ClockWord exchanges one word eagerly within the current chip-select window.
func (c *Controller) ClockWord(v uint16) uint16 { return c.dev.clockWord(v) }

// ClockByte is ClockWord for the 8-bit configs the command plane uses.
func (c *Controller) ClockByte(b byte) byte { return byte(c.dev.clockWord(uint16(b))) }

// PulseClock produces wire-clock edges without completing a word, as a
// window dropped mid-word would.
func (c *Controller) PulseClock() { c.dev.pulseClock() }

// ---- drivers.SPI ----

// Tx clocks max(len(w), len(r)) words eagerly in a chip-select window of its
// own. Short w pads with zeros; short r discards the surplus. The error is
// always nil; the simulated wire cannot fail.
func (c *Controller) Tx(w, r []byte) error {
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	c.AssertCS()
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in := byte(c.dev.clockWord(uint16(out)))
		if i < len(r) {
			r[i] = in
		}
	}
	c.DeassertCS()
	return nil
}

// Transfer exchanges a single byte inside the currently asserted window, or
// in a one-byte window when none is open.
func (c *Controller) Transfer(b byte) (byte, error) {
	if !c.dev.ChipSelectAsserted() {
		c.AssertCS()
		defer c.DeassertCS()
	}
	return byte(c.dev.clockWord(uint16(b))), nil
}

// ---- protocol-aware flows ----

// SendCommand delivers one framed command in its own chip-select window.
func (c *Controller) SendCommand(f protocol.CommandFrame) {
	_ = c.Tx(f[:], nil)
}

// CollectFrame clocks out an n-byte framed response in its own window, paced
// so the device's streaming transmit path never sees an empty queue until it
// has written all n bytes.
func (c *Controller) CollectFrame(n int) []byte {
	c.AssertCS()
	buf := make([]byte, n)
	for i := range buf {
		c.waitFramedPop(i, n)
		buf[i] = byte(c.dev.clockWord(0))
	}
	c.DeassertCS()
	return buf
}

// AckWindow runs one healthy acknowledgement exchange: an acknowledge command
// followed by filler while the device streams its latency reply. The window
// moves sixteen device bytes (the dummy preload plus the reply), and pacing
// holds words back until the device has queued them. The reported ok is the
// reply's complement check.
func (c *Controller) AckWindow() (protocol.AckReply, bool) {
	cmd := protocol.EncodeCommand(protocol.AcknowledgeInterrupt)
	total := 2 * protocol.CommandFrameSize
	raw := make([]byte, 0, total)
	c.AssertCS()
	for i := 0; i < total; i++ {
		c.waitFramedPop(i, total)
		var out uint16
		if i < len(cmd) {
			out = uint16(cmd[i])
		}
		raw = append(raw, byte(c.dev.clockWord(out)))
	}
	c.DeassertCS()
	return protocol.DecodeAckReply(raw[protocol.CommandFrameSize:])
}

// ExchangeWords clocks the given words inside the current window, waiting
// before each pop for the device to have something queued. Pattern-exchange
// windows use this: the device keeps its queue topped up for as long as chip
// select stays asserted, so nonempty is the only pacing needed.
func (c *Controller) ExchangeWords(tx []uint16) []uint16 {
	rx := make([]uint16, 0, len(tx))
	for _, w := range tx {
		for c.dev.txQueueLen() == 0 {
			runtime.Gosched()
		}
		rx = append(rx, c.dev.clockWord(w))
	}
	return rx
}

// waitFramedPop blocks until popping word number popped (zero-based) of a
// total-byte device window is safe under the pacing rule.
func (c *Controller) waitFramedPop(popped, total int) {
	for {
		n := c.dev.txQueueLen()
		if n >= 2 || popped+n >= total {
			return
		}
		runtime.Gosched()
	}
}

// ---- rendezvous helpers ----

// WaitTransmitRefilled blocks until the device has its transmit queue full
// again, which means it has consumed the last exchange and finished topping
// up. Scripts use it between paced words when they need the device caught up
// before advancing time.
func (c *Controller) WaitTransmitRefilled() {
	for c.dev.txQueueLen() != hal.LinkFifoDepth {
		runtime.Gosched()
	}
}

// WaitReceiveDrained blocks until the device has read everything the
// controller clocked in. Fault scripts use it to hold chip select until the
// device's deassert-wait loop has swallowed the window.
func (c *Controller) WaitReceiveDrained() {
	for c.dev.rxQueueLen() != 0 {
		runtime.Gosched()
	}
}

// WaitCounterRunning blocks until the device side has started its
// measurement counter. Capture scripts assert chip select and then wait for
// this before advancing time, so no ticks land while the counter is parked.
func (c *Controller) WaitCounterRunning() {
	for !c.dev.CounterRunning() {
		runtime.Gosched()
	}
}

// WaitEdgeRearmed blocks until the device clears its clock-edge watch again,
// the step that arms each acknowledgement round. Periodic scripts use it as
// the barrier between advancing time into a match and clocking the window.
func (c *Controller) WaitEdgeRearmed() {
	for {
		n := c.dev.edgeClearCount()
		if n != c.lastRearm {
			c.lastRearm = n
			return
		}
		runtime.Gosched()
	}
}
