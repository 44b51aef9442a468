package spitester

import (
	"github.com/ms-iot/busses-tester/hal"
	"github.com/ms-iot/busses-tester/protocol"
	"github.com/ms-iot/busses-tester/x/dbg"
	"github.com/ms-iot/busses-tester/x/mathx"
)

// idleLinkConfig is the command-plane link setup: mode 3, 8-bit words. Data
// captures reconfigure the link for one exchange and then restore this.
var idleLinkConfig = hal.LinkConfig{ClockIdleHigh: true, SampleSecondEdge: true, WordBits: 8}

// setDataMode applies a requested data mode to the link. The slave samples
// on the second clock phase no matter which phase was asked for; only the
// polarity follows the request. A bit length outside the supported range
// falls back to 8.
func (t *Tester) setDataMode(mode protocol.DataMode, bits uint8) {
	cfg := hal.LinkConfig{SampleSecondEdge: true}
	switch mode {
	case protocol.Mode1, protocol.Mode2:
	default:
		cfg.ClockIdleHigh = true
	}
	if mathx.Between(bits, protocol.MinDataBitLength, protocol.MaxDataBitLength) {
		cfg.WordBits = bits
	} else {
		cfg.WordBits = 8
	}
	t.dev.ConfigureLink(cfg)
}

// receiveCommand pulls one command frame off the link. It never blocks on an
// idle line: no waiting data means no command. It reports false when chip
// select drops mid-frame.
func (t *Tester) receiveCommand(frame *protocol.CommandFrame) bool {
	if !t.dev.LinkStatus().RxNotEmpty() {
		return false
	}
	for i := 0; i < len(frame); {
		if t.dev.LinkStatus().RxNotEmpty() {
			frame[i] = byte(t.dev.ReadLink())
			i++
		} else if !t.dev.ChipSelectAsserted() {
			return false
		}
	}
	t.waitChipSelectDeassert()
	return true
}

// send seals and transmits one framed response in its own chip-select
// window. The transmit FIFO must be idle; a response that would collide with
// leftover words is dropped.
func (t *Tester) send(frame []byte) {
	protocol.Seal(frame)

	d := t.dev
	if !d.LinkStatus().TxEmpty() {
		dbg.Printf("transmit fifo is not empty\n")
		return
	}

	n := mathx.Min(len(frame), hal.LinkFifoDepth)
	for _, b := range frame[:n] {
		d.WriteLink(uint16(b))
	}

	for !d.ChipSelectAsserted() {
	}

	// stream the rest with interrupts masked
	underrun := false
	restore := d.MaskInterrupts()
	for i := n; i < len(frame); {
		status := d.LinkStatus()
		if status.TxEmpty() {
			underrun = true
		}
		if status.TxNotFull() {
			d.WriteLink(uint16(frame[i]))
			i++
		}
		if !d.ChipSelectAsserted() {
			restore()
			return
		}
	}
	restore()

	t.waitChipSelectDeassert()
	if underrun {
		dbg.Printf("transmit underrun during response\n")
	}
}

// waitChipSelectDeassert spins until the controller releases the line,
// draining whatever is left in the receive FIFO.
func (t *Tester) waitChipSelectDeassert() {
	for t.dev.ChipSelectAsserted() || t.dev.LinkStatus().RxNotEmpty() {
		t.dev.ReadLink()
	}
}
