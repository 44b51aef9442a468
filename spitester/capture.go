package spitester

import (
	"github.com/ms-iot/busses-tester/hal"
	"github.com/ms-iot/busses-tester/protocol"
	"github.com/ms-iot/busses-tester/x/crc16"
)

// counterStopLimit makes the measurement counter stop instead of wrapping. A
// stopped counter after the exchange is the overflow signal.
const counterStopLimit = 0xFFFFFFFF

// captureRepolls is how many capture reads run per receive poll while
// waiting for the first falling edge. The capture register is read far more
// often than the receive flag, so a back-to-back second edge cannot
// overwrite the first latched value before it is seen.
const captureRepolls = 11

// waitForCapture returns the time of the first wire-clock falling edge. If a
// whole word arrives before the capture channel reports anything, the free
// counter stands in as an approximation and the status says so.
func (t *Tester) waitForCapture() (uint32, protocol.ClockTimeStatus) {
	var capture uint32
wait:
	for !t.dev.LinkStatus().RxNotEmpty() {
		for i := 0; i < captureRepolls; i++ {
			if capture = t.dev.ReadCapture(); capture != 0 {
				break wait
			}
		}
	}
	if capture == 0 {
		// A word can land between capture polls; the latch is still valid
		// until the next edge, so look once more.
		capture = t.dev.ReadCapture()
	}
	if capture != 0 {
		return capture, protocol.ClockTimeSuccess
	}
	return t.dev.CounterNow(), protocol.ClockTimeEdgeNotDetected
}

// captureTransfer validates one full-duplex exchange word by word while the
// capture channel times the wire clock. The exchange runs with interrupts
// masked from FIFO preload to the final drain.
func (t *Tester) captureTransfer(req protocol.CaptureRequest) protocol.TransferInfo {
	var info protocol.TransferInfo
	d := t.dev

	var checksum uint16
	dataMask := uint32(1)<<req.DataBitLength - 1
	// rxValue walks the sequence expected from the controller, txValue the
	// sequence sent back.
	rxValue := uint32(req.SendValue)
	txValue := uint32(req.ReceiveValue)
	mismatch := false

	t.setDataMode(req.Mode, req.DataBitLength)

	d.ResetCounter()
	d.ArmCapture(counterStopLimit)

	restore := d.MaskInterrupts()

	for i := 0; i < hal.LinkFifoDepth; i++ {
		d.WriteLink(uint16(txValue & dataMask))
		txValue++
	}

	for !d.ChipSelectAsserted() {
	}

	d.StartCounter()

	capture1, status := t.waitForCapture()
	info.ClockActiveTimeStatus = status

	for {
		s := d.LinkStatus()
		if s.RxNotEmpty() {
			data := uint32(d.ReadLink())
			checksum = crc16.Update(checksum, byte(data))
			if dataMask&(1<<8) != 0 {
				checksum = crc16.Update(checksum, byte(data>>8))
			}
			if data != rxValue&dataMask && !mismatch {
				mismatch = true
				info.MismatchIndex = rxValue - uint32(req.SendValue)
			}
			rxValue++
		} else if !d.ChipSelectAsserted() {
			// chip select only ends the exchange once the receive FIFO
			// has been drained
			break
		}
		if s.TxNotFull() {
			d.WriteLink(uint16(txValue & dataMask))
			txValue++
		}
	}

	restore()

	if info.ClockActiveTimeStatus == protocol.ClockTimeSuccess {
		if !d.CounterRunning() {
			info.ClockActiveTimeStatus = protocol.ClockTimeOverflow
		} else {
			capture2 := d.ReadCapture()
			info.ClockActiveTime = capture2 - capture1
		}
	}
	// The counter parks at zero on every exit path; the next session must
	// never see this one's capture.
	d.ResetCounter()

	info.Checksum = uint32(checksum)
	info.ElementCount = rxValue - uint32(req.SendValue)
	if !mismatch {
		info.MismatchIndex = info.ElementCount
	}

	d.ConfigureLink(idleLinkConfig)
	return info
}
