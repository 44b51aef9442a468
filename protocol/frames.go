package protocol

import (
	"encoding/binary"

	"github.com/ms-iot/busses-tester/x/crc16"
	"github.com/ms-iot/busses-tester/x/mathx"
)

// CommandFrame is one inbound message, received atomically per exchange.
type CommandFrame [CommandFrameSize]byte

func (f *CommandFrame) Command() Command { return Command(f[0]) }

// CaptureRequest is the CaptureNextTransfer payload.
type CaptureRequest struct {
	DataBitLength uint8
	Mode          DataMode
	SendValue     uint8
	ReceiveValue  uint8
}

func (f *CommandFrame) CaptureRequest() CaptureRequest {
	return CaptureRequest{
		DataBitLength: f[1],
		Mode:          DataMode(f[2]),
		SendValue:     f[3],
		ReceiveValue:  f[4],
	}
}

// PeriodicRequest is the StartPeriodicInterrupts payload.
type PeriodicRequest struct {
	InterruptFrequencyHz uint32
	DurationSeconds      uint8
}

func (f *CommandFrame) PeriodicRequest() PeriodicRequest {
	return PeriodicRequest{
		InterruptFrequencyHz: binary.LittleEndian.Uint32(f[1:5]),
		DurationSeconds:      f[5],
	}
}

// InterruptCount is the total number of edges the request asks for, reported
// not ok when the product overflows.
func (r PeriodicRequest) InterruptCount() (uint32, bool) {
	return mathx.CheckedMul(r.InterruptFrequencyHz, uint32(r.DurationSeconds))
}

// EncodeCommand builds a no-payload command frame. The controller side (the
// simulator and host tooling) uses the Encode functions; the tester itself
// only decodes.
func EncodeCommand(c Command) CommandFrame {
	var f CommandFrame
	f[0] = byte(c)
	return f
}

func EncodeCapture(req CaptureRequest) CommandFrame {
	f := EncodeCommand(CaptureNextTransfer)
	f[1] = req.DataBitLength
	f[2] = byte(req.Mode)
	f[3] = req.SendValue
	f[4] = req.ReceiveValue
	return f
}

func EncodePeriodic(req PeriodicRequest) CommandFrame {
	f := EncodeCommand(StartPeriodicInterrupts)
	binary.LittleEndian.PutUint32(f[1:5], req.InterruptFrequencyHz)
	f[5] = req.DurationSeconds
	return f
}

// Seal stamps frame's header with its total length and its CRC-16, computed
// over the whole frame with the checksum field zeroed.
func Seal(frame []byte) {
	binary.LittleEndian.PutUint16(frame[0:2], uint16(len(frame)))
	binary.LittleEndian.PutUint16(frame[2:4], 0)
	binary.LittleEndian.PutUint16(frame[2:4], crc16.Checksum(frame))
}

// Verify reports whether frame carries a consistent header. The tester never
// receives framed responses; this is the receiving side's check, used by the
// simulator's controller and by host tooling.
func Verify(frame []byte) bool {
	if len(frame) < HeaderSize {
		return false
	}
	if int(binary.LittleEndian.Uint16(frame[0:2])) != len(frame) {
		return false
	}
	want := binary.LittleEndian.Uint16(frame[2:4])
	var sum uint16
	for i, b := range frame {
		if i == 2 || i == 3 {
			b = 0
		}
		sum = crc16.Update(sum, b)
	}
	return sum == want
}

// ---------------- DeviceInfo ----------------

// DeviceInfoFrameSize is the framed DeviceInfo response.
const DeviceInfoFrameSize = HeaderSize + 20

// DeviceInfo is the identity and capability descriptor, built once at Init
// and sent verbatim on request.
type DeviceInfo struct {
	DeviceID                    uint32
	Version                     uint32
	MaxFrequencyHz              uint32
	ClockMeasurementFrequencyHz uint32
	MinDataBitLength            uint8
	MaxDataBitLength            uint8
}

// Encode lays the descriptor out after a zeroed header; Seal fills the
// header at send time.
func (d *DeviceInfo) Encode() [DeviceInfoFrameSize]byte {
	var f [DeviceInfoFrameSize]byte
	binary.LittleEndian.PutUint32(f[4:8], d.DeviceID)
	binary.LittleEndian.PutUint32(f[8:12], d.Version)
	binary.LittleEndian.PutUint32(f[12:16], d.MaxFrequencyHz)
	binary.LittleEndian.PutUint32(f[16:20], d.ClockMeasurementFrequencyHz)
	f[20] = d.MinDataBitLength
	f[21] = d.MaxDataBitLength
	return f
}

func DecodeDeviceInfo(frame []byte) (DeviceInfo, bool) {
	if len(frame) != DeviceInfoFrameSize || !Verify(frame) {
		return DeviceInfo{}, false
	}
	return DeviceInfo{
		DeviceID:                    binary.LittleEndian.Uint32(frame[4:8]),
		Version:                     binary.LittleEndian.Uint32(frame[8:12]),
		MaxFrequencyHz:              binary.LittleEndian.Uint32(frame[12:16]),
		ClockMeasurementFrequencyHz: binary.LittleEndian.Uint32(frame[16:20]),
		MinDataBitLength:            frame[20],
		MaxDataBitLength:            frame[21],
	}, true
}

// ---------------- TransferInfo ----------------

const TransferInfoFrameSize = HeaderSize + 20

// TransferInfo is the outcome of one capture session. MismatchIndex equal to
// ElementCount means every received word matched the expected sequence.
type TransferInfo struct {
	Checksum              uint32
	ElementCount          uint32
	MismatchIndex         uint32
	ClockActiveTime       uint32
	ClockActiveTimeStatus ClockTimeStatus
}

func (t *TransferInfo) Encode() [TransferInfoFrameSize]byte {
	var f [TransferInfoFrameSize]byte
	binary.LittleEndian.PutUint32(f[4:8], t.Checksum)
	binary.LittleEndian.PutUint32(f[8:12], t.ElementCount)
	binary.LittleEndian.PutUint32(f[12:16], t.MismatchIndex)
	binary.LittleEndian.PutUint32(f[16:20], t.ClockActiveTime)
	binary.LittleEndian.PutUint32(f[20:24], uint32(t.ClockActiveTimeStatus))
	return f
}

func DecodeTransferInfo(frame []byte) (TransferInfo, bool) {
	if len(frame) != TransferInfoFrameSize || !Verify(frame) {
		return TransferInfo{}, false
	}
	return TransferInfo{
		Checksum:              binary.LittleEndian.Uint32(frame[4:8]),
		ElementCount:          binary.LittleEndian.Uint32(frame[8:12]),
		MismatchIndex:         binary.LittleEndian.Uint32(frame[12:16]),
		ClockActiveTime:       binary.LittleEndian.Uint32(frame[16:20]),
		ClockActiveTimeStatus: ClockTimeStatus(binary.LittleEndian.Uint32(frame[20:24])),
	}, true
}

// ---------------- PeriodicInterruptInfo ----------------

const PeriodicInterruptInfoFrameSize = HeaderSize + 20

// PeriodicInterruptInfo is the outcome of one periodic-interrupt session.
type PeriodicInterruptInfo struct {
	InterruptCount                  uint32
	AcknowledgedBeforeDeadlineCount uint32
	AcknowledgedAfterDeadlineCount  uint32
	AlreadyAcknowledgedCount        uint32
	Status                          SessionStatus
}

func (p *PeriodicInterruptInfo) Encode() [PeriodicInterruptInfoFrameSize]byte {
	var f [PeriodicInterruptInfoFrameSize]byte
	binary.LittleEndian.PutUint32(f[4:8], p.InterruptCount)
	binary.LittleEndian.PutUint32(f[8:12], p.AcknowledgedBeforeDeadlineCount)
	binary.LittleEndian.PutUint32(f[12:16], p.AcknowledgedAfterDeadlineCount)
	binary.LittleEndian.PutUint32(f[16:20], p.AlreadyAcknowledgedCount)
	binary.LittleEndian.PutUint32(f[20:24], uint32(p.Status))
	return f
}

func DecodePeriodicInterruptInfo(frame []byte) (PeriodicInterruptInfo, bool) {
	if len(frame) != PeriodicInterruptInfoFrameSize || !Verify(frame) {
		return PeriodicInterruptInfo{}, false
	}
	return PeriodicInterruptInfo{
		InterruptCount:                  binary.LittleEndian.Uint32(frame[4:8]),
		AcknowledgedBeforeDeadlineCount: binary.LittleEndian.Uint32(frame[8:12]),
		AcknowledgedAfterDeadlineCount:  binary.LittleEndian.Uint32(frame[12:16]),
		AlreadyAcknowledgedCount:        binary.LittleEndian.Uint32(frame[16:20]),
		Status:                          SessionStatus(binary.LittleEndian.Uint32(frame[20:24])),
	}, true
}

// ---------------- Acknowledgement reply ----------------

// AckReply answers one AcknowledgeInterrupt command. The checksum is the
// bitwise complement of the time field; a CRC would miss the FIFO refill
// deadline while the controller keeps clocking.
type AckReply struct {
	TimeSinceFallingEdge uint32
	Checksum             uint32
}

func MakeAckReply(timeSinceFallingEdge uint32) AckReply {
	return AckReply{
		TimeSinceFallingEdge: timeSinceFallingEdge,
		Checksum:             ^timeSinceFallingEdge,
	}
}

func (r AckReply) Encode() [AckReplySize]byte {
	var f [AckReplySize]byte
	binary.LittleEndian.PutUint32(f[0:4], r.TimeSinceFallingEdge)
	binary.LittleEndian.PutUint32(f[4:8], r.Checksum)
	return f
}

func DecodeAckReply(b []byte) (AckReply, bool) {
	if len(b) != AckReplySize {
		return AckReply{}, false
	}
	r := AckReply{
		TimeSinceFallingEdge: binary.LittleEndian.Uint32(b[0:4]),
		Checksum:             binary.LittleEndian.Uint32(b[4:8]),
	}
	return r, r.Checksum == ^r.TimeSinceFallingEdge
}
