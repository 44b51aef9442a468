// Package protocol defines the wire contract between the tester and the
// external controller: fixed 8-byte command frames inbound, length-and-CRC16
// framed responses outbound, and the raw 8-byte acknowledgement reply used
// inside a periodic-interrupt session.
//
// All multi-byte fields are little-endian.
package protocol

// Command is the opcode carried in byte 0 of a command frame. Values sit off
// the 0x80 base so idle-line noise of 0x00 or 0xFF never aliases a command.
type Command uint8

const (
	GetDeviceInfo            Command = 0x81
	CaptureNextTransfer      Command = 0x82
	GetTransferInfo          Command = 0x83
	StartPeriodicInterrupts  Command = 0x84
	GetPeriodicInterruptInfo Command = 0x85
	AcknowledgeInterrupt     Command = 0x86
)

// DataMode selects the clock polarity and phase of the link.
type DataMode uint8

const (
	Mode0 DataMode = iota
	Mode1
	Mode2
	Mode3
)

const (
	// CommandFrameSize is the exact size of every inbound command frame.
	CommandFrameSize = 8

	// HeaderSize is the length-plus-checksum prefix of framed responses.
	HeaderSize = 4

	// AckReplySize is the raw acknowledgement reply, sent unframed.
	AckReplySize = 8
)

// Device identity, reported in DeviceInfo and used to validate capture
// requests.
const (
	DeviceID         = 0x53504954
	Version          = 1
	MinDataBitLength = 4
	MaxDataBitLength = 16
)

// InvalidTimeSinceFallingEdge marks an acknowledgement reply that carries no
// timing because the acknowledged edge was stale.
const InvalidTimeSinceFallingEdge = 0xFFFFFFFF

// ClockTimeStatus qualifies TransferInfo.ClockActiveTime.
type ClockTimeStatus uint32

const (
	ClockTimeSuccess ClockTimeStatus = iota
	ClockTimeEdgeNotDetected
	ClockTimeOverflow
)

// SessionStatus is the anomaly bitset of a periodic-interrupt session.
// Zero means the session completed cleanly.
type SessionStatus uint32

const (
	StatusArithmeticOverflow SessionStatus = 1 << iota
	StatusTransmitUnderrun
	StatusIncompleteTransmit
	StatusIncompleteReceive
	StatusNotAcknowledged
)
