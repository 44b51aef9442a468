// Package hal declares the hardware capabilities the tester core consumes.
// Methods are named after their effect on the hardware; a real register
// binding (hal/lpc17xx) and a deterministic simulation (hal/sim) implement
// them. The core never touches clocking, power or pin muxing beyond the two
// named functions of the edge-output pin.
package hal

// LinkFifoDepth is the hardware FIFO depth of the slave serial port, in
// words, identical for transmit and receive.
const LinkFifoDepth = 8

// ---- Slave serial link ----

// LinkStatus is one consistent snapshot of the port's FIFO state. Polling
// loops take a single snapshot per iteration and test the bits of that
// snapshot.
type LinkStatus uint8

const (
	LinkTxEmpty    LinkStatus = 1 << iota // transmit FIFO fully drained
	LinkTxNotFull                         // room for at least one more word
	LinkRxNotEmpty                        // at least one received word waiting
)

func (s LinkStatus) TxEmpty() bool    { return s&LinkTxEmpty != 0 }
func (s LinkStatus) TxNotFull() bool  { return s&LinkTxNotFull != 0 }
func (s LinkStatus) RxNotEmpty() bool { return s&LinkRxNotEmpty != 0 }

// LinkConfig programs the port format. The port always runs in slave role.
type LinkConfig struct {
	ClockIdleHigh    bool  // CPOL
	SampleSecondEdge bool  // CPHA
	WordBits         uint8 // 4..16
}

// Link is the slave-side serial port.
type Link interface {
	// LinkStatus returns the current FIFO status snapshot.
	LinkStatus() LinkStatus
	// WriteLink pushes one word into the transmit FIFO. Callers must check
	// TxNotFull first; pushing into a full FIFO is undefined.
	WriteLink(v uint16)
	// ReadLink pops one word from the receive FIFO. Callers must check
	// RxNotEmpty first.
	ReadLink() uint16
	// ConfigureLink reprograms polarity, phase and word width.
	ConfigureLink(cfg LinkConfig)
	// ChipSelectAsserted reports whether the controller is holding the
	// chip-select line active.
	ChipSelectAsserted() bool
}

// ---- Measurement timer ----

// Timer is the free-running measurement counter with one capture channel
// (latched by falling edges of the wire clock) and one match channel (driving
// the edge-generation output and the timer interrupt).
type Timer interface {
	// ResetCounter stops the counter and holds it at zero.
	ResetCounter()
	// StartCounter releases the counter to run at the measurement clock rate.
	StartCounter()
	// CounterRunning reports whether the counter is still counting. The
	// stop-at-limit protection of ArmCapture clears it on overflow.
	CounterRunning() bool
	// CounterNow reads the current counter value.
	CounterNow() uint32
	// ArmCapture latches the counter into the capture register on every
	// falling edge of the wire clock and halts the counter when it reaches
	// stopAt, so a stalled exchange cannot wrap the measurement.
	ArmCapture(stopAt uint32)
	// ReadCapture returns the most recently latched value; zero means no
	// edge has latched since the counter was reset.
	ReadCapture() uint32
	// ArmPeriodicMatch drives the edge output low and raises the timer
	// interrupt every period ticks. The counter resets on each match, so
	// CounterNow afterwards reads time since the most recent edge.
	ArmPeriodicMatch(period uint32)
	// StopMatchEvents cancels match generation and restarts the counter
	// from zero; the counter keeps running so the final acknowledgement
	// latency stays measurable. Safe to call from the timer interrupt
	// handler.
	StopMatchEvents()
	// DeassertEdgeOutput returns the edge-generation output to its idle
	// high level.
	DeassertEdgeOutput()
}

// ---- Wire-clock edge detection ----

// EdgeDetect watches the controller-driven wire clock for falling edges. The
// periodic engine uses it purely as an "exchange started" signal.
type EdgeDetect interface {
	EnableEdgeDetect()
	DisableEdgeDetect()
	// ClearEdgeDetect discards a latched edge so the next EdgeDetected
	// reports only edges after this call.
	ClearEdgeDetect()
	EdgeDetected() bool
}

// ---- Interrupt control ----

// Interrupts controls the timer match interrupt and the processor-global
// mask. At most one match event stays pending while the mask is held; extra
// events arriving during that window are lost, mirroring the NVIC.
type Interrupts interface {
	// SetTimerHandler installs fn as the match interrupt handler. The
	// binding clears the hardware event source before invoking fn. nil
	// uninstalls.
	SetTimerHandler(fn func())
	EnableTimerInterrupt()
	DisableTimerInterrupt()
	// MaskInterrupts disables the processor's interrupt input and returns
	// the restore function. Callers must run restore on every exit path.
	MaskInterrupts() (restore func())
}

// ---- Pin functions and indicators ----

// Pins switches the edge pin between its two mutually exclusive functions
// and drives the session-activity indicator.
type Pins interface {
	// AttachEdgeOutput connects the pin to the timer's match output.
	AttachEdgeOutput()
	// DetachEdgeOutput returns the pin to plain I/O, held high.
	DetachEdgeOutput()
	SetActivityLED(on bool)
}

// ---- Board facts ----

// Board reports the clock rates fixed at bring-up.
type Board interface {
	// CoreClockHz is the measurement timer's tick rate.
	CoreClockHz() uint32
	// LinkClockHz is the serial peripheral's input clock, bounding the
	// usable wire rate.
	LinkClockHz() uint32
}

// Device is the full capability set the tester is constructed with.
type Device interface {
	Link
	Timer
	EdgeDetect
	Interrupts
	Pins
	Board
}
