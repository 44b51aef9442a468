//go:build lpc1768

package lpc17xx

import "device/arm"

// ---- hal.Timer ----

// ResetCounter holds the counter in reset and clears every latched event
// flag, so ReadCapture reports zero until a fresh edge lands.
func (d *Device) ResetCounter() {
	tim2.TCR.Set(tcrReset)
	tim2.IR.Set(irAllFlags)
}

func (d *Device) StartCounter() { tim2.TCR.Set(tcrEnable) }

// CounterRunning reports the counter enable bit; the stop-on-match
// protection clears it in hardware when the limit is reached.
func (d *Device) CounterRunning() bool { return tim2.TCR.Get()&tcrEnable != 0 }

func (d *Device) CounterNow() uint32 { return tim2.TC.Get() }

func (d *Device) ArmCapture(stopAt uint32) {
	tim2.MCR.Set(mcrStopOnMR0)
	tim2.MR0.Set(stopAt)
	// The capture value register cannot be cleared, so the capture event
	// flag stands in as the something-latched marker.
	tim2.CCR.Set(ccrCaptureFalling | ccrCaptureEvent)
}

func (d *Device) ReadCapture() uint32 {
	if tim2.IR.Get()&irCapture0 == 0 {
		return 0
	}
	return tim2.CR0.Get()
}

func (d *Device) ArmPeriodicMatch(period uint32) {
	tim2.MCR.Set(mcrInterruptOnMR0 | mcrResetOnMR0)
	tim2.MR0.Set(period)
	tim2.EMR.Set(emrOutputHigh | emrLowOnMatch)
	tim2.CCR.Set(0)
}

// StopMatchEvents silences match generation and restarts the counter from
// zero. Runs inside the match handler.
func (d *Device) StopMatchEvents() {
	tim2.TCR.Set(tcrReset)
	tim2.MCR.Set(0)
	tim2.TCR.Set(tcrEnable)
}

// DeassertEdgeOutput raises the match output; the clear-on-match action
// stays armed for the next period.
func (d *Device) DeassertEdgeOutput() { tim2.EMR.SetBits(emrOutputHigh) }

// ---- hal.EdgeDetect ----

// EnableEdgeDetect arms falling-edge detection on the wire-clock pin,
// discarding anything already latched. Rising edges stay off.
func (d *Device) EnableEdgeDetect() {
	gpioInt.EnR0.ClearBits(1 << sckPin)
	gpioInt.Clr0.Set(1 << sckPin)
	gpioInt.EnF0.SetBits(1 << sckPin)
}

func (d *Device) DisableEdgeDetect() { gpioInt.EnF0.ClearBits(1 << sckPin) }

func (d *Device) ClearEdgeDetect() { gpioInt.Clr0.Set(1 << sckPin) }

func (d *Device) EdgeDetected() bool {
	return gpioInt.StatF0.Get()&(1<<sckPin) != 0
}

// ---- hal.Interrupts ----

// timerHandler is what TIMER2_IRQHandler invokes. The vector table entry is
// fixed at link time; the handler is installed by the tester's Init.
var timerHandler func()

func (d *Device) SetTimerHandler(fn func()) { timerHandler = fn }

func (d *Device) EnableTimerInterrupt() { nvicISER0.Set(1 << timer2IRQ) }

func (d *Device) DisableTimerInterrupt() { nvicICER0.Set(1 << timer2IRQ) }

// MaskInterrupts raises the processor-global interrupt mask and returns the
// restore closure.
func (d *Device) MaskInterrupts() func() {
	state := arm.DisableInterrupts()
	return func() { arm.EnableInterrupts(state) }
}

//export TIMER2_IRQHandler
func handleTimer2() {
	tim2.IR.Set(irAllFlags)
	if fn := timerHandler; fn != nil {
		fn()
	}
}
