//go:build lpc1768

package lpc17xx

import (
	"runtime/volatile"
	"unsafe"
)

// Register blocks for the peripherals the tester touches, laid out per the
// LPC176x user manual (UM10360).

type sspRegs struct {
	CR0  volatile.Register32 // 0x00 frame format, word size, polarity, phase
	CR1  volatile.Register32 // 0x04 enable, master/slave
	DR   volatile.Register32 // 0x08 FIFO window
	SR   volatile.Register32 // 0x0C status
	CPSR volatile.Register32 // 0x10 clock prescaler
	IMSC volatile.Register32 // 0x14 interrupt mask
}

type timerRegs struct {
	IR   volatile.Register32 // 0x00 event flags, write one to clear
	TCR  volatile.Register32 // 0x04 counter enable/reset
	TC   volatile.Register32 // 0x08 counter value
	PR   volatile.Register32 // 0x0C prescale
	PC   volatile.Register32 // 0x10 prescale counter
	MCR  volatile.Register32 // 0x14 match actions
	MR0  volatile.Register32 // 0x18 match value, channel 0
	MR1  volatile.Register32
	MR2  volatile.Register32
	MR3  volatile.Register32
	CCR  volatile.Register32 // 0x28 capture control
	CR0  volatile.Register32 // 0x2C capture value, channel 0
	CR1  volatile.Register32 // 0x30
	_    [2]volatile.Register32
	EMR  volatile.Register32 // 0x3C external match output
}

type pinconRegs struct {
	PINSEL0 volatile.Register32 // P0.0  .. P0.15
	PINSEL1 volatile.Register32 // P0.16 .. P0.31
}

// gpioRegs is one FIO port block; the ports sit 0x20 apart.
type gpioRegs struct {
	DIR  volatile.Register32
	_    [3]volatile.Register32
	MASK volatile.Register32
	PIN  volatile.Register32
	SET  volatile.Register32
	CLR  volatile.Register32
}

type gpioIntRegs struct {
	Status volatile.Register32 // 0x80 combined port status
	StatR0 volatile.Register32 // 0x84 port 0 rising latched
	StatF0 volatile.Register32 // 0x88 port 0 falling latched
	Clr0   volatile.Register32 // 0x8C write one to discard
	EnR0   volatile.Register32 // 0x90 rising enable
	EnF0   volatile.Register32 // 0x94 falling enable
}

// uartRegs is the 16550-style debug port. DR doubles as the low divisor
// latch and IER as the high one while LCR's DLAB bit is set.
type uartRegs struct {
	DR  volatile.Register32 // 0x00 RBR/THR/DLL
	IER volatile.Register32 // 0x04 IER/DLM
	FCR volatile.Register32 // 0x08 FCR (IIR on read)
	LCR volatile.Register32 // 0x0C line control
	_   volatile.Register32
	LSR volatile.Register32 // 0x14 line status
}

var (
	ssp0    = (*sspRegs)(unsafe.Pointer(uintptr(0x40088000)))
	tim2    = (*timerRegs)(unsafe.Pointer(uintptr(0x40090000)))
	uart0   = (*uartRegs)(unsafe.Pointer(uintptr(0x4000C000)))
	pincon  = (*pinconRegs)(unsafe.Pointer(uintptr(0x4002C000)))
	fio0    = (*gpioRegs)(unsafe.Pointer(uintptr(0x2009C000)))
	fio1    = (*gpioRegs)(unsafe.Pointer(uintptr(0x2009C020)))
	gpioInt = (*gpioIntRegs)(unsafe.Pointer(uintptr(0x40028080)))

	pconp    = (*volatile.Register32)(unsafe.Pointer(uintptr(0x400FC0C4)))
	pclksel0 = (*volatile.Register32)(unsafe.Pointer(uintptr(0x400FC1A8)))
	pclksel1 = (*volatile.Register32)(unsafe.Pointer(uintptr(0x400FC1AC)))

	nvicISER0 = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000E100)))
	nvicICER0 = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000E180)))
)

const (
	// SSP0 control and status bits.
	sspCR0FRFSPI     = 0x0 << 4
	sspCR0CPOLHigh   = 1 << 6
	sspCR0CPHASecond = 1 << 7
	sspCR1Enable     = 1 << 1
	sspCR1Slave      = 1 << 2
	sspSRTxEmpty     = 1 << 0
	sspSRTxNotFull   = 1 << 1
	sspSRRxNotEmpty  = 1 << 2

	// TIMER2 bits, all on channel 0.
	tcrEnable         = 1 << 0
	tcrReset          = 1 << 1
	irAllFlags        = 0x3F
	irCapture0        = 1 << 4
	mcrInterruptOnMR0 = 1 << 0
	mcrResetOnMR0     = 1 << 1
	mcrStopOnMR0      = 1 << 2
	ccrCaptureFalling = 1 << 1
	ccrCaptureEvent   = 1 << 2
	emrOutputHigh     = 1 << 0
	emrLowOnMatch     = 0x1 << 4 // EMC0 = 01, drive low on match

	// Power and peripheral clock selection.
	pconpUART0  = 1 << 3
	pconpSSP0   = 1 << 21
	pconpTimer2 = 1 << 22

	timer2IRQ = 3
)

// Pin assignments, all on port 0 except the activity LED.
const (
	uartTxPin = 2  // TXD0
	uartRxPin = 3  // RXD0
	capPin    = 4  // CAP2.0, wired to the wire clock
	edgePin   = 6  // MAT2.0 / interrupt line to the controller
	sckPin    = 15 // SCK0
	csPin     = 16 // SSEL0
	misoPin   = 17 // MISO0
	mosiPin   = 18 // MOSI0
)

// muxPin programs one pin's two-bit PINSEL function field.
func muxPin(reg *volatile.Register32, pin uint8, fn uint32) {
	shift := uint(pin%16) * 2
	v := reg.Get()
	v &^= 0x3 << shift
	v |= fn << shift
	reg.Set(v)
}

// setClockDiv programs one two-bit PCLKSEL divider field.
func setClockDiv(reg *volatile.Register32, shift uint, div uint32) {
	v := reg.Get()
	v &^= 0x3 << shift
	v |= div << shift
	reg.Set(v)
}
