//go:build lpc1768

package lpc17xx

import (
	"io"

	"github.com/ms-iot/busses-tester/x/mathx"
)

const (
	uartLCRWordLen8 = 0x3
	uartLCRDLAB     = 1 << 7
	uartFCREnable   = 0x7 // enable and reset both FIFOs
	uartLSRTxEmpty  = 1 << 5
	uartTxFifoDepth = 16
)

type debugUART struct{}

var _ io.Writer = debugUART{}

// DebugWriter brings up UART0 at the given baud rate and returns the sink
// for dbg.SetOutput. Writes drain synchronously; the engines only print
// outside their timing-critical windows.
func DebugWriter(baud uint32) io.Writer {
	pconp.SetBits(pconpUART0)
	setClockDiv(pclksel0, 6, 0x1) // UART0 at CCLK/1

	muxPin(&pincon.PINSEL0, uartTxPin, 0x1)
	muxPin(&pincon.PINSEL0, uartRxPin, 0x1)

	div := mathx.RoundDiv(cclkHz, 16*baud)
	uart0.LCR.Set(uartLCRDLAB | uartLCRWordLen8)
	uart0.DR.Set(div & 0xFF)
	uart0.IER.Set(div >> 8)
	uart0.LCR.Set(uartLCRWordLen8)
	uart0.FCR.Set(uartFCREnable)

	return debugUART{}
}

func (debugUART) Write(p []byte) (int, error) {
	for i := 0; i < len(p); {
		for !uart0.LSR.HasBits(uartLSRTxEmpty) {
		}
		n := len(p) - i
		if n > uartTxFifoDepth {
			n = uartTxFifoDepth
		}
		for _, b := range p[i : i+n] {
			uart0.DR.Set(uint32(b))
		}
		i += n
	}
	return len(p), nil
}
