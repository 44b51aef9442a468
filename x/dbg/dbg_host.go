//go:build !lpc1768

package dbg

import "fmt"

// Printf formats like fmt.Printf and writes to the configured sink.
func Printf(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
