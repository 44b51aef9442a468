package dbg

import (
	"bytes"
	"testing"
)

func TestPrintfGoesToSink(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Printf("count = %d, id = 0x%x\n", uint32(42), uint32(0xBEEF))
	if got, want := buf.String(), "count = 42, id = 0xbeef\n"; got != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}

func TestNilSinkDrops(t *testing.T) {
	SetOutput(nil)
	Printf("dropped %d", 1)
}
