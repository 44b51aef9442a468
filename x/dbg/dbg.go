// Package dbg provides best-effort diagnostic logging for the tester.
// Output goes to a sink installed at bootstrap; write errors are
// discarded. The zero configuration drops everything, so release builds
// pay only for formatting calls that were compiled in.
package dbg

import "io"

var out io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// SetOutput routes subsequent Printf calls to w. Pass nil to drop output.
func SetOutput(w io.Writer) {
	if w == nil {
		out = discard{}
		return
	}
	out = w
}
