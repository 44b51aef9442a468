// Package config carries the build-time board profiles. Profiles are embedded
// JSON blobs parsed with tinyjson, so the same parser runs on the host and
// under TinyGo without reflection.
package config

import (
	"errors"
	"math"

	"github.com/andreyvit/tinyjson"
)

// Profile is one board's settings: where debug output goes, which pin blinks
// during a periodic session, and an optional cap on the advertised link
// clock rate.
type Profile struct {
	Board          string
	DebugBaud      uint32
	ActivityLEDPin uint8
	MaxClockRateHz uint32 // zero means no cap beyond the sampling limit
}

const defaultDebugBaud = 115200

// EmbeddedProfileLookup resolves a board name to its raw profile JSON. Tests
// override it.
var EmbeddedProfileLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedProfiles[board]
	return b, ok
}

// Load parses the embedded profile for the named board. A missing profile or
// one that does not decode is reported as an error; the firmware has nothing
// sensible to fall back to.
func Load(board string) (Profile, error) {
	raw, ok := EmbeddedProfileLookup(board)
	if !ok || len(raw) == 0 {
		return Profile{}, errors.New("no embedded profile for board: " + board)
	}

	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return Profile{}, errors.New("profile for " + board + " is not a JSON object")
	}

	// Unknown keys are ignored so older firmware can read newer profiles.
	p := Profile{Board: board, DebugBaud: defaultDebugBaud}
	for k, v := range m {
		switch k {
		case "debug_baud":
			n, ok := asUint(v, 1<<32-1)
			if !ok || n == 0 {
				return Profile{}, errors.New("bad debug_baud in profile " + board)
			}
			p.DebugBaud = n
		case "activity_led_pin":
			n, ok := asUint(v, 255)
			if !ok {
				return Profile{}, errors.New("bad activity_led_pin in profile " + board)
			}
			p.ActivityLEDPin = uint8(n)
		case "max_clock_rate_hz":
			n, ok := asUint(v, 1<<32-1)
			if !ok {
				return Profile{}, errors.New("bad max_clock_rate_hz in profile " + board)
			}
			p.MaxClockRateHz = n
		}
	}
	return p, nil
}

// asUint converts a decoded JSON number to an unsigned integer, rejecting
// anything fractional, negative or beyond max.
func asUint(v any, max float64) (uint32, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || f > max || f != math.Trunc(f) {
		return 0, false
	}
	return uint32(f), true
}
