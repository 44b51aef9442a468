package config

import "testing"

func TestLoadEmbeddedProfile(t *testing.T) {
	p, err := Load("mbed-lpc1768")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Board != "mbed-lpc1768" {
		t.Errorf("Board = %q; want mbed-lpc1768", p.Board)
	}
	if p.DebugBaud != 115200 {
		t.Errorf("DebugBaud = %d; want 115200", p.DebugBaud)
	}
	if p.ActivityLEDPin != 18 {
		t.Errorf("ActivityLEDPin = %d; want 18", p.ActivityLEDPin)
	}
	if p.MaxClockRateHz != 5_000_000 {
		t.Errorf("MaxClockRateHz = %d; want 5000000", p.MaxClockRateHz)
	}
}

func TestLoadUnknownBoard(t *testing.T) {
	if _, err := Load("unknown-board"); err == nil {
		t.Fatal("expected an error for a board with no profile")
	}
}

func TestLoadOverriddenProfile(t *testing.T) {
	old := EmbeddedProfileLookup
	EmbeddedProfileLookup = func(board string) ([]byte, bool) {
		if board != "bench-rig" {
			return nil, false
		}
		return []byte(`{"activity_led_pin": 23, "max_clock_rate_hz": 1000000, "future_knob": true}`), true
	}
	t.Cleanup(func() { EmbeddedProfileLookup = old })

	p, err := Load("bench-rig")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.DebugBaud != defaultDebugBaud {
		t.Errorf("DebugBaud = %d; want default %d", p.DebugBaud, defaultDebugBaud)
	}
	if p.ActivityLEDPin != 23 || p.MaxClockRateHz != 1_000_000 {
		t.Errorf("profile = %+v; want pin 23, cap 1000000", p)
	}
}

func TestLoadRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `[1, 2, 3]`},
		{"string baud", `{"debug_baud": "fast"}`},
		{"zero baud", `{"debug_baud": 0}`},
		{"fractional pin", `{"activity_led_pin": 17.5}`},
		{"oversized pin", `{"activity_led_pin": 300}`},
		{"negative cap", `{"max_clock_rate_hz": -1}`},
	}
	old := EmbeddedProfileLookup
	t.Cleanup(func() { EmbeddedProfileLookup = old })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			EmbeddedProfileLookup = func(string) ([]byte, bool) { return []byte(tt.raw), true }
			if _, err := Load("bad"); err == nil {
				t.Errorf("Load accepted %s", tt.raw)
			}
		})
	}
}
