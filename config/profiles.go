package config

// -----------------------------------------------------------------------------
// Embedded profiles
//
// One JSON blob per supported board, keyed by the name the firmware entry
// point passes to Load. The strings live in flash.
// -----------------------------------------------------------------------------

const profileMbedLPC1768 = `{
  "debug_baud": 115200,
  "activity_led_pin": 18,
  "max_clock_rate_hz": 5000000
}`

var embeddedProfiles = map[string][]byte{
	"mbed-lpc1768": []byte(profileMbedLPC1768),
}
