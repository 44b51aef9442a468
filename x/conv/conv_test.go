package conv

import "testing"

func TestAppendInt(t *testing.T) {
	cases := []struct {
		v    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-1, "-1"},
		{42195, "42195"},
		{-9223372036854775808, "-9223372036854775808"},
		{9223372036854775807, "9223372036854775807"},
	}
	for _, c := range cases {
		if got := AppendInt(nil, c.v); string(got) != c.want {
			t.Errorf("AppendInt(%d) = %q; want %q", c.v, got, c.want)
		}
	}
}

func TestAppendUint(t *testing.T) {
	cases := []struct {
		v    uint64
		want string
	}{
		{0, "0"},
		{10, "10"},
		{18446744073709551615, "18446744073709551615"},
	}
	for _, c := range cases {
		if got := AppendUint(nil, c.v); string(got) != c.want {
			t.Errorf("AppendUint(%d) = %q; want %q", c.v, got, c.want)
		}
	}
}

func TestAppendHex(t *testing.T) {
	cases := []struct {
		v    uint32
		want string
	}{
		{0, "0"},
		{0x1f, "1f"},
		{0xdeadbeef, "deadbeef"},
		{0x400000, "400000"},
	}
	for _, c := range cases {
		if got := AppendHex(nil, c.v); string(got) != c.want {
			t.Errorf("AppendHex(%#x) = %q; want %q", c.v, got, c.want)
		}
	}
}

func TestAppendKeepsPrefix(t *testing.T) {
	b := AppendUint([]byte("tc="), 600)
	if string(b) != "tc=600" {
		t.Fatalf("appended buffer = %q; want tc=600", b)
	}
}
