package mathx

import "testing"

func TestCheckedMul(t *testing.T) {
	cases := []struct {
		a, b uint32
		want uint32
		fits bool
	}{
		{0, 0, 0, true},
		{0, 5, 0, true},
		{1000, 60, 60000, true},
		{0xFFFFFFFF, 1, 0xFFFFFFFF, true},
		{0x10000, 0x10000, 0, false},
		{0xFFFFFFFF, 2, 0xFFFFFFFE, false},
	}
	for _, c := range cases {
		got, fits := CheckedMul(c.a, c.b)
		if fits != c.fits {
			t.Errorf("CheckedMul(%d, %d) fits = %t; want %t", c.a, c.b, fits, c.fits)
			continue
		}
		if fits && got != c.want {
			t.Errorf("CheckedMul(%d, %d) = %d; want %d", c.a, c.b, got, c.want)
		}
	}
}
