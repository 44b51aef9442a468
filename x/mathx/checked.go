package mathx

// CheckedMul returns a*b and reports whether the product fits T without
// wrapping. Intended for validating hardware programming values before any
// register is touched.
func CheckedMul[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](a, b T) (T, bool) {
	p := a * b
	if a != 0 && p/a != b {
		return p, false
	}
	return p, true
}
