// Package conv holds allocation-free numeric formatting for the debug
// path. Everything appends to a caller-owned buffer, strconv.Append
// style, so MCU builds stay off the heap.
package conv

// AppendUint appends the base-10 form of v to dst.
func AppendUint(dst []byte, v uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends the base-10 form of v to dst.
func AppendInt(dst []byte, v int64) []byte {
	u := uint64(v)
	if v < 0 {
		dst = append(dst, '-')
		u = -u
	}
	return AppendUint(dst, u)
}
