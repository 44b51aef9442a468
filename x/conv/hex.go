package conv

const hexDigits = "0123456789abcdef"

// AppendHex appends v in minimal-width lowercase hex, no 0x prefix.
func AppendHex(dst []byte, v uint32) []byte {
	var tmp [8]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = hexDigits[v&0xF]
		v >>= 4
		if v == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}
