//go:build lpc1768

package dbg

import "github.com/ms-iot/busses-tester/x/conv"

// Printf supports %s %d %x %X %t %v and %%, enough for the tester's
// diagnostics, without pulling fmt's reflection into the MCU image.
// Unknown verbs and surplus directives are emitted literally.
func Printf(format string, a ...any) {
	var scratch [96]byte
	b := scratch[:0]
	ai := 0
	for i := 0; i < len(format); {
		c := format[i]
		if c != '%' {
			b = append(b, c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		verb := format[i]
		i++
		if verb == '%' {
			b = append(b, '%')
			continue
		}
		if ai >= len(a) {
			b = append(b, '%', verb)
			continue
		}
		arg := a[ai]
		ai++
		b = appendArg(b, verb, arg)
	}
	out.Write(b)
}

func appendArg(b []byte, verb byte, arg any) []byte {
	switch verb {
	case 's':
		switch v := arg.(type) {
		case string:
			return append(b, v...)
		case []byte:
			return append(b, v...)
		}
	case 'd', 'v':
		switch v := arg.(type) {
		case int:
			return conv.AppendInt(b, int64(v))
		case int8:
			return conv.AppendInt(b, int64(v))
		case int16:
			return conv.AppendInt(b, int64(v))
		case int32:
			return conv.AppendInt(b, int64(v))
		case int64:
			return conv.AppendInt(b, v)
		case uint:
			return conv.AppendUint(b, uint64(v))
		case uint8:
			return conv.AppendUint(b, uint64(v))
		case uint16:
			return conv.AppendUint(b, uint64(v))
		case uint32:
			return conv.AppendUint(b, uint64(v))
		case uint64:
			return conv.AppendUint(b, v)
		case string:
			if verb == 'v' {
				return append(b, v...)
			}
		case bool:
			if verb == 'v' {
				return appendBool(b, v)
			}
		}
	case 'x', 'X':
		if v, ok := toU32(arg); ok {
			start := len(b)
			b = conv.AppendHex(b, v)
			if verb == 'X' {
				for i := start; i < len(b); i++ {
					if 'a' <= b[i] && b[i] <= 'f' {
						b[i] -= 'a' - 'A'
					}
				}
			}
			return b
		}
	case 't':
		if v, ok := arg.(bool); ok {
			return appendBool(b, v)
		}
	}
	return append(b, "<unk>"...)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, "true"...)
	}
	return append(b, "false"...)
}

func toU32(arg any) (uint32, bool) {
	switch v := arg.(type) {
	case uint8:
		return uint32(v), true
	case uint16:
		return uint32(v), true
	case uint32:
		return v, true
	case uint:
		return uint32(v), true
	case int:
		return uint32(v), true
	}
	return 0, false
}
