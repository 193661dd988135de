package kfmt

import "strconv"

// formatInto appends the formatted result of format/args to buf and returns
// the extended slice. It understands %d, %x, %X, %s, %t, %v and %%; anything
// else is copied through verbatim. This is intentionally far smaller than
// fmt.Sprintf: the freestanding target this module compiles for does not
// carry fmt's reflection-based verb dispatch.
func formatInto(buf []byte, format string, args ...interface{}) []byte {
	argi := 0
	next := func() interface{} {
		if argi < len(args) {
			v := args[argi]
			argi++
			return v
		}
		return nil
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			buf = append(buf, c)
			continue
		}
		i++
		switch format[i] {
		case '%':
			buf = append(buf, '%')
		case 'd':
			buf = appendInt(buf, next())
		case 'x':
			buf = appendUintBase(buf, next(), 16, false)
		case 'X':
			buf = appendUintBase(buf, next(), 16, true)
		case 's':
			if s, ok := next().(string); ok {
				buf = append(buf, s...)
			}
		case 't':
			if b, ok := next().(bool); ok {
				buf = append(buf, strconv.FormatBool(b)...)
			}
		case 'v':
			buf = appendAny(buf, next())
		default:
			buf = append(buf, '%', format[i])
		}
	}
	return buf
}

func appendInt(buf []byte, v interface{}) []byte {
	switch n := v.(type) {
	case int:
		return strconv.AppendInt(buf, int64(n), 10)
	case int32:
		return strconv.AppendInt(buf, int64(n), 10)
	case int64:
		return strconv.AppendInt(buf, n, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(n), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(n), 10)
	case uint64:
		return strconv.AppendUint(buf, n, 10)
	case uintptr:
		return strconv.AppendUint(buf, uint64(n), 10)
	default:
		return append(buf, '?')
	}
}

func appendUintBase(buf []byte, v interface{}, base int, upper bool) []byte {
	var u uint64
	switch n := v.(type) {
	case int:
		u = uint64(n)
	case int64:
		u = uint64(n)
	case uint:
		u = uint64(n)
	case uint32:
		u = uint64(n)
	case uint64:
		u = n
	case uintptr:
		u = uint64(n)
	default:
		return append(buf, '?')
	}
	out := strconv.AppendUint(buf, u, base)
	if upper {
		for i := len(buf); i < len(out); i++ {
			if out[i] >= 'a' && out[i] <= 'z' {
				out[i] -= 'a' - 'A'
			}
		}
	}
	return out
}

func appendAny(buf []byte, v interface{}) []byte {
	switch t := v.(type) {
	case string:
		return append(buf, t...)
	case error:
		return append(buf, t.Error()...)
	case bool:
		return append(buf, strconv.FormatBool(t)...)
	case nil:
		return append(buf, "<nil>"...)
	default:
		return appendInt(buf, v)
	}
}
