package variant

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Write returns literal representation of v
func Write(v Value) string {
	return string(AppendLiteral(nil, v))
}

// AppendLiteral appends literal representation of v to buf
func AppendLiteral(buf []byte, v Value) []byte {
	switch v.kind {
	case Nil:
		return append(buf, "null"...)
	case Bool:
		return strconv.AppendBool(buf, v.b)
	case Int:
		return strconv.AppendInt(buf, v.i, 10)
	case Float:
		return appendFloat(buf, v.f)
	case String:
		return appendQuoted(buf, v.s)
	case Array:
		buf = append(buf, '[')
		for i, el := range v.arr {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = AppendLiteral(buf, el)
		}
		return append(buf, ']')
	case Dict:
		if len(v.dict) == 0 {
			return append(buf, "{}"...)
		}
		buf = append(buf, "{ "...)
		for i, e := range v.dict {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = AppendLiteral(buf, e.Key)
			buf = append(buf, ": "...)
			buf = AppendLiteral(buf, e.Value)
		}
		return append(buf, " }"...)
	}
	panic("unknown kind " + v.kind.String())
}

// floats always have '.' or exponent so that they're read back as floats
func appendFloat(buf []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(buf, "nan"...)
	case math.IsInf(f, 1):
		return append(buf, "inf"...)
	case math.IsInf(f, -1):
		return append(buf, "-inf"...)
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
	for _, c := range buf[start:] {
		if c == '.' || c == 'e' {
			return buf
		}
	}
	return append(buf, ".0"...)
}

func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf = append(buf, `\"`...)
			case '\\':
				buf = append(buf, `\\`...)
			case '\n':
				buf = append(buf, `\n`...)
			case '\r':
				buf = append(buf, `\r`...)
			case '\t':
				buf = append(buf, `\t`...)
			default:
				if c < 0x20 || c == 0x7f {
					buf = appendUnicodeEscape(buf, rune(c))
				} else {
					buf = append(buf, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			// invalid utf-8 can't be represented, same as encoding/json
			buf = append(buf, "\ufffd"...)
		} else {
			buf = append(buf, s[i:i+size]...)
		}
		i += size
	}
	return append(buf, '"')
}

func appendUnicodeEscape(buf []byte, r rune) []byte {
	const hex = "0123456789abcdef"
	return append(buf, '\\', 'u', hex[(r>>12)&0xf], hex[(r>>8)&0xf], hex[(r>>4)&0xf], hex[r&0xf])
}

func isBareKeyChar(c byte) bool {
	switch c {
	case '=', '"', '[', ']', ' ', '\t', '\n', '\r', '\\':
		return false
	}
	return c > 0x20 && c != 0x7f
}

// spaces around a bare key or tag name would be lost or misread
func hasEdgeSpace(s string) bool {
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(first) || unicode.IsSpace(last) || isSpace(first) || isSpace(last)
}

// FormatKey returns key as written on the left side of an assignment.
// Keys that can't be written as-is are quoted.
func FormatKey(key string) string {
	needsQuote := key == "" || hasEdgeSpace(key)
	for i := 0; i < len(key) && !needsQuote; i++ {
		needsQuote = !isBareKeyChar(key[i])
	}
	if !needsQuote {
		return key
	}
	return string(appendQuoted(nil, key))
}

// FormatSection returns section name as written between '[' and ']'.
// Names containing ']', line breaks or control characters, and names
// starting with '"' are quoted.
func FormatSection(name string) string {
	needsQuote := strings.HasPrefix(name, "\"") || hasEdgeSpace(name)
	for i := 0; i < len(name) && !needsQuote; i++ {
		c := name[i]
		needsQuote = c == ']' || c < 0x20 || c == 0x7f
	}
	if !needsQuote {
		return name
	}
	return string(appendQuoted(nil, name))
}
