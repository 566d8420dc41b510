// Package charset converts Go strings to and from the charsets a CSP string
// field may declare.
package charset

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/andreygs/gocsp/pkg/csp"
)

// encodingFor maps a charset to its x/text encoding. US-ASCII and UTF-8
// return nil and are handled directly.
func encodingFor(cs csp.Charset) (encoding.Encoding, error) {
	switch cs {
	case csp.CharsetUTF8, csp.CharsetUSASCII:
		return nil, nil
	case csp.CharsetUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case csp.CharsetUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case csp.CharsetUTF16:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case csp.CharsetUTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case csp.CharsetUTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case csp.CharsetUTF32:
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM), nil
	case csp.CharsetISO88591:
		return charmap.ISO8859_1, nil
	case csp.CharsetISO88592:
		return charmap.ISO8859_2, nil
	case csp.CharsetWindows1251:
		return charmap.Windows1251, nil
	}
	return nil, csp.Errorf(csp.InvalidArgument, "unsupported charset %d", uint8(cs))
}

// Encode converts s into the octets of cs. Characters that cs cannot
// represent fail with csp.InvalidArgument.
func Encode(cs csp.Charset, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, csp.NewError(csp.InvalidArgument, "string is not valid UTF-8")
	}

	switch cs {
	case csp.CharsetUTF8:
		return []byte(s), nil
	case csp.CharsetUSASCII:
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return nil, csp.Errorf(csp.InvalidArgument, "non-ASCII character at offset %d", i)
			}
		}
		return []byte(s), nil
	}

	enc, err := encodingFor(cs)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, csp.WrapError(csp.InvalidArgument, err, "encode "+cs.String())
	}
	return out, nil
}

// Decode converts octets in cs back to a Go string.
func Decode(cs csp.Charset, data []byte) (string, error) {
	switch cs {
	case csp.CharsetUTF8:
		if !utf8.Valid(data) {
			return "", csp.NewError(csp.DataCorrupted, "invalid UTF-8 string data")
		}
		return string(data), nil
	case csp.CharsetUSASCII:
		for i, c := range data {
			if c >= utf8.RuneSelf {
				return "", csp.Errorf(csp.DataCorrupted, "non-ASCII octet %#x at offset %d", c, i)
			}
		}
		return string(data), nil
	}

	enc, err := encodingFor(cs)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", csp.WrapError(csp.DataCorrupted, err, "decode "+cs.String())
	}
	return string(out), nil
}
