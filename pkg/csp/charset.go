package csp

import "strings"

// Charset selects the encoding of serialized strings.
type Charset uint8

const (
	CharsetUTF16BE Charset = iota
	CharsetUTF8
	CharsetUTF16LE
	CharsetUTF16
	CharsetUTF32BE
	CharsetUTF32LE
	CharsetUTF32
	CharsetUSASCII
	CharsetISO88591
	CharsetISO88592
	CharsetWindows1251

	// DefaultCharset is used for strings without an explicit charset.
	DefaultCharset = CharsetUTF16BE
)

var charsetNames = [...]string{
	CharsetUTF16BE:     "UTF-16BE",
	CharsetUTF8:        "UTF-8",
	CharsetUTF16LE:     "UTF-16LE",
	CharsetUTF16:       "UTF-16",
	CharsetUTF32BE:     "UTF-32BE",
	CharsetUTF32LE:     "UTF-32LE",
	CharsetUTF32:       "UTF-32",
	CharsetUSASCII:     "US-ASCII",
	CharsetISO88591:    "ISO-8859-1",
	CharsetISO88592:    "ISO-8859-2",
	CharsetWindows1251: "windows-1251",
}

// Charsets returns every supported charset.
func Charsets() []Charset {
	out := make([]Charset, len(charsetNames))
	for i := range charsetNames {
		out[i] = Charset(i)
	}
	return out
}

func (c Charset) String() string {
	if int(c) < len(charsetNames) {
		return charsetNames[c]
	}
	return "unknown"
}

// IsValid reports whether c is a known charset.
func (c Charset) IsValid() bool {
	return int(c) < len(charsetNames)
}

// ParseCharset resolves a charset name. Matching ignores case, and "_" and
// "-" are interchangeable.
func ParseCharset(name string) (Charset, error) {
	norm := normalizeCharsetName(name)
	for i, n := range charsetNames {
		if normalizeCharsetName(n) == norm {
			return Charset(i), nil
		}
	}
	switch norm {
	case "ascii":
		return CharsetUSASCII, nil
	case "latin1":
		return CharsetISO88591, nil
	case "cp1251":
		return CharsetWindows1251, nil
	}
	return 0, Errorf(InvalidArgument, "unknown charset %q", name)
}

func normalizeCharsetName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}
