// Package textenc resolves text encodings by name and decodes captured process
// output into UTF-8 strings without ever failing.
//
// Byte sequences that are invalid under the selected encoding are replaced by
// [Replacement] (U+FFFD).
package textenc

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// Replacement is the placeholder used for invalid byte sequences.
	Replacement = "�"
	// UTF8 is the canonical name of the fallback encoding.
	UTF8 = "utf-8"
)

var replacement = []byte(Replacement)

// Lookup returns the encoding registered under name.
// Names are case insensitive and accept both IANA and WHATWG labels.
func Lookup(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}

	enc, err := ianaindex.IANA.Encoding(n)
	if err == nil && enc != nil {
		return enc, nil
	}

	enc, err = htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}

	return enc, nil
}

// Decode converts b into UTF-8 text using enc.
func Decode(b []byte, enc encoding.Encoding) string {
	if len(b) == 0 {
		return ""
	}
	if enc == nil {
		enc = unicode.UTF8
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, replacement))
	}

	return string(bytes.ToValidUTF8(out, replacement))
}

// DecodeString is a convenience around Lookup and Decode. Unknown encodings
// fall back to UTF-8.
func DecodeString(b []byte, name string) string {
	enc, err := Lookup(name)
	if err != nil {
		enc = unicode.UTF8
	}
	return Decode(b, enc)
}

// Default returns the platform default encoding name derived from the locale
// variables (LC_ALL, LC_CTYPE, LANG in that order of precedence).
func Default(getenv func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := getenv(key)
		if v == "" {
			continue
		}

		// Locale format: language[_territory][.codeset][@modifier].
		_, codeset, ok := strings.Cut(v, ".")
		if !ok {
			return UTF8
		}
		codeset, _, _ = strings.Cut(codeset, "@")
		if _, err := Lookup(codeset); err != nil {
			return UTF8
		}
		return strings.ToLower(codeset)
	}

	return UTF8
}

// Same returns true if both names resolve to the same encoding.
func Same(a, b string) bool {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return true
	}

	encA, err := Lookup(a)
	if err != nil {
		return false
	}
	encB, err := Lookup(b)
	if err != nil {
		return false
	}

	nameA, errA := ianaindex.IANA.Name(encA)
	nameB, errB := ianaindex.IANA.Name(encB)
	if errA != nil || errB != nil {
		return false
	}
	return nameA == nameB
}
