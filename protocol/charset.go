// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Response charset handling.

package protocol

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset applies when content-type names no charset, or names
// more than one.
const DefaultCharset = "iso-8859-1"

var charsetParam = regexp.MustCompile(`(?i)charset=([^ ;]*)`)

// CharsetOf extracts the charset token of a content-type value.
func CharsetOf(contentType string) string {
	m := charsetParam.FindAllStringSubmatch(contentType, -1)
	if len(m) != 1 {
		return DefaultCharset
	}
	name := strings.Trim(m[0][1], `"'`)
	if name == "" {
		return DefaultCharset
	}
	return strings.ToLower(name)
}

// LookupCharset resolves an IANA charset name, falling back to the WHATWG
// label set. It returns false for names with no decoder.
func LookupCharset(name string) (encoding.Encoding, bool) {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, true
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc, true
	}
	return nil, false
}

var (
	errInvalidUTF8 = errors.New("body is not valid UTF-8")
	errUndecodable = errors.New("body holds bytes undefined in its charset")
)

var replacementChar = []byte(string(utf8.RuneError))

// decodeCharset converts body to UTF-8. x/text decoders substitute U+FFFD
// for malformed input; a substitution that does not encode back to the
// original bytes is reported as an error.
func decodeCharset(enc encoding.Encoding, body []byte) ([]byte, error) {
	if enc == unicode.UTF8 {
		if !utf8.Valid(body) {
			return nil, errInvalidUTF8
		}
		return body, nil
	}
	text, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, err
	}
	if !bytes.Contains(text, replacementChar) {
		return text, nil
	}
	back, err := enc.NewEncoder().Bytes(text)
	if err != nil || !bytes.Equal(back, body) {
		return nil, errUndecodable
	}
	return text, nil
}
