// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package address

import (
	"strings"

	"golang.org/x/text/width"
)

// isUnreserved reports whether c is in the RFC 3986 unreserved character
// set: these bytes are never percent-escaped on the wire.
func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

const upperhex = "0123456789ABCDEF"

// EscapeArgument percent-escapes s per RFC 3986's unreserved set, the way
// MSNP header arguments (nicknames, personal messages, group names) are
// encoded. Multi-byte UTF-8 runes are escaped byte by byte.
func EscapeArgument(s string) string {
	s = width.Fold.String(s)
	var needed int
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			needed += 2
		}
	}
	if needed == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + needed)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// UnescapeArgument decodes a percent-escaped MSNP header argument back to
// plain UTF-8. Malformed escape sequences are passed through verbatim
// rather than rejected, matching the codec's general tolerance for minor
// malformations in trailing optional fields.
func UnescapeArgument(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
