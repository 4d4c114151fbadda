// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package address implements MSNP login names and display nicknames: the
// stable identifiers and free-text labels carried over the wire, normalized
// the way the protocol expects.
//
// A LoginName is the MSNP analogue of an XMPP JID: parsed once up front,
// validated, and compared thereafter by its canonical string form.
package address

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalid is returned when a string cannot be parsed as a LoginName.
var ErrInvalid = errors.New("address: invalid login name")

// LoginName is a validated, normalized MSNP login name (an email address
// used as a stable contact/local-user identifier).
type LoginName struct {
	local  string
	domain string
}

// Parse parses and normalizes s as a LoginName.
//
// The local part is normalized to Unicode NFC; the domain part is converted
// to its ASCII-Compatible Encoding (ACE) form via IDNA, mirroring the way
// the teacher's jid package normalizes a JID's domainpart.
func Parse(s string) (LoginName, error) {
	s = strings.TrimSpace(s)
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return LoginName{}, fmt.Errorf("%w: %q: missing local or domain part", ErrInvalid, s)
	}
	local := norm.NFC.String(s[:at])
	domain, err := idna.Lookup.ToASCII(s[at+1:])
	if err != nil {
		return LoginName{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	if local == "" || domain == "" {
		return LoginName{}, fmt.Errorf("%w: %q: empty local or domain part", ErrInvalid, s)
	}
	return LoginName{local: local, domain: domain}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time constants, not for parsing untrusted wire input.
func MustParse(s string) LoginName {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the canonical "local@domain" form.
func (n LoginName) String() string {
	if n.local == "" && n.domain == "" {
		return ""
	}
	return n.local + "@" + n.domain
}

// IsZero reports whether n is the zero LoginName.
func (n LoginName) IsZero() bool {
	return n.local == "" && n.domain == ""
}

// Equal reports whether n and other refer to the same login name.
func (n LoginName) Equal(other LoginName) bool {
	return n.local == other.local && n.domain == other.domain
}
