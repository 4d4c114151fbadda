// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCommand is returned by DecodeHeader when the header's identifier is
// not registered. Callers (the command reader) log and skip the line
// rather than treating this as fatal.
var ErrUnknownCommand = errors.New("wire: unknown command identifier")

// schema describes how a given inbound command identifier's header is laid
// out: whether the first argument is a transaction id, and whether the
// last argument is a decimal payload length.
//
// Outbound encoding does not consult the schema — the notification and
// switchboard clients build Command values directly with the shape they
// intend to send, since they are the ones issuing the request and already
// know its exact form.
type schema struct {
	hasTrID bool
	payload bool
}

// registry enumerates every inbound command identifier this client
// recognizes, per spec.md §4.2. Unknown identifiers decode as
// ErrUnknownCommand and are skipped by the reader, not treated as fatal.
var registry = map[string]schema{
	// session negotiation
	"VER": {hasTrID: true},
	"CVR": {hasTrID: true},
	"USR": {hasTrID: true},
	"XFR": {hasTrID: true},
	"CHL": {hasTrID: true},

	// presence and user state
	"CHG": {hasTrID: true},
	"NLN": {},
	"ILN": {hasTrID: true},
	"FLN": {},
	"UBX": {payload: true},
	"PRP": {hasTrID: true},
	"SBP": {hasTrID: true},
	"BPR": {},

	// roster and groups
	"SYN": {hasTrID: true},
	"LST": {hasTrID: true},
	"LSG": {hasTrID: true},
	"ADC": {hasTrID: true},
	"REM": {hasTrID: true},
	"ADG": {hasTrID: true},
	"RMG": {hasTrID: true},
	"REG": {hasTrID: true},
	"BLP": {hasTrID: true},
	"GTC": {hasTrID: true},

	// messaging and switchboards
	"MSG": {payload: true},
	"RNG": {},
	"CAL": {hasTrID: true},
	"ANS": {hasTrID: true},
	"JOI": {},
	"IRO": {hasTrID: true},
	"BYE": {},
	"UUX": {hasTrID: true},

	// housekeeping
	"QNG": {},
	"NOT": {payload: true},
	"OUT": {},
	"ACK": {hasTrID: true},
	"NAK": {hasTrID: true},
	"SBS": {hasTrID: true},
}

// DecodeHeader parses a single CRLF-stripped header line into a Command.
// If the command carries a payload, PayloadLen is populated but Payload is
// left nil — the caller (the command reader) is responsible for reading
// PayloadLen raw bytes off the transport and assigning them.
func DecodeHeader(line string) (Command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, fmt.Errorf("wire: empty header line")
	}

	id := tokens[0]
	if code, ok := parseServerErrorCode(id); ok {
		if len(tokens) < 2 {
			return Command{}, fmt.Errorf("wire: server error %d missing transaction id", code)
		}
		trid, err := strconv.ParseUint(tokens[1], 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("wire: server error %d: bad transaction id %q: %w", code, tokens[1], err)
		}
		return Command{ServerError: code, TrID: TrID(trid), HasTrID: true}, nil
	}

	sc, ok := registry[id]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, id)
	}

	rest := tokens[1:]
	cmd := Command{ID: id}
	if sc.hasTrID {
		if len(rest) == 0 {
			return Command{}, fmt.Errorf("wire: %s: missing transaction id", id)
		}
		trid, err := strconv.ParseUint(rest[0], 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("wire: %s: bad transaction id %q: %w", id, rest[0], err)
		}
		cmd.TrID = TrID(trid)
		cmd.HasTrID = true
		rest = rest[1:]
	}
	if sc.payload {
		if len(rest) == 0 {
			return Command{}, fmt.Errorf("wire: %s: missing payload length", id)
		}
		n, err := strconv.Atoi(rest[len(rest)-1])
		if err != nil || n < 0 {
			return Command{}, fmt.Errorf("wire: %s: bad payload length %q", id, rest[len(rest)-1])
		}
		cmd.PayloadLen = n
		rest = rest[:len(rest)-1]
	}
	cmd.Args = rest
	return cmd, nil
}

// parseServerErrorCode reports whether id is a three-digit numeric server
// error code, as opposed to a named command identifier.
func parseServerErrorCode(id string) (int, bool) {
	if len(id) != 3 {
		return 0, false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	code, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return code, true
}

// EncodeHeader renders c's header line (without a trailing CRLF and without
// any payload bytes). Args must already be percent-escaped where the
// caller knows escaping applies.
func EncodeHeader(c Command) string {
	var b strings.Builder
	b.WriteString(c.ID)
	if c.HasTrID {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(uint64(c.TrID), 10))
	}
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	if c.PayloadLen > 0 || len(c.Payload) > 0 {
		n := c.PayloadLen
		if n == 0 {
			n = len(c.Payload)
		}
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
