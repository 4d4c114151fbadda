// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire implements the MSNP command codec: encoding and decoding of
// the textual header line (plus an optional inline binary payload) that
// makes up every command on the wire, and the transaction id counter used
// to correlate client-originated commands with their server replies.
package wire

import (
	"strconv"
	"sync/atomic"
)

// TrID is a transaction id: a process-local, monotonically increasing
// identifier that correlates a client-originated command with its
// server-issued reply.
type TrID uint32

// Counter assigns strictly increasing transaction ids for the lifetime of a
// single notification session. The zero Counter starts at 1 — id 0 is
// used by the protocol for a handful of commands that are not replies to a
// client request (e.g. the server's CHL). Next is safe for concurrent use.
type Counter struct {
	next uint32
}

// Next returns the next transaction id, starting at 1.
func (c *Counter) Next() TrID {
	return TrID(atomic.AddUint32(&c.next, 1))
}

// Command is a single unit of the MSNP wire protocol: either a
// client-originated or server-initiated command with a three-letter
// identifier, an optional transaction id, header arguments, and an optional
// binary payload — or a three-digit server error carrying only a code and
// the transaction id of the request it answers.
type Command struct {
	// ID is the command's three-letter identifier (e.g. "USR", "MSG"), or
	// empty if ServerError is set.
	ID string

	// ServerError is non-zero if this command is a three-digit server error
	// reply rather than a named command.
	ServerError int

	// TrID is the transaction id, or 0 if the command carries none.
	TrID TrID

	// HasTrID distinguishes a present TrID of 0 from no TrID at all — a small
	// number of commands (e.g. NLN, JOI, MSG) carry no transaction id field
	// at all.
	HasTrID bool

	// Args holds the header tokens following the identifier and transaction
	// id, exactly as they appear on the wire. The codec does not unescape
	// them; callers decode percent-escaped arguments with
	// address.UnescapeArgument.
	Args []string

	// PayloadLen is the declared length of Payload, as read from the header.
	// It is set even before Payload is populated, so the reader knows how
	// many raw bytes to pull off the wire next.
	PayloadLen int

	// Payload holds the raw bytes that followed the header line, if any.
	Payload []byte
}

// IsError reports whether c is a three-digit server error reply.
func (c Command) IsError() bool {
	return c.ServerError != 0
}

// Arg returns the i'th header argument, or "" if there is no such argument.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// String renders c as it would appear in a log line (not as wire bytes —
// use EncodeHeader for that).
func (c Command) String() string {
	if c.IsError() {
		return strconv.Itoa(c.ServerError) + " " + strconv.FormatUint(uint64(c.TrID), 10)
	}
	s := c.ID
	if c.HasTrID {
		s += " " + strconv.FormatUint(uint64(c.TrID), 10)
	}
	for _, a := range c.Args {
		s += " " + a
	}
	if c.PayloadLen > 0 {
		s += " " + strconv.Itoa(c.PayloadLen)
	}
	return s
}
