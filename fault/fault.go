// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fault defines the typed error taxonomy shared by every layer of
// the client: transport faults, protocol violations, server error replies,
// timeouts, authentication failures, and cancellation — per spec.md §7.
package fault

import (
	"errors"
	"fmt"
)

// Cancelled is returned when a caller- or shutdown-initiated cancellation
// aborts a pending operation.
var Cancelled = errors.New("msnp: operation cancelled")

// Timeout is returned when no matching reply arrives before a request's
// deadline. The request is not retried automatically.
var Timeout = errors.New("msnp: timed out waiting for a reply")

// BadCredentials is returned specifically by the auth-failure path (an SSO
// rejection, or a USR reply carrying a 911 server error). It is never
// retried.
var BadCredentials = errors.New("msnp: bad credentials")

// Transport wraps a fault from the underlying byte stream (connect, read,
// or write failure). It always terminates the affected connection.
type Transport struct {
	Err error
}

func (e *Transport) Error() string { return fmt.Sprintf("msnp: transport: %v", e.Err) }
func (e *Transport) Unwrap() error { return e.Err }

// Protocol reports a malformed header, a length mismatch, or some other
// violation of the wire format. It is non-terminal unless it occurs during
// login.
type Protocol struct {
	Reason string
}

func (e *Protocol) Error() string { return "msnp: protocol error: " + e.Reason }

// Server reports a three-digit error code returned by the peer in reply to
// a correlated request.
type Server struct {
	Code int
}

func (e *Server) Error() string {
	if name, ok := knownCodes[e.Code]; ok {
		return fmt.Sprintf("msnp: server error %d (%s)", e.Code, name)
	}
	return fmt.Sprintf("msnp: server error %d", e.Code)
}

// knownCodes names the server error codes spec.md singles out by number.
var knownCodes = map[int]string{
	911: "authentication failed",
	913: "not allowed while offline",
	207: "server busy",
	208: "invalid username",
	216: "already in contact list",
	217: "user not online",
	241: "invalid contact network",
}
