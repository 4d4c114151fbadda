// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package switchboard

import "go.msnp.dev/msnp/address"

// Invitation is an inbound request to join a switchboard, created when a
// RNG command arrives over the notification connection, per spec.md §3.
// It is consumed by Answer or discarded by rejecting it; either way it has
// no further use afterward.
type Invitation struct {
	InvitingUser     address.LoginName
	InvitingNickname string
	SessionID        string
	Endpoint         string
	AuthString       string
}
