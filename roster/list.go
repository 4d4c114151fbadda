// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package roster implements the MSNP contact list: the forward, allow,
// block, reverse, and pending list memberships, and the unordered groups a
// contact may belong to.
package roster

// List is the bitmask of the five MSNP list memberships a contact may
// hold, per spec.md §3 and §6.
type List uint8

const (
	// Forward is the local user's buddy list: presence for a contact on this
	// list is delivered to the local user.
	Forward List = 1 << 0
	// Allow grants a contact permission to see the local user's presence.
	Allow List = 1 << 1
	// Block denies a contact permission to see the local user's presence or
	// to message it.
	Block List = 1 << 2
	// Reverse means the local user is on the contact's forward list.
	Reverse List = 1 << 3
	// Pending means the contact has requested to be added and is awaiting an
	// allow/block decision.
	Pending List = 1 << 4
)

// Has reports whether l includes every bit set in other.
func (l List) Has(other List) bool {
	return l&other == other
}

// String renders l as the letter codes MSNP uses on the wire (FL, AL, BL,
// RL, PL), space separated.
func (l List) String() string {
	var s string
	for _, m := range []struct {
		bit  List
		name string
	}{
		{Forward, "FL"}, {Allow, "AL"}, {Block, "BL"}, {Reverse, "RL"}, {Pending, "PL"},
	} {
		if l.Has(m.bit) {
			if s != "" {
				s += " "
			}
			s += m.name
		}
	}
	return s
}
