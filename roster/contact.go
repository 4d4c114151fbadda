// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roster

import "go.msnp.dev/msnp/address"

// Contact is a remote user known to the local user, per spec.md §3.
//
// LoginName is the stable identifier used for roster membership
// operations (ADC/REM); GUID is the stable identifier groups reference.
// A Contact is never constructed directly by callers — it is always owned
// by a Table and reached through Table.Lookup or an iteration method.
type Contact struct {
	LoginName       address.LoginName
	GUID            string
	Nickname        string
	PersonalMessage string
	Phone           Phone
	Status          Status
	Capabilities    uint32
	DisplayPicture  DisplayPictureRef
	Lists           List
	Groups          map[string]struct{} // group GUIDs
}

// Phone holds the PHH/PHW/PHM phone numbers PRP (for the local user) and
// SBP/BPR (for a contact) carry, per spec.md §9's note on SBS/SBP
// housekeeping fields.
type Phone struct {
	Home   string
	Work   string
	Mobile string
}

// Set applies a single PRP/SBP/BPR phone-type code, per spec.md §4.2's
// command table.
func (p *Phone) Set(code, value string) {
	switch code {
	case "PHH":
		p.Home = value
	case "PHW":
		p.Work = value
	case "PHM":
		p.Mobile = value
	}
}

// DisplayPictureRef is an opaque reference to a display-picture blob: a
// content hash and, once fetched, the raw bytes. Rendering the bytes is
// out of scope per spec.md §1.
type DisplayPictureRef struct {
	Hash string
	Data []byte
}

// InRoster reports whether the contact is part of the local roster, i.e.
// carries the Forward bit, per the invariant in spec.md §3.
func (c Contact) InRoster() bool {
	return c.Lists.Has(Forward)
}

// clone returns a deep-enough copy of c safe to hand to a caller outside
// the table's lock: Groups is copied so callers can't mutate table state
// through the returned value.
func (c Contact) clone() Contact {
	if c.Groups != nil {
		groups := make(map[string]struct{}, len(c.Groups))
		for g := range c.Groups {
			groups[g] = struct{}{}
		}
		c.Groups = groups
	}
	return c
}
