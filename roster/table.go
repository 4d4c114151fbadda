// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roster

import (
	"sync"

	"go.msnp.dev/msnp/address"
)

// Table is the shared contact and group state for a single notification
// session: read by caller operations, written both by caller mutations and
// by the reader goroutine as NLN/ILN/FLN/UBX/SYN/ADC/etc. arrive.
//
// Per spec.md §5, reads take a snapshot under the read lock and mutations
// take the write lock; no I/O happens while either lock is held.
type Table struct {
	mu       sync.RWMutex
	contacts map[string]*Contact // keyed by LoginName.String()
	groups   map[string]*Group   // keyed by GUID
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		contacts: make(map[string]*Contact),
		groups:   make(map[string]*Group),
	}
}

// Contacts returns a snapshot of every known contact.
func (t *Table) Contacts() []Contact {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Contact, 0, len(t.contacts))
	for _, c := range t.contacts {
		out = append(out, c.clone())
	}
	return out
}

// Groups returns a snapshot of every known group.
func (t *Table) Groups() []Group {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Group, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, *g)
	}
	return out
}

// Lookup returns a snapshot of the contact with the given login name.
func (t *Table) Lookup(login address.LoginName) (Contact, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.contacts[login.String()]
	if !ok {
		return Contact{}, false
	}
	return c.clone(), true
}

// LookupGroup returns the group with the given GUID.
func (t *Table) LookupGroup(guid string) (Group, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.groups[guid]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// Upsert inserts or replaces a contact entry wholesale.
func (t *Table) Upsert(c Contact) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := c.clone()
	t.contacts[c.LoginName.String()] = &stored
}

// Mutate looks up the contact with the given login name, applies fn to a
// mutable copy, and stores the result. If no such contact exists, fn is
// called with the zero Contact (LoginName pre-filled) and the result is
// inserted.
func (t *Table) Mutate(login address.LoginName, fn func(*Contact)) Contact {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.contacts[login.String()]
	var working Contact
	if ok {
		working = c.clone()
	} else {
		working = Contact{LoginName: login}
	}
	fn(&working)
	stored := working.clone()
	t.contacts[login.String()] = &stored
	return working
}

// MutateByGUID looks up the contact with the given GUID and applies fn to a
// mutable copy, storing the result. It reports false if no contact carries
// that GUID, per SBP's GUID-keyed addressing in spec.md §4.2's command
// table.
func (t *Table) MutateByGUID(guid string, fn func(*Contact)) (Contact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, c := range t.contacts {
		if c.GUID != guid {
			continue
		}
		working := c.clone()
		fn(&working)
		stored := working.clone()
		t.contacts[key] = &stored
		return working, true
	}
	return Contact{}, false
}

// Remove deletes the contact with the given login name.
func (t *Table) Remove(login address.LoginName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.contacts, login.String())
}

// UpsertGroup inserts or replaces a group entry.
func (t *Table) UpsertGroup(g Group) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := g
	t.groups[g.GUID] = &stored
}

// RenameGroup updates the name of the group with the given GUID, if any.
func (t *Table) RenameGroup(guid, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.groups[guid]; ok {
		g.Name = name
	}
}

// RemoveGroup deletes the group with the given GUID and drops it from
// every contact's group set.
func (t *Table) RemoveGroup(guid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.groups, guid)
	for _, c := range t.contacts {
		delete(c.Groups, guid)
	}
}

// SetAllowed moves the contact between the Allow and Block lists,
// enforcing the mutual-exclusion invariant from spec.md §3.
func (t *Table) SetAllowed(login address.LoginName, allowed bool) Contact {
	return t.Mutate(login, func(c *Contact) {
		if allowed {
			c.Lists = c.Lists &^ Block | Allow
		} else {
			c.Lists = c.Lists &^ Allow | Block
		}
	})
}
