// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"context"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/roster"
	"go.msnp.dev/msnp/wire"
)

// AddContact adds loginName to the forward list, optionally as a member of
// group, per spec.md §4.7. It sends ADC and waits for the server's echo
// before updating the local table.
func (c *Client) AddContact(ctx context.Context, loginName address.LoginName, nickname string, group *roster.Group) (roster.Contact, error) {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return roster.Contact{}, &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}

	args := []string{"FL", loginName.String(), address.EscapeArgument(nickname)}
	reply, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "ADC" && cmd.Arg(0) == "FL"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "ADC", TrID: trid, HasTrID: true, Args: args}
	})
	if err != nil {
		return roster.Contact{}, err
	}

	guid := reply.Arg(2)
	contact := c.contacts.Mutate(loginName, func(ct *roster.Contact) {
		ct.Nickname = nickname
		ct.GUID = guid
		ct.Lists |= roster.Forward
	})

	if group != nil {
		if err := c.addContactToGroup(ctx, loginName, guid, group.GUID); err != nil {
			return contact, err
		}
	}
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(contact)
	}
	return contact, nil
}

func (c *Client) addContactToGroup(ctx context.Context, loginName address.LoginName, guid, groupGUID string) error {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	_, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "ADC" && cmd.Arg(0) == "FL"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "ADC", TrID: trid, HasTrID: true, Args: []string{"FL", "C=" + guid, groupGUID}}
	})
	if err != nil {
		return err
	}
	c.contacts.Mutate(loginName, func(ct *roster.Contact) {
		if ct.Groups == nil {
			ct.Groups = make(map[string]struct{})
		}
		ct.Groups[groupGUID] = struct{}{}
	})
	return nil
}

// RemoveContact removes a contact from the forward list entirely, per
// spec.md §4.7.
func (c *Client) RemoveContact(ctx context.Context, contact roster.Contact) error {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	_, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "REM" && cmd.Arg(0) == "FL"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "REM", TrID: trid, HasTrID: true, Args: []string{"FL", contact.GUID}}
	})
	if err != nil {
		return err
	}
	c.contacts.Remove(contact.LoginName)
	return nil
}

// Block moves contact onto the block list (and off the allow list), per
// spec.md §3's AL/BL mutual-exclusion invariant.
func (c *Client) Block(ctx context.Context, contact roster.Contact) (roster.Contact, error) {
	return c.setAllowed(ctx, contact, false)
}

// Unblock moves contact onto the allow list (and off the block list).
func (c *Client) Unblock(ctx context.Context, contact roster.Contact) (roster.Contact, error) {
	return c.setAllowed(ctx, contact, true)
}

func (c *Client) setAllowed(ctx context.Context, contact roster.Contact, allowed bool) (roster.Contact, error) {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return roster.Contact{}, &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}

	addID, remID := "AL", "BL"
	if !allowed {
		addID, remID = "BL", "AL"
	}
	_, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "REM" && cmd.Arg(0) == remID
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "REM", TrID: trid, HasTrID: true, Args: []string{remID, contact.LoginName.String()}}
	})
	if err != nil {
		return roster.Contact{}, err
	}
	_, err = ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "ADC" && cmd.Arg(0) == addID
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "ADC", TrID: trid, HasTrID: true, Args: []string{addID, contact.LoginName.String()}}
	})
	if err != nil {
		return roster.Contact{}, err
	}
	result := c.contacts.SetAllowed(contact.LoginName, allowed)
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(result)
	}
	return result, nil
}

// AddGroup creates a new group, per spec.md §4.7. It sends ADG and waits
// for the server-assigned GUID.
func (c *Client) AddGroup(ctx context.Context, name string) (roster.Group, error) {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return roster.Group{}, &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	escaped := address.EscapeArgument(name)
	reply, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "ADG"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "ADG", TrID: trid, HasTrID: true, Args: []string{escaped, "0"}}
	})
	if err != nil {
		return roster.Group{}, err
	}
	g := roster.Group{Name: name, GUID: reply.Arg(1)}
	c.contacts.UpsertGroup(g)
	if c.handlers.GroupUpdated != nil {
		c.handlers.GroupUpdated(g, false)
	}
	return g, nil
}

// RemoveGroup deletes group and drops it from every contact's group set,
// per spec.md §4.7.
func (c *Client) RemoveGroup(ctx context.Context, group roster.Group) error {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	_, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "RMG"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "RMG", TrID: trid, HasTrID: true, Args: []string{group.GUID}}
	})
	if err != nil {
		return err
	}
	c.contacts.RemoveGroup(group.GUID)
	if c.handlers.GroupUpdated != nil {
		c.handlers.GroupUpdated(group, true)
	}
	return nil
}

// RenameGroup renames group, per spec.md §4.7 and the E5 scenario: it
// sends REG and applies the new name once the server echoes it back.
func (c *Client) RenameGroup(ctx context.Context, group roster.Group, name string) error {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	escaped := address.EscapeArgument(name)
	reply, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "REG"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "REG", TrID: trid, HasTrID: true, Args: []string{group.GUID, escaped}}
	})
	if err != nil {
		return err
	}
	newName := address.UnescapeArgument(reply.Arg(1))
	c.contacts.RenameGroup(group.GUID, newName)
	if c.handlers.GroupUpdated != nil {
		c.handlers.GroupUpdated(roster.Group{Name: newName, GUID: group.GUID}, false)
	}
	return nil
}
