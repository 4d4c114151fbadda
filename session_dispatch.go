// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"encoding/xml"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/roster"
	"go.msnp.dev/msnp/switchboard"
	"go.msnp.dev/msnp/wire"
)

// dispatch routes unsolicited notification-server commands to the contact
// table, the local user, and the caller's Handlers, per spec.md §4.5's
// "Unsolicited dispatch" section. It runs for the lifetime of the
// notification connection, continuing to drain the same channel login used
// to collect the handshake burst.
func (c *Client) dispatch(ch <-chan wire.Command) {
	for cmd := range ch {
		switch cmd.ID {
		case "NLN", "ILN":
			c.applyPresence(cmd)
		case "FLN":
			c.applyOffline(cmd)
		case "UBX":
			c.applyPersonalMessage(cmd)
		case "CHG":
			c.applyLocalStatus(cmd)
		case "RNG":
			c.handleInvitation(cmd)
		case "NOT":
			if c.handlers.NotificationReceived != nil {
				c.handlers.NotificationReceived(cmd.Payload)
			}
		case "OUT":
			c.handleOut(cmd)
		case "PRP":
			c.applyLocalPhone(cmd)
		case "BPR":
			c.applyContactPhone(cmd)
		case "SBP":
			c.applyContactPhoneByGUID(cmd)
		}
	}
	c.handleLogout(TransportError)
}

// applyPresence handles NLN ("<status> <login> <nick> <clientid> [...]")
// and ILN ("<trid> <status> <login> <nick> <clientid> [...]", trid already
// stripped into cmd.TrID so the argument layout is identical from here).
func (c *Client) applyPresence(cmd wire.Command) {
	if len(cmd.Args) < 3 {
		return
	}
	login, err := address.Parse(cmd.Arg(1))
	if err != nil {
		c.log.Warn("presence update with unparsable login", "arg", cmd.Arg(1))
		return
	}
	status := roster.Status(cmd.Arg(0))
	nickname := address.UnescapeArgument(cmd.Arg(2))
	contact := c.contacts.Mutate(login, func(ct *roster.Contact) {
		ct.Status = status
		ct.Nickname = nickname
	})
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(contact)
	}
}

// applyOffline handles FLN "<login>".
func (c *Client) applyOffline(cmd wire.Command) {
	login, err := address.Parse(cmd.Arg(0))
	if err != nil {
		return
	}
	contact := c.contacts.Mutate(login, func(ct *roster.Contact) {
		ct.Status = roster.Offline
	})
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(contact)
	}
}

// applyPersonalMessage handles UBX "<login> <len>\r\n<payload>", where the
// payload is a small XML document carrying the PSM field among others.
func (c *Client) applyPersonalMessage(cmd wire.Command) {
	login, err := address.Parse(cmd.Arg(0))
	if err != nil {
		return
	}
	psm := personalMessageOf(cmd.Payload)
	contact := c.contacts.Mutate(login, func(ct *roster.Contact) {
		ct.PersonalMessage = address.UnescapeArgument(psm)
	})
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(contact)
	}
}

func (c *Client) applyLocalStatus(cmd wire.Command) {
	if len(cmd.Args) < 1 {
		return
	}
	c.localUser.setSnapshot(c.localUser.LoginName(), c.localUser.Nickname(), roster.Status(cmd.Arg(0)))
}

// handleInvitation handles RNG "<sessionId> <endpoint> CKI <authString>
// <invitingLogin> <invitingNick>".
func (c *Client) handleInvitation(cmd wire.Command) {
	if len(cmd.Args) < 6 {
		c.log.Warn("RNG with too few arguments", "command", cmd.String())
		return
	}
	login, err := address.Parse(cmd.Arg(4))
	if err != nil {
		c.log.Warn("RNG with unparsable inviting login", "arg", cmd.Arg(4))
		return
	}
	inv := switchboard.Invitation{
		InvitingUser:     login,
		InvitingNickname: address.UnescapeArgument(cmd.Arg(5)),
		SessionID:        cmd.Arg(0),
		Endpoint:         cmd.Arg(1),
		AuthString:       cmd.Arg(3),
	}
	if c.handlers.InvitedToIMSession != nil {
		c.handlers.InvitedToIMSession(inv)
	}
}

// applyLocalPhone handles an ongoing PRP "<type> <value>" for the local
// user, mirroring the handling inside the SYN handshake burst.
func (c *Client) applyLocalPhone(cmd wire.Command) {
	if len(cmd.Args) < 2 {
		return
	}
	c.localUser.applyPhone(cmd.Arg(0), cmd.Arg(1))
}

// applyContactPhone handles BPR "<login> <type> <value>".
func (c *Client) applyContactPhone(cmd wire.Command) {
	if len(cmd.Args) < 3 {
		return
	}
	login, err := address.Parse(cmd.Arg(0))
	if err != nil {
		c.log.Warn("BPR with unparsable login", "arg", cmd.Arg(0))
		return
	}
	contact := c.contacts.Mutate(login, func(ct *roster.Contact) {
		ct.Phone.Set(cmd.Arg(1), cmd.Arg(2))
	})
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(contact)
	}
}

// applyContactPhoneByGUID handles SBP "<guid> <type> <value>", which
// addresses a contact by its own GUID rather than login name, both during
// the SYN handshake burst and in ongoing dispatch.
func (c *Client) applyContactPhoneByGUID(cmd wire.Command) {
	if len(cmd.Args) < 3 {
		return
	}
	contact, ok := c.contacts.MutateByGUID(cmd.Arg(0), func(ct *roster.Contact) {
		ct.Phone.Set(cmd.Arg(1), cmd.Arg(2))
	})
	if !ok {
		c.log.Warn("SBP for unknown contact GUID", "guid", cmd.Arg(0))
		return
	}
	if c.handlers.ContactUpdated != nil {
		c.handlers.ContactUpdated(contact)
	}
}

func (c *Client) handleOut(cmd wire.Command) {
	reason := TransportError
	switch cmd.Arg(0) {
	case "OTH":
		reason = LoggedInElsewhere
	case "SSD":
		reason = ServerShuttingDown
	}
	c.handleLogout(reason)
}

// ubxPayload is the small XML document carried by UBX, per spec.md §3's
// mention of the personal-message field.
type ubxPayload struct {
	PSM string `xml:"PSM"`
}

// personalMessageOf pulls the PSM field out of a UBX payload.
func personalMessageOf(payload []byte) string {
	var p ubxPayload
	if err := xml.Unmarshal(payload, &p); err != nil {
		return ""
	}
	return p.PSM
}
