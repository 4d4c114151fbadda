// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"go.msnp.dev/msnp/roster"
	"go.msnp.dev/msnp/switchboard"
)

// LogoutReason explains why a notification session ended, per spec.md
// §4.5's OUT handling and the unconditional transport-error transition.
type LogoutReason string

const (
	// LoggedInElsewhere corresponds to an OUT OTH command: another login
	// for the same account displaced this one.
	LoggedInElsewhere LogoutReason = "OTH"
	// ServerShuttingDown corresponds to an OUT SSD command.
	ServerShuttingDown LogoutReason = "SSD"
	// PingTimeout means no QNG arrived within the ping loop's deadline.
	PingTimeout LogoutReason = "PingTimeout"
	// TransportError means the underlying connection failed.
	TransportError LogoutReason = "TransportError"
	// Requested means the caller called Logout.
	Requested LogoutReason = "Requested"
)

// Handlers are the callbacks a Client dispatches to as notification-server
// events occur, per spec.md §4.7's typed event surface. Every field may be
// nil. Unsolicited events are invoked from the client's dispatch goroutine,
// which drains the notification connection's inbound commands; LoggedIn,
// PersonalMessageChanged and the events fired by roster operations run on
// the calling goroutine. Heavy caller work must be offloaded, per spec.md §5.
type Handlers struct {
	// LoggedIn fires exactly once per successful Login, after the
	// SettingStatus state completes.
	LoggedIn func()

	// LoggedOut fires when the notification session ends for any reason.
	LoggedOut func(reason LogoutReason)

	// ContactUpdated fires whenever a contact's presence, nickname,
	// personal message, or list membership changes.
	ContactUpdated func(c roster.Contact)

	// GroupUpdated fires whenever a group is added, renamed, or removed.
	// removed is true only on removal, in which case g.Name is the name the
	// group had before deletion.
	GroupUpdated func(g roster.Group, removed bool)

	// InvitedToIMSession fires when an inbound RNG arrives, per the E3
	// scenario.
	InvitedToIMSession func(inv switchboard.Invitation)

	// IMSessionCreated fires whenever a switchboard session becomes usable,
	// whether from StartIMSession or AcceptInvitation.
	IMSessionCreated func(s *switchboard.Session)

	// NotificationReceived fires on an unsolicited NOT command.
	NotificationReceived func(body []byte)

	// PersonalMessageChanged fires after LocalUser.ChangePersonalMessage
	// succeeds, symmetric with how an inbound UBX updates a contact's
	// personal message and fires ContactUpdated. MSNP never echoes a UUX
	// back to its own sender, so this is reported from the local success
	// path rather than from unsolicited dispatch.
	PersonalMessageChanged func(message string)
}
