// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"context"
	"sync"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/roster"
	"go.msnp.dev/msnp/wire"
)

// LocalUser is the authenticated user: login name, nickname, personal
// message, presence status, capabilities, and phone numbers, per spec.md
// §3. It holds no display picture. Mutations go through the owning Client
// and round-trip to the server before the local copy changes. LoggedIn
// covers the initial snapshot; ChangeStatus and ChangeNickname return once
// acknowledged without firing a separate event, while
// ChangePersonalMessage also fires PersonalMessageChanged.
type LocalUser struct {
	client *Client

	mu              sync.RWMutex
	loginName       address.LoginName
	nickname        string
	personalMessage string
	status          roster.Status
	capabilities    uint32
	phone           roster.Phone
}

// LoginName returns the authenticated user's login name.
func (u *LocalUser) LoginName() address.LoginName {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loginName
}

// Nickname returns the current display nickname.
func (u *LocalUser) Nickname() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nickname
}

// PersonalMessage returns the current personal message.
func (u *LocalUser) PersonalMessage() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.personalMessage
}

// Status returns the current presence status.
func (u *LocalUser) Status() roster.Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// Phone returns the local user's phone numbers as last reported by PRP,
// per spec.md §9's note on SBS/SBP housekeeping fields.
func (u *LocalUser) Phone() roster.Phone {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.phone
}

// applyPhone applies a single PRP phone-type code to the local user.
func (u *LocalUser) applyPhone(code, value string) {
	u.mu.Lock()
	u.phone.Set(code, value)
	u.mu.Unlock()
}

func (u *LocalUser) setSnapshot(login address.LoginName, nickname string, status roster.Status) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.loginName = login
	u.nickname = nickname
	u.status = status
}

// ChangeStatus sets the local user's presence status, per spec.md §4.7.
// It sends CHG and waits for the server's echo before updating the local
// copy and returning.
func (u *LocalUser) ChangeStatus(ctx context.Context, status roster.Status) error {
	if !status.Valid() || status == roster.Offline {
		return &protocolArgError{"ChangeStatus: invalid status " + string(status)}
	}
	u.client.mu.RLock()
	ns := u.client.ns
	u.client.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	reply, err := ns.Tracker.Request(ctx, u.client.requestTimeout, func(c wire.Command) bool {
		return c.ID == "CHG"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "CHG", TrID: trid, HasTrID: true, Args: []string{string(status), "0"}}
	})
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.status = roster.Status(reply.Arg(0))
	u.mu.Unlock()
	return nil
}

// ChangeNickname sets the local user's display nickname, per spec.md §4.7.
// It sends PRP MFN <escaped nickname> and waits for the echo.
func (u *LocalUser) ChangeNickname(ctx context.Context, nickname string) error {
	escaped := address.EscapeArgument(address.NormalizeNickname(nickname))
	u.client.mu.RLock()
	ns := u.client.ns
	u.client.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	reply, err := ns.Tracker.Request(ctx, u.client.requestTimeout, func(c wire.Command) bool {
		return c.ID == "PRP" && c.Arg(0) == "MFN"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "PRP", TrID: trid, HasTrID: true, Args: []string{"MFN", escaped}}
	})
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.nickname = address.UnescapeArgument(reply.Arg(1))
	u.mu.Unlock()
	return nil
}

// ChangePersonalMessage sets the local user's personal message (the UBX
// payload's PSM field), per spec.md §4.7. It sends UUX with the rendered
// payload and waits for the server's acknowledgement.
func (u *LocalUser) ChangePersonalMessage(ctx context.Context, message string) error {
	payload := []byte("<Data><PSM>" + address.EscapeArgument(message) + "</PSM><CurrentMedia></CurrentMedia></Data>")
	u.client.mu.RLock()
	ns := u.client.ns
	u.client.mu.RUnlock()
	if ns == nil {
		return &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}
	_, err := ns.Tracker.Request(ctx, u.client.requestTimeout, func(c wire.Command) bool {
		return c.ID == "UUX"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "UUX", TrID: trid, HasTrID: true, Payload: payload, PayloadLen: len(payload)}
	})
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.personalMessage = message
	u.mu.Unlock()
	if u.client.handlers.PersonalMessageChanged != nil {
		u.client.handlers.PersonalMessageChanged(message)
	}
	return nil
}

// protocolArgError reports an invalid argument to a local operation, before
// anything is sent to the server.
type protocolArgError struct{ msg string }

func (e *protocolArgError) Error() string { return "msnp: " + e.msg }
