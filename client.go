// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package msnp implements an MSNP12 instant-messaging client: it logs a
// user into a notification server, maintains presence and contact state,
// and brokers multi-party IM sessions (switchboards) over separate TCP
// connections.
package msnp

import (
	"context"
	"sync"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/auth"
	"go.msnp.dev/msnp/internal/connio"
	"go.msnp.dev/msnp/roster"
	"go.msnp.dev/msnp/switchboard"
	"go.msnp.dev/msnp/wire"
)

// Client is a single authenticated MSNP12 session: one notification
// connection plus zero or more switchboard sessions, per spec.md §1 and
// §4.7.
type Client struct {
	options
	creds     auth.Credentials
	handlers  Handlers
	localUser *LocalUser
	contacts  *roster.Table

	mu  sync.RWMutex
	ns  *connio.Conn
	sbs map[string]*switchboard.Session
}

// New returns a Client for the given credentials. Call Login to connect.
func New(creds auth.Credentials, h Handlers, opts ...Option) *Client {
	c := &Client{
		options:  getOpts(opts...),
		creds:    creds,
		handlers: h,
		contacts: roster.NewTable(),
		sbs:      make(map[string]*switchboard.Session),
	}
	c.localUser = &LocalUser{client: c}
	return c
}

// LocalUser returns the authenticated user, valid once Login succeeds.
func (c *Client) LocalUser() *LocalUser { return c.localUser }

// Contacts returns a snapshot of every known contact, per spec.md §4.7's
// Client.contacts iterator.
func (c *Client) Contacts() []roster.Contact { return c.contacts.Contacts() }

// Groups returns a snapshot of every known group.
func (c *Client) Groups() []roster.Group { return c.contacts.Groups() }

// Logout ends the notification session, closing every open switchboard
// along with it.
func (c *Client) Logout() error {
	c.mu.Lock()
	ns := c.ns
	sbs := make([]*switchboard.Session, 0, len(c.sbs))
	for _, s := range c.sbs {
		sbs = append(sbs, s)
	}
	c.mu.Unlock()

	for _, s := range sbs {
		s.Close()
	}
	if ns == nil {
		return nil
	}
	trid := ns.Tracker.NextTrID()
	_ = ns.Send(wire.Command{ID: "OUT", TrID: trid})
	// Report Requested before closing the connection, so the dispatch
	// loop's own handleLogout(TransportError) — triggered by the close —
	// finds c.ns already cleared and no-ops instead of racing to report
	// the wrong reason.
	c.handleLogout(Requested)
	return ns.Close()
}

func (c *Client) handleLogout(reason LogoutReason) {
	c.mu.Lock()
	ns := c.ns
	c.ns = nil
	c.mu.Unlock()
	if ns == nil {
		return
	}
	if c.handlers.LoggedOut != nil {
		c.handlers.LoggedOut(reason)
	}
}

// StartIMSession opens a switchboard to remote, per spec.md §4.6's
// outbound (CAL) flow: it requests a switchboard allocation on the NS
// connection, dials the returned host, and waits for the remote to join.
// h receives the new session's message/presence events.
func (c *Client) StartIMSession(ctx context.Context, remote address.LoginName, h switchboard.Handlers) (*switchboard.Session, error) {
	c.mu.RLock()
	ns := c.ns
	c.mu.RUnlock()
	if ns == nil {
		return nil, &LoginError{Kind: LoginTransport, Err: errNotLoggedIn}
	}

	reply, err := ns.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "XFR" && cmd.Arg(0) == "SB"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "XFR", TrID: trid, HasTrID: true, Args: []string{"SB"}}
	})
	if err != nil {
		return nil, err
	}

	addr := reply.Arg(1)
	ticket := reply.Arg(3)

	rw, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	conn := connio.Open(rw, c.log)
	go conn.Serve()

	sess, err := switchboard.Call(ctx, conn, c.localUser.LoginName(), ticket, remote, h, c.log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.trackSession(sess)
	return sess, nil
}

// AcceptInvitation joins the switchboard described by inv, per spec.md
// §4.6's inbound (ANS) flow. h receives the new session's message/presence
// events.
func (c *Client) AcceptInvitation(ctx context.Context, inv switchboard.Invitation, h switchboard.Handlers) (*switchboard.Session, error) {
	rw, err := c.dial(ctx, inv.Endpoint)
	if err != nil {
		return nil, err
	}
	conn := connio.Open(rw, c.log)
	go conn.Serve()

	sess, err := switchboard.Answer(ctx, conn, c.localUser.LoginName(), inv, h, c.log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.trackSession(sess)
	return sess, nil
}

// RejectInvitation discards inv without joining. MSNP12 has no explicit
// decline message; the invitation simply expires on the server's side.
func (c *Client) RejectInvitation(inv switchboard.Invitation) {}

func (c *Client) trackSession(sess *switchboard.Session) {
	c.mu.Lock()
	c.sbs[sess.SessionID()] = sess
	c.mu.Unlock()
	if c.handlers.IMSessionCreated != nil {
		c.handlers.IMSessionCreated(sess)
	}
	go func() {
		<-sess.Done()
		c.mu.Lock()
		delete(c.sbs, sess.SessionID())
		c.mu.Unlock()
	}()
}

var errNotLoggedIn = loginStateError("not logged in")

type loginStateError string

func (e loginStateError) Error() string { return "msnp: " + string(e) }
