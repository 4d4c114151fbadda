// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/auth"
	"go.msnp.dev/msnp/fault"
	"go.msnp.dev/msnp/internal/connio"
	"go.msnp.dev/msnp/roster"
	"go.msnp.dev/msnp/wire"
)

// clientVersion, clientOS, clientOSVer, clientCPU and clientLang are the
// CVR arguments the notification server expects to see, per spec.md §4.5.
const (
	clientVersion = "7.0.0777"
	clientOS      = "winnt"
	clientOSVer   = "5.1"
	clientCPU     = "i386"
	clientLang    = "0x0409"
)

// Login drives the notification-server connection state machine described
// in spec.md §4.5, from the initial dispatcher dial through Ready. It
// blocks until the client is ready to use or the login deadline (set by
// WithLoginTimeout) expires.
func (c *Client) Login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	addr := c.dispatchServer
	redirected := false
	for {
		if redirected && ctx.Err() != nil {
			return &LoginError{Kind: LoginRedirected, Err: ctx.Err()}
		}
		conn, err := c.openNS(ctx, addr)
		if err != nil {
			return &LoginError{Kind: redirectedKind(redirected, ctx, LoginTransport), Err: err}
		}

		// Critical: the CHL/SYN handshake below must never see the reader
		// drop a command out from under it. A real roster's LST burst
		// routinely exceeds a non-critical subscriber's bounded queue, per
		// spec.md §4.3/§4.4's handshake-critical framing.
		_, ch := conn.Bus.Subscribe(true)

		if err := c.negotiateVersionAndClient(ctx, conn); err != nil {
			conn.Close()
			return &LoginError{Kind: redirectedKind(redirected, ctx, LoginProtocol), Err: err}
		}

		redirect, err := c.requestAuth(ctx, conn)
		if err != nil {
			conn.Close()
			if le, ok := err.(*LoginError); ok && redirected && ctx.Err() != nil {
				le.Kind = LoginRedirected
			}
			return err
		}
		if redirect != "" {
			conn.Close()
			addr = redirect
			redirected = true
			continue
		}

		if err := c.finishLogin(ctx, conn, ch); err != nil {
			conn.Close()
			return err
		}

		c.mu.Lock()
		c.ns = conn
		c.mu.Unlock()

		go c.dispatch(ch)
		go c.pingLoop(conn)

		if c.handlers.LoggedIn != nil {
			c.handlers.LoggedIn()
		}
		return nil
	}
}

func (c *Client) openNS(ctx context.Context, addr string) (*connio.Conn, error) {
	rw, err := c.dial(ctx, addr)
	if err != nil {
		return nil, &fault.Transport{Err: err}
	}
	conn := connio.Open(rw, c.log)
	go conn.Serve()
	return conn, nil
}

// negotiateVersionAndClient performs the VER/CVR exchange.
func (c *Client) negotiateVersionAndClient(ctx context.Context, conn *connio.Conn) error {
	_, err := conn.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "VER"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "VER", TrID: trid, HasTrID: true, Args: []string{"MSNP12"}}
	})
	if err != nil {
		return fmt.Errorf("VER: %w", err)
	}

	_, err = conn.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "CVR"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{
			ID: "CVR", TrID: trid, HasTrID: true,
			Args: []string{
				clientLang, clientOS, clientOSVer, clientCPU, "MSNMSGR",
				clientVersion, "MSNMSGR", c.creds.LoginName,
			},
		}
	})
	if err != nil {
		return fmt.Errorf("CVR: %w", err)
	}
	return nil
}

// requestAuth sends the first USR and either returns a non-empty redirect
// address (on XFR NS) or performs the SSO exchange and the second USR
// in-line, returning "" on success.
func (c *Client) requestAuth(ctx context.Context, conn *connio.Conn) (redirect string, err error) {
	reply, err := conn.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "USR" || cmd.ID == "XFR"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "USR", TrID: trid, HasTrID: true, Args: []string{"TWN", "I", c.creds.LoginName}}
	})
	if err != nil {
		if isAuthFailure(err) {
			return "", &LoginError{Kind: LoginBadCredentials, Err: err}
		}
		return "", &LoginError{Kind: LoginTransport, Err: err}
	}

	if reply.ID == "XFR" {
		if reply.Arg(0) != "NS" {
			return "", &LoginError{Kind: LoginProtocol, Err: fmt.Errorf("XFR: unexpected target %q", reply.Arg(0))}
		}
		return reply.Arg(1), nil
	}

	if reply.Arg(0) != "TWN" || reply.Arg(1) != "S" {
		return "", &LoginError{Kind: LoginProtocol, Err: fmt.Errorf("USR: unexpected reply %q", reply.String())}
	}
	policy := reply.Arg(2)

	ticket, err := c.authenticator.Authenticate(ctx, c.creds, policy)
	if err != nil {
		return "", &LoginError{Kind: LoginBadCredentials, Err: err}
	}

	reply, err = conn.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "USR"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "USR", TrID: trid, HasTrID: true, Args: []string{"TWN", "S", string(ticket)}}
	})
	if err != nil {
		if isAuthFailure(err) {
			return "", &LoginError{Kind: LoginBadCredentials, Err: err}
		}
		return "", &LoginError{Kind: LoginTransport, Err: err}
	}
	if reply.Arg(0) != "OK" {
		return "", &LoginError{Kind: LoginProtocol, Err: fmt.Errorf("USR: unexpected reply %q", reply.String())}
	}
	return "", nil
}

func isAuthFailure(err error) bool {
	var serr *fault.Server
	if errors.As(err, &serr) {
		return serr.Code == 911
	}
	return errors.Is(err, fault.BadCredentials)
}

// finishLogin drains ch for the remainder of the handshake: PRP/SBP noise
// until CHL arrives, the challenge-response, and the SYN roster burst, per
// spec.md §4.5's AwaitingChallenge/Challenged/Synchronizing/SettingStatus
// states.
func (c *Client) finishLogin(ctx context.Context, conn *connio.Conn, ch <-chan wire.Command) error {
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return &LoginError{Kind: LoginTransport, Err: fmt.Errorf("connection closed during login")}
			}
			switch cmd.ID {
			case "PRP":
				if cmd.Arg(0) == "MFN" {
					c.localUser.setSnapshot(c.localUser.LoginName(), address.UnescapeArgument(cmd.Arg(1)), roster.Offline)
				}
			case "CHL":
				if err := c.answerChallenge(conn, cmd); err != nil {
					return &LoginError{Kind: LoginProtocol, Err: err}
				}
				if err := c.syncRoster(ctx, conn, ch); err != nil {
					return err
				}
				if err := c.setInitialStatus(ctx, conn); err != nil {
					return err
				}
				return nil
			}
		case <-ctx.Done():
			return &LoginError{Kind: LoginTransport, Err: ctx.Err()}
		}
	}
}

func (c *Client) answerChallenge(conn *connio.Conn, chl wire.Command) error {
	resp, err := auth.Challenge(chl.Arg(0))
	if err != nil {
		return fmt.Errorf("CHL: %w", err)
	}
	trid := conn.Tracker.NextTrID()
	payload := []byte(resp)
	return conn.Send(wire.Command{
		ID: "QRY", TrID: trid, HasTrID: true,
		Args: []string{auth.ClientID}, Payload: payload, PayloadLen: len(payload),
	})
}

// syncRoster sends SYN and applies the resulting GTC/BLP/PRP/LSG/LST burst
// to the contact table until the declared LST count is reached.
func (c *Client) syncRoster(ctx context.Context, conn *connio.Conn, ch <-chan wire.Command) error {
	trid := conn.Tracker.NextTrID()
	if err := conn.Send(wire.Command{ID: "SYN", TrID: trid, HasTrID: true, Args: []string{"0", "0"}}); err != nil {
		return &LoginError{Kind: LoginTransport, Err: err}
	}

	wantContacts, wantGroups := -1, -1
	gotContacts, gotGroups := 0, 0
	for {
		if wantContacts >= 0 && gotContacts >= wantContacts && gotGroups >= wantGroups {
			return nil
		}
		select {
		case cmd, ok := <-ch:
			if !ok {
				return &LoginError{Kind: LoginTransport, Err: fmt.Errorf("connection closed during sync")}
			}
			if !cmd.HasTrID || cmd.TrID != trid {
				continue
			}
			switch cmd.ID {
			case "SYN":
				// SYN <trid> <serial> <contactCount> <groupCount>, per the E1
				// scenario in spec.md §8.
				if len(cmd.Args) >= 3 {
					wantContacts = atoiSafe(cmd.Arg(1))
					wantGroups = atoiSafe(cmd.Arg(2))
				} else {
					wantContacts, wantGroups = 0, 0
				}
			case "LSG":
				c.contacts.UpsertGroup(roster.Group{Name: address.UnescapeArgument(cmd.Arg(0)), GUID: cmd.Arg(1)})
				gotGroups++
			case "LST":
				c.applyLST(cmd)
				gotContacts++
			case "PRP":
				if cmd.Arg(0) == "PHH" || cmd.Arg(0) == "PHW" || cmd.Arg(0) == "PHM" {
					c.localUser.applyPhone(cmd.Arg(0), cmd.Arg(1))
					continue
				}
			case "SBP":
				c.applyContactPhoneByGUID(cmd)
			case "GTC", "BLP":
				// preserve-and-ignore, per spec.md §9's Open Questions on
				// partially documented housekeeping fields.
			}
		case <-ctx.Done():
			return &LoginError{Kind: LoginTransport, Err: ctx.Err()}
		}
	}
}

// applyLST upserts a contact from a single LST line:
// "LST <trid> <login> <nickname> <lists> [<groupGUID>...]".
func (c *Client) applyLST(cmd wire.Command) {
	login, err := address.Parse(cmd.Arg(0))
	if err != nil {
		c.log.Warn("LST with unparsable login", "arg", cmd.Arg(0))
		return
	}
	lists := roster.List(atoiSafe(cmd.Arg(2)))
	c.contacts.Mutate(login, func(ct *roster.Contact) {
		ct.Nickname = address.UnescapeArgument(cmd.Arg(1))
		ct.Lists = lists
		if ct.Groups == nil {
			ct.Groups = make(map[string]struct{})
		}
		if len(cmd.Args) > 3 {
			for _, guid := range cmd.Args[3:] {
				ct.Groups[guid] = struct{}{}
			}
		}
	})
}

func (c *Client) setInitialStatus(ctx context.Context, conn *connio.Conn) error {
	reply, err := conn.Tracker.Request(ctx, c.requestTimeout, func(cmd wire.Command) bool {
		return cmd.ID == "CHG"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "CHG", TrID: trid, HasTrID: true, Args: []string{string(roster.Online), "0"}}
	})
	if err != nil {
		return &LoginError{Kind: LoginProtocol, Err: err}
	}
	c.localUser.setSnapshot(address.MustParse(c.creds.LoginName), c.localUser.Nickname(), roster.Status(reply.Arg(0)))
	return nil
}

// redirectedKind reports LoginRedirected in place of fallback if the login
// deadline has already been crossed after at least one XFR redirect, so a
// timeout following a redirect loop is distinguishable from an ordinary
// transport or protocol failure on the first attempt.
func redirectedKind(redirected bool, ctx context.Context, fallback LoginErrorKind) LoginErrorKind {
	if redirected && ctx.Err() != nil {
		return LoginRedirected
	}
	return fallback
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
