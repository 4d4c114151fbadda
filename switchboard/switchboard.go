// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package switchboard implements a single IM session: its own TCP
// connection with independent framing, born either from an outbound call
// or an inbound answer, per spec.md §4.6.
package switchboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/fault"
	"go.msnp.dev/msnp/internal/connio"
	"go.msnp.dev/msnp/wire"
)

// DefaultTimeout bounds every reply-awaiting switchboard operation, per
// spec.md §5.
const DefaultTimeout = 60 * time.Second

// Handlers are the callbacks a Session dispatches to as commands arrive.
// Every field may be nil. Handlers are invoked from the session's dispatch
// goroutine (OnJoined also from Answer while it collects the IRO burst, and
// OnClosed from the goroutine that watches the transport) — heavy caller
// work must be offloaded, per spec.md §5.
type Handlers struct {
	OnMessage func(from address.LoginName, msg Message)
	OnTyping  func(from address.LoginName)
	OnJoined  func(who address.LoginName)
	OnParted  func(who address.LoginName)
	OnClosed  func(err error)
}

// Session is a single switchboard connection: session id, joined roster,
// and an outbound-message serialization path, per spec.md §3 and §4.6.
type Session struct {
	conn      *connio.Conn
	sessionID string
	local     address.LoginName
	handlers  Handlers
	log       *slog.Logger

	mu      sync.Mutex
	members map[string]address.LoginName
	closed  bool
}

func newSession(conn *connio.Conn, sessionID string, local address.LoginName, h Handlers, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		conn:      conn,
		sessionID: sessionID,
		local:     local,
		handlers:  h,
		log:       log,
		members:   make(map[string]address.LoginName),
	}
	// Subscribe synchronously, before returning, so a JOI landing the
	// instant the session becomes reachable can never arrive before
	// dispatch is listening for it.
	_, ch := conn.Bus.Subscribe(false)
	go s.dispatch(ch)
	go func() {
		<-conn.Done()
		s.handleClosed(conn.Err())
	}()
	return s
}

// SessionID returns the server-assigned switchboard session id.
func (s *Session) SessionID() string { return s.sessionID }

// Done returns a channel closed once the underlying transport has
// terminated, for callers that want to react to closure without going
// through Handlers.OnClosed.
func (s *Session) Done() <-chan struct{} { return s.conn.Done() }

// Err returns the error that ended the session's transport, if any.
func (s *Session) Err() error { return s.conn.Err() }

// Members returns a snapshot of every remote user currently joined.
func (s *Session) Members() []address.LoginName {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]address.LoginName, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	return out
}

// Call opens an outbound switchboard: it authenticates on conn, sends CAL
// for remote, and waits for the ringing acknowledgement and the resulting
// JOI before returning — the session is only usable once at least one JOI
// has arrived, per spec.md §4.6.
func Call(ctx context.Context, conn *connio.Conn, local address.LoginName, ticket string, remote address.LoginName, h Handlers, log *slog.Logger) (*Session, error) {
	if err := authenticate(ctx, conn, local, ticket); err != nil {
		return nil, err
	}

	reply, err := conn.Tracker.Request(ctx, DefaultTimeout, func(c wire.Command) bool {
		return c.ID == "CAL"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "CAL", TrID: trid, HasTrID: true, Args: []string{remote.String()}}
	})
	if err != nil {
		return nil, err
	}
	if reply.Arg(0) != "RINGING" {
		return nil, &fault.Protocol{Reason: fmt.Sprintf("CAL: unexpected reply %q", reply.Arg(0))}
	}
	sessionID := reply.Arg(1)

	s := newSession(conn, sessionID, local, h, log)
	if err := s.awaitMember(ctx, remote, DefaultTimeout); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Answer accepts an inbound Invitation on conn, which the caller has
// already dialed to inv.Endpoint: it sends ANS (which carries the
// invitation's auth string, so no USR is sent first) and reads the IRO
// burst of existing participants terminated by the ANS acknowledgement,
// per spec.md §4.6.
func Answer(ctx context.Context, conn *connio.Conn, local address.LoginName, inv Invitation, h Handlers, log *slog.Logger) (*Session, error) {
	id, ch := conn.Bus.Subscribe(false)
	defer conn.Bus.Unsubscribe(id)

	trid := conn.Tracker.NextTrID()
	if err := conn.Send(wire.Command{
		ID: "ANS", TrID: trid, HasTrID: true,
		Args: []string{local.String(), inv.AuthString, inv.SessionID},
	}); err != nil {
		return nil, err
	}

	s := newSession(conn, inv.SessionID, local, h, log)

	timer := time.NewTimer(DefaultTimeout)
	defer timer.Stop()
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return nil, &fault.Transport{Err: fmt.Errorf("switchboard: connection closed while answering")}
			}
			if cmd.TrID != trid || !cmd.HasTrID {
				continue
			}
			switch cmd.ID {
			case "IRO":
				// IRO <trid> <n> <total> <login> <nick>
				if login, err := address.Parse(cmd.Arg(2)); err == nil {
					s.addMember(login)
				}
			case "ANS":
				if cmd.Arg(0) == "OK" {
					return s, nil
				}
				return nil, &fault.Protocol{Reason: "ANS: unexpected reply"}
			}
			if cmd.IsError() {
				return nil, &fault.Server{Code: cmd.ServerError}
			}
		case <-timer.C:
			return nil, fault.Timeout
		case <-ctx.Done():
			return nil, fault.Cancelled
		}
	}
}

// authenticate performs the USR handshake an outbound switchboard
// connection requires before CAL may be sent, per spec.md §4.6.
func authenticate(ctx context.Context, conn *connio.Conn, local address.LoginName, ticket string) error {
	_, err := conn.Tracker.Request(ctx, DefaultTimeout, func(c wire.Command) bool {
		return c.ID == "USR" && c.Arg(0) == "OK"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "USR", TrID: trid, HasTrID: true, Args: []string{local.String(), ticket}}
	})
	return err
}

// Invite asks the session to bring another user in. It sends CAL and
// waits for the resulting JOI to confirm the invited user actually joined,
// per spec.md §4.6's group-chat invite operation.
func (s *Session) Invite(ctx context.Context, who address.LoginName) error {
	reply, err := s.conn.Tracker.Request(ctx, DefaultTimeout, func(c wire.Command) bool {
		return c.ID == "CAL"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "CAL", TrID: trid, HasTrID: true, Args: []string{who.String()}}
	})
	if err != nil {
		return err
	}
	_ = reply
	return s.awaitMember(ctx, who, DefaultTimeout)
}

// awaitMember blocks until who appears in the member roster or the
// timeout/context expires.
func (s *Session) awaitMember(ctx context.Context, who address.LoginName, timeout time.Duration) error {
	// Subscribe before checking s.members: dispatch's own subscription may
	// have already recorded who by the time we check, but our subscribe
	// must still happen first so we don't also miss a JOI that arrives
	// concurrently with the check.
	id, ch := s.conn.Bus.Subscribe(false)
	defer s.conn.Bus.Unsubscribe(id)

	s.mu.Lock()
	_, already := s.members[who.String()]
	s.mu.Unlock()
	if already {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return &fault.Transport{Err: fmt.Errorf("switchboard: connection closed")}
			}
			if cmd.ID == "JOI" && cmd.Arg(0) == who.String() {
				// Record the member here too, so Members reflects the join as
				// soon as this returns; dispatch's addMember for the same JOI
				// overwrites the entry and fires OnJoined.
				s.mu.Lock()
				s.members[who.String()] = who
				s.mu.Unlock()
				return nil
			}
		case <-timer.C:
			return fault.Timeout
		case <-ctx.Done():
			return fault.Cancelled
		}
	}
}

// SendMessage sends an instant message, per spec.md §4.6. For
// Acknowledged delivery (the default for text) it blocks until ACK or NAK
// arrives, surfacing a DeliveryFailed-shaped error on NAK.
func (s *Session) SendMessage(ctx context.Context, msg Message) error {
	class := classFor(msg.ContentType)
	payload := msg.encode()

	if class != Acknowledged {
		trid := s.conn.Tracker.NextTrID()
		return s.conn.Send(wire.Command{
			ID: "MSG", TrID: trid, HasTrID: true,
			Args: []string{string(class)}, Payload: payload, PayloadLen: len(payload),
		})
	}

	reply, err := s.conn.Tracker.Request(ctx, DefaultTimeout, func(c wire.Command) bool {
		return c.ID == "ACK" || c.ID == "NAK"
	}, func(trid wire.TrID) wire.Command {
		return wire.Command{
			ID: "MSG", TrID: trid, HasTrID: true,
			Args: []string{string(class)}, Payload: payload, PayloadLen: len(payload),
		}
	})
	if err != nil {
		return err
	}
	if reply.ID == "NAK" {
		return fmt.Errorf("switchboard: delivery failed: NAK %d", reply.TrID)
	}
	return nil
}

// Close departs the session and closes its transport. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	trid := s.conn.Tracker.NextTrID()
	_ = s.conn.Send(wire.Command{ID: "OUT", TrID: trid, HasTrID: true})
	return s.conn.Close()
}

func (s *Session) addMember(who address.LoginName) {
	s.mu.Lock()
	s.members[who.String()] = who
	s.mu.Unlock()
	if s.handlers.OnJoined != nil {
		s.handlers.OnJoined(who)
	}
}

func (s *Session) removeMember(who address.LoginName) (empty bool) {
	s.mu.Lock()
	delete(s.members, who.String())
	empty = len(s.members) == 0
	s.mu.Unlock()
	return empty
}

func (s *Session) handleClosed(err error) {
	s.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if alreadyClosed {
		return
	}
	if s.handlers.OnClosed != nil {
		s.handlers.OnClosed(err)
	}
}

// dispatch handles unsolicited JOI/BYE/MSG traffic for the life of the
// session. It is the switchboard analogue of the notification client's
// dispatch loop in spec.md §4.5. ch is subscribed synchronously by
// newSession before dispatch starts, so no JOI can arrive before this loop
// is listening.
func (s *Session) dispatch(ch <-chan wire.Command) {
	for cmd := range ch {
		switch cmd.ID {
		case "JOI":
			who, err := address.Parse(cmd.Arg(0))
			if err != nil {
				s.log.Warn("JOI with unparsable login", "arg", cmd.Arg(0))
				continue
			}
			s.addMember(who)
		case "BYE":
			who, err := address.Parse(cmd.Arg(0))
			if err != nil {
				continue
			}
			if s.removeMember(who) {
				s.Close()
			}
			if s.handlers.OnParted != nil {
				s.handlers.OnParted(who)
			}
		case "MSG":
			s.handleMessage(cmd)
		}
	}
}

func (s *Session) handleMessage(cmd wire.Command) {
	sender, err := address.Parse(cmd.Arg(0))
	if err != nil {
		s.log.Warn("MSG with unparsable sender", "arg", cmd.Arg(0))
		return
	}
	msg := decodeMessage(cmd.Payload)
	switch msg.Kind() {
	case KindTyping:
		if s.handlers.OnTyping != nil {
			s.handlers.OnTyping(sender)
		}
	default:
		if s.handlers.OnMessage != nil {
			s.handlers.OnMessage(sender, msg)
		}
	}
}
