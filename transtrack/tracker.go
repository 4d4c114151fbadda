// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transtrack

import (
	"context"
	"sync"
	"time"

	"go.msnp.dev/msnp/fault"
	"go.msnp.dev/msnp/wire"
)

// DefaultTimeout is the default deadline for a single correlated request,
// per spec.md §4.4.
const DefaultTimeout = 60 * time.Second

// Sender writes a single command to the connection's single-writer sink.
type Sender interface {
	Send(wire.Command) error
}

// Tracker assigns transaction ids and correlates outbound commands with
// their replies, per spec.md §4.4. It holds one critical subscription on
// the bus and fans replies out to per-request waiters internally, rather
// than opening a bus subscription per request.
type Tracker struct {
	send    Sender
	counter wire.Counter

	mu      sync.Mutex
	waiters map[wire.TrID]*waiter
}

type waiter struct {
	accept func(wire.Command) bool
	ch     chan wire.Command
}

// New returns a Tracker that assigns transaction ids, sends requests
// through send, and watches bus for their replies.
func New(bus *Bus, send Sender) *Tracker {
	t := &Tracker{
		send:    send,
		waiters: make(map[wire.TrID]*waiter),
	}
	_, ch := bus.Subscribe(true)
	go t.dispatch(ch)
	return t
}

// NextTrID assigns a transaction id for a command that has no correlated
// reply (e.g. QRY) without registering a waiter for it.
func (t *Tracker) NextTrID() wire.TrID {
	return t.counter.Next()
}

// Request assigns a transaction id, builds the outbound command with
// build, sends it, and waits for the first inbound command that carries
// the same transaction id and either is a server error or satisfies
// accept. accept may be nil, in which case any command sharing the
// transaction id matches.
//
// The waiter is registered before the command is sent, so a reply that
// arrives before Send returns is never missed.
func (t *Tracker) Request(ctx context.Context, timeout time.Duration, accept func(wire.Command) bool, build func(wire.TrID) wire.Command) (wire.Command, error) {
	trid := t.counter.Next()
	w := &waiter{accept: accept, ch: make(chan wire.Command, 1)}

	t.mu.Lock()
	t.waiters[trid] = w
	t.mu.Unlock()

	cmd := build(trid)
	if err := t.send.Send(cmd); err != nil {
		t.forget(trid)
		return wire.Command{}, &fault.Transport{Err: err}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-w.ch:
		if reply.IsError() {
			return reply, &fault.Server{Code: reply.ServerError}
		}
		return reply, nil
	case <-timer.C:
		t.forget(trid)
		return wire.Command{}, fault.Timeout
	case <-ctx.Done():
		t.forget(trid)
		return wire.Command{}, fault.Cancelled
	}
}

func (t *Tracker) forget(trid wire.TrID) {
	t.mu.Lock()
	delete(t.waiters, trid)
	t.mu.Unlock()
}

// dispatch drains the tracker's single critical bus subscription and
// routes each reply to its waiter, deleting the waiter only once a match
// is found so that a command sharing a transaction id but not matching
// accept doesn't silently consume it.
func (t *Tracker) dispatch(ch <-chan wire.Command) {
	for cmd := range ch {
		if !cmd.HasTrID {
			continue
		}
		t.mu.Lock()
		w, ok := t.waiters[cmd.TrID]
		matches := ok && (cmd.IsError() || w.accept == nil || w.accept(cmd))
		if matches {
			delete(t.waiters, cmd.TrID)
		}
		t.mu.Unlock()
		if matches {
			w.ch <- cmd
		}
	}
}
