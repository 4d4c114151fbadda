// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transtrack

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.msnp.dev/msnp/fault"
	"go.msnp.dev/msnp/wire"
)

type fakeSender struct {
	sent []wire.Command
}

func (f *fakeSender) Send(c wire.Command) error {
	f.sent = append(f.sent, c)
	return nil
}

func TestTrackerRequestReplyMatching(t *testing.T) {
	bus := NewBus(nil)
	sender := &fakeSender{}
	tr := New(bus, sender)

	// Property 4 from spec.md §8: the reply with transaction id T is
	// delivered to the request with id T even if unsolicited commands
	// arrive in between.
	done := make(chan struct{})
	var gotReply wire.Command
	var gotErr error
	go func() {
		gotReply, gotErr = tr.Request(context.Background(), time.Second, func(c wire.Command) bool {
			return c.ID == "CAL"
		}, func(trid wire.TrID) wire.Command {
			return wire.Command{ID: "CAL", TrID: trid, HasTrID: true, Args: []string{"bob@example.com"}}
		})
		close(done)
	}()

	// Give the request a moment to register its waiter and send.
	time.Sleep(10 * time.Millisecond)
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 sent command, got %d", len(sender.sent))
	}
	trid := sender.sent[0].TrID

	// Unsolicited noise that must not satisfy the waiter.
	bus.Publish(wire.Command{ID: "NLN", Args: []string{"NLN", "x@y.z", "X"}})
	bus.Publish(wire.Command{ID: "CAL", TrID: trid, HasTrID: true, Args: []string{"RINGING", "11752013"}})

	<-done
	if gotErr != nil {
		t.Fatalf("Request: %v", gotErr)
	}
	if gotReply.Arg(0) != "RINGING" {
		t.Fatalf("got %+v", gotReply)
	}
}

func TestTrackerServerError(t *testing.T) {
	bus := NewBus(nil)
	sender := &fakeSender{}
	tr := New(bus, sender)

	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = tr.Request(context.Background(), time.Second, nil, func(trid wire.TrID) wire.Command {
			return wire.Command{ID: "USR", TrID: trid, HasTrID: true}
		})
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	trid := sender.sent[0].TrID
	bus.Publish(wire.Command{ServerError: 911, TrID: trid, HasTrID: true})
	<-done

	var serr *fault.Server
	if !errors.As(gotErr, &serr) || serr.Code != 911 {
		t.Fatalf("got %v, want *fault.Server{Code: 911}", gotErr)
	}
}

func TestTrackerTimeout(t *testing.T) {
	bus := NewBus(nil)
	sender := &fakeSender{}
	tr := New(bus, sender)

	_, err := tr.Request(context.Background(), 10*time.Millisecond, nil, func(trid wire.TrID) wire.Command {
		return wire.Command{ID: "PNG", TrID: trid, HasTrID: true}
	})
	if !errors.Is(err, fault.Timeout) {
		t.Fatalf("got %v, want fault.Timeout", err)
	}
}

func TestTrackerTrIDUniqueness(t *testing.T) {
	bus := NewBus(nil)
	sender := &fakeSender{}
	tr := New(bus, sender)

	seen := map[wire.TrID]bool{}
	for i := 0; i < 10; i++ {
		trid := tr.NextTrID()
		if seen[trid] {
			t.Fatalf("transaction id %d reused", trid)
		}
		seen[trid] = true
	}
}
