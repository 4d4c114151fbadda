// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transtrack implements the broadcast of the inbound command
// stream to multiple consumers and the transaction tracker that correlates
// outbound commands with their server replies.
//
// This is the asynchronous counterpart of the teacher's SendIQ: subscribe
// before sending, then wait for the first matching reply under a timeout.
package transtrack

import (
	"log/slog"
	"sync"

	"go.msnp.dev/msnp/wire"
)

// queueSize bounds a non-critical subscriber's backlog. Once a consumer
// falls this far behind, new commands for it are dropped rather than
// allowed to stall the reader loop; the consumer stays subscribed.
const queueSize = 64

// Bus is a multi-consumer broadcast of inbound commands read from a single
// connection. Every inbound command is delivered to every live subscriber
// in wire order.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	log    *slog.Logger
}

type subscriber struct {
	out      chan wire.Command
	critical bool

	// backlog and cond implement the unbounded queue used by critical
	// subscribers (the transaction tracker): Publish never blocks and never
	// drops for these, it only ever appends.
	mu      sync.Mutex
	backlog []wire.Command
	cond    *sync.Cond
	closed  bool
}

// NewBus returns a Bus that logs dropped frames and other bus events to
// log, or to slog.Default() if log is nil.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{subs: make(map[int]*subscriber), log: log}
}

// Subscribe registers a new consumer and returns its id (for Unsubscribe)
// and the channel it will receive commands on.
//
// A critical subscriber (the transaction tracker) is backed by an
// unbounded internal queue and a pump goroutine so that Publish never
// blocks waiting for it and never drops a reply. Non-critical subscribers
// get a bounded channel; if it fills, new commands are dropped for that
// subscriber and logged, rather than stalling the reader.
func (b *Bus) Subscribe(critical bool) (id int, ch <-chan wire.Command) {
	s := &subscriber{critical: critical}
	if critical {
		s.cond = sync.NewCond(&s.mu)
		s.out = make(chan wire.Command)
		go s.pump()
	} else {
		s.out = make(chan wire.Command, queueSize)
	}

	b.mu.Lock()
	id = b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()
	return id, s.out
}

// Unsubscribe removes a consumer. Calling it more than once is a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	s, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if !ok {
		return
	}
	closeSubscriber(s)
}

// CloseAll closes every live subscriber's output channel and removes them
// from the bus, so that every consumer ranging over its channel (e.g. the
// notification client's dispatch loop) observes closure instead of
// blocking forever when the underlying transport drops, per spec.md §4.5's
// "any state / transport error" row.
func (b *Bus) CloseAll() {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = make(map[int]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		closeSubscriber(s)
	}
}

func closeSubscriber(s *subscriber) {
	if s.critical {
		s.mu.Lock()
		s.closed = true
		s.cond.Broadcast()
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	s.mu.Unlock()
}

// Publish delivers cmd to every live subscriber in the order it was
// called, which must be the order commands were read off the wire.
func (b *Bus) Publish(cmd wire.Command) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if s.critical {
			s.mu.Lock()
			s.backlog = append(s.backlog, cmd)
			s.cond.Signal()
			s.mu.Unlock()
			continue
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			continue
		}
		select {
		case s.out <- cmd:
		default:
			b.log.Warn("dropping command for slow bus consumer", "command", cmd.String())
		}
		s.mu.Unlock()
	}
}

// pump forwards a critical subscriber's backlog to its output channel,
// blocking on the channel send (not on Publish) so a slow reader of
// replies never stalls command dispatch to other consumers.
func (s *subscriber) pump() {
	for {
		s.mu.Lock()
		for len(s.backlog) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.backlog) == 0 && s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		cmd := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.mu.Unlock()
		s.out <- cmd
	}
}
