// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package msntest provides a scripted, in-memory MSNP transport for tests:
// a net.Pipe stands in for a TCP socket and a Script gives the test line-
// oriented helpers for playing the server side of a conversation, per
// spec.md §1's treatment of the socket as an injected dependency.
package msntest

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"go.msnp.dev/msnp/transport"
)

// Script is one end of a net.Pipe with line-oriented helpers for scripting
// the server side of a notification or switchboard connection.
type Script struct {
	t  *testing.T
	br *bufio.Reader
	bw *bufio.Writer
}

func newScript(t *testing.T, conn net.Conn) *Script {
	return &Script{t: t, br: bufio.NewReader(conn), bw: bufio.NewWriter(conn)}
}

// Expect reads one line and fails the test unless it starts with prefix.
// It returns the line with its trailing CRLF stripped.
func (s *Script) Expect(prefix string) string {
	line, err := s.br.ReadString('\n')
	if err != nil {
		s.t.Fatalf("msntest: read: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, prefix) {
		s.t.Fatalf("msntest: got %q, want prefix %q", line, prefix)
	}
	return line
}

// ExpectPayload reads exactly n raw payload bytes, the body that follows a
// payload-bearing header line such as QRY, and returns them.
func (s *Script) ExpectPayload(n int) string {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.br, buf); err != nil {
		s.t.Fatalf("msntest: read payload: %v", err)
	}
	return string(buf)
}

// TrID returns the second whitespace-delimited field of line, the
// transaction id most MSNP12 commands carry.
func TrID(line string) string {
	f := strings.Fields(line)
	if len(f) < 2 {
		return ""
	}
	return f[1]
}

// Send writes line plus a trailing CRLF.
func (s *Script) Send(line string) {
	if _, err := s.bw.WriteString(line + "\r\n"); err != nil {
		s.t.Fatalf("msntest: write: %v", err)
	}
	if err := s.bw.Flush(); err != nil {
		s.t.Fatalf("msntest: flush: %v", err)
	}
}

// SendPayload writes raw bytes with no added framing, for use right after
// a Send that announced a payload length.
func (s *Script) SendPayload(payload string) {
	if _, err := s.bw.WriteString(payload); err != nil {
		s.t.Fatalf("msntest: write payload: %v", err)
	}
	if err := s.bw.Flush(); err != nil {
		s.t.Fatalf("msntest: flush: %v", err)
	}
}

// Dispatcher is a transport.Factory backed by one or more scripted
// connections keyed by address, for tests that need the notification
// connection and any switchboard connections to land on distinct scripts
// (e.g. the CVR/USR/XFR redirect flow, or StartIMSession's SB hop), per
// spec.md §4.5 and §4.6.
type Dispatcher struct {
	t *testing.T

	mu      sync.Mutex
	scripts map[string]*Script
	conns   map[string]net.Conn
}

// NewDispatcher returns an empty Dispatcher. Register an address with On
// before the code under test dials it.
func NewDispatcher(t *testing.T) *Dispatcher {
	return &Dispatcher{
		t:       t,
		scripts: make(map[string]*Script),
		conns:   make(map[string]net.Conn),
	}
}

// On registers addr and starts fn in its own goroutine with the Script the
// test uses to play the server side of that connection. fn starts
// immediately; its reads and writes block until the client side dials addr
// and uses the connection.
func (d *Dispatcher) On(addr string, fn func(s *Script)) {
	clientSide, serverSide := net.Pipe()
	script := newScript(d.t, serverSide)

	d.mu.Lock()
	d.scripts[addr] = script
	d.conns[addr] = clientSide
	d.mu.Unlock()

	go fn(script)
}

// Factory implements transport.Factory, handing back the pre-registered
// client-side net.Conn for addr.
func (d *Dispatcher) Factory(ctx context.Context, addr string) (net.Conn, error) {
	d.mu.Lock()
	conn, ok := d.conns[addr]
	d.mu.Unlock()
	if !ok {
		d.t.Fatalf("msntest: no script registered for address %q", addr)
		return nil, nil
	}
	return conn, nil
}

var _ transport.Factory = (*Dispatcher)(nil).Factory
