// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport implements the byte transport every MSNP connection
// (notification server or switchboard) is built on: an injectable dialer
// so callers can substitute a fake transport in tests, per spec.md §1's
// treatment of the socket byte-pump as an injected dependency.
package transport

import (
	"context"
	"net"
	"time"

	"go.msnp.dev/msnp/fault"
)

// Dialer opens a byte transport to a host:port address. The zero Dialer
// dials plain TCP with keepalives enabled, mirroring the connection setup
// narqo-mrim's Dial performs for its own line-oriented IM protocol.
type Dialer struct {
	net.Dialer

	// Keepalive is the TCP keepalive interval. The zero value uses 30s.
	Keepalive time.Duration
}

// DefaultDialTimeout bounds how long a single Dial call may take.
const DefaultDialTimeout = 25 * time.Second

// Dial opens a TCP connection to addr (host:port).
func (d Dialer) Dial(ctx context.Context, addr string) (net.Conn, error) {
	nd := d.Dialer
	if nd.Timeout == 0 {
		nd.Timeout = DefaultDialTimeout
	}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &fault.Transport{Err: err}
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		keepalive := d.Keepalive
		if keepalive == 0 {
			keepalive = 30 * time.Second
		}
		if err := tc.SetKeepAlive(true); err != nil {
			conn.Close()
			return nil, &fault.Transport{Err: err}
		}
		if err := tc.SetKeepAlivePeriod(keepalive); err != nil {
			conn.Close()
			return nil, &fault.Transport{Err: err}
		}
	}
	return conn, nil
}

// Factory is the type callers supply to override how a connection is
// opened — e.g. to inject a scripted test transport in place of a real
// socket, per spec.md §1 and §6.
type Factory func(ctx context.Context, addr string) (net.Conn, error)

// DefaultFactory wraps the zero Dialer as a Factory.
func DefaultFactory() Factory {
	var d Dialer
	return d.Dial
}
