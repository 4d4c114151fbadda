// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"time"

	"go.msnp.dev/msnp/internal/connio"
	"go.msnp.dev/msnp/wire"
)

// initialPingInterval is the interval used before any QNG has told the
// client otherwise, per spec.md §4.5.
const initialPingInterval = 50 * time.Second

// pingLoop sends PNG at the interval the last QNG reported and disconnects
// if no QNG arrives within twice that interval, per spec.md §4.5's ping
// loop description.
func (c *Client) pingLoop(conn *connio.Conn) {
	_, ch := conn.Bus.Subscribe(false)

	interval := initialPingInterval
	for {
		if err := conn.Send(wire.Command{ID: "PNG"}); err != nil {
			return
		}

		timer := time.NewTimer(2 * interval)
		for gotPong := false; !gotPong; {
			select {
			case cmd, ok := <-ch:
				if !ok {
					timer.Stop()
					return
				}
				if cmd.ID != "QNG" {
					// Not our pong; the connection's persistent dispatch loop has
					// its own subscription and will have handled it, so just
					// keep waiting on this one for the actual QNG.
					continue
				}
				gotPong = true
				if secs := atoiSafe(cmd.Arg(0)); secs > 0 {
					interval = time.Duration(secs) * time.Second
				}
			case <-timer.C:
				c.handleLogout(PingTimeout)
				conn.Close()
				return
			case <-conn.Done():
				timer.Stop()
				return
			}
		}
		timer.Stop()

		select {
		case <-time.After(interval):
		case <-conn.Done():
			return
		}
	}
}
