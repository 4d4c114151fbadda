// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package connio glues the line framer, the command codec, the broadcast
// bus, and the transaction tracker into the single-reader/single-writer
// connection shape spec.md §4.3 describes, shared by the notification
// client and every switchboard session.
package connio

import (
	"io"
	"log/slog"
	"net"
	"sync"

	"go.msnp.dev/msnp/fault"
	"go.msnp.dev/msnp/frame"
	"go.msnp.dev/msnp/transtrack"
	"go.msnp.dev/msnp/wire"
)

// Conn is a single MSNP connection (notification server or switchboard):
// one reader goroutine feeding a broadcast bus, and a mutex-guarded writer
// so header+payload frames are never interleaved on the wire.
type Conn struct {
	rw  net.Conn
	fr  *frame.Reader
	fw  *frame.Writer
	log *slog.Logger

	writeMu sync.Mutex

	Bus     *transtrack.Bus
	Tracker *transtrack.Tracker

	closeOnce sync.Once
	done      chan struct{}
	closeErr  error
}

// Open wraps rw in a Conn, ready for Serve to be called.
func Open(rw net.Conn, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}
	c := &Conn{
		rw:   rw,
		fr:   frame.NewReader(rw),
		fw:   frame.NewWriter(rw),
		log:  log,
		done: make(chan struct{}),
	}
	c.Bus = transtrack.NewBus(log)
	c.Tracker = transtrack.New(c.Bus, c)
	return c
}

// Send writes cmd's header line followed by its payload, if any, under the
// single-writer lock, so a concurrent Send cannot interleave with it.
// Send implements transtrack.Sender.
func (c *Conn) Send(cmd wire.Command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.fw.WriteLine(wire.EncodeHeader(cmd)); err != nil {
		return &fault.Transport{Err: err}
	}
	if len(cmd.Payload) > 0 {
		if err := c.fw.WriteRaw(cmd.Payload); err != nil {
			return &fault.Transport{Err: err}
		}
	}
	return nil
}

// Serve runs the reader loop until the transport errs or Close is called.
// It must be run in its own goroutine; it returns only on terminal error.
func (c *Conn) Serve() error {
	for {
		line, err := c.fr.ReadLine()
		if err != nil {
			return c.fail(err)
		}
		cmd, err := wire.DecodeHeader(line)
		if err != nil {
			c.log.Warn("skipping unrecognized command", "line", line, "error", err)
			continue
		}
		if cmd.PayloadLen > 0 {
			payload, err := c.fr.ReadN(cmd.PayloadLen)
			if err != nil {
				return c.fail(err)
			}
			cmd.Payload = payload
		}
		c.Bus.Publish(cmd)
	}
}

func (c *Conn) fail(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	wrapped := &fault.Transport{Err: err}
	c.closeOnce.Do(func() {
		c.closeErr = wrapped
		close(c.done)
		c.rw.Close()
		c.Bus.CloseAll()
	})
	return wrapped
}

// Done returns a channel closed once the connection has terminated.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that terminated the connection, if any.
func (c *Conn) Err() error {
	return c.closeErr
}

// Close shuts down the transport. It is idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = fault.Cancelled
		c.Bus.CloseAll()
	})
	return c.rw.Close()
}
