// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"log/slog"
	"time"

	"go.msnp.dev/msnp/auth"
	"go.msnp.dev/msnp/transport"
)

// DefaultDispatchServer is the well-known MSNP12 dispatch server, per
// spec.md §4.5 and §6.
const DefaultDispatchServer = "messenger.hotmail.com:1863"

// DefaultLoginTimeout bounds the entire login sequence, per spec.md §5.
const DefaultLoginTimeout = 120 * time.Second

type options struct {
	log            *slog.Logger
	authenticator  auth.Authenticator
	dial           transport.Factory
	dispatchServer string
	loginTimeout   time.Duration
	requestTimeout time.Duration
}

func getOpts(opts ...Option) options {
	o := options{
		log:            slog.Default(),
		authenticator:  auth.HTTPAuthenticator{},
		dial:           transport.DefaultFactory(),
		dispatchServer: DefaultDispatchServer,
		loginTimeout:   DefaultLoginTimeout,
		requestTimeout: 0, // 0 defers to each package's own default
	}
	for _, f := range opts {
		f(&o)
	}
	return o
}

// Option configures a Client constructed with New.
type Option func(*options)

// WithLogger sets the logger every component of the client writes
// structured log records to. A nil logger uses slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log == nil {
			log = slog.Default()
		}
		o.log = log
	}
}

// WithAuthenticator overrides how an SSO ticket is obtained during login,
// per the Open Question in spec.md §9. Without this option the client uses
// auth.HTTPAuthenticator{}, which performs the real SOAP exchange.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(o *options) {
		o.authenticator = a
	}
}

// WithTransportFactory overrides how byte transports are opened, for both
// the notification connection and every switchboard connection. This is the
// seam tests use to substitute a scripted in-memory transport for a real
// socket, per spec.md §1 and §6.
func WithTransportFactory(f transport.Factory) Option {
	return func(o *options) {
		o.dial = f
	}
}

// WithDispatchServer overrides the initial dispatch server address dialed
// by Login. The default is DefaultDispatchServer.
func WithDispatchServer(addr string) Option {
	return func(o *options) {
		o.dispatchServer = addr
	}
}

// WithLoginTimeout bounds the entire login sequence, per spec.md §5. The
// default is DefaultLoginTimeout.
func WithLoginTimeout(d time.Duration) Option {
	return func(o *options) {
		o.loginTimeout = d
	}
}

// WithRequestTimeout overrides the reply-awaiting timeout of every
// correlated request on the notification connection, including those
// issued during login (transtrack.DefaultTimeout applies otherwise).
// Switchboard sessions do not use this setting; their requests always use
// switchboard.DefaultTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.requestTimeout = d
	}
}
