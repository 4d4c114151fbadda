// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package auth implements the SSO ticket exchange used to complete MSNP
// login, and the CHL/QRY challenge-response digest.
//
// Token acquisition is abstracted behind the Authenticator interface per
// the Open Question in spec.md §9: the real Passport/Live SSO endpoint
// this protocol was built against may no longer be reachable, so
// production code, tests, and replay fixtures can each supply their own
// implementation.
package auth

import "context"

// Credentials is the login name and password pair used only to request an
// SSO token; never retained beyond the login sequence, per spec.md §3.
type Credentials struct {
	LoginName string
	Password  string
}

// Ticket is the opaque SSO ticket returned by the authentication service
// and submitted verbatim as the argument of the second USR command.
type Ticket string

// Authenticator exchanges credentials and a server-supplied policy string
// for an SSO ticket.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials, policy string) (Ticket, error)
}

// AuthenticatorFunc adapts a function to an Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds Credentials, policy string) (Ticket, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials, policy string) (Ticket, error) {
	return f(ctx, creds, policy)
}
