// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import "fmt"

// LoginErrorKind classifies why Login failed, per spec.md §4.7.
type LoginErrorKind int

const (
	// LoginBadCredentials means the SSO exchange or the second USR was
	// rejected.
	LoginBadCredentials LoginErrorKind = iota
	// LoginTransport means a dial or read/write fault occurred.
	LoginTransport
	// LoginProtocol means the server sent something the client could not
	// make sense of during login.
	LoginProtocol
	// LoginRedirected means the configured login timeout expired after at
	// least one XFR redirect, before authentication on the redirected
	// server completed.
	LoginRedirected
)

func (k LoginErrorKind) String() string {
	switch k {
	case LoginBadCredentials:
		return "BadCredentials"
	case LoginTransport:
		return "Transport"
	case LoginProtocol:
		return "Protocol"
	case LoginRedirected:
		return "Redirected"
	default:
		return "Unknown"
	}
}

// LoginError reports why Login failed, per the error kinds spec.md §4.7
// lists for Client.login.
type LoginError struct {
	Kind LoginErrorKind
	Err  error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("msnp: login failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("msnp: login failed (%s)", e.Kind)
}

func (e *LoginError) Unwrap() error { return e.Err }
