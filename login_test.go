// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msnp

import (
	"context"
	"testing"
	"time"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/auth"
	"go.msnp.dev/msnp/internal/msntest"
)

// TestLoginReachesReady exercises the E1 scenario in spec.md §8: a clean
// VER/CVR/USR/SSO/CHL/QRY/SYN handshake that leaves the client logged in
// with its roster populated.
func TestLoginReachesReady(t *testing.T) {
	const dispatchAddr = "ns.test.invalid:1863"
	local := address.MustParse("alice@example.com")
	bob := address.MustParse("bob@example.com")

	disp := msntest.NewDispatcher(t)
	disp.On(dispatchAddr, func(s *msntest.Script) {
		verLine := s.Expect("VER ")
		s.Send("VER " + msntest.TrID(verLine) + " MSNP12")

		cvrLine := s.Expect("CVR ")
		s.Send("CVR " + msntest.TrID(cvrLine) + " 7.0.0777 7.0.0777 7.0.0777 https://x https://y")

		usr1 := s.Expect("USR ")
		s.Send("USR " + msntest.TrID(usr1) + " TWN S ct=1,rver=1")

		usr2 := s.Expect("USR ")
		s.Send("USR " + msntest.TrID(usr2) + " OK " + local.String() + " 1 0")

		s.Send("CHL 0 15570131571988941333")

		s.Expect("QRY ")
		s.ExpectPayload(32)

		synLine := s.Expect("SYN ")
		trid := msntest.TrID(synLine)
		s.Send("SYN " + trid + " 0 1 1")
		s.Send("LSG " + trid + " Friends 1")
		s.Send("LST " + trid + " " + bob.String() + " Bob 11 1")

		chgLine := s.Expect("CHG ")
		s.Send("CHG " + msntest.TrID(chgLine) + " NLN 0")
	})

	loggedIn := make(chan struct{})
	c := New(
		auth.Credentials{LoginName: local.String(), Password: "secret"},
		Handlers{LoggedIn: func() { close(loggedIn) }},
		WithDispatchServer(dispatchAddr),
		WithTransportFactory(disp.Factory),
		WithAuthenticator(auth.AuthenticatorFunc(func(ctx context.Context, creds auth.Credentials, policy string) (auth.Ticket, error) {
			return auth.Ticket("fake-ticket"), nil
		})),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}

	select {
	case <-loggedIn:
	case <-time.After(2 * time.Second):
		t.Fatal("LoggedIn handler never fired")
	}

	if got := c.LocalUser().LoginName(); !got.Equal(local) {
		t.Fatalf("LocalUser().LoginName() = %v, want %v", got, local)
	}

	contacts := c.Contacts()
	if len(contacts) != 1 || !contacts[0].LoginName.Equal(bob) {
		t.Fatalf("Contacts() = %v, want one entry for %v", contacts, bob)
	}

	groups := c.Groups()
	if len(groups) != 1 || groups[0].Name != "Friends" {
		t.Fatalf("Groups() = %v, want one group named Friends", groups)
	}
}
