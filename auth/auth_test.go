// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPAuthenticatorExtractsTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<soap:Envelope><wsse:BinarySecurityToken>t=abc123&amp;p=xyz789</wsse:BinarySecurityToken></soap:Envelope>`)
	}))
	defer srv.Close()

	a := HTTPAuthenticator{Endpoint: srv.URL}
	ticket, err := a.Authenticate(context.Background(), Credentials{LoginName: "a@b.c", Password: "secret"}, "irrelevant-policy")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if ticket != "t=abc123&p=xyz789" {
		t.Fatalf("got %q", ticket)
	}
}

func TestHTTPAuthenticatorRejectsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := HTTPAuthenticator{Endpoint: srv.URL}
	_, err := a.Authenticate(context.Background(), Credentials{LoginName: "a@b.c", Password: "wrong"}, "p")
	if err == nil {
		t.Fatal("expected an error")
	}
}
