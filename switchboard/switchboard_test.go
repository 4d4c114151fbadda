// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package switchboard

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.msnp.dev/msnp/address"
	"go.msnp.dev/msnp/internal/connio"
)

// fakeServer wraps one end of a net.Pipe with line-oriented helpers so
// tests can script a switchboard server's side of a conversation without
// going through the wire package.
type fakeServer struct {
	t  *testing.T
	br *bufio.Reader
	bw *bufio.Writer
}

func newFakeServer(t *testing.T, conn net.Conn) *fakeServer {
	return &fakeServer{t: t, br: bufio.NewReader(conn), bw: bufio.NewWriter(conn)}
}

func (f *fakeServer) expectPrefix(prefix string) string {
	line, err := f.br.ReadString('\n')
	if err != nil {
		f.t.Fatalf("fakeServer: read: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, prefix) {
		f.t.Fatalf("fakeServer: got %q, want prefix %q", line, prefix)
	}
	return line
}

func (f *fakeServer) send(line string) {
	if _, err := f.bw.WriteString(line + "\r\n"); err != nil {
		f.t.Fatalf("fakeServer: write: %v", err)
	}
	if err := f.bw.Flush(); err != nil {
		f.t.Fatalf("fakeServer: flush: %v", err)
	}
}

func TestCallEstablishesSessionOnFirstJOI(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	local := address.MustParse("alice@example.com")
	remote := address.MustParse("bob@example.com")

	conn := connio.Open(clientSide, nil)
	go conn.Serve()

	srv := newFakeServer(t, serverSide)
	done := make(chan struct{})
	go func() {
		defer close(done)
		usrLine := srv.expectPrefix("USR ")
		trid := strings.Fields(usrLine)[1]
		srv.send("USR " + trid + " OK " + local.String())

		calLine := srv.expectPrefix("CAL ")
		calTrid := strings.Fields(calLine)[1]
		srv.send("CAL " + calTrid + " RINGING 11752013")

		srv.send("JOI " + remote.String() + " Bob 0")

		// Keep reading like a real peer, so the client's OUT on Close is
		// not stuck on the unbuffered pipe.
		go io.Copy(io.Discard, serverSide)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess, err := Call(ctx, conn, local, "ticket-abc", remote, Handlers{}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	defer sess.Close()

	<-done

	if sess.SessionID() != "11752013" {
		t.Fatalf("SessionID = %q, want %q", sess.SessionID(), "11752013")
	}
	members := sess.Members()
	if len(members) != 1 || !members[0].Equal(remote) {
		t.Fatalf("Members = %v, want [%v]", members, remote)
	}
}

func TestAnswerCollectsIROBurst(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	local := address.MustParse("carol@example.com")
	existing1 := address.MustParse("dave@example.com")
	existing2 := address.MustParse("erin@example.com")

	conn := connio.Open(clientSide, nil)
	go conn.Serve()

	srv := newFakeServer(t, serverSide)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ansLine := srv.expectPrefix("ANS ")
		trid := strings.Fields(ansLine)[1]
		srv.send("IRO " + trid + " 1 2 " + existing1.String() + " Dave")
		srv.send("IRO " + trid + " 2 2 " + existing2.String() + " Erin")
		srv.send("ANS " + trid + " OK")

		// Keep reading like a real peer, so the client's OUT on Close is
		// not stuck on the unbuffered pipe.
		go io.Copy(io.Discard, serverSide)
	}()

	inv := Invitation{
		InvitingUser: existing1,
		SessionID:    "99001",
		AuthString:   "auth-token",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sess, err := Answer(ctx, conn, local, inv, Handlers{}, nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	defer sess.Close()

	<-done

	members := sess.Members()
	if len(members) != 2 {
		t.Fatalf("Members = %v, want 2 entries", members)
	}
}

func TestSessionDispatchesIncomingMessage(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	local := address.MustParse("alice@example.com")
	sender := address.MustParse("bob@example.com")

	conn := connio.Open(clientSide, nil)
	go conn.Serve()

	received := make(chan Message, 1)
	h := Handlers{
		OnMessage: func(from address.LoginName, msg Message) {
			if !from.Equal(sender) {
				t.Errorf("OnMessage from = %v, want %v", from, sender)
			}
			received <- msg
		},
	}

	srv := newFakeServer(t, serverSide)
	go func() {
		srv.expectPrefix("USR ")
		srv.send("USR 1 OK " + local.String())
		srv.expectPrefix("CAL ")
		srv.send("CAL 2 RINGING 55001")
		srv.send("JOI " + sender.String() + " Bob 0")

		payload := "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\nhi there"
		srv.send("MSG " + sender.String() + " Bob " + strconv.Itoa(len(payload)))
		srv.bw.WriteString(payload)
		srv.bw.Flush()

		// Keep reading like a real peer, so the client's OUT on Close is
		// not stuck on the unbuffered pipe.
		go io.Copy(io.Discard, serverSide)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, err := Call(ctx, conn, local, "ticket", sender, h, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	defer sess.Close()

	select {
	case msg := <-received:
		if string(msg.Body) != "hi there" {
			t.Fatalf("Body = %q, want %q", msg.Body, "hi there")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnMessage")
	}
}
