// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package switchboard

import (
	"testing"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	msg := Message{
		ContentType: "text/plain; charset=UTF-8",
		Headers:     map[string]string{"X-MMS-IM-Format": "FN=Segoe%20UI; EF=; CO=0"},
		Body:        []byte("hello there"),
	}

	encoded := msg.encode()
	decoded := decodeMessage(encoded)

	if decoded.ContentType != msg.ContentType {
		t.Fatalf("ContentType = %q, want %q", decoded.ContentType, msg.ContentType)
	}
	if string(decoded.Body) != string(msg.Body) {
		t.Fatalf("Body = %q, want %q", decoded.Body, msg.Body)
	}
	if decoded.Headers["X-MMS-IM-Format"] != msg.Headers["X-MMS-IM-Format"] {
		t.Fatalf("Headers[X-MMS-IM-Format] = %q, want %q", decoded.Headers["X-MMS-IM-Format"], msg.Headers["X-MMS-IM-Format"])
	}
}

func TestMessageEncodeHeaderOrderDeterministic(t *testing.T) {
	msg := Message{
		ContentType: "text/plain",
		Headers:     map[string]string{"Z-Header": "1", "A-Header": "2"},
	}
	first := string(msg.encode())
	for i := 0; i < 5; i++ {
		if got := string(msg.encode()); got != first {
			t.Fatalf("encode is nondeterministic across calls:\n%q\nvs\n%q", got, first)
		}
	}
}

func TestMessageKindClassification(t *testing.T) {
	cases := []struct {
		contentType string
		want        Kind
	}{
		{"text/plain; charset=UTF-8", KindText},
		{"text/x-msmsgscontrol", KindTyping},
		{"application/x-msnmsgrp2p", KindRaw},
	}
	for _, c := range cases {
		m := Message{ContentType: c.contentType}
		if got := m.Kind(); got != c.want {
			t.Errorf("Kind(%q) = %v, want %v", c.contentType, got, c.want)
		}
	}
}

func TestClassForDefaultsToAcknowledged(t *testing.T) {
	if got := classFor("text/plain"); got != Acknowledged {
		t.Fatalf("classFor(text/plain) = %q, want %q", got, Acknowledged)
	}
	if got := classFor("text/x-msmsgscontrol"); got != Unacknowledged {
		t.Fatalf("classFor(text/x-msmsgscontrol) = %q, want %q", got, Unacknowledged)
	}
}

func TestDecodeMessageWithoutTrailingBlankLine(t *testing.T) {
	// A malformed or truncated payload with no header/body boundary should
	// still decode without panicking, treating the whole thing as headers.
	decoded := decodeMessage([]byte("Content-Type: text/plain\r\n"))
	if decoded.ContentType != "text/plain" {
		t.Fatalf("ContentType = %q, want %q", decoded.ContentType, "text/plain")
	}
	if decoded.Body != nil {
		t.Fatalf("Body = %q, want nil", decoded.Body)
	}
}
