// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeHeaderServerError(t *testing.T) {
	cmd, err := DecodeHeader("911 5")
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	want := Command{ServerError: 911, TrID: 5, HasTrID: true}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Fatalf("unexpected command (-want +got):\n%s", diff)
	}
}

func TestDecodeHeaderUnknown(t *testing.T) {
	_, err := DecodeHeader("ZZZ 1 2 3")
	if err == nil {
		t.Fatal("expected an error for an unknown identifier")
	}
}

func TestDecodeHeaderTrIDAndArgs(t *testing.T) {
	cmd, err := DecodeHeader("CHG 6 NLN 0")
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if cmd.ID != "CHG" || cmd.TrID != 6 || !cmd.HasTrID {
		t.Fatalf("got %+v", cmd)
	}
	if diff := cmp.Diff([]string{"NLN", "0"}, cmd.Args); diff != "" {
		t.Fatalf("unexpected args (-want +got):\n%s", diff)
	}
}

func TestDecodeHeaderPayloadLength(t *testing.T) {
	cmd, err := DecodeHeader("MSG bob@example.com Bob 42")
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if cmd.PayloadLen != 42 {
		t.Fatalf("got payload length %d, want 42", cmd.PayloadLen)
	}
	if diff := cmp.Diff([]string{"bob@example.com", "Bob"}, cmd.Args); diff != "" {
		t.Fatalf("unexpected args (-want +got):\n%s", diff)
	}
}

// TestRoundTripEncoding exercises property 1 from spec.md §8: decoding the
// encoding of a command returns the same command, for a sample of
// registered inbound shapes including NLN with and without the optional
// trailing display-picture token and a payload-bearing command.
func TestRoundTripEncoding(t *testing.T) {
	cases := []Command{
		{ID: "VER", TrID: 1, HasTrID: true, Args: []string{"MSNP12"}},
		{ID: "NLN", Args: []string{"NLN", "bob@example.com", "Bob%20Smith", "2789003324", "0"}},
		{ID: "NLN", Args: []string{"NLN", "bob@example.com", "Bob"}}, // without display picture
		{ID: "CAL", TrID: 3, HasTrID: true, Args: []string{"RINGING", "11752013"}},
		{ID: "MSG", Args: []string{"bob@example.com", "Bob"}, PayloadLen: 5},
	}
	for _, c := range cases {
		line := EncodeHeader(c)
		got, err := DecodeHeader(line)
		if err != nil {
			t.Fatalf("DecodeHeader(%q): %v", line, err)
		}
		if diff := cmp.Diff(c, got); diff != "" {
			t.Errorf("round trip mismatch for %q (-want +got):\n%s", line, diff)
		}
	}
}
