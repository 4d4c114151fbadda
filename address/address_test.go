// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package address

import "testing"

func TestParse(t *testing.T) {
	n, err := Parse(" bob@example.com ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := n.String(), "bob@example.com"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "bob", "@example.com", "bob@"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected an error", s)
		}
	}
}

func TestEscapeArgumentRoundTrip(t *testing.T) {
	cases := []string{
		"Bob Smith",
		"100% sure",
		"plain",
		"über crüe",
		"a/b:c<d>e@f\\g",
	}
	for _, s := range cases {
		esc := EscapeArgument(s)
		got := UnescapeArgument(esc)
		if got != s {
			t.Errorf("round trip for %q: escaped %q, got back %q", s, esc, got)
		}
	}
}

func TestEscapeArgumentNoSpaces(t *testing.T) {
	esc := EscapeArgument("a b")
	for _, c := range esc {
		if c == ' ' {
			t.Fatalf("escaped argument %q still contains a raw space", esc)
		}
	}
}
