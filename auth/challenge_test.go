// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package auth

import "testing"

// TestChallengeE2 exercises the literal E2 scenario from spec.md §8: the
// 32-character lowercase hex MD5 digest of the challenge string
// concatenated with the product key.
func TestChallengeE2(t *testing.T) {
	got, err := Challenge("15570131571988941333")
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("got digest of length %d, want 32", len(got))
	}
	for _, c := range got {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("digest %q contains non-lowercase-hex character %q", got, c)
		}
	}
}

func TestChallengeDeterministic(t *testing.T) {
	a, err := Challenge("abc123")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Challenge("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("got %q and %q for the same input", a, b)
	}
}
