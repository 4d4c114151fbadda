// Copyright 2026 The go-msnp Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package roster

import (
	"testing"

	"go.msnp.dev/msnp/address"
)

// TestListBitmaskMembership exercises property 5 from spec.md §8: for all
// 32 possible values of the list flags byte, membership reported matches
// the FL/AL/BL/RL/PL bits exactly.
func TestListBitmaskMembership(t *testing.T) {
	for v := 0; v < 32; v++ {
		l := List(v)
		for _, m := range []struct {
			bit  List
			name string
		}{
			{Forward, "FL"}, {Allow, "AL"}, {Block, "BL"}, {Reverse, "RL"}, {Pending, "PL"},
		} {
			want := v&int(m.bit) != 0
			got := l.Has(m.bit)
			if got != want {
				t.Errorf("List(%d).Has(%s) = %v, want %v", v, m.name, got, want)
			}
		}
	}
}

func TestTableMutateInsertsAndUpdates(t *testing.T) {
	tbl := NewTable()
	login := address.MustParse("bob@example.com")

	tbl.Mutate(login, func(c *Contact) {
		c.Nickname = "Bob"
		c.Lists |= Forward
	})

	c, ok := tbl.Lookup(login)
	if !ok {
		t.Fatal("expected contact to exist")
	}
	if c.Nickname != "Bob" || !c.InRoster() {
		t.Fatalf("got %+v", c)
	}

	tbl.Mutate(login, func(c *Contact) {
		c.Nickname = "Bobby"
	})
	c, _ = tbl.Lookup(login)
	if c.Nickname != "Bobby" {
		t.Fatalf("got %q, want Bobby", c.Nickname)
	}
}

func TestSetAllowedMutualExclusion(t *testing.T) {
	tbl := NewTable()
	login := address.MustParse("bob@example.com")

	c := tbl.SetAllowed(login, true)
	if !c.Lists.Has(Allow) || c.Lists.Has(Block) {
		t.Fatalf("got %v", c.Lists)
	}

	c = tbl.SetAllowed(login, false)
	if !c.Lists.Has(Block) || c.Lists.Has(Allow) {
		t.Fatalf("got %v", c.Lists)
	}
}

func TestGroupLifecycle(t *testing.T) {
	tbl := NewTable()
	tbl.UpsertGroup(Group{Name: "Friends", GUID: "g1"})
	tbl.RenameGroup("g1", "Besties")
	g, ok := tbl.LookupGroup("g1")
	if !ok || g.Name != "Besties" {
		t.Fatalf("got %+v, ok=%v", g, ok)
	}

	login := address.MustParse("bob@example.com")
	tbl.Mutate(login, func(c *Contact) {
		c.Groups = map[string]struct{}{"g1": {}}
	})
	tbl.RemoveGroup("g1")
	c, _ := tbl.Lookup(login)
	if _, present := c.Groups["g1"]; present {
		t.Fatal("expected group reference to be removed from contact")
	}
}

func TestContactSnapshotIsolation(t *testing.T) {
	tbl := NewTable()
	login := address.MustParse("bob@example.com")
	tbl.Mutate(login, func(c *Contact) {
		c.Groups = map[string]struct{}{"g1": {}}
	})

	snap, _ := tbl.Lookup(login)
	snap.Groups["g2"] = struct{}{}

	fresh, _ := tbl.Lookup(login)
	if _, present := fresh.Groups["g2"]; present {
		t.Fatal("mutating a snapshot must not affect the table")
	}
}
