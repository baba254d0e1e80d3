// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strtab

import (
	"bytes"
	"testing"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/segment"
)

func TestInternShortStrings(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tb, err := Open(store, "s", 256)
	if err != nil {
		t.Fatal(err)
	}

	empty, err := tb.Intern(nil)
	if err != nil {
		t.Fatal(err)
	}
	if empty != atom.Atom(1) {
		t.Fatalf("intern(\"\") = %d, want 1", empty)
	}

	a, err := tb.Intern([]byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	if a != atom.Atom(98) {
		t.Fatalf("intern(\"a\") = %d, want 98", a)
	}
}

func TestInternLongStringsDeduplicate(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tb, err := Open(store, "s", 256)
	if err != nil {
		t.Fatal(err)
	}

	h1, err := tb.Intern([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := tb.Intern([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatalf("intern(hello) twice = %d, %d, want equal", h1, h2)
	}

	w, err := tb.Intern([]byte("world"))
	if err != nil {
		t.Fatal(err)
	}
	if w == h1 {
		t.Fatal("intern(world) collided with intern(hello)")
	}
}

func TestDerefRoundtrip(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tb, err := Open(store, "s", 256)
	if err != nil {
		t.Fatal(err)
	}

	a, err := tb.Intern([]byte("banana"))
	if err != nil {
		t.Fatal(err)
	}
	got := tb.Deref(a)
	if idx := bytes.IndexByte(got, 0); idx != 6 || !bytes.Equal(got[:idx], []byte("banana")) {
		t.Fatalf("Deref(intern(banana)) = %q", got)
	}

	shortA, _ := tb.Intern([]byte("z"))
	gotShort := tb.Deref(shortA)
	if gotShort[0] != 'z' || gotShort[1] != 0 {
		t.Fatalf("Deref(intern(z)) = %v, want ['z', 0]", gotShort)
	}
}
