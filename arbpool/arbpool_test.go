// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arbpool

import (
	"bytes"
	"testing"

	"github.com/cznic/parrotdb/segment"
)

func TestPutAddrRoundtrip(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "strings", 256)
	if err != nil {
		t.Fatal(err)
	}

	msgs := [][]byte{
		[]byte("x"),
		[]byte("hello world"),
		bytes.Repeat([]byte{'z'}, 100),
		bytes.Repeat([]byte{'q'}, 4000),
	}

	var atoms []uint32
	for _, m := range msgs {
		a, err := p.Put(m)
		if err != nil {
			t.Fatal(err)
		}
		atoms = append(atoms, uint32(a))
		got := p.Addr(a)[:len(m)]
		if !bytes.Equal(got, m) {
			t.Fatalf("roundtrip mismatch for %q: got %q", m, got)
		}
	}

	// Different classes should never collide in atom numbering.
	seen := map[uint32]bool{}
	for _, a := range atoms {
		if seen[a] {
			t.Fatalf("duplicate atom %d across classes", a)
		}
		seen[a] = true
	}
}

func TestAllocTooBig(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "strings", 16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Alloc(5000); err == nil {
		t.Fatal("expected ErrTOOBIG")
	}
}

func TestFreeThenReallocSameClass(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "strings", 16)
	if err != nil {
		t.Fatal(err)
	}
	a, err := p.Put([]byte("short"))
	if err != nil {
		t.Fatal(err)
	}
	p.Free(a)
	b, err := p.Put([]byte("again"))
	if err != nil {
		t.Fatal(err)
	}
	if b != a {
		t.Fatalf("expected immediate reuse of freed atom, got %d want %d", b, a)
	}
}
