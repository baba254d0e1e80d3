// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixedpool

import (
	"testing"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/segment"
)

func TestAllocAddrFree(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "test.recs", 2 /* 4 records/page */, 16, 64, InitZero)
	if err != nil {
		t.Fatal(err)
	}

	if p.Addr(atom.Null) != nil {
		t.Fatal("Addr(0) must be nil")
	}

	var got []atom.Atom
	for i := 0; i < 10; i++ {
		a, err := p.Alloc()
		if err != nil {
			t.Fatal(err)
		}
		if a == atom.Null {
			t.Fatal("Alloc returned null atom")
		}
		rec := p.Addr(a)
		if rec == nil {
			t.Fatalf("Addr(%d) == nil right after Alloc", a)
		}
		rec[4] = byte(i) // byte 4+ is free payload, byte 0-3 is the free-list link
		got = append(got, a)
	}

	for i, a := range got {
		if p.Addr(a)[4] != byte(i) {
			t.Fatalf("record %d payload corrupted", a)
		}
	}

	// Free one and confirm it's immediately reissued (LIFO, §5).
	victim := got[3]
	p.Free(victim)
	reissued, err := p.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	if reissued != victim {
		t.Fatalf("expected freed atom %d to be reissued, got %d", victim, reissued)
	}
}

func TestFixedPoolFull(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "test.small", 1, 16, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Alloc(); err != nil {
			t.Fatalf("unexpected error on alloc %d: %v", i, err)
		}
	}
	if _, err := p.Alloc(); err == nil {
		t.Fatal("expected ErrFULL at max_atoms")
	}
}

func TestFixedPoolReopenShape(t *testing.T) {
	store := segment.NewMemSegment(nil)
	if _, err := Open(store, "shared", 2, 16, 64, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(store, "shared", 2, 16, 64, 0); err != nil {
		t.Fatalf("re-opening with identical shape should succeed: %v", err)
	}
	if _, err := Open(store, "shared", 2, 32, 64, 0); err == nil {
		t.Fatal("expected ErrSHAPE for differing record size")
	}
}

func TestFixedPoolAddrNeverWalksFreeList(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "direct", 2, 16, 64, 0)
	if err != nil {
		t.Fatal(err)
	}
	a, err := p.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	// Addr must work even though the free-list head no longer points here.
	if p.Addr(a) == nil {
		t.Fatal("Addr failed for a live, allocated atom")
	}
	if p.Addr(atom.Atom(10000)) != nil {
		t.Fatal("Addr must return nil for an atom beyond MaxAtoms")
	}
}
