// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitmap

import (
	"testing"

	"github.com/cznic/parrotdb/segment"
)

func TestSetTestClear(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "tags", 16)
	if err != nil {
		t.Fatal(err)
	}

	a, err := p.Alloc()
	if err != nil {
		t.Fatal(err)
	}

	for _, bit := range []int{0, 1, 7, 8, 4095, 4096, 70000} {
		if p.Test(a, bit) {
			t.Fatalf("bit %d should start unset", bit)
		}
		if err := p.Set(a, bit); err != nil {
			t.Fatalf("Set(%d): %v", bit, err)
		}
		if !p.Test(a, bit) {
			t.Fatalf("bit %d should be set after Set", bit)
		}
	}

	if p.Test(a, 3) {
		t.Fatal("bit 3 was never set, should read false")
	}

	p.Clear(a, 8)
	if p.Test(a, 8) {
		t.Fatal("bit 8 should read false after Clear")
	}
	// Untouched neighbors survive the clear.
	if !p.Test(a, 7) {
		t.Fatal("Clear must not disturb neighboring bits")
	}
}

func TestTwoBitmapsAreIndependent(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "tags", 16)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := p.Alloc()
	b, _ := p.Alloc()

	p.Set(a, 42)
	if p.Test(b, 42) {
		t.Fatal("bitmaps must not share storage")
	}
}

func TestFillRangeWithinByte(t *testing.T) {
	store := segment.NewMemSegment(nil)
	p, err := Open(store, "tags", 16)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := p.Alloc()
	if err := p.FillRange(a, 2, 5); err != nil {
		t.Fatal(err)
	}
	for bit := 0; bit < 8; bit++ {
		want := bit >= 2 && bit <= 5
		if got := p.Test(a, bit); got != want {
			t.Fatalf("bit %d: got %v want %v", bit, got, want)
		}
	}
}
