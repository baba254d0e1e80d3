// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package patricia

import (
	"bytes"
	"testing"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/arbpool"
	"github.com/cznic/parrotdb/segment"
)

// newStringTrie builds a trie over an arbpool of NUL-terminated byte
// strings, exactly the §4.4 scenario setup (insert "apple\0", "ant\0",
// "banana\0").
func newStringTrie(t *testing.T, store segment.Store) (*Trie, *arbpool.Pool) {
	t.Helper()
	ap, err := arbpool.Open(store, "strs", 1024)
	if err != nil {
		t.Fatal(err)
	}
	var tr *Trie
	keyFn := func(a atom.Atom) []byte {
		b := ap.Addr(a)
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return b[:i+1] // the block is padded past the NUL terminator
		}
		return b
	}
	tr, err = Open(store, "trie", 0, 1024, keyFn)
	if err != nil {
		t.Fatal(err)
	}
	return tr, ap
}

func putStr(t *testing.T, ap *arbpool.Pool, s string) atom.Atom {
	t.Helper()
	b := append([]byte(s), 0)
	a, err := ap.Put(b)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAddGetRoundtrip(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tr, ap := newStringTrie(t, store)

	ant := putStr(t, ap, "ant")
	apple := putStr(t, ap, "apple")
	banana := putStr(t, ap, "banana")

	nAnt, err := tr.Add(ant)
	if err != nil {
		t.Fatal(err)
	}
	nApple, err := tr.Add(apple)
	if err != nil {
		t.Fatal(err)
	}
	nBanana, err := tr.Add(banana)
	if err != nil {
		t.Fatal(err)
	}

	if got := tr.Get(append([]byte("ant"), 0)); got != nAnt {
		t.Fatalf("Get(ant) = %d, want %d", got, nAnt)
	}
	if got := tr.Get(append([]byte("apple"), 0)); got != nApple {
		t.Fatalf("Get(apple) = %d, want %d", got, nApple)
	}
	if got := tr.Get(append([]byte("banana"), 0)); got != nBanana {
		t.Fatalf("Get(banana) = %d, want %d", got, nBanana)
	}
	if got := tr.Get(append([]byte("nope"), 0)); got != atom.Null {
		t.Fatalf("Get(nope) = %d, want Null", got)
	}
}

func TestAddDuplicateFails(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tr, ap := newStringTrie(t, store)

	a := putStr(t, ap, "ant")
	if _, err := tr.Add(a); err != nil {
		t.Fatal(err)
	}
	b := putStr(t, ap, "ant")
	if _, err := tr.Add(b); err == nil {
		t.Fatal("expected ErrDUP on re-insertion of an equal key")
	}
}

func TestFindNextOrdering(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tr, ap := newStringTrie(t, store)

	ant := putStr(t, ap, "ant")
	apple := putStr(t, ap, "apple")
	banana := putStr(t, ap, "banana")

	nAnt, _ := tr.Add(ant)
	nApple, _ := tr.Add(apple)
	nBanana, _ := tr.Add(banana)

	first := tr.FindNext(atom.Null)
	if first != nAnt {
		t.Fatalf("first = %d, want ant node %d", first, nAnt)
	}
	second := tr.FindNext(first)
	if second != nApple {
		t.Fatalf("second = %d, want apple node %d", second, nApple)
	}
	third := tr.FindNext(second)
	if third != nBanana {
		t.Fatalf("third = %d, want banana node %d", third, nBanana)
	}
	if got := tr.FindNext(third); got != atom.Null {
		t.Fatalf("FindNext(last) = %d, want Null", got)
	}

	// and the reverse direction
	if got := tr.FindPrev(atom.Null); got != nBanana {
		t.Fatalf("FindPrev(Null) = %d, want banana node %d", got, nBanana)
	}
	if got := tr.FindPrev(nBanana); got != nApple {
		t.Fatalf("FindPrev(banana) = %d, want apple node %d", got, nApple)
	}
	if got := tr.FindPrev(nApple); got != nAnt {
		t.Fatalf("FindPrev(apple) = %d, want ant node %d", got, nAnt)
	}
	if got := tr.FindPrev(nAnt); got != atom.Null {
		t.Fatalf("FindPrev(first) = %d, want Null", got)
	}
}

func TestSubtreeMatchAndNext(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tr, ap := newStringTrie(t, store)

	ant := putStr(t, ap, "ant")
	apple := putStr(t, ap, "apple")
	banana := putStr(t, ap, "banana")

	nAnt, _ := tr.Add(ant)
	tr.Add(apple)
	tr.Add(banana)

	// prefix "a" == 8 bits, matches both ant and apple; minimum of that
	// subtree is "ant" since it sorts first.
	prefix := []byte("a")
	got := tr.SubtreeMatch(8, prefix)
	if got != nAnt {
		t.Fatalf("SubtreeMatch(prefix=a) = %d, want ant node %d", got, nAnt)
	}

	// stepping past ant within the "a" subtree reaches apple, which still
	// shares the prefix.
	next := tr.SubtreeNext(nAnt, 8)
	if next == atom.Null {
		t.Fatal("SubtreeNext(ant, prefix=a) should reach apple")
	}

	// a prefix with no member at all
	none := tr.SubtreeMatch(8, []byte("z"))
	if none != atom.Null {
		t.Fatalf("SubtreeMatch(prefix=z) = %d, want Null", none)
	}
}

func TestDeleteRemovesNode(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tr, ap := newStringTrie(t, store)

	ant := putStr(t, ap, "ant")
	apple := putStr(t, ap, "apple")

	nAnt, _ := tr.Add(ant)
	nApple, _ := tr.Add(apple)

	if err := tr.Delete(nAnt); err != nil {
		t.Fatal(err)
	}
	if got := tr.Get(append([]byte("ant"), 0)); got != atom.Null {
		t.Fatalf("Get(ant) after delete = %d, want Null", got)
	}
	if got := tr.Get(append([]byte("apple"), 0)); got != nApple {
		t.Fatalf("Get(apple) after deleting ant = %d, want %d", got, nApple)
	}
}

func TestDeleteSoleRoot(t *testing.T) {
	store := segment.NewMemSegment(nil)
	tr, ap := newStringTrie(t, store)

	ant := putStr(t, ap, "ant")
	nAnt, _ := tr.Add(ant)

	if err := tr.Delete(nAnt); err != nil {
		t.Fatal(err)
	}
	if got := tr.Get(append([]byte("ant"), 0)); got != atom.Null {
		t.Fatal("trie should be empty after deleting the sole node")
	}
}
