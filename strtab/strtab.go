// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strtab implements the spec's §4.3 immutable-string table: a
// deduplicating interner mapping NUL-terminated byte strings to stable
// atoms, with a short-string fast path for 0- and 1-byte strings that
// needs neither the trie nor the arbitrary pool. It is the first
// consumer composing the lower two layers — arbpool for storage,
// patricia for lookup — the same way dbm.Array/dbm.File composed
// lldb.Allocator primitives rather than reimplementing free-list
// bookkeeping.
package strtab

import (
	"bytes"

	"github.com/cznic/parrotdb/arbpool"
	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/patricia"
	"github.com/cznic/parrotdb/segment"
)

// maxKeyLen bounds an interned string's length, including its NUL
// terminator, at the Patricia trie's 256-byte packed-bit-index limit
// (byte offset occupies the index's high 8 bits).
const maxKeyLen = 256

// shortTableSize covers every single byte value (256 of them) followed
// by a NUL terminator, per §4.3's "512-byte static table".
const shortTableSize = 256 * 2

// Table is a string interner over a segment.Store.
type Table struct {
	store   segment.Store
	strs    *arbpool.Pool
	trie    *patricia.Trie
	shortTb []byte
}

// Open opens or creates the named string table. maxStrings bounds how
// many distinct strings longer than one byte can be interned.
func Open(store segment.Store, name string, maxStrings uint32) (*Table, error) {
	strs, err := arbpool.Open(store, name+".strs", maxStrings)
	if err != nil {
		return nil, err
	}

	hdr, err := store.Header(name+".short", segment.TypeOpaque, 0, shortTableSize)
	if err != nil {
		return nil, err
	}
	shortTb := store.Bytes(hdr.Page, shortTableSize)
	for b := 0; b < 256; b++ {
		shortTb[2*b] = byte(b)
		shortTb[2*b+1] = 0
	}

	tb := &Table{store: store, strs: strs}

	keyFn := func(a atom.Atom) []byte { return nulTerminated(tb.strs.Addr(a)) }
	trie, err := patricia.Open(store, name+".trie", 0, maxStrings, keyFn)
	if err != nil {
		return nil, err
	}
	tb.trie = trie
	tb.shortTb = shortTb
	return tb, nil
}

// Intern returns the stable atom for s, allocating and recording it in
// the trie on first use. A 0- or 1-byte string resolves to one of atoms
// 1..256 without consulting the trie at all: intern("") == 1,
// intern("a") == 1 + 'a'.
func (t *Table) Intern(s []byte) (atom.Atom, error) {
	if len(s) <= 1 {
		var b byte
		if len(s) == 1 {
			b = s[0]
		}
		return atom.Atom(1) + atom.Atom(b), nil
	}
	if len(s)+1 > maxKeyLen {
		return atom.Null, &ErrINVAL{Msg: "string exceeds maximum interned length", Arg: len(s)}
	}

	key := make([]byte, len(s)+1)
	copy(key, s)
	// key[len(s)] is already the NUL terminator (zero value).

	if existing := t.trie.Get(key); existing != atom.Null {
		return 256 + t.trie.Data(existing), nil
	}

	a, err := t.strs.Put(key)
	if err != nil {
		return atom.Null, err
	}
	if _, err := t.trie.Add(a); err != nil {
		t.strs.Free(a)
		return atom.Null, err
	}
	return 256 + a, nil
}

// Deref returns the NUL-terminated byte string named by a, or nil if a
// does not name a string this table issued.
func (t *Table) Deref(a atom.Atom) []byte {
	if a == atom.Null {
		return nil
	}
	if a <= 256 {
		b := byte(a - 1)
		return t.shortTb[2*b : 2*b+2]
	}
	return nulTerminated(t.strs.Addr(a - 256))
}

// nulTerminated cuts an arbpool block down to the stored string and its
// NUL terminator; the rest of the block is padding.
func nulTerminated(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i+1]
	}
	return b
}
