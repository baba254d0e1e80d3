// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitmap implements the spec's §4.5 bitmap pool: variable-sized
// bitmaps identified by atom, growing on demand, shared by the rule
// engine to record which tag atoms a rule matches. It is grounded on
// dbm/bits.go's uBits bit-manipulation helper (byteMask/bitMask tables),
// generalized from dbm's single fixed-size Array to a pool of
// independently growable bitmaps.
package bitmap

import (
	"encoding/binary"
	"fmt"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/fixedpool"
	"github.com/cznic/parrotdb/segment"
)

// stride is the growth unit: one segment page covers this many bits. This
// is the "implementation-defined stride" §4.5 leaves open.
const stride = segment.PageSize * 8

// maxPages bounds how far a single bitmap can grow (maxPages * stride
// bits, comfortably above the tag-atom space any one rule needs).
const maxPages = 64

const ctrlRecordSize = 4 /*numPages*/ + 4*maxPages

// Pool manages a set of independently growable bitmaps.
type Pool struct {
	store segment.Store
	ctrl  *fixedpool.Pool
}

// Open opens or creates the named bitmap pool. maxBitmaps bounds how many
// distinct bitmaps (atoms) the pool can hand out.
func Open(store segment.Store, name string, maxBitmaps uint32) (*Pool, error) {
	ctrl, err := fixedpool.Open(store, name+".ctrl", 4, ctrlRecordSize, maxBitmaps, fixedpool.InitZero)
	if err != nil {
		return nil, err
	}
	return &Pool{store: store, ctrl: ctrl}, nil
}

// Alloc reserves a new, initially empty bitmap and returns its atom.
func (p *Pool) Alloc() (atom.Atom, error) {
	return p.ctrl.Alloc()
}

// Free releases a bitmap's control record. The backing pages it grew
// into are not individually reclaimed, matching segment's bump-allocator
// model (§4.1): only the control record re-enters the free-list.
func (p *Pool) Free(a atom.Atom) {
	p.ctrl.Free(a)
}

func (p *Pool) ctrlBytes(a atom.Atom) []byte {
	b := p.ctrl.Addr(a)
	if b == nil {
		panic(fmt.Sprintf("bitmap: use of unissued atom %d", a))
	}
	return b
}

func (p *Pool) numPages(ctrl []byte) int {
	return int(binary.LittleEndian.Uint32(ctrl[0:4]))
}

func (p *Pool) setNumPages(ctrl []byte, n int) {
	binary.LittleEndian.PutUint32(ctrl[0:4], uint32(n))
}

func (p *Pool) pageMatom(ctrl []byte, i int) segment.Matom {
	off := 4 + 4*i
	return segment.Matom(binary.LittleEndian.Uint32(ctrl[off : off+4]))
}

func (p *Pool) setPageMatom(ctrl []byte, i int, m segment.Matom) {
	off := 4 + 4*i
	binary.LittleEndian.PutUint32(ctrl[off:off+4], uint32(m))
}

// growTo ensures bitmap a has at least pageIdx+1 backing pages, growing
// the segment one page at a time as needed.
func (p *Pool) growTo(ctrl []byte, pageIdx int) ([]byte, bool) {
	if pageIdx >= maxPages {
		return nil, false
	}
	n := p.numPages(ctrl)
	for n <= pageIdx {
		m, err := p.store.AllocPages(1)
		if err != nil {
			return nil, false
		}
		p.setPageMatom(ctrl, n, m)
		n++
		p.setNumPages(ctrl, n)
	}
	m := p.pageMatom(ctrl, pageIdx)
	return p.store.Bytes(m, segment.PageSize), true
}

// Set sets bit within the bitmap a, growing its backing storage if
// needed.
func (p *Pool) Set(a atom.Atom, bit int) error {
	if bit < 0 {
		return &ErrRANGE{Bit: bit, Max: maxPages * stride}
	}
	ctrl := p.ctrlBytes(a)
	pageIdx := bit / stride
	within := bit % stride
	page, ok := p.growTo(ctrl, pageIdx)
	if !ok {
		return &ErrRANGE{Bit: bit, Max: maxPages * stride}
	}
	byteIdx := within / 8
	page[byteIdx] |= bitMask[within%8]
	return nil
}

// Clear clears bit, a no-op if the bitmap never grew that far.
func (p *Pool) Clear(a atom.Atom, bit int) {
	if bit < 0 {
		return
	}
	ctrl := p.ctrlBytes(a)
	pageIdx := bit / stride
	if pageIdx >= p.numPages(ctrl) {
		return
	}
	m := p.pageMatom(ctrl, pageIdx)
	page := p.store.Bytes(m, segment.PageSize)
	within := bit % stride
	page[within/8] &^= bitMask[within%8]
}

// Test reports whether bit is set. Bits beyond the bitmap's current
// extent are false.
func (p *Pool) Test(a atom.Atom, bit int) bool {
	if bit < 0 {
		return false
	}
	ctrl := p.ctrlBytes(a)
	pageIdx := bit / stride
	if pageIdx >= p.numPages(ctrl) {
		return false
	}
	m := p.pageMatom(ctrl, pageIdx)
	page := p.store.Bytes(m, segment.PageSize)
	within := bit % stride
	return page[within/8]&bitMask[within%8] != 0
}

// FillRange sets every bit in [lo, hi] (inclusive). Runs confined to a
// single byte are set with one OR against byteMask, adapted from
// dbm/bits.go's pageBytes range fill; runs spanning a byte boundary fall
// back to Set bit-by-bit for the partial head/tail and whole bytes in
// the middle.
func (p *Pool) FillRange(a atom.Atom, lo, hi int) error {
	if lo > hi {
		return nil
	}
	loByte, loBit := lo/8, lo%8
	hiByte, hiBit := hi/8, hi%8
	if loByte == hiByte {
		ctrl := p.ctrlBytes(a)
		pageIdx := lo / stride
		page, ok := p.growTo(ctrl, pageIdx)
		if !ok {
			return &ErrRANGE{Bit: hi, Max: maxPages * stride}
		}
		within := lo % stride
		page[within/8] |= byteMask[loBit][hiBit]
		return nil
	}
	for b := lo; b <= hi; b++ {
		if err := p.Set(a, b); err != nil {
			return err
		}
	}
	return nil
}
