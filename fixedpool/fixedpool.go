// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixedpool implements the spec's §4.2 fixed pool: a paged
// allocator for fixed-size records that returns 32-bit atoms and maintains
// an embedded free-list threaded through the record bytes themselves,
// generalized from the teacher's handle/offset translation in
// lldb/falloc.go (h2off/off2h) and from the free-block bookkeeping in
// lldb/flt.go, adapted to page-granularity records rather than 16-byte
// atoms.
package fixedpool

import (
	"encoding/binary"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/segment"
)

// Flag bits for Open.
const (
	// InitZero causes newly mapped pages to be zeroed before first use.
	// segment.Store already zeroes freshly granted pages, so this flag
	// is accepted for API fidelity with §4.2 and is a no-op in this
	// implementation; it is not silently ignored when false, since the
	// guarantee holds either way.
	InitZero uint32 = 1 << 0
)

// Shape is the persisted, immutable-after-creation layout of a pool.
type Shape struct {
	RecordSize int
	PageShift  uint
	MaxAtoms   uint32
	Flags      uint32
}

const shapeHeaderLen = 24 // recordSize,pageShift,maxAtoms,flags,freeHead,numPages (uint32 x 6)

// Pool is a fixed-size-record allocator over a segment.Store.
type Pool struct {
	store segment.Store
	name  string
	hdr   segment.Header
	shape Shape

	recordsPerPage int
	maxPages       int
	segPagesPerPg  int // segment pages backing one pool page
}

func maxPagesFor(maxAtoms uint32, recordsPerPage int) int {
	if recordsPerPage == 0 {
		return 0
	}
	return int((uint64(maxAtoms) + uint64(recordsPerPage) - 1) / uint64(recordsPerPage))
}

// Open opens or creates the named pool. Reopening with a different Shape
// fails with ErrSHAPE.
func Open(store segment.Store, name string, pageShift uint, recordSize int, maxAtoms uint32, flags uint32) (*Pool, error) {
	if recordSize < 4 {
		return nil, &ErrINVAL{Name: name, Msg: "record size must hold a free-list link (>= 4 bytes)", Arg: recordSize}
	}
	recordsPerPage := 1 << pageShift
	maxPages := maxPagesFor(maxAtoms, recordsPerPage)
	headerSize := int64(shapeHeaderLen + 4*maxPages)

	hdr, err := store.Header(name, segment.TypeFixedPool, flags, headerSize)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		store: store,
		name:  name,
		hdr:   hdr,
		shape: Shape{RecordSize: recordSize, PageShift: pageShift, MaxAtoms: maxAtoms, Flags: flags},
		recordsPerPage: recordsPerPage,
		maxPages:       maxPages,
		segPagesPerPg:  pagesFor(recordsPerPage * recordSize),
	}

	b := p.headerBytes()
	if b == nil {
		panic("fixedpool: header region vanished")
	}

	existingRecordSize := int(binary.LittleEndian.Uint32(b[0:4]))
	if existingRecordSize == 0 {
		// freshly created: persist the shape now.
		p.putShape()
	} else {
		got := Shape{
			RecordSize: existingRecordSize,
			PageShift:  uint(binary.LittleEndian.Uint32(b[4:8])),
			MaxAtoms:   binary.LittleEndian.Uint32(b[8:12]),
			Flags:      binary.LittleEndian.Uint32(b[12:16]),
		}
		if got != p.shape {
			return nil, &ErrSHAPE{Name: name, Want: p.shape, Got: got}
		}
	}

	return p, nil
}

func pagesFor(bytes int) int {
	n := (bytes + segment.PageSize - 1) / segment.PageSize
	if n < 1 {
		n = 1
	}
	return n
}

func (p *Pool) headerBytes() []byte {
	return p.store.Bytes(p.hdr.Page, int(p.hdr.Size))
}

func (p *Pool) putShape() {
	b := p.headerBytes()
	binary.LittleEndian.PutUint32(b[0:4], uint32(p.shape.RecordSize))
	binary.LittleEndian.PutUint32(b[4:8], uint32(p.shape.PageShift))
	binary.LittleEndian.PutUint32(b[8:12], p.shape.MaxAtoms)
	binary.LittleEndian.PutUint32(b[12:16], p.shape.Flags)
}

func (p *Pool) freeHead() atom.Atom {
	b := p.headerBytes()
	return atom.Atom(binary.LittleEndian.Uint32(b[16:20]))
}

func (p *Pool) setFreeHead(a atom.Atom) {
	b := p.headerBytes()
	binary.LittleEndian.PutUint32(b[16:20], uint32(a))
}

func (p *Pool) numPages() int {
	b := p.headerBytes()
	return int(binary.LittleEndian.Uint32(b[20:24]))
}

func (p *Pool) setNumPages(n int) {
	b := p.headerBytes()
	binary.LittleEndian.PutUint32(b[20:24], uint32(n))
}

func (p *Pool) pageMatom(i int) segment.Matom {
	b := p.headerBytes()
	off := shapeHeaderLen + 4*i
	return segment.Matom(binary.LittleEndian.Uint32(b[off : off+4]))
}

func (p *Pool) setPageMatom(i int, m segment.Matom) {
	b := p.headerBytes()
	off := shapeHeaderLen + 4*i
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(m))
}

// atomLocation decodes an atom into its (pool page index, offset within
// page) pair. Atom numbering starts at 1 so that atom 0 stays reserved,
// per §4.2 invariant (b).
func (p *Pool) atomLocation(a atom.Atom) (pageIdx, offset int, ok bool) {
	if a == atom.Null || uint32(a) > p.shape.MaxAtoms {
		return 0, 0, false
	}
	idx := int(a) - 1
	return idx / p.recordsPerPage, idx % p.recordsPerPage, true
}

func atomFor(pageIdx, offset, recordsPerPage int) atom.Atom {
	return atom.Atom(pageIdx*recordsPerPage + offset + 1)
}

// Addr returns a live, RecordSize-byte slice for atom a, or nil if a is
// out of range or refers to a page not yet allocated. The free-list is
// never consulted here, matching §4.2's "never traversed during addr".
func (p *Pool) Addr(a atom.Atom) []byte {
	pageIdx, offset, ok := p.atomLocation(a)
	if !ok || pageIdx >= p.numPages() {
		return nil
	}
	m := p.pageMatom(pageIdx)
	pageBytes := p.store.Bytes(m, p.segPagesPerPg*segment.PageSize)
	if pageBytes == nil {
		return nil
	}
	start := offset * p.shape.RecordSize
	return pageBytes[start : start+p.shape.RecordSize]
}

// Alloc detaches and returns the head of the free-list, growing the pool
// by one page first if the list is empty. It fails with ErrFULL once
// MaxAtoms records have been handed out.
func (p *Pool) Alloc() (atom.Atom, error) {
	if h := p.freeHead(); h != atom.Null {
		next := binary.LittleEndian.Uint32(p.Addr(h)[0:4])
		p.setFreeHead(atom.Atom(next))
		return h, nil
	}

	n := p.numPages()
	if n >= p.maxPages {
		return atom.Null, &ErrFULL{Name: p.name, MaxAtoms: p.shape.MaxAtoms}
	}

	m, err := p.store.AllocPages(p.segPagesPerPg)
	if err != nil {
		return atom.Null, err
	}
	p.setPageMatom(n, m)
	p.setNumPages(n + 1)

	// segment.Store already zeroes new pages; chain the new page's
	// records into a free-list among themselves, newest-record-first.
	lo := n * p.recordsPerPage
	hi := lo + p.recordsPerPage
	last := atom.Atom(0) // remaining capacity beyond MaxAtoms stays unchained
	if uint32(hi) > p.shape.MaxAtoms {
		hi = int(p.shape.MaxAtoms)
	}
	for i := hi - 1; i >= lo; i-- {
		a := atomFor(i/p.recordsPerPage, i%p.recordsPerPage, p.recordsPerPage)
		binary.LittleEndian.PutUint32(p.Addr(a)[0:4], uint32(last))
		last = a
	}
	p.setFreeHead(last)

	h := p.freeHead()
	next := binary.LittleEndian.Uint32(p.Addr(h)[0:4])
	p.setFreeHead(atom.Atom(next))
	return h, nil
}

// Free pushes a onto the head of the free-list. Freeing atom 0 or an atom
// outside [1, MaxAtoms] is a contract violation (§7) and panics rather
// than returning an error.
func (p *Pool) Free(a atom.Atom) {
	rec := p.Addr(a)
	if rec == nil {
		panic(&ErrINVAL{Name: p.name, Msg: "free of unissued atom", Arg: a})
	}
	binary.LittleEndian.PutUint32(rec[0:4], uint32(p.freeHead()))
	p.setFreeHead(a)
}

// MaxAtoms returns the pool's configured capacity.
func (p *Pool) MaxAtoms() uint32 { return p.shape.MaxAtoms }

// RecordSize returns the pool's fixed record size in bytes.
func (p *Pool) RecordSize() int { return p.shape.RecordSize }
