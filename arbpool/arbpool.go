// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arbpool implements the spec's §4.3 arbitrary pool: a
// variable-size allocator with power-of-two size classes, so free is O(1)
// because the atom itself carries the class to free from. It is grounded
// on the teacher's short/long block tagging and size-classed free lists
// (lldb/falloc.go's block format, lldb/flt.go's FLTSlot/FLT), re-cast at
// page granularity: each size class is its own fixedpool.Pool of
// same-sized blocks, the same layering dbm used to build its Array/File
// abstractions on top of lldb.Allocator.
package arbpool

import (
	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/fixedpool"
	"github.com/cznic/parrotdb/segment"
)

const (
	minClassShift = 4 // smallest class is 1<<4 == 16 bytes
	numClasses    = 9 // 16, 32, 64, ..., 4096 bytes
	classBits     = 24
	classMask     = 0xFF000000
)

func classBlockSize(i int) int { return 1 << (minClassShift + i) }

// Pool is a variable-size allocator built from numClasses fixedpool.Pool
// instances, one per power-of-two size class.
type Pool struct {
	name    string
	classes [numClasses]*fixedpool.Pool
}

// Open opens or creates the named pool. maxAtomsPerClass bounds each size
// class independently (and must fit in 24 bits, since the class index is
// packed into an atom's top byte).
func Open(store segment.Store, name string, maxAtomsPerClass uint32) (*Pool, error) {
	if maxAtomsPerClass == 0 || maxAtomsPerClass >= 1<<classBits {
		return nil, &ErrINVAL{Name: name, Msg: "maxAtomsPerClass out of range", Arg: maxAtomsPerClass}
	}

	p := &Pool{name: name}
	for i := 0; i < numClasses; i++ {
		blockSize := classBlockSize(i)
		recordsPerPage := segment.PageSize / blockSize
		if recordsPerPage < 1 {
			recordsPerPage = 1
		}
		pageShift := uint(0)
		for (1 << pageShift) < recordsPerPage {
			pageShift++
		}

		cname := classHeaderName(name, i)
		cp, err := fixedpool.Open(store, cname, pageShift, blockSize, maxAtomsPerClass, fixedpool.InitZero)
		if err != nil {
			return nil, err
		}
		p.classes[i] = cp
	}
	return p, nil
}

func classHeaderName(base string, i int) string {
	const letters = "0123456789"
	return base + ".c" + string(letters[i])
}

func classFor(n int) (int, bool) {
	for i := 0; i < numClasses; i++ {
		if n <= classBlockSize(i) {
			return i, true
		}
	}
	return 0, false
}

func encode(classIdx int, local atom.Atom) atom.Atom {
	return atom.Atom(uint32(classIdx+1)<<classBits) | local
}

func decode(a atom.Atom) (classIdx int, local atom.Atom, ok bool) {
	if a == atom.Null {
		return 0, 0, false
	}
	c := int(uint32(a)>>classBits) - 1
	if c < 0 || c >= numClasses {
		return 0, 0, false
	}
	return c, a &^ classMask, true
}

// Alloc reserves a block able to hold n bytes and returns its atom. n must
// not exceed the largest size class (4096 bytes); larger variable-length
// content does not occur in this module (interned strings and tree text
// runs are capped well below a page) so no multi-block chaining is
// implemented.
func (p *Pool) Alloc(n int) (atom.Atom, error) {
	c, ok := classFor(n)
	if !ok {
		return atom.Null, &ErrTOOBIG{Name: p.name, Size: n, MaxClass: classBlockSize(numClasses - 1)}
	}
	local, err := p.classes[c].Alloc()
	if err != nil {
		return atom.Null, err
	}
	return encode(c, local), nil
}

// Put allocates a block sized to len(b) and copies b into it.
func (p *Pool) Put(b []byte) (atom.Atom, error) {
	a, err := p.Alloc(len(b))
	if err != nil {
		return atom.Null, err
	}
	copy(p.Addr(a), b)
	return a, nil
}

// Addr returns the live, full-block-size byte slice for a, or nil if a
// does not belong to this pool. Callers needing only the first n bytes
// slice the result themselves; arbpool does not track a separate
// "used length" per block (the owner does, e.g. strtab's NUL terminator).
func (p *Pool) Addr(a atom.Atom) []byte {
	c, local, ok := decode(a)
	if !ok {
		return nil
	}
	return p.classes[c].Addr(local)
}

// Free releases a's block back to its size class's free-list. Freeing an
// atom this pool did not issue is a contract violation and panics.
func (p *Pool) Free(a atom.Atom) {
	c, local, ok := decode(a)
	if !ok {
		panic(&ErrINVAL{Name: p.name, Msg: "free of atom not owned by this pool", Arg: a})
	}
	p.classes[c].Free(local)
}
