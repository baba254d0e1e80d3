// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package segment implements the bottom of the ParrotDB allocator family: a
// segment maps a file (or, for tests, an in-memory stand-in) as a sequence
// of fixed-size pages and hands out page-granularity atoms ("matoms") to
// the pools layered above it. A small in-segment directory maps textual
// header names to (type, offset, length) entries so a pool can recover its
// own state across a close/reopen cycle.
//
// Every higher pool (fixedpool, arbpool, bitmap, patricia, strtab) borrows
// a Store by reference; the Store outlives all of them, the same way
// lldb.Allocator borrowed a lldb.Filer by reference rather than copying it.
package segment

import "go.uber.org/zap"

// PageSize is the fixed page granularity of every Store implementation in
// this module. The spec treats it as an implementation constant, not a
// tunable: all higher pools size their own "pages" (fixedpool's
// 1<<page_shift records, arbpool's size classes) in terms of it.
const PageSize = 4096

// Matom is a page-granularity atom: a 1-based index of a page within a
// segment. Matom(0) is reserved as null, matching atom.Null.
type Matom uint32

// NullMatom is the reserved "no page" value.
const NullMatom Matom = 0

// HeaderType enumerates the kinds of named header a Store directory can
// record. It plays the role the teacher's block head-tag byte (falloc.go's
// tagUsedShort/tagFreeLong/...) plays for byte-packed blocks, except here
// it tags whole named regions rather than individual blocks.
type HeaderType uint8

const (
	TypeSegment HeaderType = iota + 1
	TypeFixedPool
	TypeArbitraryPool
	TypeStringTable
	TypePatricia
	TypeTree
	TypeBitmap
	TypeOpaque
)

func (t HeaderType) String() string {
	switch t {
	case TypeSegment:
		return "segment"
	case TypeFixedPool:
		return "fixed-pool"
	case TypeArbitraryPool:
		return "arbitrary-pool"
	case TypeStringTable:
		return "string-table"
	case TypePatricia:
		return "patricia"
	case TypeTree:
		return "tree"
	case TypeBitmap:
		return "bitmap"
	case TypeOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// MaxNameLen bounds a header name, matching §6's "bounded by an
// implementation-chosen maximum (source uses 32)".
const MaxNameLen = 32

// Header describes one entry of the segment's directory.
type Header struct {
	Name  string
	Type  HeaderType
	Flags uint32
	Page  Matom // first page of the header's reserved region
	Size  int64 // declared byte size, as passed to Store.Header
}

// Store is the interface every pool in this module programs against,
// exactly the role lldb.Filer played for lldb.Allocator: a pool never
// holds a concrete *Segment, only a Store, so it works unmodified against
// either the mmap-backed Segment or the in-memory MemSegment used by unit
// tests.
type Store interface {
	// Name identifies the backing store, for diagnostics.
	Name() string

	// Header looks up name in the directory. If absent, it allocates
	// enough pages to hold size bytes, zeroes them, and records a new
	// directory entry of the given type/flags/size. If present, it
	// fails with ErrSHAPE unless typ and size match exactly.
	Header(name string, typ HeaderType, flags uint32, size int64) (Header, error)

	// Lookup returns the existing header named name, or ok == false.
	Lookup(name string) (h Header, ok bool)

	// Bytes returns a live, mutable slice of n bytes starting at page m.
	// Out-of-range requests return nil. The slice is borrowed: valid
	// until the next mutation that might cause the Store to remap
	// (AllocPages growing the file), matching §5's "borrowed pointer"
	// resource model.
	Bytes(m Matom, n int) []byte

	// AllocPages bump-allocates n contiguous pages and returns the
	// first one. Pages are not individually reclaimed; per §4.1 the
	// segment allocator only ever grows.
	AllocPages(n int) (Matom, error)

	// Flush persists any directory changes. Close flushes and releases
	// the backing resource.
	Flush() error
	Close() error

	Logger() *zap.Logger
}
