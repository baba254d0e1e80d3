// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segment

import (
	"fmt"

	"go.uber.org/zap"
)

var _ Store = (*MemSegment)(nil)

// MemSegment is a memory-backed Store, adapted from the teacher's MemFiler
// (lldb/memfiler.go): a single growable buffer stands in for the mapped
// file, grown a page group at a time the way MemFiler grows one pgSize
// block at a time. It is not persistent across process restarts; its sole
// purpose is fast, allocation-cheap tests of the pools layered above
// Store, the same role MemFiler played for lldb.Allocator's test suite.
type MemSegment struct {
	buf []byte
	dir *directory
	log *zap.Logger
}

// NewMemSegment returns a freshly initialized, empty in-memory segment.
func NewMemSegment(log *zap.Logger) *MemSegment {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemSegment{
		dir: newDirectory(),
		log: log,
	}
}

func (s *MemSegment) Name() string { return fmt.Sprintf("%p.memsegment", s) }

func (s *MemSegment) Logger() *zap.Logger { return s.log }

func (s *MemSegment) Lookup(name string) (Header, bool) {
	e, ok := s.dir.lookup(name)
	if !ok {
		return Header{}, false
	}
	return headerOf(e), true
}

func (s *MemSegment) Header(name string, typ HeaderType, flags uint32, size int64) (Header, error) {
	if e, ok := s.dir.lookup(name); ok {
		if e.typ != typ || e.size != size {
			return Header{}, &ErrSHAPE{Name: name, Type: e.typ, WantType: typ, Size: e.size, WantSize: size}
		}
		return headerOf(e), nil
	}

	page, err := s.AllocPages(pagesFor(size))
	if err != nil {
		return Header{}, err
	}

	e := dirEntry{name: name, typ: typ, flags: flags, page: page, size: size}
	if err := s.dir.add(e); err != nil {
		return Header{}, err
	}
	return headerOf(e), nil
}

func (s *MemSegment) AllocPages(n int) (Matom, error) {
	if n <= 0 {
		return NullMatom, &ErrINVAL{Msg: "memsegment: AllocPages count", Arg: n}
	}
	first := s.dir.nextPage
	need := (int64(first) + int64(n)) * PageSize
	if need > int64(len(s.buf)) {
		grown := make([]byte, need)
		copy(grown, s.buf)
		s.buf = grown
	}
	s.dir.nextPage += Matom(n)
	return first, nil
}

func (s *MemSegment) Bytes(m Matom, n int) []byte {
	if m == NullMatom || n < 0 {
		return nil
	}
	start := int64(m) * PageSize
	end := start + int64(n)
	if end > int64(len(s.buf)) {
		return nil
	}
	return s.buf[start:end]
}

func (s *MemSegment) Flush() error { return nil }
func (s *MemSegment) Close() error { return nil }
