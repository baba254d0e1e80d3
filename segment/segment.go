// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package segment

import (
	"os"

	"github.com/cznic/mathutil"
	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"
)

var _ Store = (*Segment)(nil)

// Segment maps path as a sequence of PageSize pages. It is the production
// Store: the spec's "file mapped into memory, conceptually a sequence of
// fixed-size pages" (§3).
type Segment struct {
	path string
	f    *os.File
	m    mmap.MMap
	dir  *directory
	log  *zap.Logger
}

// Open maps path, creating it if absent. If log is nil a no-op logger is
// used, matching the nil-safe logger threading ignite's storage/engine
// packages use.
func Open(path string, log *zap.Logger) (*Segment, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, &ErrIO{Op: "open", Err: err}
	}

	s := &Segment{path: path, f: f, log: log}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &ErrIO{Op: "stat", Err: err}
	}

	if fi.Size() < PageSize {
		if err := f.Truncate(PageSize); err != nil {
			f.Close()
			return nil, &ErrIO{Op: "truncate", Err: err}
		}
	}

	if err := s.remap(); err != nil {
		f.Close()
		return nil, err
	}

	if d, ok := decodeDirectory(s.m[:PageSize]); ok {
		s.dir = d
		log.Debug("segment: reopened", zap.String("path", path), zap.Int("headers", len(d.entries)))
	} else {
		s.dir = newDirectory()
		if err := s.flushDirectory(); err != nil {
			s.unmap()
			f.Close()
			return nil, err
		}
		log.Debug("segment: initialized", zap.String("path", path))
	}

	return s, nil
}

func (s *Segment) remap() error {
	s.unmap()
	m, err := mmap.Map(s.f, mmap.RDWR, 0)
	if err != nil {
		return &ErrIO{Op: "mmap", Err: err}
	}
	s.m = m
	return nil
}

func (s *Segment) unmap() {
	if s.m != nil {
		s.m.Unmap()
		s.m = nil
	}
}

// Name implements Store.
func (s *Segment) Name() string { return s.path }

// Logger implements Store.
func (s *Segment) Logger() *zap.Logger { return s.log }

// Lookup implements Store.
func (s *Segment) Lookup(name string) (Header, bool) {
	e, ok := s.dir.lookup(name)
	if !ok {
		return Header{}, false
	}
	return headerOf(e), true
}

func headerOf(e dirEntry) Header {
	return Header{Name: e.name, Type: e.typ, Flags: e.flags, Page: e.page, Size: e.size}
}

// Header implements Store.
func (s *Segment) Header(name string, typ HeaderType, flags uint32, size int64) (Header, error) {
	if e, ok := s.dir.lookup(name); ok {
		if e.typ != typ || e.size != size {
			return Header{}, &ErrSHAPE{Name: name, Type: e.typ, WantType: typ, Size: e.size, WantSize: size}
		}
		return headerOf(e), nil
	}

	n := pagesFor(size)
	page, err := s.AllocPages(n)
	if err != nil {
		return Header{}, err
	}

	e := dirEntry{name: name, typ: typ, flags: flags, page: page, size: size}
	if err := s.dir.add(e); err != nil {
		return Header{}, err
	}
	if err := s.flushDirectory(); err != nil {
		return Header{}, err
	}
	s.log.Debug("segment: header created", zap.String("name", name), zap.Stringer("type", typ), zap.Int64("size", size))
	return headerOf(e), nil
}

func pagesFor(size int64) int {
	n := int(mathutil.MaxInt64(1, (size+PageSize-1)/PageSize))
	return n
}

// AllocPages implements Store.
func (s *Segment) AllocPages(n int) (Matom, error) {
	if n <= 0 {
		return NullMatom, &ErrINVAL{Msg: "segment: AllocPages count", Arg: n}
	}

	first := s.dir.nextPage
	newLast := int64(first) + int64(n)
	newSize := newLast * PageSize
	if newSize > int64(len(s.m)) {
		if err := s.grow(newSize); err != nil {
			return NullMatom, err
		}
	}

	s.dir.nextPage = Matom(newLast)
	// zero the freshly granted region
	start := int64(first) * PageSize
	for i := start; i < newSize; i++ {
		s.m[i] = 0
	}
	return first, s.flushDirectory()
}

func (s *Segment) grow(newSize int64) error {
	s.unmap()
	if err := s.f.Truncate(newSize); err != nil {
		return &ErrIO{Op: "truncate", Err: err}
	}
	return s.remap()
}

// Bytes implements Store.
func (s *Segment) Bytes(m Matom, n int) []byte {
	if m == NullMatom || n < 0 {
		return nil
	}
	start := int64(m) * PageSize
	end := start + int64(n)
	if end > int64(len(s.m)) {
		return nil
	}
	return s.m[start:end]
}

func (s *Segment) flushDirectory() error {
	copy(s.m[:PageSize], s.dir.encode())
	return nil
}

// Flush implements Store.
func (s *Segment) Flush() error {
	if err := s.flushDirectory(); err != nil {
		return err
	}
	if err := s.m.Flush(); err != nil {
		return &ErrIO{Op: "msync", Err: err}
	}
	return nil
}

// Close implements Store.
func (s *Segment) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.unmap()
	if err := s.f.Close(); err != nil {
		return &ErrIO{Op: "close", Err: err}
	}
	s.log.Debug("segment: closed", zap.String("path", s.path))
	return nil
}
