// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package atom defines the 32-bit address handle shared by every pool in
// this module. An Atom is never a pointer: it remains valid across
// unmap/remap of its owning segment as long as the pool that issued it is
// reopened with the same shape parameters.
package atom

// Atom is a 32-bit index into some pool. The zero value, Null, never
// refers to a live record.
type Atom uint32

// Null is the reserved value meaning "no atom".
const Null Atom = 0

// Valid reports whether a is non-null.
func (a Atom) Valid() bool { return a != Null }
