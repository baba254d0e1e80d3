// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixedpool

import "fmt"

// ErrSHAPE reports that name already exists with a different record size,
// page shift or max atom count than requested.
type ErrSHAPE struct {
	Name string
	Want Shape
	Got  Shape
}

func (e *ErrSHAPE) Error() string {
	return fmt.Sprintf("fixedpool %q: shape mismatch, have %+v want %+v", e.Name, e.Got, e.Want)
}

// ErrFULL reports that a pool has reached its configured MaxAtoms.
type ErrFULL struct {
	Name     string
	MaxAtoms uint32
}

func (e *ErrFULL) Error() string {
	return fmt.Sprintf("fixedpool %q: exhausted at max_atoms=%d", e.Name, e.MaxAtoms)
}

// ErrINVAL reports a programmer error: freeing atom 0, freeing an
// out-of-range atom, or similar contract violations that §7 says MUST
// abort rather than be reported out of band.
type ErrINVAL struct {
	Name string
	Msg  string
	Arg  interface{}
}

func (e *ErrINVAL) Error() string {
	return fmt.Sprintf("fixedpool %q: %s (%v)", e.Name, e.Msg, e.Arg)
}
