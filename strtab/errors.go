// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package strtab

import "fmt"

// ErrINVAL reports a malformed request, such as interning a string whose
// length exceeds the implementation's 256-byte key cap (§3's "no key is
// a proper prefix of another" invariant relies on keys being bounded and
// NUL-terminated).
type ErrINVAL struct {
	Msg string
	Arg int
}

func (e *ErrINVAL) Error() string { return fmt.Sprintf("strtab: %s (%d)", e.Msg, e.Arg) }
