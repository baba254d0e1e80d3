// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xmltok

import "fmt"

// ErrIO wraps an I/O failure encountered while refilling a read-mode
// source's buffer.
type ErrIO struct {
	Op  string
	Err error
}

func (e *ErrIO) Error() string { return fmt.Sprintf("xmltok: %s: %v", e.Op, e.Err) }
func (e *ErrIO) Unwrap() error { return e.Err }
