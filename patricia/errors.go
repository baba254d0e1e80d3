// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package patricia

import "fmt"

// ErrDUP reports an attempt to Add a key that's already present. Keys are
// compared as if the shorter one were padded with zero bytes, so "ab" and
// "ab\x00" collide; a key that is a proper prefix of an existing key in
// any other way (such as "ab" and "abc") is not rejected. Callers keep
// keys prefix-free by NUL-terminating them.
type ErrDUP struct {
	Key []byte
}

func (e *ErrDUP) Error() string { return fmt.Sprintf("patricia: duplicate key %q", e.Key) }

// ErrNOENT reports Delete of a node atom that is not (or no longer) a
// member of the trie.
type ErrNOENT struct {
	Node uint32
}

func (e *ErrNOENT) Error() string { return fmt.Sprintf("patricia: node %d not found", e.Node) }
