// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xmltree

import "fmt"

// ErrFULL reports that a tree's backing fixed pool reached its
// configured node capacity.
type ErrFULL struct {
	Name     string
	MaxNodes uint32
}

func (e *ErrFULL) Error() string {
	return fmt.Sprintf("xmltree: %s: at capacity (%d nodes)", e.Name, e.MaxNodes)
}
