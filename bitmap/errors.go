// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitmap

import "fmt"

// ErrRANGE reports a bit index that is negative or beyond what a bitmap
// can grow to hold (maxPages * stride bits).
type ErrRANGE struct {
	Bit int
	Max int
}

func (e *ErrRANGE) Error() string {
	return fmt.Sprintf("bitmap: bit %d out of range [0, %d)", e.Bit, e.Max)
}
