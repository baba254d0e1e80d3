// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitmap

// bitMask and byteMask are adapted directly from dbm/bits.go's
// uBits helper: bitMask[i] is the single-bit mask for bit i within a
// byte; byteMask[from][to] is the mask covering bits [from, to] of a
// byte, used by FillRange to set a contiguous bit range within one byte
// without a per-bit loop.
var (
	bitMask = [8]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}

	byteMask = [8][8]byte{ // [from][to]
		{0x01, 0x03, 0x07, 0x0f, 0x1f, 0x3f, 0x7f, 0xff},
		{0x00, 0x02, 0x06, 0x0e, 0x1e, 0x3e, 0x7e, 0xfe},
		{0x00, 0x00, 0x04, 0x0c, 0x1c, 0x3c, 0x7c, 0xfc},
		{0x00, 0x00, 0x00, 0x08, 0x18, 0x38, 0x78, 0xf8},
		{0x00, 0x00, 0x00, 0x00, 0x10, 0x30, 0x70, 0xf0},
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x20, 0x60, 0xe0},
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0xc0},
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80},
	}
)
