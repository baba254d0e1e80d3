// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rulebook

import "fmt"

// ErrUNBALANCED reports that the driver's state stack was not back to
// its initial depth-one shape when the tokenizer reached EOF (§7).
type ErrUNBALANCED struct {
	Depth int
}

func (e *ErrUNBALANCED) Error() string {
	return fmt.Sprintf("rulebook: state stack unbalanced at EOF (depth %d)", e.Depth)
}

// ErrABORT reports that a visitor invoked by an emit action returned a
// non-zero/error result, per §6 "Driver callback".
type ErrABORT struct {
	Cause error
}

func (e *ErrABORT) Error() string { return fmt.Sprintf("rulebook: visitor aborted: %v", e.Cause) }
func (e *ErrABORT) Unwrap() error { return e.Cause }

// ErrFAIL reports that the tokenizer itself latched FAIL (malformed
// input).
type ErrFAIL struct {
	Lineno int
}

func (e *ErrFAIL) Error() string {
	return fmt.Sprintf("rulebook: tokenizer failed at line %d", e.Lineno)
}

// ErrSTACKDEPTH reports that the compiler's in-compilation tail-pointer
// stack exceeded its script-shape bound of 4 (§9 "State stack").
type ErrSTACKDEPTH struct {
	Max int
}

func (e *ErrSTACKDEPTH) Error() string {
	return fmt.Sprintf("rulebook: script nesting exceeds compiler stack depth %d", e.Max)
}

// ErrINVAL reports a malformed rule script: a missing required attribute
// or one whose value does not parse as the decimal integer §6's grammar
// requires.
type ErrINVAL struct {
	Msg string
	Arg string
}

func (e *ErrINVAL) Error() string { return fmt.Sprintf("rulebook: %s: %q", e.Msg, e.Arg) }
