// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rulebook implements the spec's §4.7 rulebook and parse
// driver: a state machine, compiled once from a previously-parsed XML
// rule script, that matches tokens against named rules to decide an
// action and a next state. New (no teacher analogue); grounded on
// spec.md §4.7, the action/state design notes of §9, and composed from
// fixedpool (rule/state records) and bitmap (tag-match sets) the same
// way strtab composes arbpool and patricia.
package rulebook

import (
	"encoding/binary"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/bitmap"
	"github.com/cznic/parrotdb/fixedpool"
	"github.com/cznic/parrotdb/segment"
	"go.uber.org/zap"
)

const ruleRecordSize = 4 /*Flags*/ + 4 /*UseTag*/ + 4 /*BitmapAtom*/ + 4 /*NextRule*/ + 1 /*Action*/ + 2 /*NewState*/ + 1 /*pad*/

const (
	ruleOffFlags   = 0
	ruleOffUseTag  = 4
	ruleOffBitmap  = 8
	ruleOffNext    = 12
	ruleOffAction  = 16
	ruleOffNewSt   = 17
	flagHasNewState uint32 = 1 << 0
)

const stateRecordSize = 4 /*FirstRule*/ + 4 /*Flags*/ + 1 /*DefaultAction*/ + 3 /*pad*/

const (
	stateOffFirstRule = 0
	stateOffAction    = 8
)

// Rulebook owns a fixed pool of rules, a fixed pool of states indexed by
// an externally assigned 16-bit id, and a bitmap pool of per-rule tag
// sets, per §3.
type Rulebook struct {
	store  segment.Store
	log    *zap.Logger
	rules  *fixedpool.Pool
	states *fixedpool.Pool
	bms    *bitmap.Pool

	// nextStateAtom tracks how many sequential Alloc calls the states
	// pool has serviced so far, which — since nothing is ever freed
	// from this pool — lets ensureStateAtom translate an externally
	// assigned state id directly into the pool's monotonically
	// increasing atom numbering (see ensureStateAtom).
	nextStateAtom atom.Atom

	// tagIndex compacts the (sparse, sometimes large) atoms strtab
	// hands out into small sequential bit positions, so a rule's tag
	// set fits in a handful of bitmap words instead of needing one bit
	// per possible atom value.
	tagIndex map[atom.Atom]int
	nextTag  int
}

// Open opens or creates the named rulebook. maxRules and maxStates bound
// the two fixed pools; maxStates also bounds the state ids a script may
// use: every id must be below maxStates (ids are otherwise externally
// assigned, not allocated).
func Open(store segment.Store, name string, maxRules, maxStates uint32, log *zap.Logger) (*Rulebook, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rules, err := fixedpool.Open(store, name+".rules", 6, ruleRecordSize, maxRules, fixedpool.InitZero)
	if err != nil {
		return nil, err
	}
	states, err := fixedpool.Open(store, name+".states", 6, stateRecordSize, maxStates, fixedpool.InitZero)
	if err != nil {
		return nil, err
	}
	bms, err := bitmap.Open(store, name+".bitmaps", maxRules)
	if err != nil {
		return nil, err
	}
	return &Rulebook{
		store:    store,
		log:      log,
		rules:    rules,
		states:   states,
		bms:      bms,
		tagIndex: make(map[atom.Atom]int),
	}, nil
}

// ensureStateAtom returns the states-pool atom that id is stored under,
// growing the pool with plain sequential Allocs (never Free'd) as
// needed to reach it.
func (rb *Rulebook) ensureStateAtom(id uint16) (atom.Atom, error) {
	target := atom.Atom(id) + 1
	for rb.nextStateAtom < target {
		a, err := rb.states.Alloc()
		if err != nil {
			return atom.Null, err
		}
		rb.nextStateAtom = a
	}
	return target, nil
}

func (rb *Rulebook) stateAtomFor(id uint16) atom.Atom {
	target := atom.Atom(id) + 1
	if target > rb.nextStateAtom {
		return atom.Null
	}
	return target
}

func (rb *Rulebook) stateRec(a atom.Atom) []byte { return rb.states.Addr(a) }

func (rb *Rulebook) stateDefaultAction(id uint16) Action {
	a := rb.stateAtomFor(id)
	if a == atom.Null {
		return None
	}
	return Action(rb.stateRec(a)[stateOffAction])
}

func (rb *Rulebook) stateFirstRule(id uint16) atom.Atom {
	a := rb.stateAtomFor(id)
	if a == atom.Null {
		return atom.Null
	}
	return atom.Atom(binary.LittleEndian.Uint32(rb.stateRec(a)[stateOffFirstRule : stateOffFirstRule+4]))
}

func (rb *Rulebook) setStateFirstRule(id uint16, r atom.Atom) {
	a := rb.stateAtomFor(id)
	binary.LittleEndian.PutUint32(rb.stateRec(a)[stateOffFirstRule:stateOffFirstRule+4], uint32(r))
}

func (rb *Rulebook) setStateDefaultAction(id uint16, act Action) {
	a := rb.stateAtomFor(id)
	rb.stateRec(a)[stateOffAction] = byte(act)
}

func (rb *Rulebook) ruleRec(a atom.Atom) []byte { return rb.rules.Addr(a) }

func (rb *Rulebook) ruleUseTag(r atom.Atom) atom.Atom {
	return atom.Atom(binary.LittleEndian.Uint32(rb.ruleRec(r)[ruleOffUseTag : ruleOffUseTag+4]))
}

func (rb *Rulebook) ruleBitmap(r atom.Atom) atom.Atom {
	return atom.Atom(binary.LittleEndian.Uint32(rb.ruleRec(r)[ruleOffBitmap : ruleOffBitmap+4]))
}

func (rb *Rulebook) ruleNext(r atom.Atom) atom.Atom {
	return atom.Atom(binary.LittleEndian.Uint32(rb.ruleRec(r)[ruleOffNext : ruleOffNext+4]))
}

func (rb *Rulebook) ruleAction(r atom.Atom) Action { return Action(rb.ruleRec(r)[ruleOffAction]) }

func (rb *Rulebook) ruleNewState(r atom.Atom) uint16 {
	return binary.LittleEndian.Uint16(rb.ruleRec(r)[ruleOffNewSt : ruleOffNewSt+2])
}

func (rb *Rulebook) ruleHasNewState(r atom.Atom) bool {
	flags := binary.LittleEndian.Uint32(rb.ruleRec(r)[ruleOffFlags : ruleOffFlags+4])
	return flags&flagHasNewState != 0
}

func (rb *Rulebook) setRuleNext(r, next atom.Atom) {
	binary.LittleEndian.PutUint32(rb.ruleRec(r)[ruleOffNext:ruleOffNext+4], uint32(next))
}

// setRule populates a freshly allocated rule record in one shot, as
// §4.7's compile pass assembles every field before linking the rule into
// its state's list.
func (rb *Rulebook) setRule(r atom.Atom, flags uint32, useTag, bitmapAtom, next atom.Atom, action Action, newState uint16) {
	rec := rb.ruleRec(r)
	binary.LittleEndian.PutUint32(rec[ruleOffFlags:ruleOffFlags+4], flags)
	binary.LittleEndian.PutUint32(rec[ruleOffUseTag:ruleOffUseTag+4], uint32(useTag))
	binary.LittleEndian.PutUint32(rec[ruleOffBitmap:ruleOffBitmap+4], uint32(bitmapAtom))
	binary.LittleEndian.PutUint32(rec[ruleOffNext:ruleOffNext+4], uint32(next))
	rec[ruleOffAction] = byte(action)
	binary.LittleEndian.PutUint16(rec[ruleOffNewSt:ruleOffNewSt+2], newState)
}

// tagBit returns the compact bit position assigned to tagAtom, assigning
// a new one on first sight.
func (rb *Rulebook) tagBit(tagAtom atom.Atom) int {
	if b, ok := rb.tagIndex[tagAtom]; ok {
		return b
	}
	b := rb.nextTag
	rb.tagIndex[tagAtom] = b
	rb.nextTag++
	return b
}

// tagBitIfKnown returns the bit position previously assigned to tagAtom,
// or ok == false if this rulebook never referenced it — in which case no
// rule can possibly match it.
func (rb *Rulebook) tagBitIfKnown(tagAtom atom.Atom) (int, bool) {
	b, ok := rb.tagIndex[tagAtom]
	return b, ok
}

// findRule scans state's rule list in order (§4.7's "the rulebook-lookup
// contract ... scan the state's rule list in order", resolving the
// distilled source's unimplemented stub) and returns the first whose tag
// bitmap has tagAtom set, or atom.Null if none match.
func (rb *Rulebook) findRule(state uint16, tagAtom atom.Atom) atom.Atom {
	bit, ok := rb.tagBitIfKnown(tagAtom)
	if !ok {
		return atom.Null
	}
	for r := rb.stateFirstRule(state); r != atom.Null; r = rb.ruleNext(r) {
		if rb.bms.Test(rb.ruleBitmap(r), bit) {
			return r
		}
	}
	return atom.Null
}

// resolved carries the action a token should take plus any new-state
// transition.
type resolved struct {
	action      Action
	useTag      atom.Atom
	newState    uint16
	hasNewState bool
}

func (rb *Rulebook) resolve(state uint16, tagAtom atom.Atom) resolved {
	r := rb.findRule(state, tagAtom)
	if r == atom.Null {
		return resolved{action: rb.stateDefaultAction(state)}
	}
	return resolved{
		action:      rb.ruleAction(r),
		useTag:      rb.ruleUseTag(r),
		newState:    rb.ruleNewState(r),
		hasNewState: rb.ruleHasNewState(r),
	}
}
