// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rulebook

import (
	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/strtab"
	"github.com/cznic/parrotdb/xmltok"
	"github.com/cznic/parrotdb/xmltree"
	"go.uber.org/zap"
)

// Reserved pseudo-atoms stand in for the token's name atom when the
// token carries no element tag, per §4.7 ¶3 ("a reserved atom for
// text"). They sit at the top of the 32-bit atom space, where no
// interned atom ever reaches: strtab's short path tops out at 256 and an
// arbpool-encoded atom's size class occupies bits 24-31, so the largest
// real atom stays well short of these sentinels.
const (
	textTagAtom    = atom.Atom(0xFFFFFFFF)
	piTagAtom      = atom.Atom(0xFFFFFFFE)
	commentTagAtom = atom.Atom(0xFFFFFFFD)
	dtdTagAtom     = atom.Atom(0xFFFFFFFC)
)

// Visitor receives tokens selected by an emit action, per §6 "Driver
// callback". A non-nil return aborts the drive as ErrABORT.
type Visitor func(typ xmltok.Type, tok xmltok.Token, parent atom.Atom) error

// frame tracks, for one still-open element, the tree node its children
// attach under and whether entering it pushed a rulebook state (so the
// matching close knows whether to pop one back off).
type frame struct {
	node        atom.Atom
	pushedState bool
}

// Driver pulls tokens from a source and drives tree construction under
// the control of a compiled Rulebook, per §4.7 ¶3-5.
type Driver struct {
	rb    *Rulebook
	src   *xmltok.Source
	strs  *strtab.Table
	tree  *xmltree.Tree
	visit Visitor
	log   *zap.Logger

	states []uint16
	frames []frame
}

// NewDriver wires a tokenizer source, string table, and output tree
// under rb, starting in startState. visit may be nil if the script never
// emits.
func NewDriver(rb *Rulebook, src *xmltok.Source, strs *strtab.Table, tree *xmltree.Tree, startState uint16, visit Visitor, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		rb:     rb,
		src:    src,
		strs:   strs,
		tree:   tree,
		visit:  visit,
		log:    log,
		states: []uint16{startState},
		frames: []frame{{node: atom.Null}},
	}
}

func (d *Driver) curState() uint16     { return d.states[len(d.states)-1] }
func (d *Driver) curParent() atom.Atom { return d.frames[len(d.frames)-1].node }

func (d *Driver) pushState(s uint16) { d.states = append(d.states, s) }

func (d *Driver) popState() {
	if len(d.states) > 1 {
		d.states = d.states[:len(d.states)-1]
	}
}

func (d *Driver) popFrame() {
	f := d.frames[len(d.frames)-1]
	d.frames = d.frames[:len(d.frames)-1]
	if f.pushedState {
		d.popState()
	}
}

// Run drives the source to EOF or FAIL, applying rb's rules at each
// token in turn, per §4.7's five-step algorithm. It returns ErrFAIL if
// the tokenizer latches FAIL, ErrABORT if a visitor aborts, and
// ErrUNBALANCED if the state stack has not returned to its starting
// depth by EOF.
func (d *Driver) Run() error {
	startDepth := len(d.states)
	for {
		tok := d.src.NextToken()
		switch tok.Type {
		case xmltok.EOF:
			if len(d.states) != startDepth {
				return &ErrUNBALANCED{Depth: len(d.states)}
			}
			return nil
		case xmltok.FAIL:
			return &ErrFAIL{Lineno: d.src.Lineno()}
		}

		tagAtom, err := d.tagAtomFor(tok)
		if err != nil {
			return err
		}
		res := d.rb.resolve(d.curState(), tagAtom)

		switch tok.Type {
		case xmltok.OPEN:
			node, err := d.execute(tok, res, d.curParent())
			if err != nil {
				return err
			}
			pushed := false
			if res.hasNewState {
				d.pushState(res.newState)
				pushed = true
			}
			parent := node
			if parent == atom.Null {
				parent = d.curParent()
			}
			d.frames = append(d.frames, frame{node: parent, pushedState: pushed})
		case xmltok.CLOSE:
			if _, err := d.execute(tok, res, d.curParent()); err != nil {
				return err
			}
			d.popFrame()
		case xmltok.EMPTY:
			// No matching close exists to undo a push, so EMPTY never
			// pushes a frame or state; a new state replaces the top of
			// the state stack in place.
			if _, err := d.execute(tok, res, d.curParent()); err != nil {
				return err
			}
			if res.hasNewState {
				d.states[len(d.states)-1] = res.newState
			}
		default: // TEXT, PI, COMMENT, DTD
			if _, err := d.execute(tok, res, d.curParent()); err != nil {
				return err
			}
			if res.hasNewState {
				d.states[len(d.states)-1] = res.newState
			}
		}
	}
}

func (d *Driver) tagAtomFor(tok xmltok.Token) (atom.Atom, error) {
	switch tok.Type {
	case xmltok.OPEN, xmltok.CLOSE, xmltok.EMPTY:
		return d.strs.Intern(tok.Data)
	case xmltok.TEXT:
		return textTagAtom, nil
	case xmltok.PI:
		return piTagAtom, nil
	case xmltok.COMMENT:
		return commentTagAtom, nil
	case xmltok.DTD:
		return dtdTagAtom, nil
	default:
		return atom.Null, nil
	}
}

// execute dispatches the action resolve chose, returning the tree node
// it created, if any.
func (d *Driver) execute(tok xmltok.Token, res resolved, parent atom.Atom) (atom.Atom, error) {
	switch res.action {
	case None, Discard:
		return atom.Null, nil
	case Save, SaveWithAttributes:
		return d.save(tok, res, parent)
	case SaveSimple:
		return atom.Null, d.saveSimple(tok, parent)
	case Emit:
		if d.visit != nil {
			if err := d.visit(tok.Type, tok, parent); err != nil {
				return atom.Null, &ErrABORT{Cause: err}
			}
		}
		return atom.Null, nil
	case Return:
		d.popState()
		return atom.Null, nil
	default:
		return atom.Null, nil
	}
}

func tokenNodeType(t xmltok.Type) (xmltree.Type, bool) {
	switch t {
	case xmltok.OPEN:
		return xmltree.Open, true
	case xmltok.EMPTY:
		return xmltree.Empty, true
	case xmltok.TEXT:
		return xmltree.Text, true
	case xmltok.PI:
		return xmltree.PI, true
	case xmltok.COMMENT:
		return xmltree.Comment, true
	default:
		return 0, false
	}
}

// save creates a persistent tree node for tok, renaming it per
// use-tag if the matched rule set one, and (for save-with-attributes)
// attaching its attribute/namespace children.
func (d *Driver) save(tok xmltok.Token, res resolved, parent atom.Atom) (atom.Atom, error) {
	typ, ok := tokenNodeType(tok.Type)
	if !ok {
		return atom.Null, nil // CLOSE and DTD carry nothing new to save
	}

	var nameAtom atom.Atom
	var err error
	switch tok.Type {
	case xmltok.OPEN, xmltok.EMPTY, xmltok.PI:
		if res.useTag != atom.Null {
			nameAtom = res.useTag
		} else if nameAtom, err = d.strs.Intern(tok.Data); err != nil {
			return atom.Null, err
		}
	}

	node, err := d.tree.NewNode(typ, nameAtom, atom.Null, parent)
	if err != nil {
		return atom.Null, err
	}

	switch tok.Type {
	case xmltok.TEXT, xmltok.COMMENT:
		content, err := d.strs.Intern(tok.Data)
		if err != nil {
			return atom.Null, err
		}
		d.tree.SetContent(node, content)
	case xmltok.PI:
		content, err := d.strs.Intern(tok.Rest)
		if err != nil {
			return atom.Null, err
		}
		d.tree.SetContent(node, content)
	}

	if res.action == SaveWithAttributes && (tok.Type == xmltok.OPEN || tok.Type == xmltok.EMPTY) {
		if err := d.saveAttributes(tok.Rest, node); err != nil {
			return atom.Null, err
		}
	}
	return node, nil
}

// saveAttributes walks an OPEN/EMPTY token's attribute substring,
// attaching one ATTR or NS child node per entry.
func (d *Driver) saveAttributes(rest []byte, parent atom.Atom) error {
	c := xmltok.NewAttrCursor(rest)
	for {
		at, ok := c.Next()
		if !ok {
			return nil
		}
		typ := xmltree.Attr
		if at.Type == xmltok.NS {
			typ = xmltree.NS
		}
		nameAtom, err := d.strs.Intern(at.Data)
		if err != nil {
			return err
		}
		valAtom, err := d.strs.Intern(at.Rest)
		if err != nil {
			return err
		}
		n, err := d.tree.NewNode(typ, nameAtom, atom.Null, parent)
		if err != nil {
			return err
		}
		d.tree.SetContent(n, valAtom)
	}
}

// saveSimple attaches tok's text inline as content on parent, without
// allocating a child node, per §4.7 "save content inline as an
// attribute-string atom on the parent."
func (d *Driver) saveSimple(tok xmltok.Token, parent atom.Atom) error {
	if parent == atom.Null {
		return nil
	}
	content, err := d.strs.Intern(tok.Data)
	if err != nil {
		return err
	}
	d.tree.SetContent(parent, content)
	return nil
}
