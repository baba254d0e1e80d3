// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rulebook

import (
	"strconv"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/strtab"
	"github.com/cznic/parrotdb/xmltree"
	"go.uber.org/zap"
)

// maxCompileDepth bounds how deeply <state> elements may nest, per §9
// "State stack. Compilation bounds depth at 4; this is a script-shape
// limit, not a run-time recursion limit."
const maxCompileDepth = 4

type compiler struct {
	rb   *Rulebook
	tree *xmltree.Tree
	strs *strtab.Table
	log  *zap.Logger
}

// CompileScript compiles doc — an XML document previously parsed into
// tree by this same system, rooted at <script> — into rb in a single
// pass, per §4.7 ¶1. strs resolves the name/attribute atoms doc's nodes
// carry.
func CompileScript(rb *Rulebook, tree *xmltree.Tree, strs *strtab.Table, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	root := tree.Root()
	if root == atom.Null {
		return nil
	}
	c := &compiler{rb: rb, tree: tree, strs: strs, log: log}
	return c.compileChildren(root, 0)
}

func (c *compiler) compileChildren(n atom.Atom, depth int) error {
	for _, child := range c.tree.Children(n) {
		t := c.tree.Type(child)
		if t != xmltree.Open && t != xmltree.Empty {
			continue // text/comment/PI siblings carry no script structure
		}
		if c.name(child) == "state" {
			if err := c.compileState(child, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// compileState initializes the state record named by child's id
// attribute and links in its <rule> children (and, if the script nests
// further states, recurses into them).
func (c *compiler) compileState(n atom.Atom, depth int) error {
	if depth >= maxCompileDepth {
		return &ErrSTACKDEPTH{Max: maxCompileDepth}
	}

	idStr, ok := c.attr(n, "id")
	if !ok {
		return &ErrINVAL{Msg: "state element missing id attribute", Arg: ""}
	}
	id, err := parseUint16(idStr)
	if err != nil {
		return &ErrINVAL{Msg: "state id is not a 16-bit decimal integer", Arg: idStr}
	}
	if _, err := c.rb.ensureStateAtom(id); err != nil {
		return err
	}

	actionStr, _ := c.attr(n, "action")
	c.rb.setStateDefaultAction(id, parseAction(actionStr, c.log))

	var tail atom.Atom = atom.Null
	for _, child := range c.tree.Children(n) {
		t := c.tree.Type(child)
		if t != xmltree.Open && t != xmltree.Empty {
			continue
		}
		switch c.name(child) {
		case "rule":
			r, err := c.compileRule(child)
			if err != nil {
				return err
			}
			if tail == atom.Null {
				c.rb.setStateFirstRule(id, r)
			} else {
				c.rb.setRuleNext(tail, r)
			}
			tail = r
		case "state":
			if err := c.compileState(child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// compileRule allocates and populates one rule record from a <rule>
// element's attributes, adding its tag to the rule's bitmap.
func (c *compiler) compileRule(n atom.Atom) (atom.Atom, error) {
	tagStr, ok := c.attr(n, "tag")
	if !ok {
		return atom.Null, &ErrINVAL{Msg: "rule element missing tag attribute", Arg: ""}
	}
	tagAtom, err := c.strs.Intern([]byte(tagStr))
	if err != nil {
		return atom.Null, err
	}

	bm, err := c.rb.bms.Alloc()
	if err != nil {
		return atom.Null, err
	}
	if err := c.rb.bms.Set(bm, c.rb.tagBit(tagAtom)); err != nil {
		return atom.Null, err
	}

	actionStr, _ := c.attr(n, "action")
	action := parseAction(actionStr, c.log)

	var useTagAtom atom.Atom = atom.Null
	if useTagStr, ok := c.attr(n, "use-tag"); ok && useTagStr != "" {
		useTagAtom, err = c.strs.Intern([]byte(useTagStr))
		if err != nil {
			return atom.Null, err
		}
	}

	var newState uint16
	var flags uint32
	if newStateStr, ok := c.attr(n, "new-state"); ok {
		newState, err = parseUint16(newStateStr)
		if err != nil {
			return atom.Null, &ErrINVAL{Msg: "rule new-state is not a 16-bit decimal integer", Arg: newStateStr}
		}
		flags |= flagHasNewState
		if _, err := c.rb.ensureStateAtom(newState); err != nil {
			return atom.Null, err
		}
	}

	r, err := c.rb.rules.Alloc()
	if err != nil {
		return atom.Null, err
	}
	c.rb.setRule(r, flags, useTagAtom, bm, atom.Null, action, newState)
	return r, nil
}

// attr returns the decoded value of the named attribute child of n, or
// ok == false if n carries no such attribute.
func (c *compiler) attr(n atom.Atom, name string) (string, bool) {
	for _, ch := range c.tree.Children(n) {
		if c.tree.Type(ch) != xmltree.Attr {
			continue
		}
		if c.name(ch) == name {
			return c.text(c.tree.Content(ch)), true
		}
	}
	return "", false
}

func (c *compiler) name(n atom.Atom) string { return c.text(c.tree.NameAtom(n)) }

// text derefs a, trimming strtab's NUL terminator.
func (c *compiler) text(a atom.Atom) string {
	b := c.strs.Deref(a)
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b)
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
