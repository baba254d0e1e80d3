// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parrotdb

import (
	"testing"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/xmltok"
	"github.com/cznic/parrotdb/xmltree"
)

// buildScript builds, via the xmltree API, a one-rule script equivalent
// to <script><state id="1" action="discard"><rule tag="doc"
// action="save" new-state="2"/></state><state id="2" action="save"/>
// </script>.
func buildScript(t *testing.T, db *DB) *xmltree.Tree {
	t.Helper()
	tree, err := db.Tree("script")
	if err != nil {
		t.Fatal(err)
	}
	strs := db.Strings()

	attr := func(parent atom.Atom, name, value string) {
		na, err := strs.Intern([]byte(name))
		if err != nil {
			t.Fatal(err)
		}
		n, err := tree.NewNode(xmltree.Attr, na, atom.Null, parent)
		if err != nil {
			t.Fatal(err)
		}
		va, err := strs.Intern([]byte(value))
		if err != nil {
			t.Fatal(err)
		}
		tree.SetContent(n, va)
	}

	scriptName, _ := strs.Intern([]byte("script"))
	root, err := tree.NewNode(xmltree.Open, scriptName, atom.Null, atom.Null)
	if err != nil {
		t.Fatal(err)
	}

	stateName, _ := strs.Intern([]byte("state"))
	ruleName, _ := strs.Intern([]byte("rule"))

	s1, err := tree.NewNode(xmltree.Open, stateName, atom.Null, root)
	if err != nil {
		t.Fatal(err)
	}
	attr(s1, "id", "1")
	attr(s1, "action", "discard")

	r1, err := tree.NewNode(xmltree.Empty, ruleName, atom.Null, s1)
	if err != nil {
		t.Fatal(err)
	}
	attr(r1, "tag", "doc")
	attr(r1, "action", "save")
	attr(r1, "new-state", "2")

	s2, err := tree.NewNode(xmltree.Empty, stateName, atom.Null, root)
	if err != nil {
		t.Fatal(err)
	}
	attr(s2, "id", "2")
	attr(s2, "action", "save")

	return tree
}

func TestOpenMemCompileAndParse(t *testing.T) {
	db, err := OpenMem(Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	script := buildScript(t, db)
	rb, err := db.CompileRulebook("rb", script)
	if err != nil {
		t.Fatalf("CompileRulebook: %v", err)
	}

	src := xmltok.OpenMmap([]byte(`<doc><p>hi</p></doc>`), 0)
	out, err := db.Parse("doc1", rb, src, 1, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	root := out.Root()
	if root == atom.Null {
		t.Fatal("no root produced")
	}
	kids := out.Children(root)
	if len(kids) != 1 {
		t.Fatalf("children = %d, want 1", len(kids))
	}
}
