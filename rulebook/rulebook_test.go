// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rulebook

import (
	"testing"

	"github.com/cznic/parrotdb/atom"
	"github.com/cznic/parrotdb/segment"
	"github.com/cznic/parrotdb/strtab"
	"github.com/cznic/parrotdb/xmltok"
	"github.com/cznic/parrotdb/xmltree"
	"go.uber.org/zap"
)

func addAttr(t *testing.T, tree *xmltree.Tree, strs *strtab.Table, parent atom.Atom, name, value string) {
	t.Helper()
	nameAtom, err := strs.Intern([]byte(name))
	if err != nil {
		t.Fatal(err)
	}
	n, err := tree.NewNode(xmltree.Attr, nameAtom, atom.Null, parent)
	if err != nil {
		t.Fatal(err)
	}
	valAtom, err := strs.Intern([]byte(value))
	if err != nil {
		t.Fatal(err)
	}
	tree.SetContent(n, valAtom)
}

// buildScenario6Script builds, directly via the xmltree API (the same
// way a previously-driven document would look), the rule script from
// spec's literal scenario 6:
//
//	<script>
//	  <state id="1" action="discard">
//	    <rule tag="doc" action="save" new-state="2"/>
//	  </state>
//	  <state id="2" action="save"/>
//	</script>
func buildScenario6Script(t *testing.T, store segment.Store, strs *strtab.Table) *xmltree.Tree {
	t.Helper()
	tree, err := xmltree.Open(store, "script", 64)
	if err != nil {
		t.Fatal(err)
	}
	scriptName, _ := strs.Intern([]byte("script"))
	script, err := tree.NewNode(xmltree.Open, scriptName, atom.Null, atom.Null)
	if err != nil {
		t.Fatal(err)
	}

	stateName, _ := strs.Intern([]byte("state"))
	ruleName, _ := strs.Intern([]byte("rule"))

	s1, err := tree.NewNode(xmltree.Open, stateName, atom.Null, script)
	if err != nil {
		t.Fatal(err)
	}
	addAttr(t, tree, strs, s1, "id", "1")
	addAttr(t, tree, strs, s1, "action", "discard")

	r1, err := tree.NewNode(xmltree.Empty, ruleName, atom.Null, s1)
	if err != nil {
		t.Fatal(err)
	}
	addAttr(t, tree, strs, r1, "tag", "doc")
	addAttr(t, tree, strs, r1, "action", "save")
	addAttr(t, tree, strs, r1, "new-state", "2")

	s2, err := tree.NewNode(xmltree.Empty, stateName, atom.Null, script)
	if err != nil {
		t.Fatal(err)
	}
	addAttr(t, tree, strs, s2, "id", "2")
	addAttr(t, tree, strs, s2, "action", "save")

	return tree
}

func TestCompileAndDriveScenario6(t *testing.T) {
	store := segment.NewMemSegment(nil)
	strs, err := strtab.Open(store, "strs", 256)
	if err != nil {
		t.Fatal(err)
	}

	scriptTree := buildScenario6Script(t, store, strs)

	rb, err := Open(store, "rb", 64, 16, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := CompileScript(rb, scriptTree, strs, nil); err != nil {
		t.Fatalf("CompileScript: %v", err)
	}

	out, err := xmltree.Open(store, "out", 64)
	if err != nil {
		t.Fatal(err)
	}

	src := xmltok.OpenMmap([]byte(`<doc><p>hi</p></doc>`), 0)
	drv := NewDriver(rb, src, strs, out, 1, nil, nil)
	if err := drv.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	docNode := out.Root()
	if docNode == atom.Null {
		t.Fatal("no root produced")
	}
	if got := text(strs, out.NameAtom(docNode)); got != "doc" {
		t.Fatalf("root name = %q, want doc", got)
	}
	kids := out.Children(docNode)
	if len(kids) != 1 {
		t.Fatalf("doc children = %d, want 1", len(kids))
	}
	p := kids[0]
	if got := text(strs, out.NameAtom(p)); got != "p" {
		t.Fatalf("child name = %q, want p", got)
	}
	pkids := out.Children(p)
	if len(pkids) != 1 || out.Type(pkids[0]) != xmltree.Text {
		t.Fatalf("p children = %+v, want one text node", pkids)
	}
	if got := text(strs, out.Content(pkids[0])); got != "hi" {
		t.Fatalf("text content = %q, want hi", got)
	}
}

func TestDriveUnbalancedReturnsError(t *testing.T) {
	// <doc> never closes, so the state it pushed is never popped back
	// off: by EOF the stack is still two deep and Run must report
	// ErrUNBALANCED.
	store := segment.NewMemSegment(nil)
	strs, err := strtab.Open(store, "strs", 256)
	if err != nil {
		t.Fatal(err)
	}
	scriptTree := buildScenario6Script(t, store, strs)

	rb, err := Open(store, "rb", 64, 16, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := CompileScript(rb, scriptTree, strs, nil); err != nil {
		t.Fatal(err)
	}
	out, err := xmltree.Open(store, "out", 64)
	if err != nil {
		t.Fatal(err)
	}

	src := xmltok.OpenMmap([]byte(`<doc><p>hi</p>`), 0)
	drv := NewDriver(rb, src, strs, out, 1, nil, nil)
	err = drv.Run()
	if err == nil {
		t.Fatal("expected an error for truncated input")
	}
}

func TestParseActionUnknownWarnsAndDefaultsToNone(t *testing.T) {
	if got := parseAction("bogus", zap.NewNop()); got != None {
		t.Fatalf("parseAction(bogus) = %v, want None", got)
	}
}

func text(strs *strtab.Table, a atom.Atom) string {
	b := strs.Deref(a)
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b)
}
