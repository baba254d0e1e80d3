// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parrotdb is the facade wiring segment, the fixed/arbitrary
// pools, the string table, and the rulebook/parse driver into one opened
// database, the way dbm.DB is a facade over lldb.Allocator and
// lldb.Filer in the teacher.
package parrotdb

import (
	"github.com/cznic/parrotdb/rulebook"
	"github.com/cznic/parrotdb/segment"
	"github.com/cznic/parrotdb/strtab"
	"github.com/cznic/parrotdb/xmltok"
	"github.com/cznic/parrotdb/xmltree"
	"go.uber.org/zap"
)

// Options bounds the pools a DB creates. Zero values are replaced with
// generous defaults by Open/OpenMem.
type Options struct {
	MaxStrings uint32
	MaxNodes   uint32
	MaxRules   uint32
	MaxStates  uint32
	Log        *zap.Logger
}

const (
	defaultMaxStrings = 1 << 16
	defaultMaxNodes   = 1 << 20
	defaultMaxRules   = 1 << 12
	defaultMaxStates  = 1 << 10
)

func (o *Options) setDefaults() {
	if o.MaxStrings == 0 {
		o.MaxStrings = defaultMaxStrings
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = defaultMaxNodes
	}
	if o.MaxRules == 0 {
		o.MaxRules = defaultMaxRules
	}
	if o.MaxStates == 0 {
		o.MaxStates = defaultMaxStates
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
}

// DB is one opened segment plus the shared string table every tree and
// rulebook within it interns against.
type DB struct {
	store segment.Store
	strs  *strtab.Table
	opts  Options
}

// Open maps path (creating it if absent) and opens its shared string
// table, mirroring dbm.Open/dbm.Create's single entry point.
func Open(path string, opts Options) (*DB, error) {
	opts.setDefaults()
	store, err := segment.Open(path, opts.Log)
	if err != nil {
		return nil, err
	}
	return newDB(store, opts)
}

// OpenMem opens an in-memory, non-persistent DB, the parrotdb analogue
// of dbm.CreateMem — useful for tests and for compiling a rulebook that
// never needs to survive process exit.
func OpenMem(opts Options) (*DB, error) {
	opts.setDefaults()
	return newDB(segment.NewMemSegment(opts.Log), opts)
}

func newDB(store segment.Store, opts Options) (*DB, error) {
	strs, err := strtab.Open(store, "strings", opts.MaxStrings)
	if err != nil {
		return nil, err
	}
	return &DB{store: store, strs: strs, opts: opts}, nil
}

// Close flushes and unmaps the backing segment.
func (db *DB) Close() error { return db.store.Close() }

// Strings returns the shared string table every tree and rulebook in
// this DB interns against.
func (db *DB) Strings() *strtab.Table { return db.strs }

// Store returns the underlying segment, for callers that need direct
// header/page access.
func (db *DB) Store() segment.Store { return db.store }

// Tree opens or creates a persistent XML tree named name within this
// DB's segment.
func (db *DB) Tree(name string) (*xmltree.Tree, error) {
	return xmltree.Open(db.store, name, db.opts.MaxNodes)
}

// Rulebook opens or creates an empty rulebook named name, ready for
// CompileScript.
func (db *DB) Rulebook(name string) (*rulebook.Rulebook, error) {
	return rulebook.Open(db.store, name, db.opts.MaxRules, db.opts.MaxStates, db.opts.Log)
}

// CompileRulebook compiles script — an XML document previously parsed
// into a tree by this same DB, rooted at <script> per §6's rulebook
// script grammar — into a freshly opened rulebook named name.
func (db *DB) CompileRulebook(name string, script *xmltree.Tree) (*rulebook.Rulebook, error) {
	rb, err := db.Rulebook(name)
	if err != nil {
		return nil, err
	}
	if err := rulebook.CompileScript(rb, script, db.strs, db.opts.Log); err != nil {
		return nil, err
	}
	return rb, nil
}

// Parse drives src through rb starting in startState, saving into a
// freshly opened tree named name, and returns that tree once the drive
// reaches EOF.
func (db *DB) Parse(name string, rb *rulebook.Rulebook, src *xmltok.Source, startState uint16, visit rulebook.Visitor) (*xmltree.Tree, error) {
	tree, err := db.Tree(name)
	if err != nil {
		return nil, err
	}
	drv := rulebook.NewDriver(rb, src, db.strs, tree, startState, visit, db.opts.Log)
	if err := drv.Run(); err != nil {
		return nil, err
	}
	return tree, nil
}
