// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// SymbolKind distinguishes a code-segment symbol from a data-segment
// symbol; the distinction matters because data symbols are relocated
// by IC_final at the end of the first pass.
type SymbolKind int

const (
	CodeSymbol SymbolKind = iota
	DataSymbol
)

func (k SymbolKind) String() string {
	if k == DataSymbol {
		return "data"
	}
	return "code"
}

// Symbol is a named address defined somewhere in the source.
type Symbol struct {
	Name    string
	Address int
	Kind    SymbolKind
	Line    int // source line where defined
}

// SymbolTable is an ordered, append-only list of defined symbols with a
// map index by name: Lookup goes through the map, and All returns the
// symbols in definition order.
type SymbolTable struct {
	order []string
	byName map[string]*Symbol
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]*Symbol)}
}

// Lookup returns the symbol named name, if defined.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// Insert adds a new symbol. The caller must have already checked for
// duplicates and reserved-word collisions; Insert itself only guards
// against accidental double-insertion.
func (t *SymbolTable) Insert(s Symbol) *Symbol {
	sym := &Symbol{Name: s.Name, Address: s.Address, Kind: s.Kind, Line: s.Line}
	if _, exists := t.byName[s.Name]; !exists {
		t.order = append(t.order, s.Name)
	}
	t.byName[s.Name] = sym
	return sym
}

// All returns the symbols in definition order.
func (t *SymbolTable) All() []*Symbol {
	syms := make([]*Symbol, len(t.order))
	for i, name := range t.order {
		syms[i] = t.byName[name]
	}
	return syms
}

// Reference is a use of a symbol name by an .entry or .extern
// directive.
type Reference struct {
	Name string
	Line int
}
