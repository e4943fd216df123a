// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/rhollenbeck/tenbit"

// SecondPass resolves every pending cell in the memory image, using the
// extern list first and the symbol table second (spec §4.4), and
// verifies that every .entry reference names a symbol actually defined
// in this file.
func (c *Context) SecondPass() error {
	for i := 0; i < c.Image.Len(); i++ {
		cell := c.Image.At(i)
		if !cell.IsPending() {
			cell.Resolve(tenbit.NewWord(cell.Word().Payload(), tenbit.Absolute))
			continue
		}
		c.resolveCell(cell)
	}

	for _, ref := range c.Entries {
		if _, exists := c.Symbols.Lookup(ref.Name); !exists {
			c.addError(UndefinedSymbol, ref.Line, "'.entry %s' names an undefined symbol", ref.Name)
		}
	}

	if c.Failed() {
		return errParse
	}
	return nil
}

// resolveCell looks up a pending cell's symbol, preferring an extern
// declaration over a local definition, and assigns the final word with
// its ARE bits set accordingly.
func (c *Context) resolveCell(cell *Cell) {
	name := cell.PendingName()

	if isExtern(c.Externs, name) {
		cell.Resolve(tenbit.NewWord(0, tenbit.External))
		c.externalUses = append(c.externalUses, ExternalUse{Name: name, Address: cell.Address})
		return
	}

	sym, exists := c.Symbols.Lookup(name)
	if !exists {
		c.addError(UndefinedSymbol, 0, "undefined symbol '%s'", name)
		return
	}
	cell.Resolve(tenbit.NewWord(sym.Address, tenbit.Relocatable))
}

func isExtern(externs []Reference, name string) bool {
	for _, e := range externs {
		if e.Name == name {
			return true
		}
	}
	return false
}

// ExternalUses returns every (name, address) pair where an external
// symbol was used, in ascending address order (spec §8 "Ordering").
// Resolution during SecondPass already walks the image by increasing
// address, so the slice is already in the right order; this just
// returns a defensive copy.
func (c *Context) ExternalUses() []ExternalUse {
	out := make([]ExternalUse, len(c.externalUses))
	copy(out, c.externalUses)
	return out
}
