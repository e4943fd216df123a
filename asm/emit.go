// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/rhollenbeck/tenbit"
)

// codeWordDigits and addressDigits are the base-4 field widths used in
// the object file: a full 12-bit word takes 6 base-4 digits, a 10-bit
// address or size field takes 5 (spec §6).
const (
	codeWordDigits = 6
	addressDigits  = 5
)

// WriteObject writes the ".ob" file: a header line giving the final
// code and data sizes (leading 'a' digits stripped, like any size
// field), followed by one line per memory cell in ascending address
// order. A code cell's word is the full 12-bit encoding; a data
// cell's word is its 10-bit payload only, since data cells carry no
// opcode/mode/ARE structure worth preserving in the listing.
func (c *Context) WriteObject(w io.Writer) error {
	bw := bufio.NewWriter(w)

	codeWords := c.IC - codeOrigin
	dataWords := c.DC

	if _, err := fmt.Fprintf(bw, "%s %s\n",
		tenbit.StripLeadingA(tenbit.EncodeBase4(codeWords, addressDigits)),
		tenbit.StripLeadingA(tenbit.EncodeBase4(dataWords, addressDigits))); err != nil {
		return err
	}

	cells := make([]*Cell, c.Image.Len())
	for i := range cells {
		cells[i] = c.Image.At(i)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Address < cells[j].Address })

	for _, cell := range cells {
		addrField := tenbit.StripLeadingA(tenbit.EncodeBase4(cell.Address, addressDigits))
		var wordField string
		if cell.Address < c.IC {
			wordField = tenbit.EncodeBase4(int(cell.Word()), codeWordDigits)
		} else {
			wordField = tenbit.EncodeBase4(cell.Word().Payload(), addressDigits)
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", addrField, wordField); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteEntries writes the ".ent" file: one line per .entry symbol
// giving its name and final address. Returns hasContent=false (and
// writes nothing) when there are no .entry directives, so the caller
// can skip creating the file entirely (spec §6: ".ent" is emitted only
// when needed).
func (c *Context) WriteEntries(w io.Writer) (hasContent bool, err error) {
	if len(c.Entries) == 0 {
		return false, nil
	}

	type entry struct {
		name string
		addr int
	}
	var entries []entry
	for _, ref := range c.Entries {
		sym, ok := c.Symbols.Lookup(ref.Name)
		if !ok {
			continue // already reported as UndefinedSymbol during second pass
		}
		entries = append(entries, entry{sym.Name, sym.Address})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].addr < entries[j].addr })

	bw := bufio.NewWriter(w)
	for _, e := range entries {
		addrField := tenbit.StripLeadingA(tenbit.EncodeBase4(e.addr, addressDigits))
		if _, err := fmt.Fprintf(bw, "%s %s\n", e.name, addrField); err != nil {
			return true, err
		}
	}
	return true, bw.Flush()
}

// WriteExterns writes the ".ext" file: one line per address at which an
// external symbol was used, in ascending address order. Returns
// hasContent=false when no externs were referenced.
func (c *Context) WriteExterns(w io.Writer) (hasContent bool, err error) {
	uses := c.ExternalUses()
	if len(uses) == 0 {
		return false, nil
	}

	bw := bufio.NewWriter(w)
	for _, u := range uses {
		addrField := tenbit.StripLeadingA(tenbit.EncodeBase4(u.Address, addressDigits))
		if _, err := fmt.Fprintf(bw, "%s %s\n", u.Name, addrField); err != nil {
			return true, err
		}
	}
	return true, bw.Flush()
}
