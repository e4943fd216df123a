// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/rhollenbeck/tenbit"

// Cell is a single memory word, either fully resolved or still pending
// a symbol lookup. A non-empty pending name marks a Pending cell; the
// second pass clears it through Resolve. The emitters do not check for
// cells that are still pending.
type Cell struct {
	Address int
	pending string // non-empty iff this cell is Pending
	word    tenbit.Word
}

// Resolved constructs a cell holding a final, non-symbolic word.
func Resolved(addr int, w tenbit.Word) Cell {
	return Cell{Address: addr, word: w}
}

// Pending constructs a cell whose value depends on resolving name to
// an address or an external reference.
func Pending(addr int, name string) Cell {
	return Cell{Address: addr, pending: name}
}

// IsPending reports whether the cell still awaits symbol resolution.
func (c *Cell) IsPending() bool {
	return c.pending != ""
}

// PendingName returns the unresolved symbol name; only meaningful when
// IsPending is true.
func (c *Cell) PendingName() string {
	return c.pending
}

// Word returns the cell's resolved word; only meaningful when IsPending
// is false.
func (c *Cell) Word() tenbit.Word {
	return c.word
}

// Resolve clears the pending marker and assigns the final word, used by
// the second pass once a symbol has been looked up.
func (c *Cell) Resolve(w tenbit.Word) {
	c.pending = ""
	c.word = w
}

// Image is the append-only provisional (and, after second pass, final)
// memory image built during assembly.
type Image struct {
	Cells []Cell
}

// Append adds a cell to the end of the image.
func (img *Image) Append(c Cell) {
	img.Cells = append(img.Cells, c)
}

// At returns the cell at the given logical index (not address).
func (img *Image) At(i int) *Cell {
	return &img.Cells[i]
}

// Len returns the number of cells in the image.
func (img *Image) Len() int {
	return len(img.Cells)
}

// dataChunk records one directive-generated run of data words so that,
// at the end of the first pass, its cell addresses can be patched by
// adding (IC_final - IC_snapshot). The original implementation capped
// this ledger at 128 entries; this one grows without bound.
type dataChunk struct {
	startIndex int // index into Image.Cells of the chunk's first cell
	count      int
	icSnapshot int
}
