// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"io"
	"strconv"

	"github.com/rhollenbeck/tenbit"
)

// codeOrigin is the instruction counter's initial value (spec §2, §4.3).
const codeOrigin = 100

// Context holds all state built up during the first and second passes
// of one source file's assembly: the running counters, the symbol
// table, the entry/extern reference lists, the provisional memory
// image, and any diagnostics recorded along the way. It is owned
// entirely by one file's pipeline; nothing here is shared across files.
type Context struct {
	File string

	IC int // instruction counter, starts at 100
	DC int // data counter, starts at 0

	Symbols *SymbolTable
	Entries []Reference
	Externs []Reference

	Image  Image
	chunks []dataChunk

	errors []*AssemblyError

	// Log, when non-nil, receives verbose tracing of each pass's
	// decisions, mirroring the teacher assembler's logSection/logLine
	// tracing gated behind a verbose flag.
	Log func(format string, args ...interface{})

	// externalUses records (name, use address) pairs in the order
	// they are resolved during the second pass, which by construction
	// is ascending address order (spec §8: "Ordering").
	externalUses []ExternalUse
}

// ExternalUse records one address at which an extern symbol's value was
// substituted during the second pass.
type ExternalUse struct {
	Name    string
	Address int
}

// NewContext returns a Context ready to run the first pass of file.
func NewContext(file string) *Context {
	return &Context{
		File:    file,
		IC:      codeOrigin,
		DC:      0,
		Symbols: NewSymbolTable(),
	}
}

// Errors returns every diagnostic recorded so far.
func (c *Context) Errors() []*AssemblyError {
	return c.errors
}

// Failed reports whether any error has been recorded.
func (c *Context) Failed() bool {
	return len(c.errors) > 0
}

func (c *Context) addError(kind Kind, line int, format string, args ...interface{}) {
	c.errors = append(c.errors, newError(kind, c.File, line, format, args...))
}

func (c *Context) logf(format string, args ...interface{}) {
	if c.Log != nil {
		c.Log(format, args...)
	}
}

// FirstPass reads the macro-expanded intermediate from r, building the
// symbol table, entry/extern lists, and provisional memory image. It
// returns an error if any diagnostic was recorded; diagnostics
// themselves are available via Errors.
func (c *Context) FirstPass(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	row := 0
	for scanner.Scan() {
		row++
		c.processLine(row, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		c.addError(IOFailure, 0, "reading intermediate file: %v", err)
		return errParse
	}

	c.finalizeDataAddresses()
	c.checkExternConflicts()

	if c.Failed() {
		return errParse
	}
	return nil
}

// processLine applies the per-line protocol of spec §4.3: extract an
// optional label, parse the command token, and dispatch to an
// instruction or directive handler.
func (c *Context) processLine(row int, text string) {
	line := newFstring(row, text).stripTrailingComment().trim()
	if line.isEmpty() {
		return
	}

	label, afterLabel, hasLabel, malformed, isMalformed := extractLabel(line)
	if isMalformed {
		c.addError(IllegalSymbol, row, "illegal label '%s'", malformed.str)
		return
	}

	rest := line
	if hasLabel {
		rest = afterLabel
	}

	cmd, afterCmd, hasCmd := commandToken(rest)
	if !hasCmd {
		// A label with nothing following it just marks the current
		// address; nothing to encode.
		if hasLabel {
			c.defineSymbol(label, CodeSymbol, c.IC)
		}
		return
	}

	if op, ok := tenbit.LookupOpcode(cmd.str); ok {
		c.handleInstruction(op, label, hasLabel, afterCmd)
		return
	}

	switch cmd.str {
	case ".data", ".string", ".mat":
		c.handleDataDirective(cmd.str, label, hasLabel, afterCmd)
	case ".entry", ".extern":
		c.handleEntryExtern(cmd.str, label, hasLabel, afterCmd)
	default:
		if len(cmd.str) > 0 && cmd.str[0] == '.' {
			c.addError(DirectiveError, row, "unknown directive '%s'", cmd.str)
		} else {
			c.addError(MalformedOperand, row, "unknown instruction '%s'", cmd.str)
		}
	}
}

// defineSymbol validates and inserts a label into the symbol table.
func (c *Context) defineSymbol(label fstring, kind SymbolKind, addr int) {
	name := label.str
	if tenbit.IsReserved(name) {
		c.addError(IllegalSymbol, label.row, "'%s' collides with a reserved word", name)
		return
	}
	if !validIdentifier(name) {
		c.addError(IllegalSymbol, label.row, "illegal symbol name '%s'", name)
		return
	}
	if _, exists := c.Symbols.Lookup(name); exists {
		c.addError(DuplicateSymbol, label.row, "'%s' is already defined", name)
		return
	}
	c.Symbols.Insert(Symbol{Name: name, Address: addr, Kind: kind, Line: label.row})
	c.logf("label %-15s kind=%-4s addr=%d", name, kind, addr)
}

//
// Instructions
//

func (c *Context) handleInstruction(op tenbit.Opcode, label fstring, hasLabel bool, rest fstring) {
	row := rest.row
	if hasLabel {
		row = label.row
		c.defineSymbol(label, CodeSymbol, c.IC)
	}

	arity := op.Arity()
	count, op1, op2, operr := splitOperands(rest)
	if operr != nil {
		c.addError(MalformedOperand, row, "%s", operr.msg)
		return
	}
	if count != arity {
		c.addError(ArityMismatch, row, "'%s' expects %d operand(s), got %d", op, arity, count)
		return
	}

	var src, dst *Operand
	switch arity {
	case 2:
		s := classify(op1)
		d := classify(op2)
		src, dst = &s, &d
	case 1:
		d := classify(op1)
		dst = &d
	}

	if src != nil && src.Mode == tenbit.Invalid {
		c.addError(MalformedOperand, row, "invalid source operand '%s'", src.Text.str)
		return
	}
	if dst != nil && dst.Mode == tenbit.Invalid {
		c.addError(MalformedOperand, row, "invalid destination operand '%s'", dst.Text.str)
		return
	}

	c.encodeInstruction(op, src, dst)
}

// encodeInstruction appends the header word and operand word(s) for one
// instruction and advances IC by the number of words written.
func (c *Context) encodeInstruction(op tenbit.Opcode, src, dst *Operand) {
	srcMode, dstMode := tenbit.None, tenbit.None
	if src != nil {
		srcMode = src.Mode
	}
	if dst != nil {
		dstMode = dst.Mode
	}
	c.emitCodeWord(tenbit.InstructionHeader(op, srcMode, dstMode))
	c.logf("%04d  %-4s src=%v dst=%v", c.IC-1, op, srcMode, dstMode)

	srcReg, dstReg := -1, -1
	if src != nil && src.Mode == tenbit.Register {
		srcReg = src.RegisterIdx
	}
	if dst != nil && dst.Mode == tenbit.Register {
		dstReg = dst.RegisterIdx
	}

	// The shared register-pair word goes where the register operand
	// sits in the operand list, not always last: src is checked before
	// dst, and a word is written for whichever of src/dst isn't a
	// register. When both are registers, one shared word covers both
	// and is emitted once, at src's position.
	registerEmitted := false
	if src != nil {
		if src.Mode == tenbit.Register {
			c.emitCodeWord(tenbit.RegisterPairWord(srcReg, dstReg))
			registerEmitted = true
		} else {
			c.encodeOperandWords(*src)
		}
	}
	if dst != nil {
		if dst.Mode == tenbit.Register {
			if !registerEmitted {
				c.emitCodeWord(tenbit.RegisterPairWord(srcReg, dstReg))
			}
		} else {
			c.encodeOperandWords(*dst)
		}
	}
}

func (c *Context) encodeOperandWords(o Operand) {
	switch o.Mode {
	case tenbit.Immediate:
		c.emitCodeWord(tenbit.ImmediateWord(o.ImmValue))
	case tenbit.Direct:
		c.emitCodePending(o.DirectName)
	case tenbit.Matrix:
		c.emitCodePending(o.MatrixBase)
		c.emitCodeWord(tenbit.MatrixRegisterWord(o.MatrixReg1, o.MatrixReg2))
	}
}

// emitCodeWord appends a resolved word at the current IC and advances it.
func (c *Context) emitCodeWord(w tenbit.Word) {
	c.Image.Append(Resolved(c.IC, w))
	c.IC++
}

// emitCodePending appends a word awaiting symbol resolution at the
// current IC and advances it.
func (c *Context) emitCodePending(name string) {
	c.Image.Append(Pending(c.IC, name))
	c.IC++
}

//
// Data directives
//

func (c *Context) handleDataDirective(directive string, label fstring, hasLabel bool, rest fstring) {
	row := rest.row
	if hasLabel {
		row = label.row
		c.defineSymbol(label, DataSymbol, c.DC)
	}
	switch directive {
	case ".data":
		c.encodeDataNumbers(rest, row)
	case ".string":
		c.encodeString(rest, row)
	case ".mat":
		c.encodeMatrix(rest, row)
	}
}

// emitDataChunk writes n words into the image starting at the current
// provisional position (IC + DC), advances DC by n, and records the
// chunk so its addresses can be patched once IC's final value is known
// (spec §4.3 "End-of-pass fix-ups").
func (c *Context) emitDataChunk(n int, wordAt func(i int) tenbit.Word) {
	startIndex := c.Image.Len()
	icSnapshot := c.IC
	for i := 0; i < n; i++ {
		addr := c.IC + c.DC
		c.Image.Append(Resolved(addr, wordAt(i)))
		c.DC++
	}
	c.chunks = append(c.chunks, dataChunk{startIndex: startIndex, count: n, icSnapshot: icSnapshot})
}

func (c *Context) encodeDataNumbers(rest fstring, row int) {
	fields, operr := splitCommaList(rest)
	if operr != nil {
		c.addError(DirectiveError, row, "%s", operr.msg)
		return
	}
	if len(fields) == 0 {
		c.addError(DirectiveError, row, ".data requires at least one value")
		return
	}
	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f.str)
		if err != nil {
			c.addError(DirectiveError, f.row, "invalid integer '%s'", f.str)
			return
		}
		values[i] = v
	}
	c.emitDataChunk(len(values), func(i int) tenbit.Word {
		return tenbit.NewWord(values[i]&0x3FF, tenbit.Absolute)
	})
}

func (c *Context) encodeString(rest fstring, row int) {
	t := rest.trim()
	if len(t.str) < 2 || t.str[0] != '"' || t.str[len(t.str)-1] != '"' {
		c.addError(DirectiveError, row, "malformed string literal")
		return
	}
	content := t.str[1 : len(t.str)-1]
	for i := 0; i < len(content); i++ {
		if content[i] > 0x7F {
			c.addError(DirectiveError, row, "string literal must be ASCII")
			return
		}
	}
	n := len(content)
	c.emitDataChunk(n+1, func(i int) tenbit.Word {
		if i < n {
			return tenbit.NewWord(int(content[i])&0x3FF, tenbit.Absolute)
		}
		return tenbit.NewWord(0, tenbit.Absolute)
	})
}

func (c *Context) encodeMatrix(rest fstring, row int) {
	t := rest.trim()

	rowsField, idx, ok := consumeBracket(t.str, 0)
	if !ok {
		c.addError(DirectiveError, row, "malformed matrix dimensions")
		return
	}
	colsField, idx2, ok := consumeBracket(t.str, idx)
	if !ok {
		c.addError(DirectiveError, row, "malformed matrix dimensions")
		return
	}

	rows, err1 := strconv.Atoi(rowsField)
	cols, err2 := strconv.Atoi(colsField)
	if err1 != nil || err2 != nil || rows <= 0 || cols <= 0 {
		c.addError(DirectiveError, row, "matrix rows/cols must be positive integers")
		return
	}
	total := rows * cols

	initRest := t.consume(idx2).trim()
	var values []int
	if !initRest.isEmpty() {
		fields, operr := splitCommaList(initRest)
		if operr != nil {
			c.addError(DirectiveError, row, "%s", operr.msg)
			return
		}
		values = make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f.str)
			if err != nil {
				c.addError(DirectiveError, f.row, "invalid integer '%s'", f.str)
				return
			}
			values[i] = v
		}
		if len(values) > total {
			c.addError(MatrixOverflow, row, "matrix has %d initializers but only %d elements", len(values), total)
			return
		}
	}

	c.emitDataChunk(total, func(i int) tenbit.Word {
		v := 0
		if i < len(values) {
			v = values[i]
		}
		return tenbit.NewWord(v&0x3FF, tenbit.Absolute)
	})
}

//
// .entry / .extern
//

func (c *Context) handleEntryExtern(directive string, label fstring, hasLabel bool, rest fstring) {
	row := rest.row
	if hasLabel {
		row = label.row
		c.addError(MisplacedLabel, label.row, "label not allowed before '%s'", directive)
	}

	name := rest.trim().str
	if name == "" || !validIdentifier(name) {
		c.addError(IllegalSymbol, row, "invalid name '%s' in '%s'", name, directive)
		return
	}
	if tenbit.IsReserved(name) {
		c.addError(IllegalSymbol, row, "reserved word '%s' used as a name in '%s'", name, directive)
		return
	}

	switch directive {
	case ".entry":
		c.Entries = append(c.Entries, Reference{Name: name, Line: row})
	case ".extern":
		c.Externs = append(c.Externs, Reference{Name: name, Line: row})
	}
}

//
// End-of-pass fix-ups
//

// finalizeDataAddresses relocates every data chunk's cell addresses and
// every DATA symbol's address once IC's final value is known.
func (c *Context) finalizeDataAddresses() {
	icFinal := c.IC
	for _, chunk := range c.chunks {
		delta := icFinal - chunk.icSnapshot
		for i := 0; i < chunk.count; i++ {
			cell := c.Image.At(chunk.startIndex + i)
			cell.Address += delta
		}
	}
	for _, sym := range c.Symbols.All() {
		if sym.Kind == DataSymbol {
			sym.Address += icFinal
		}
	}
}

// checkExternConflicts records an error for any extern name that is
// also defined locally (spec §3: "extern names must NOT be defined
// locally").
func (c *Context) checkExternConflicts() {
	for _, ref := range c.Externs {
		if _, exists := c.Symbols.Lookup(ref.Name); exists {
			c.addError(DuplicateSymbol, ref.Line, "extern '%s' is also defined locally", ref.Name)
		}
	}
}
