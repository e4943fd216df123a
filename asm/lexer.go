// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"

	"github.com/rhollenbeck/tenbit"
)

// maxIdentifierLen is the maximum length of a symbol name (spec §6).
const maxIdentifierLen = 30

// validIdentifier reports whether s satisfies the identifier grammar:
// first character a letter, remaining alphanumeric, length <= 30.
func validIdentifier(s string) bool {
	if len(s) == 0 || len(s) > maxIdentifierLen {
		return false
	}
	if !identifierStartChar(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !identifierChar(s[i]) {
			return false
		}
	}
	return true
}

// extractLabel returns the identifier preceding ':' at the start of
// line, if one is present and well formed. ok is false when no label is
// present; the colon is consumed from the returned remainder but not
// from the caller's view of where the label token ended.
func extractLabel(line fstring) (label fstring, remain fstring, ok bool, malformed fstring, isMalformed bool) {
	tok, rest := line.consumeWhile(identifierChar)
	if tok.isEmpty() || !identifierStartChar(tok.str[0]) {
		return fstring{}, line, false, fstring{}, false
	}
	if !rest.startsWithChar(':') {
		return fstring{}, line, false, fstring{}, false
	}
	if !validIdentifier(tok.str) {
		return fstring{}, line, false, tok, true
	}
	remain = rest.consume(1).consumeWhitespace()
	return tok, remain, true, fstring{}, false
}

// commandToken returns the next whitespace-delimited word in line, or
// ok=false if the line is empty (a comment-only or blank line).
func commandToken(line fstring) (tok fstring, remain fstring, ok bool) {
	line = line.consumeWhitespace()
	if line.isEmpty() {
		return fstring{}, line, false
	}
	tok, remain = line.consumeWhile(wordChar)
	remain = remain.consumeWhitespace()
	return tok, remain, true
}

// operandError reports a malformed comma pattern: leading, trailing, or
// doubled commas.
type operandError struct {
	pos fstring
	msg string
}

// splitCommaList splits rest into comma-separated fields, stripping
// surrounding whitespace from each. It detects invalid comma patterns:
// a leading comma, a trailing comma, or two commas in a row (an empty
// field anywhere but does not itself limit how many fields there are).
func splitCommaList(rest fstring) (fields []fstring, err *operandError) {
	rest = rest.trim()
	if rest.isEmpty() {
		return nil, nil
	}

	if rest.startsWithChar(',') {
		return nil, &operandError{rest, "unexpected leading comma"}
	}

	remain := rest
	for {
		var field fstring
		field, remain = remain.consumeUntilChar(',')
		fields = append(fields, field.trim())
		if remain.isEmpty() {
			break
		}
		remain = remain.consume(1) // skip comma
		if remain.isEmpty() {
			return nil, &operandError{remain, "unexpected trailing comma"}
		}
	}

	for i, f := range fields {
		if f.isEmpty() {
			if i == len(fields)-1 {
				return nil, &operandError{rest, "unexpected trailing comma"}
			}
			return nil, &operandError{rest, "doubled comma"}
		}
	}
	return fields, nil
}

// splitOperands splits rest into at most two comma-separated operand
// fields. More than two fields is reported distinctly from the comma
// patterns splitCommaList itself detects.
func splitOperands(rest fstring) (count int, op1, op2 fstring, err *operandError) {
	fields, err := splitCommaList(rest)
	if err != nil {
		return 0, fstring{}, fstring{}, err
	}

	switch len(fields) {
	case 0:
		return 0, fstring{}, fstring{}, nil
	case 1:
		return 1, fields[0], fstring{}, nil
	case 2:
		return 2, fields[0], fields[1], nil
	default:
		return 0, fstring{}, fstring{}, &operandError{rest, "too many operands"}
	}
}

// Operand is a classified addressing-mode operand together with the
// data needed to encode it.
type Operand struct {
	Mode        tenbit.Mode
	Text        fstring // original operand text, for diagnostics
	ImmValue    int     // Mode == Immediate
	DirectName  string  // Mode == Direct
	MatrixBase  string  // Mode == Matrix
	MatrixReg1  int     // Mode == Matrix: row index register
	MatrixReg2  int     // Mode == Matrix: column index register
	RegisterIdx int     // Mode == Register
}

// classify determines the addressing mode of a single operand and
// extracts its value(s).
func classify(field fstring) Operand {
	s := field.str

	if len(s) >= 1 && s[0] == '#' {
		numStr := s[1:]
		if isSignedDecimal(numStr) {
			v, _ := strconv.Atoi(numStr)
			return Operand{Mode: tenbit.Immediate, Text: field, ImmValue: v}
		}
		return Operand{Mode: tenbit.Invalid, Text: field}
	}

	if idx, ok := tenbit.LookupRegister(s); ok {
		return Operand{Mode: tenbit.Register, Text: field, RegisterIdx: idx}
	}

	if base, i1, i2, ok := matrixParts(s); ok {
		r1, ok1 := tenbit.LookupRegister(i1)
		r2, ok2 := tenbit.LookupRegister(i2)
		if !ok1 || !ok2 {
			return Operand{Mode: tenbit.Invalid, Text: field}
		}
		return Operand{Mode: tenbit.Matrix, Text: field, MatrixBase: base, MatrixReg1: r1, MatrixReg2: r2}
	}

	if validIdentifier(s) && !tenbit.IsReserved(s) {
		return Operand{Mode: tenbit.Direct, Text: field, DirectName: s}
	}

	return Operand{Mode: tenbit.Invalid, Text: field}
}

// isSignedDecimal reports whether s is an optional sign followed by one
// or more decimal digits.
func isSignedDecimal(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if !decimal(s[i]) {
			return false
		}
	}
	return true
}

// matrixParts succeeds iff expr is exactly "name[content][content]"
// with no trailing characters.
func matrixParts(expr string) (base, idx1, idx2 string, ok bool) {
	i := 0
	for i < len(expr) && identifierChar(expr[i]) {
		i++
	}
	if i == 0 || !identifierStartChar(expr[0]) {
		return "", "", "", false
	}
	base = expr[:i]

	idx1, i, ok = consumeBracket(expr, i)
	if !ok {
		return "", "", "", false
	}
	idx2, i, ok = consumeBracket(expr, i)
	if !ok {
		return "", "", "", false
	}
	if i != len(expr) {
		return "", "", "", false
	}
	return base, idx1, idx2, true
}

// consumeBracket parses a single "[content]" group starting at i.
func consumeBracket(s string, i int) (content string, next int, ok bool) {
	if i >= len(s) || s[i] != '[' {
		return "", i, false
	}
	j := i + 1
	for j < len(s) && s[j] != ']' {
		j++
	}
	if j >= len(s) {
		return "", i, false
	}
	return s[i+1 : j], j + 1, true
}
