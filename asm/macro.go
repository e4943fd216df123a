// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rhollenbeck/tenbit"
)

// maxLineLength is the longest physical source line the assembler will
// accept (spec §4.3, §6).
const maxLineLength = 80

// MacroDefinition is a named block of text substituted verbatim at
// every invocation of its name. Definitions are collected in a single
// sweep over the raw source and discarded once expansion completes.
type MacroDefinition struct {
	Name string
	Body []string // body lines, trimmed, in order; excludes "mcroend"
	Line int       // source line of "mcro <name>"
}

// Preprocessor expands macro definitions out of a raw source stream,
// producing the text that the first pass consumes.
type Preprocessor struct {
	File   string
	Errors []*AssemblyError
}

// NewPreprocessor returns a Preprocessor bound to file (used only for
// diagnostics).
func NewPreprocessor(file string) *Preprocessor {
	return &Preprocessor{File: file}
}

// Expand reads raw source from r and writes the macro-expanded
// intermediate to w. It returns an error (and records diagnostics in
// p.Errors) if the raw source cannot be read, a line is too long, or
// a macro definition is malformed.
func (p *Preprocessor) Expand(r io.Reader, w io.Writer) error {
	lines, err := p.readLines(r)
	if err != nil {
		return err
	}

	macros, scratch, err := p.collectAndStrip(lines)
	if err != nil {
		return err
	}

	return p.expandScratch(scratch, macros, w)
}

// readLines reads every physical line of r, validating line length.
func (p *Preprocessor) readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var lines []string
	row := 0
	for scanner.Scan() {
		row++
		text := scanner.Text()
		if len(text) > maxLineLength {
			p.addError(LineTooLong, row, "source line exceeds %d characters", maxLineLength)
		}
		lines = append(lines, text)
	}
	if err := scanner.Err(); err != nil {
		p.addError(IOFailure, 0, "reading source: %v", err)
		return nil, err
	}
	if len(p.Errors) > 0 {
		return nil, errParse
	}
	return lines, nil
}

// scratchLine pairs a surviving source line with its original row
// number, so expansion diagnostics point at the right place.
type scratchLine struct {
	row  int
	text string
}

// collectAndStrip scans the raw lines once, collecting every macro
// definition bounded by "mcro <name>" ... "mcroend" and producing a
// scratch stream with those definition blocks removed.
func (p *Preprocessor) collectAndStrip(lines []string) (map[string]*MacroDefinition, []scratchLine, error) {
	macros := make(map[string]*MacroDefinition)
	var scratch []scratchLine

	inMacro := false
	var current *MacroDefinition

	for i, text := range lines {
		row := i + 1
		trimmed := strings.TrimSpace(text)
		fields := strings.Fields(trimmed)

		switch {
		case inMacro && len(fields) > 0 && fields[0] == "mcroend":
			if len(fields) > 1 {
				p.addError(MacroSyntax, row, "unexpected text after 'mcroend'")
			}
			if len(current.Body) == 0 {
				p.addError(MacroSyntax, current.Line, "macro '%s' has an empty body", current.Name)
			}
			macros[current.Name] = current
			inMacro, current = false, nil

		case inMacro:
			current.Body = append(current.Body, trimmed)

		case len(fields) > 0 && fields[0] == "mcro":
			if len(fields) < 2 {
				p.addError(MacroSyntax, row, "macro definition missing a name")
				continue
			}
			name := fields[1]
			if tenbit.IsReserved(name) || !validIdentifier(name) {
				p.addError(IllegalSymbol, row, "illegal macro name '%s'", name)
			}
			if _, exists := macros[name]; exists {
				p.addError(DuplicateSymbol, row, "macro '%s' already defined", name)
			}
			inMacro = true
			current = &MacroDefinition{Name: name, Line: row}

		default:
			scratch = append(scratch, scratchLine{row: row, text: text})
		}
	}

	if inMacro {
		p.addError(MacroSyntax, current.Line, "macro '%s' missing 'mcroend'", current.Name)
	}

	if len(p.Errors) > 0 {
		return nil, nil, errParse
	}
	return macros, scratch, nil
}

// expandScratch walks the scratch stream, substituting macro
// invocations with their bodies and re-emitting everything else with
// normalized whitespace.
func (p *Preprocessor) expandScratch(scratch []scratchLine, macros map[string]*MacroDefinition, w io.Writer) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for _, sl := range scratch {
		line := newFstring(sl.row, sl.text).stripTrailingComment()
		if line.trim().isEmpty() {
			continue
		}

		label, afterLabel, hasLabel, _, _ := extractLabel(line.trim())
		rest := line.trim()
		if hasLabel {
			rest = afterLabel
		}

		word, _, hasWord := commandToken(rest)
		if def, isMacro := macros[word.str]; hasWord && isMacro {
			p.emitExpansion(bw, label, hasLabel, def)
			continue
		}

		if _, err := fmt.Fprintln(bw, line.trim().str); err != nil {
			p.addError(IOFailure, sl.row, "writing intermediate file: %v", err)
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		p.addError(IOFailure, 0, "writing intermediate file: %v", err)
		return err
	}
	if len(p.Errors) > 0 {
		return errParse
	}
	return nil
}

// emitExpansion writes a macro's body lines, attaching a caller-supplied
// label (if any) to the first body line.
func (p *Preprocessor) emitExpansion(w *bufio.Writer, label fstring, hasLabel bool, def *MacroDefinition) {
	for i, bodyLine := range def.Body {
		if i == 0 && hasLabel {
			fmt.Fprintf(w, "%s:\t%s\n", label.str, bodyLine)
		} else {
			fmt.Fprintf(w, "\t%s\n", bodyLine)
		}
	}
}

func (p *Preprocessor) addError(kind Kind, line int, format string, args ...interface{}) {
	p.Errors = append(p.Errors, newError(kind, p.File, line, format, args...))
}
