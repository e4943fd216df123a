// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements the two-pass assembler pipeline: macro
// preprocessing, first pass, second pass, and object/entry/externals
// emission.
package asm

import (
	"bytes"
	"fmt"
	"io"
)

// Result summarizes one file's assembly outcome.
type Result struct {
	File    string
	Object  []byte
	Entries []byte // nil when no .ent file is produced
	Externs []byte // nil when no .ext file is produced
	Errors  []*AssemblyError
}

// Logger receives verbose tracing, mirroring the teacher's
// log/logLine/logSection pattern gated behind a verbose flag.
type Logger func(format string, args ...interface{})

// Assemble runs the full pipeline over src, the raw contents of
// "<file>.as". It returns the macro-expanded intermediate text alongside
// the Result so the caller can persist "<file>.am" itself; on any error,
// Result.Errors is non-empty and Object/Entries/Externs are nil — a
// failed input must never produce partial output files (spec §7).
func Assemble(file string, src io.Reader, verbose bool) (intermediate []byte, res Result, err error) {
	var log Logger
	if verbose {
		log = func(format string, args ...interface{}) {
			fmt.Printf("[%s] "+format+"\n", append([]interface{}{file}, args...)...)
		}
	}

	pp := NewPreprocessor(file)
	var buf bytes.Buffer
	if perr := pp.Expand(src, &buf); perr != nil {
		return nil, Result{File: file, Errors: pp.Errors}, errParse
	}
	intermediate = buf.Bytes()

	ctx := NewContext(file)
	if log != nil {
		ctx.Log = log
	}

	if ferr := ctx.FirstPass(bytes.NewReader(intermediate)); ferr != nil {
		return intermediate, Result{File: file, Errors: ctx.Errors()}, errParse
	}

	if serr := ctx.SecondPass(); serr != nil {
		return intermediate, Result{File: file, Errors: ctx.Errors()}, errParse
	}

	var ob, ent, ext bytes.Buffer
	if werr := ctx.WriteObject(&ob); werr != nil {
		return intermediate, Result{File: file, Errors: append(ctx.Errors(), newError(IOFailure, file, 0, "%v", werr))}, werr
	}
	hasEnt, werr := ctx.WriteEntries(&ent)
	if werr != nil {
		return intermediate, Result{File: file, Errors: append(ctx.Errors(), newError(IOFailure, file, 0, "%v", werr))}, werr
	}
	hasExt, werr := ctx.WriteExterns(&ext)
	if werr != nil {
		return intermediate, Result{File: file, Errors: append(ctx.Errors(), newError(IOFailure, file, 0, "%v", werr))}, werr
	}

	res = Result{File: file, Object: ob.Bytes()}
	if hasEnt {
		res.Entries = ent.Bytes()
	}
	if hasExt {
		res.Externs = ext.Bytes()
	}
	return intermediate, res, nil
}
