// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rhollenbeck/tenbit"
)

func runPipeline(t *testing.T, src string) *Context {
	t.Helper()
	ctx := NewContext("test")
	if err := ctx.FirstPass(strings.NewReader(src)); err != nil {
		t.Fatalf("unexpected first-pass error: %v", ctx.Errors())
	}
	if err := ctx.SecondPass(); err != nil {
		t.Fatalf("unexpected second-pass error: %v", ctx.Errors())
	}
	return ctx
}

func TestWriteObjectHeaderLine(t *testing.T) {
	ctx := runPipeline(t, "MAIN: mov #1, r0\nstop\n")

	var ob bytes.Buffer
	if err := ctx.WriteObject(&ob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(ob.String(), "\n"), "\n")
	if len(lines) == 0 {
		t.Fatal("expected at least a header line")
	}

	wantCode := tenbit.StripLeadingA(tenbit.EncodeBase4(ctx.IC-codeOrigin, addressDigits))
	wantData := tenbit.StripLeadingA(tenbit.EncodeBase4(ctx.DC, addressDigits))
	want := wantCode + " " + wantData
	if lines[0] != want {
		t.Errorf("header line = %q, want %q", lines[0], want)
	}
	if len(lines) != 1+ctx.Image.Len() {
		t.Errorf("got %d lines, want %d (header + one per cell)", len(lines), 1+ctx.Image.Len())
	}
}

func TestWriteObjectHeaderLineMinimalScenario(t *testing.T) {
	ctx := runPipeline(t, "MAIN: stop\n")
	var ob bytes.Buffer
	if err := ctx.WriteObject(&ob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(ob.String(), "\n"), "\n")
	if lines[0] != "b a" {
		t.Errorf("header line = %q, want %q", lines[0], "b a")
	}
}

func TestWriteObjectDataWordIsPayloadOnly(t *testing.T) {
	src := "X: .data 7, -1\nmov X, r3\n"
	ctx := runPipeline(t, src)
	var ob bytes.Buffer
	if err := ctx.WriteObject(&ob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(ob.String(), "\n"), "\n")

	// Cells must appear in ascending address order: three code cells
	// (header, pending-X, register word) followed by the two relocated
	// data cells, even though X's .data directive was written first.
	cellLines := lines[1:]
	prevAddr := -1
	for i, line := range cellLines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			t.Fatalf("line %d: expected two fields, got %v", i, fields)
		}
		addr, err := tenbit.DecodeBase4(fields[0])
		if err != nil {
			t.Fatalf("line %d: cannot decode address %q: %v", i, fields[0], err)
		}
		if addr <= prevAddr {
			t.Errorf("line %d: address %q out of order (previous %d)", i, fields[0], prevAddr)
		}
		prevAddr = addr
	}

	// The last two lines are the data cells; their word fields must be
	// addressDigits wide (5), not codeWordDigits (6).
	for _, line := range cellLines[len(cellLines)-2:] {
		fields := strings.Fields(line)
		if len(fields[1]) != addressDigits {
			t.Errorf("data word field %q has length %d, want %d", fields[1], len(fields[1]), addressDigits)
		}
	}
	for _, line := range cellLines[:len(cellLines)-2] {
		fields := strings.Fields(line)
		if len(fields[1]) != codeWordDigits {
			t.Errorf("code word field %q has length %d, want %d", fields[1], len(fields[1]), codeWordDigits)
		}
	}
}

func TestWriteObjectWordFieldNotStripped(t *testing.T) {
	ctx := runPipeline(t, "stop\n")
	var ob bytes.Buffer
	if err := ctx.WriteObject(&ob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(ob.String(), "\n"), "\n")
	// lines[1] is "<address> <word>"; the word field must be full width.
	fields := strings.Fields(lines[1])
	if len(fields) != 2 {
		t.Fatalf("expected two fields, got %v", fields)
	}
	if len(fields[1]) != codeWordDigits {
		t.Errorf("word field %q has length %d, want %d", fields[1], len(fields[1]), codeWordDigits)
	}
}

func TestWriteEntriesOmittedWhenEmpty(t *testing.T) {
	ctx := runPipeline(t, "MAIN: stop\n")
	var ent bytes.Buffer
	has, err := ctx.WriteEntries(&ent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has {
		t.Error("expected no .ent content when there are no .entry directives")
	}
}

func TestWriteEntriesWithContent(t *testing.T) {
	ctx := runPipeline(t, "MAIN: stop\n.entry MAIN\n")
	var ent bytes.Buffer
	has, err := ctx.WriteEntries(&ent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatal("expected .ent content")
	}
	if !strings.Contains(ent.String(), "MAIN") {
		t.Errorf(".ent content missing MAIN: %q", ent.String())
	}
}

func TestWriteExternsOmittedWhenEmpty(t *testing.T) {
	ctx := runPipeline(t, "MAIN: stop\n")
	var ext bytes.Buffer
	has, err := ctx.WriteExterns(&ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has {
		t.Error("expected no .ext content when no externs were used")
	}
}

func TestWriteExternsOrderedByAddress(t *testing.T) {
	src := ".extern A\n.extern B\n" +
		"MAIN: mov A, r0\n" +
		"mov B, r1\n" +
		"stop\n"
	ctx := runPipeline(t, src)
	var ext bytes.Buffer
	has, err := ctx.WriteExterns(&ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatal("expected .ext content")
	}
	lines := strings.Split(strings.TrimRight(ext.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	if !strings.HasPrefix(lines[0], "A ") || !strings.HasPrefix(lines[1], "B ") {
		t.Errorf("expected A before B in address order, got %v", lines)
	}
}
