// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/rhollenbeck/tenbit"
)

func TestValidIdentifier(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"COUNTER", true},
		{"a1", true},
		{"1abc", false},
		{"", false},
		{"_under", false},
		{"thisidentifierisfartoolongtobevalidatall", false},
	}
	for _, c := range cases {
		if got := validIdentifier(c.name); got != c.want {
			t.Errorf("validIdentifier(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestExtractLabel(t *testing.T) {
	line := newFstring(1, "MAIN: stop")
	label, remain, ok, _, isMalformed := extractLabel(line)
	if !ok || isMalformed {
		t.Fatalf("expected a well-formed label, got ok=%v isMalformed=%v", ok, isMalformed)
	}
	if label.str != "MAIN" {
		t.Errorf("label = %q, want MAIN", label.str)
	}
	if remain.str != "stop" {
		t.Errorf("remain = %q, want %q", remain.str, "stop")
	}
}

func TestExtractLabelAbsent(t *testing.T) {
	line := newFstring(1, "stop")
	_, remain, ok, _, _ := extractLabel(line)
	if ok {
		t.Fatal("expected no label")
	}
	if remain.str != "stop" {
		t.Errorf("remain = %q, want original line unchanged", remain.str)
	}
}

func TestSplitCommaList(t *testing.T) {
	fields, err := splitCommaList(newFstring(1, "r1, r2, r3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err.msg)
	}
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(fields))
	}
	want := []string{"r1", "r2", "r3"}
	for i, f := range fields {
		if f.str != want[i] {
			t.Errorf("field %d = %q, want %q", i, f.str, want[i])
		}
	}
}

func TestSplitCommaListLeadingComma(t *testing.T) {
	_, err := splitCommaList(newFstring(1, ", r1"))
	if err == nil {
		t.Fatal("expected an error for leading comma")
	}
}

func TestSplitCommaListTrailingComma(t *testing.T) {
	_, err := splitCommaList(newFstring(1, "r1,"))
	if err == nil {
		t.Fatal("expected an error for trailing comma")
	}
}

func TestSplitCommaListDoubledComma(t *testing.T) {
	_, err := splitCommaList(newFstring(1, "r1,,r2"))
	if err == nil {
		t.Fatal("expected an error for doubled comma")
	}
}

func TestSplitOperandsTooMany(t *testing.T) {
	_, _, _, err := splitOperands(newFstring(1, "r1, r2, r3"))
	if err == nil {
		t.Fatal("expected an error for more than two operands")
	}
}

func TestClassifyImmediate(t *testing.T) {
	o := classify(newFstring(1, "#-5"))
	if o.Mode != tenbit.Immediate || o.ImmValue != -5 {
		t.Errorf("classify(#-5) = %+v", o)
	}
}

func TestClassifyRegister(t *testing.T) {
	o := classify(newFstring(1, "r3"))
	if o.Mode != tenbit.Register || o.RegisterIdx != 3 {
		t.Errorf("classify(r3) = %+v", o)
	}
}

func TestClassifyDirect(t *testing.T) {
	o := classify(newFstring(1, "COUNTER"))
	if o.Mode != tenbit.Direct || o.DirectName != "COUNTER" {
		t.Errorf("classify(COUNTER) = %+v", o)
	}
}

func TestClassifyDirectRejectsReserved(t *testing.T) {
	o := classify(newFstring(1, "mov"))
	if o.Mode != tenbit.Invalid {
		t.Errorf("classify(mov) = %+v, want Invalid", o)
	}
}

func TestClassifyMatrix(t *testing.T) {
	o := classify(newFstring(1, "MAT[r2][r5]"))
	if o.Mode != tenbit.Matrix || o.MatrixBase != "MAT" || o.MatrixReg1 != 2 || o.MatrixReg2 != 5 {
		t.Errorf("classify(MAT[r2][r5]) = %+v", o)
	}
}

func TestClassifyMatrixRejectsNonRegisterIndex(t *testing.T) {
	o := classify(newFstring(1, "MAT[1][2]"))
	if o.Mode != tenbit.Invalid {
		t.Errorf("classify(MAT[1][2]) = %+v, want Invalid", o)
	}
}
