// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// An fstring is a string that keeps track of its position within the
// line from which it was read. Diagnostics report only its row; the
// column is tracked but not reported.
type fstring struct {
	row    int    // 1-based line number of substring
	column int    // 0-based column of start of substring
	str    string // the actual substring of interest
	full   string // the full line as originally read from the file
}

func newFstring(row int, str string) fstring {
	return fstring{row, 0, str, str}
}

func (l fstring) String() string {
	return l.str
}

func (l fstring) consume(n int) fstring {
	return fstring{l.row, l.column + n, l.str[n:], l.full}
}

func (l fstring) trunc(n int) fstring {
	return fstring{l.row, l.column, l.str[:n], l.full}
}

func (l fstring) isEmpty() bool {
	return len(l.str) == 0
}

func (l fstring) startsWith(fn func(c byte) bool) bool {
	return len(l.str) > 0 && fn(l.str[0])
}

func (l fstring) startsWithChar(c byte) bool {
	return len(l.str) > 0 && l.str[0] == c
}

func (l fstring) startsWithString(s string) bool {
	return len(l.str) >= len(s) && l.str[:len(s)] == s
}

func (l fstring) consumeWhitespace() fstring {
	return l.consume(l.scanWhile(whitespace))
}

func (l fstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for ; i < len(l.str) && fn(l.str[i]); i++ {
	}
	return i
}

func (l fstring) scanUntil(fn func(c byte) bool) int {
	i := 0
	for ; i < len(l.str) && !fn(l.str[i]); i++ {
	}
	return i
}

func (l fstring) scanUntilChar(c byte) int {
	i := 0
	for ; i < len(l.str) && l.str[i] != c; i++ {
	}
	return i
}

func (l fstring) consumeWhile(fn func(c byte) bool) (consumed, remain fstring) {
	i := l.scanWhile(fn)
	return l.trunc(i), l.consume(i)
}

func (l fstring) consumeUntil(fn func(c byte) bool) (consumed, remain fstring) {
	i := l.scanUntil(fn)
	return l.trunc(i), l.consume(i)
}

func (l fstring) consumeUntilChar(c byte) (consumed, remain fstring) {
	i := l.scanUntilChar(c)
	return l.trunc(i), l.consume(i)
}

// trimRight returns the substring with trailing whitespace removed.
func (l fstring) trimRight() fstring {
	n := len(l.str)
	for n > 0 && whitespace(l.str[n-1]) {
		n--
	}
	return l.trunc(n)
}

// trim returns the substring with leading and trailing whitespace
// removed.
func (l fstring) trim() fstring {
	return l.consumeWhitespace().trimRight()
}

// stripTrailingComment truncates the fstring at the first ';' that is
// not inside a double-quoted string literal.
func (l fstring) stripTrailingComment() fstring {
	inQuote := false
	lastNonWS := 0
	for i := 0; i < len(l.str); i++ {
		c := l.str[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
			lastNonWS = i + 1
		case stringQuote(c):
			inQuote = true
			lastNonWS = i + 1
		case comment(c):
			return l.trunc(lastNonWS)
		case !whitespace(c):
			lastNonWS = i + 1
		}
	}
	return l.trunc(lastNonWS)
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func wordChar(c byte) bool {
	return !whitespace(c)
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func comment(c byte) bool {
	return c == ';'
}

func stringQuote(c byte) bool {
	return c == '"'
}

func identifierStartChar(c byte) bool {
	return alpha(c)
}

func identifierChar(c byte) bool {
	return alpha(c) || decimal(c)
}
