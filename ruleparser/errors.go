// The MIT License (MIT)
// Copyright (c) 2016 Jason Ish
//
// Permission is hereby granted, free of charge, to any person
// obtaining a copy of this software and associated documentation
// files (the "Software"), to deal in the Software without
// restriction, including without limitation the rights to use, copy,
// modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS
// BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN
// ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ruleparser

import "fmt"

// ErrorKind enumerates the error taxonomy from spec.md §7.
type ErrorKind int

const (
	// Syntactic.
	KindBadUTF8 ErrorKind = iota
	KindBadControlChar
	KindMissingOptionOpen
	KindUnterminatedOption
	KindEmptyRule
	KindUnknownKeyword
	KindBadDirection

	// Semantic.
	KindSemantic
	// Capability.
	KindCapability

	// Quiet-skip and silent-once are not errors returned from Parse;
	// they are signaled via ParseResult.Outcome (see parse.go).
)

// RuleParseError is the error type returned for any hard parse failure,
// mirroring the teacher's idsrules.RuleParseError (referenced, but not
// defined, in evebox/rules/rulemap.go's *idsrules.RuleParseError recovery
// via errors.As-style type assertion).
type RuleParseError struct {
	Kind ErrorKind
	Rule string
	Msg  string
}

func (e *RuleParseError) Error() string {
	return fmt.Sprintf("rule parse error: %s", e.Msg)
}

func newError(kind ErrorKind, rule, format string, args ...interface{}) *RuleParseError {
	return &RuleParseError{Kind: kind, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}
