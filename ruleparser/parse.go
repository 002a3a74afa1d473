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

// Package ruleparser is the lexer, header parser and option parser
// described in spec.md §4.1/§4.3/§4.4 (C1/C3/C4). It is grounded on the
// teacher's ruleparser package, generalized from a flat Rule/RuleOption
// shape into the full signature.Signature data model.
package ruleparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jasonish/sigparse/keywords"
	"github.com/jasonish/sigparse/signature"
)

// Outcome describes what happened to a parsed rule beyond a hard error.
type Outcome int

const (
	OutcomeParsed Outcome = iota
	OutcomeSilentSkip
	OutcomeRequiresNotMet
)

// ParseResult is the return value of Parse: either a fully built
// Signature (Outcome == OutcomeParsed), or an indication that the rule
// was deliberately skipped without a user-visible error (spec.md §7).
type ParseResult struct {
	Signature *signature.Signature
	Outcome   Outcome
	Enabled   bool
}

// Parse parses a single rule against the given keyword table. Most
// callers should use engine.LoadRule instead, which also
// runs the validator and duplicate detector; Parse alone is exposed for
// testing C1-C4 in isolation.
func Parse(raw string, table *keywords.Table) (*ParseResult, error) {
	enabled := true
	buf := strings.TrimLeft(raw, " \t")
	if strings.HasPrefix(buf, "#") {
		enabled = false
		buf = strings.TrimLeft(strings.TrimPrefix(buf, "#"), " \t")
	}

	fields, err := lex(buf)
	if err != nil {
		return nil, err
	}

	sig := signature.New()
	if err := ParseHeader(raw, fields, sig); err != nil {
		sig.Free()
		return nil, err
	}

	outcome, err := runOptions(raw, table, sig, fields.Options)
	if err != nil {
		sig.Free()
		return nil, err
	}
	if outcome != outcomeOK {
		sig.Free()
		res := &ParseResult{Outcome: OutcomeSilentSkip, Enabled: enabled}
		if outcome == outcomeRequiresNotMet {
			res.Outcome = OutcomeRequiresNotMet
		}
		return res, nil
	}

	return &ParseResult{Signature: sig, Outcome: OutcomeParsed, Enabled: enabled}, nil
}

// ParseReader parses every rule from reader against table,
// returning the successfully parsed, enabled signatures. Per-rule errors
// are collected rather than aborting the whole read.
func ParseReader(reader io.Reader, table *keywords.Table) ([]*signature.Signature, []error) {
	var sigs []*signature.Signature
	var errs []error

	rr := NewRuleReader(reader, table)
	for {
		res, err := rr.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			errs = append(errs, err)
			continue
		}
		if res.Outcome != OutcomeParsed || !res.Enabled {
			continue
		}
		sigs = append(sigs, res.Signature)
	}
	return sigs, errs
}

// ParseBidirectional parses raw and, if its direction is "<>" and its
// source/destination are not set-equivalent, also parses the
// direction-swapped mirror image as a second, independent signature
// (spec.md §4.8 — C8, the Bidirectional Cloner). Reparsing the
// address-swapped header text, rather than deep-copying the match
// chains, is what keeps the two signatures independently owned and
// independently Free-able. Both signatures come back with Direction
// rewritten to "->" and FlagInitBidirec cleared; mirror is nil when no
// clone was needed.
func ParseBidirectional(raw string, table *keywords.Table) (primary, mirror *ParseResult, err error) {
	primary, err = Parse(raw, table)
	if err != nil || primary.Outcome != OutcomeParsed {
		return primary, nil, err
	}

	sig := primary.Signature
	if !sig.Flags.Has(signature.FlagInitBidirec) {
		return primary, nil, nil
	}

	sig.Direction = "->"
	sig.Flags.Clear(signature.FlagInitBidirec)

	if sig.Src.Equivalent(sig.Dst) && sig.SP.Equivalent(sig.DP) {
		return primary, nil, nil
	}

	buf := strings.TrimLeft(strings.TrimPrefix(strings.TrimLeft(raw, " \t"), "#"), " \t")
	fields, lexErr := lex(buf)
	if lexErr != nil {
		return primary, nil, nil
	}
	swapped := fields.Action + " " + fields.Proto + " " +
		fields.Dst + " " + fields.DP + " -> " + fields.Src + " " + fields.SP +
		" (" + fields.Options + ")"

	mirror, err = Parse(swapped, table)
	if err != nil {
		return primary, nil, err
	}
	if mirror.Signature != nil {
		mirror.Signature.Direction = "->"
		mirror.Signature.Flags.Clear(signature.FlagInitBidirec)
	}
	return primary, mirror, nil
}

// RuleReader reads rules one at a time from an underlying reader,
// joining backslash-continued lines and skipping blank/comment-only
// lines, the same way the teacher's RuleReader does.
type RuleReader struct {
	reader *bufio.Reader
	table  *keywords.Table
}

// NewRuleReader creates a RuleReader that parses against table.
func NewRuleReader(reader io.Reader, table *keywords.Table) *RuleReader {
	return &RuleReader{reader: bufio.NewReader(reader), table: table}
}

func (r *RuleReader) readLine() (string, error) {
	bytes, err := r.reader.ReadBytes('\n')
	if err != nil && len(bytes) == 0 {
		return "", err
	}
	return strings.TrimSpace(string(bytes)), nil
}

// Next returns the next rule read from the reader. Blank lines are
// skipped; any line (or joined multi-line rule) that doesn't parse is
// returned as an error on that call, but does not affect subsequent
// calls.
func (r *RuleReader) Next() (*ParseResult, error) {
	ruleString := ""
	for {
		line, err := r.readLine()
		if err != nil && line == "" {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if strings.HasSuffix(line, "\\") {
			ruleString += line[:len(line)-1]
			continue
		}
		ruleString += line

		res, err := Parse(ruleString, r.table)
		if err != nil {
			if strings.HasPrefix(strings.TrimSpace(ruleString), "#") {
				ruleString = ""
				continue
			}
			return nil, fmt.Errorf("%w", err)
		}
		return res, nil
	}
}
