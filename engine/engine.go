/* Copyright (c) 2017 Jason Ish
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions
 * are met:
 *
 * 1. Redistributions of source code must retain the above copyright
 *    notice, this list of conditions and the following disclaimer.
 * 2. Redistributions in binary form must reproduce the above copyright
 *    notice, this list of conditions and the following disclaimer in the
 *    documentation and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED ``AS IS'' AND ANY EXPRESS OR IMPLIED
 * WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
 * DISCLAIMED. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY DIRECT,
 * INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES
 * (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
 * SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION)
 * HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT,
 * STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING
 * IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Package engine ties the parser, validator, duplicate detector and
// bidirectional cloner together into a ruleset load (spec.md §4.7/§4.8
// — C7/C8). It is grounded on the teacher's rules.RuleMap: same
// file/glob/directory loading shape, generalized from a flat
// map[sid]Rule into the gid+sid keyed, revision-aware table the full
// engine needs.
package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jasonish/sigparse/keywords"
	"github.com/jasonish/sigparse/log"
	"github.com/jasonish/sigparse/ruleparser"
	"github.com/jasonish/sigparse/signature"
	"github.com/jasonish/sigparse/validator"
)

// LoadStats summarizes the outcome of one LoadPaths call, tagged with a
// UUID so multiple loads (e.g. a reload after a rule update) can be told
// apart in logs.
type LoadStats struct {
	BatchID       string
	Files         int
	Parsed        int
	New           int
	Replaced      int
	DroppedOlder  int
	SilentSkipped int
	RequiresUnmet int
	Errors        []error
}

// Engine holds the live, deduplicated set of signatures plus the
// keyword table they were parsed against.
type Engine struct {
	table     *keywords.Table
	validator validator.Options
	dupes     *duplicateTable
}

// New creates an Engine using table for parsing. If table is nil, a new
// table from ruleparser.DefaultTable is used.
func New(table *keywords.Table, vopts validator.Options) *Engine {
	if table == nil {
		table = ruleparser.DefaultTable()
	}
	return &Engine{
		table:     table,
		validator: vopts,
		dupes:     newDuplicateTable(),
	}
}

// Signatures returns every live signature in gid/sid order, the set a
// detection table build would consume.
func (e *Engine) Signatures() []*signature.Signature {
	return e.dupes.all()
}

// FindBySID returns the live signature with the given SID, mirroring
// the teacher's RuleMap.FindById.
func (e *Engine) FindBySID(sid uint64) *signature.Signature {
	return e.dupes.findBySID(sid)
}

// LoadPaths loads rules from every path, each of which may be a single
// file, a directory (all *.rules files are read non-recursively), or a
// glob pattern, mirroring the teacher's NewRuleMap path handling.
func (e *Engine) LoadPaths(paths []string) *LoadStats {
	stats := &LoadStats{BatchID: uuid.NewString()}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			matches, globErr := filepath.Glob(path)
			if globErr != nil || len(matches) == 0 {
				log.Warning("no matches for %s", path)
				continue
			}
			for _, m := range matches {
				e.loadFile(m, stats)
			}
			continue
		}
		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				log.Warning("failed to read %s: %v", path, err)
				continue
			}
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rules") {
					continue
				}
				e.loadFile(filepath.Join(path, entry.Name()), stats)
			}
			continue
		}
		e.loadFile(path, stats)
	}

	log.Info("load %s: %d parsed, %d new, %d replaced, %d dropped, %d errors",
		stats.BatchID, stats.Parsed, stats.New, stats.Replaced, stats.DroppedOlder, len(stats.Errors))
	return stats
}

func (e *Engine) loadFile(filename string, stats *LoadStats) {
	file, err := os.Open(filename)
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		return
	}
	defer file.Close()
	stats.Files++

	scanner := newRawRuleScanner(file)
	for {
		text, err := scanner.next()
		if err != nil {
			break
		}
		if err := e.LoadRule(text, stats); err != nil {
			log.Warning("%s: %v", filename, err)
			stats.Errors = append(stats.Errors, err)
		}
	}
}

// LoadRule parses, validates, deduplicates and (if bidirectional)
// clones a single rule's text into the engine, updating stats.
func (e *Engine) LoadRule(raw string, stats *LoadStats) error {
	primary, mirror, err := ruleparser.ParseBidirectional(raw, e.table)
	if err != nil {
		return err
	}

	e.absorb(primary, stats)
	if mirror != nil {
		e.absorb(mirror, stats)
	}
	return nil
}

func (e *Engine) absorb(res *ruleparser.ParseResult, stats *LoadStats) {
	switch res.Outcome {
	case ruleparser.OutcomeSilentSkip:
		stats.SilentSkipped++
		return
	case ruleparser.OutcomeRequiresNotMet:
		stats.RequiresUnmet++
		return
	}
	if !res.Enabled || res.Signature == nil {
		return
	}

	sig := res.Signature
	if _, err := validator.Validate(sig, e.validator); err != nil {
		log.Warning("sid:%d: %v", sig.SID, err)
		stats.Errors = append(stats.Errors, err)
		sig.Free()
		return
	}

	stats.Parsed++
	switch e.dupes.insert(sig) {
	case outcomeNew:
		stats.New++
	case outcomeReplaced:
		stats.Replaced++
	case outcomeDroppedOlder:
		stats.DroppedOlder++
	}
}
