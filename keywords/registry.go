// Package keywords is the process-wide keyword registration table
// described in spec.md §3/§4.2 (C2). It is built once at startup via
// Register calls from ruleparser's keyword setup files and is read-only
// for the remainder of the process, the same lifecycle as the teacher's
// sigmatch_table in detect-parse.c.
package keywords

import (
	"strings"
	"sync"

	"github.com/jasonish/sigparse/signature"
)

// SetupFunc is the per-keyword callback a Setup routine implements. It is
// handed the signature under construction and the (already unwrapped)
// option value, and returns a sentinel matching spec.md §4.4 step 10 /
// §7: nil on success, one of ruleparser's ErrSilentOnce, ErrSilentOK or
// ErrRequiresNotMet, or any other error for a hard failure.
type SetupFunc func(sig *signature.Signature, value string) error

// Flag enumerates the per-keyword compatibility/parsing bits from
// spec.md §3.
type Flag uint16

const (
	FlagNoOpt Flag = 1 << iota
	FlagOptionalOpt
	FlagQuotesOptional
	FlagQuotesMandatory
	FlagHandleNegation
	FlagStrictParsing
	FlagInfoDeprecated
	FlagSupportFirewall
	FlagSupportDir
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Entry is one row of the keyword table (spec.md §3's KeywordTableEntry).
type Entry struct {
	ID          signature.KeywordID
	Name        string
	Alias       string
	Flags       Flag
	Setup       SetupFunc
	Alternative string // replacement keyword name, for INFO_DEPRECATED

	// silentErrorOnce tracks whether this keyword has already reported
	// a silent error once in this process (spec.md §4.2's "silent-error
	// registry").
	silentErrorOnce bool
	mu              sync.Mutex
}

// Table is a keyword registration table. ruleparser.DefaultTable returns
// a new Table populated with the builtin keywords on every call; tests
// may build their own isolated Table to avoid cross-test interference
// with strict-mode flags.
type Table struct {
	byName map[string]*Entry
	order  []*Entry
}

// NewTable creates an empty registration table.
func NewTable() *Table {
	return &Table{byName: map[string]*Entry{}}
}

// Register adds entry to the table. Both its name and, if set, alias are
// indexed case-insensitively.
func (t *Table) Register(e *Entry) {
	t.byName[strings.ToLower(e.Name)] = e
	if e.Alias != "" {
		t.byName[strings.ToLower(e.Alias)] = e
	}
	t.order = append(t.order, e)
}

// Lookup finds an entry by name or alias, case-insensitively.
func (t *Table) Lookup(name string) (*Entry, bool) {
	e, ok := t.byName[strings.ToLower(name)]
	return e, ok
}

// Index returns e's position in registration order, used as the compact
// numeric id spec.md §4.2 calls for ("index(entry) -> u16 id").
func (t *Table) Index(e *Entry) int {
	for i, o := range t.order {
		if o == e {
			return i
		}
	}
	return -1
}

// ApplyStrict flips FlagStrictParsing on for every entry named in spec,
// a comma-separated keyword list, or on all entries if spec is "all".
// Mirrors the CLI --strict option behavior from spec.md §4.2.
func (t *Table) ApplyStrict(spec string) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return
	}
	if spec == "all" {
		for _, e := range t.order {
			e.Flags |= FlagStrictParsing
		}
		return
	}
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if e, ok := t.Lookup(name); ok {
			e.Flags |= FlagStrictParsing
		}
	}
}

// SilentError records a silent-error occurrence for the given entry and
// reports whether this is the first occurrence (spec.md §4.2, §7 — a
// keyword reporting repeated silent failures logs only the first).
func (t *Table) SilentError(e *Entry) (first bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.silentErrorOnce {
		return false
	}
	e.silentErrorOnce = true
	return true
}

// Entries returns the table in registration order.
func (t *Table) Entries() []*Entry {
	return t.order
}
