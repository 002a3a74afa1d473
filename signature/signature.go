// Package signature is the in-progress signature data model and the
// builder API exposed to keyword Setup callbacks (spec.md §3, §4.5 — C5,
// the Signature Builder). It is grounded on the Rule/RuleOption shape in
// the teacher's ruleparser.Rule, generalized from a flat option list into
// the doubly linked per-list/per-buffer match storage the full engine
// needs.
package signature

import (
	"net"
)

// Endpoint is the address/port pair on one side of a rule, opaque to this
// package beyond what's needed for the "any" flags and bidirectional
// set-equivalence check (spec.md §4.8, §9 open question about
// SigHasSameSourceAndDestination).
type Endpoint struct {
	// Raw is the literal text as written in the rule (e.g. "any",
	// "$HOME_NET", "[1.1.1.1/32,2.2.2.2/32]").
	Raw string
	// Any is true when Raw was literally "any".
	Any bool
	// Negated is true when the literal was prefixed with "!".
	Negated bool
	// Nets is the resolved set of networks, when Raw was a concrete
	// address or address list (nil for variables like $HOME_NET that
	// this package does not expand).
	Nets []net.IPNet
	// Vars carries any unexpanded $VARIABLE tokens.
	Vars []string
}

// Equivalent reports whether two endpoints denote the same address set,
// by value rather than by raw text or handle identity (spec.md §9, open
// question about SigHasSameSourceAndDestination).
func (e Endpoint) Equivalent(o Endpoint) bool {
	if e.Any != o.Any || e.Negated != o.Negated {
		return false
	}
	if e.Any {
		return true
	}
	return sameStrings(e.Vars, o.Vars) && sameNets(e.Nets, o.Nets)
}

// PortRange is one endpoint's port specification.
type PortRange struct {
	Raw     string
	Any     bool
	Negated bool
	Ranges  [][2]int
	Vars    []string
}

// Equivalent reports whether two port ranges denote the same port set.
func (p PortRange) Equivalent(o PortRange) bool {
	if p.Any != o.Any || p.Negated != o.Negated {
		return false
	}
	if p.Any {
		return true
	}
	if !sameStrings(p.Vars, o.Vars) || len(p.Ranges) != len(o.Ranges) {
		return false
	}
	counts := map[[2]int]int{}
	for _, r := range p.Ranges {
		counts[r]++
	}
	for _, r := range o.Ranges {
		counts[r]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func sameNets(a, b []net.IPNet) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, n := range a {
		counts[n.String()]++
	}
	for _, n := range b {
		counts[n.String()]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// Signature is the central entity described in spec.md §3.
type Signature struct {
	// Identity.
	GID uint64
	SID uint64
	Rev uint64
	// Prio is left at -1 until the validator applies the default (3),
	// mirroring detect-parse.c's sig->prio = -1 sentinel.
	Prio int

	Action      Action
	ActionScope ActionScope

	// Protocol.
	ProtoMask  uint32
	Alproto    string
	AlprotoSet [SigAlprotoMax]string // compacted to the front; "" terminates

	// Endpoints.
	Src, Dst   Endpoint
	SP, DP     PortRange
	Direction  string // "->", "<>", "=>", as written

	Flags Flags
	Hook  Hook

	Msg string

	legacyLists [ListMax]smChain
	buffers     []Buffer

	// curBuffer is the sticky-buffer cursor; -1 means no sticky buffer
	// is active.
	curBuffer int

	smCnt              uint32
	maxContentListID   ListID
	hasPossiblePrefilter bool
	mpmSM              *SigMatch
	prefilterSM        *SigMatch

	// Type/Table are set by the validator (spec.md §4.6 step 7).
	Type  Type
	Table Table

	// buildFlags/negation/directionForce are working state the option
	// parser flips per-option; see ruleparser/options.go.
	Negated         bool
	ForceToServer   bool
	ForceToClient   bool

	// Requires/silent-skip bookkeeping (spec.md §7).
	RequiresNotMet bool
	SilentSkip     bool
}

// New allocates a Signature the way SigInit does at the start of parsing
// a rule (spec.md §3, "Lifecycle").
func New() *Signature {
	return &Signature{
		GID:       1,
		Rev:       0,
		Prio:      -1,
		curBuffer: -1,
	}
}

// CurrentBufferID reports the sticky buffer id, or false if none is set.
func (s *Signature) CurrentBufferID() (ListID, bool) {
	if s.curBuffer < 0 {
		return 0, false
	}
	return s.buffers[s.curBuffer].ID, true
}

// SetCurrentBuffer makes the buffer with the given id (creating it if
// necessary) the sticky buffer, and returns it.
func (s *Signature) SetCurrentBuffer(id ListID, multiCapable bool) *Buffer {
	idx := s.findBuffer(id)
	if idx < 0 {
		idx = s.newBuffer(id, multiCapable)
	}
	s.curBuffer = idx
	return &s.buffers[idx]
}

// ClearCurrentBuffer drops the sticky-buffer cursor, e.g. on pkt_data.
func (s *Signature) ClearCurrentBuffer() {
	s.curBuffer = -1
}

func (s *Signature) findBuffer(id ListID) int {
	for i := range s.buffers {
		if s.buffers[i].ID == id {
			return i
		}
	}
	return -1
}

// newBuffer grows the buffer vector by BufferGrowBy up to MaxBuffers, per
// spec.md §4.5, and returns the index of the freshly allocated buffer.
func (s *Signature) newBuffer(id ListID, multiCapable bool) int {
	if len(s.buffers) >= MaxBuffers {
		panic("signature: buffer cap exceeded; caller must check BufferCount first")
	}
	if cap(s.buffers) == len(s.buffers) {
		grow := BufferGrowBy
		if len(s.buffers)+grow > MaxBuffers {
			grow = MaxBuffers - len(s.buffers)
		}
		grown := make([]Buffer, len(s.buffers), len(s.buffers)+grow)
		copy(grown, s.buffers)
		s.buffers = grown
	}
	s.buffers = append(s.buffers, Buffer{ID: id, MultiCapable: multiCapable})
	return len(s.buffers) - 1
}

// BufferCount is the number of distinct buffer ids currently allocated.
func (s *Signature) BufferCount() int { return len(s.buffers) }

// Buffers exposes the buffer vector for validation/inspection.
func (s *Signature) Buffers() []Buffer { return s.buffers }

// Buffer returns the buffer with the given id, or nil.
func (s *Signature) Buffer(id ListID) *Buffer {
	idx := s.findBuffer(id)
	if idx < 0 {
		return nil
	}
	return &s.buffers[idx]
}

// LegacyHead/LegacyTail expose a legacy list's chain.
func (s *Signature) LegacyHead(id ListID) *SigMatch { return s.legacyLists[id].head }
func (s *Signature) LegacyTail(id ListID) *SigMatch { return s.legacyLists[id].tail }

// LegacyEach walks a legacy list's matches in insertion order.
func (s *Signature) LegacyEach(id ListID, fn func(*SigMatch)) {
	s.legacyLists[id].each(fn)
}

// nextIdx assigns the next monotonic sm_cnt/idx value (invariant 2).
func (s *Signature) nextIdx() uint32 {
	idx := s.smCnt
	s.smCnt++
	return idx
}

// Free tears down every SigMatch across every list/buffer, cascading into
// each keyword's Free callback, per spec.md §3's Lifecycle paragraph and
// §5's resource discipline.
func (s *Signature) Free() {
	for i := range s.legacyLists {
		for sm := s.legacyLists[i].head; sm != nil; {
			next := sm.next
			sm.Free()
			sm = next
		}
		s.legacyLists[i] = smChain{}
	}
	for i := range s.buffers {
		for sm := s.buffers[i].chain.head; sm != nil; {
			next := sm.next
			sm.Free()
			sm = next
		}
		s.buffers[i].chain = smChain{}
	}
	s.buffers = nil
}

// HasAnyMatches reports whether the signature has accumulated any
// SigMatch across all lists and buffers.
func (s *Signature) HasAnyMatches() bool {
	for i := range s.legacyLists {
		if s.legacyLists[i].head != nil {
			return true
		}
	}
	for i := range s.buffers {
		if !s.buffers[i].Empty() {
			return true
		}
	}
	return false
}
