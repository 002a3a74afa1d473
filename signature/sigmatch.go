package signature

// Freeable is implemented by a keyword's ctx type when it holds resources
// that must be released on parse failure or on final compaction
// (spec.md §3, "Lifecycle").
type Freeable interface {
	Free()
}

// SigMatchFlag carries chaining bits a content-like keyword sets on
// itself or a predecessor.
type SigMatchFlag uint8

const (
	SMFlagRelativeNext SigMatchFlag = 1 << iota
	SMFlagWithin
	SMFlagDistance
	SMFlagRawBytes
	SMFlagReplace
	SMFlagNegated
	SMFlagDepthOffset
)

func (f SigMatchFlag) Has(bit SigMatchFlag) bool { return f&bit != 0 }
func (f *SigMatchFlag) Set(bit SigMatchFlag)      { *f |= bit }
func (f *SigMatchFlag) Clear(bit SigMatchFlag)    { *f &^= bit }

// SigMatch is one option's node in a signature's per-list doubly linked
// list (spec.md §3). Type identifies the owning keyword (by KeywordID);
// Ctx is that keyword's opaque per-instance data.
type SigMatch struct {
	Type  uint16
	Ctx   interface{}
	Idx   uint32
	Flags SigMatchFlag

	list ListID
	prev *SigMatch
	next *SigMatch
}

// List reports which list or buffer this SigMatch currently belongs to
// (invariant 1: exactly one list/buffer at a time).
func (sm *SigMatch) List() ListID { return sm.list }

func (sm *SigMatch) Prev() *SigMatch { return sm.prev }
func (sm *SigMatch) Next() *SigMatch { return sm.next }

// Free releases the match's ctx, if it holds one, and nils it out so a
// later free (e.g. from a compacted SigMatchData array) cannot double
// free it.
func (sm *SigMatch) Free() {
	if sm == nil || sm.Ctx == nil {
		return
	}
	if f, ok := sm.Ctx.(Freeable); ok {
		f.Free()
	}
	sm.Ctx = nil
}

// smChain is a small doubly linked list with head/tail pointers, shared by
// legacy lists and buffers. It is the "head/tail index pairs" arena the
// design notes (spec.md §9) call for, modeled with real pointers since Go
// has a garbage collector and no dangling-index arena is needed.
type smChain struct {
	head *SigMatch
	tail *SigMatch
}

func (c *smChain) append(sm *SigMatch, list ListID) {
	sm.list = list
	sm.prev = c.tail
	sm.next = nil
	if c.tail != nil {
		c.tail.next = sm
	}
	c.tail = sm
	if c.head == nil {
		c.head = sm
	}
}

// unlinkTail removes and returns the tail element, or nil if the chain is
// empty.
func (c *smChain) unlinkTail() *SigMatch {
	sm := c.tail
	if sm == nil {
		return nil
	}
	c.tail = sm.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	sm.prev = nil
	sm.next = nil
	return sm
}

// each walks the chain from head to tail.
func (c *smChain) each(fn func(*SigMatch)) {
	for sm := c.head; sm != nil; sm = sm.next {
		fn(sm)
	}
}
