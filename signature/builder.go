package signature

import "fmt"

// AppendMatch is the primary entry point Setup callbacks use to add a
// match to a signature (spec.md §4.5).
//
// If listID is a legacy list (< ListMax) the match is appended there.
// Otherwise it targets the current buffer: if the sticky buffer's id
// already equals listID the match is appended to it; if a different
// buffer with that id exists and is not MultiCapable, that one is reused;
// otherwise a new buffer is allocated (growing the vector per
// spec.md §4.5) and marked SMInit since it was created on behalf of the
// Setup callback rather than by an explicit sticky-buffer keyword.
func (s *Signature) AppendMatch(listID ListID, kwType KeywordID, ctx interface{}) (*SigMatch, error) {
	sm := &SigMatch{
		Type: kwType,
		Ctx:  ctx,
		Idx:  s.nextIdx(),
	}
	if listID < ListMax {
		s.legacyLists[listID].append(sm, listID)
		if listID == ListPMatch {
			if listID > s.maxContentListID {
				s.maxContentListID = listID
			}
		}
		return sm, nil
	}

	idx := -1
	if bufID, ok := s.CurrentBufferID(); ok && bufID == listID {
		idx = s.curBuffer
	} else if existing := s.findBuffer(listID); existing >= 0 && !s.buffers[existing].MultiCapable {
		idx = existing
	} else {
		if len(s.buffers) >= MaxBuffers {
			return nil, fmt.Errorf("buffer cap of %d exceeded", MaxBuffers)
		}
		idx = s.newBuffer(listID, false)
		s.buffers[idx].SMInit = true
	}

	buf := &s.buffers[idx]
	if s.ForceToServer {
		buf.OnlyTS = true
	}
	if s.ForceToClient {
		buf.OnlyTC = true
	}
	buf.append(sm)
	return sm, nil
}

// SetAlproto sets a single app-layer protocol on the signature. It
// refuses to override an existing different single alproto unless family
// is provided and resolves both alproto and the existing value to the
// same "common" protocol (e.g. http/http1 -> http), per spec.md §4.5.
func (s *Signature) SetAlproto(alproto string, family func(a, b string) (string, bool)) error {
	if s.Alproto != "" && s.Alproto != alproto {
		if family != nil {
			if common, ok := family(s.Alproto, alproto); ok {
				s.Alproto = common
				s.Flags.Set(FlagAppLayer)
				return nil
			}
		}
		return fmt.Errorf("signature already has alproto %q, cannot set to %q", s.Alproto, alproto)
	}
	s.Alproto = alproto
	s.Flags.Set(FlagAppLayer)
	return nil
}

// SetAlprotos intersects the signature's current multi-alproto candidate
// set with the provided list (terminated implicitly by the slice length).
// An empty resulting intersection is an error. A singleton intersection,
// or a singleton input when no multi-alproto set is active, collapses to
// SetAlproto (spec.md §4.5).
func (s *Signature) SetAlprotos(candidates []string, family func(a, b string) (string, bool)) error {
	if len(candidates) == 0 {
		return fmt.Errorf("empty alproto candidate set")
	}
	if len(candidates) > SigAlprotoMax {
		return fmt.Errorf("alproto candidate set exceeds cap of %d", SigAlprotoMax)
	}

	existing := s.currentAlprotoSet()
	if len(candidates) == 1 && len(existing) <= 1 {
		return s.SetAlproto(candidates[0], family)
	}

	var result []string
	if len(existing) == 0 {
		result = candidates
	} else {
		seen := map[string]bool{}
		for _, c := range candidates {
			seen[c] = true
		}
		for _, e := range existing {
			if seen[e] {
				result = append(result, e)
			}
		}
		if len(result) == 0 {
			return fmt.Errorf("alproto intersection is empty")
		}
	}

	if len(result) == 1 {
		return s.SetAlproto(result[0], family)
	}

	for i := range s.AlprotoSet {
		s.AlprotoSet[i] = ""
	}
	copy(s.AlprotoSet[:], result)
	s.Alproto = ""
	s.Flags.Set(FlagAppLayer)
	return nil
}

func (s *Signature) currentAlprotoSet() []string {
	var out []string
	if s.Alproto != "" {
		return []string{s.Alproto}
	}
	for _, a := range s.AlprotoSet {
		if a == "" {
			break
		}
		out = append(out, a)
	}
	return out
}

// ContentModifierTransfer relocates the most recent content match from
// PMATCH into targetList, the way legacy content modifiers (http_uri,
// etc.) do (spec.md §4.5).
func (s *Signature) ContentModifierTransfer(targetList ListID, alproto string, family func(a, b string) (string, bool)) error {
	if _, ok := s.CurrentBufferID(); ok {
		return fmt.Errorf("a sticky buffer is already active; use pkt_data to reset before a legacy content modifier")
	}
	if s.Alproto != "" && s.Alproto != alproto {
		if family == nil {
			return fmt.Errorf("signature alproto %q conflicts with modifier alproto %q", s.Alproto, alproto)
		}
		if _, ok := family(s.Alproto, alproto); !ok {
			return fmt.Errorf("signature alproto %q conflicts with modifier alproto %q", s.Alproto, alproto)
		}
	}

	tail := s.legacyLists[ListPMatch].tail
	var content *SigMatch
	for sm := tail; sm != nil; sm = sm.prev {
		if sm.Type == KwContent {
			content = sm
			break
		}
	}
	if content == nil {
		return fmt.Errorf("content modifier used without a preceding content match")
	}
	if content.Flags.Has(SMFlagRawBytes) {
		return fmt.Errorf("content modifier incompatible with rawbytes")
	}
	if content.Flags.Has(SMFlagReplace) {
		return fmt.Errorf("content modifier incompatible with replace")
	}

	if content.Flags.Has(SMFlagWithin) || content.Flags.Has(SMFlagDistance) {
		if content.prev != nil {
			content.prev.Flags.Clear(SMFlagRelativeNext)
		}
	}

	if content != s.legacyLists[ListPMatch].tail {
		// Not the tail: unlink it from the middle of PMATCH.
		s.unlinkFromLegacy(ListPMatch, content)
	} else {
		s.legacyLists[ListPMatch].unlinkTail()
	}

	idx := s.findBuffer(targetList)
	if idx < 0 {
		idx = s.newBuffer(targetList, false)
	}
	buf := &s.buffers[idx]
	if content.Flags.Has(SMFlagWithin) || content.Flags.Has(SMFlagDistance) {
		if buf.chain.tail != nil {
			buf.chain.tail.Flags.Set(SMFlagRelativeNext)
		}
	}
	buf.append(content)

	if err := s.SetAlproto(alproto, family); err != nil {
		return err
	}
	return nil
}

// unlinkFromLegacy splices sm out of legacy list id, wherever it sits in
// the chain.
func (s *Signature) unlinkFromLegacy(id ListID, sm *SigMatch) {
	chain := &s.legacyLists[id]
	if sm.prev != nil {
		sm.prev.next = sm.next
	} else {
		chain.head = sm.next
	}
	if sm.next != nil {
		sm.next.prev = sm.prev
	} else {
		chain.tail = sm.prev
	}
	sm.prev = nil
	sm.next = nil
}

// GetLastMatch returns the SigMatch with the highest Idx among those
// whose Type satisfies pred, per spec.md §4.5. scope controls where it
// searches: if bufferID is non-nil, only that buffer/list is searched;
// otherwise every buffer plus the given legacy lists are searched and the
// highest-Idx match anywhere wins.
func (s *Signature) GetLastMatch(pred func(kwType KeywordID) bool, legacyLists []ListID, bufferID *ListID) *SigMatch {
	var best *SigMatch

	consider := func(sm *SigMatch) {
		if sm == nil || !pred(sm.Type) {
			return
		}
		if best == nil || sm.Idx > best.Idx {
			best = sm
		}
	}

	if bufferID != nil {
		if buf := s.Buffer(*bufferID); buf != nil {
			buf.Each(consider)
		}
		return best
	}

	for _, id := range legacyLists {
		s.legacyLists[id].each(consider)
	}
	for i := range s.buffers {
		s.buffers[i].Each(consider)
	}
	return best
}
