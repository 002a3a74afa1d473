package engine

import (
	"sort"
	"sync"

	"github.com/jasonish/sigparse/log"
	"github.com/jasonish/sigparse/signature"
)

// insertOutcome is what happened when a freshly validated signature was
// inserted into the duplicate table (spec.md §4.7 — C7).
type insertOutcome int

const (
	outcomeNew insertOutcome = iota
	outcomeReplaced
	outcomeDroppedOlder
)

// dupKey is the (gid, sid) identity spec.md §4.7 keys duplicates on.
type dupKey struct {
	gid uint64
	sid uint64
}

// duplicateTable holds the live, deduplicated signature set. Two
// signatures sharing a (gid, sid) are duplicates regardless of any
// other field; the one with the higher rev wins, matching how Suricata
// reloads a ruleset in place.
type duplicateTable struct {
	mu   sync.Mutex
	live map[dupKey]*signature.Signature
}

func newDuplicateTable() *duplicateTable {
	return &duplicateTable{live: map[dupKey]*signature.Signature{}}
}

// insert applies the revision-wins rule: a signature with a strictly
// higher Rev than the one on file replaces it (freeing the old one); an
// equal or lower Rev is dropped (freeing the incoming one) in favor of
// what's already loaded; an unseen key is simply added.
func (d *duplicateTable) insert(sig *signature.Signature) insertOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dupKey{gid: sig.GID, sid: sig.SID}
	existing, ok := d.live[key]
	if !ok {
		d.live[key] = sig
		return outcomeNew
	}

	if sig.Rev > existing.Rev {
		log.Warning("gid:%d sid:%d: rev %d replaces rev %d", sig.GID, sig.SID, sig.Rev, existing.Rev)
		existing.Free()
		d.live[key] = sig
		return outcomeReplaced
	}

	log.Warning("gid:%d sid:%d: rev %d ignored, rev %d already loaded", sig.GID, sig.SID, sig.Rev, existing.Rev)
	sig.Free()
	return outcomeDroppedOlder
}

func (d *duplicateTable) findBySID(sid uint64) *signature.Signature {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, sig := range d.live {
		if k.sid == sid {
			return sig
		}
	}
	return nil
}

// all returns every live signature sorted by (gid, sid) for a stable,
// reproducible dump order.
func (d *duplicateTable) all() []*signature.Signature {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*signature.Signature, 0, len(d.live))
	for _, sig := range d.live {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GID != out[j].GID {
			return out[i].GID < out[j].GID
		}
		return out[i].SID < out[j].SID
	})
	return out
}
