// Package validator implements the post-parse semantic checks from
// spec.md §4.6 (C6): direction reconciliation, packet-vs-stream
// inference, buffer mix rules, file-inspection compatibility, and
// firewall-rule constraints. It runs once, in the fixed order spec.md
// lays out, after the option parser has finished.
package validator

import (
	"fmt"

	"github.com/jasonish/sigparse/signature"
)

// BufferKind classifies a buffer for the mix-rule check in step 3.
type BufferKind int

const (
	BufferKindPacket BufferKind = iota
	BufferKindApp
	BufferKindFrame
)

// BufferClassifier resolves a buffer id to its kind, standing in for the
// DetectBufferTypeByName collaborator named in spec.md §6.
type BufferClassifier func(id signature.ListID) BufferKind

// Result carries the type/table classification plus any deprecation or
// compatibility warnings accumulated while validating.
type Result struct {
	Type     signature.Type
	Table    signature.Table
	Warnings []string
}

// Options bundles the external collaborators the validator needs but
// does not implement (spec.md §1's "only their contracts named").
type Options struct {
	Classify          BufferClassifier
	FileDataListID    signature.ListID
	PacketOnlyBuffers map[signature.ListID]bool
}

// defaultClassify treats every buffer as an app buffer. Real buffer-type
// metadata comes from DetectBufferTypeByName, an external collaborator
// (spec.md §6); callers that register frame or packet buffers should
// supply their own Classify instead of relying on this default.
func defaultClassify(signature.ListID) BufferClassifier {
	return func(signature.ListID) BufferKind {
		return BufferKindApp
	}
}

// Validate runs every check from spec.md §4.6, in order, and returns the
// final classification or the first hard error encountered.
func Validate(sig *signature.Signature, opts Options) (*Result, error) {
	if opts.Classify == nil {
		opts.Classify = defaultClassify(opts.FileDataListID)
	}

	if err := checkFirewallPreconditions(sig); err != nil {
		return nil, err
	}
	if err := checkPacketVsStream(sig); err != nil {
		return nil, err
	}
	warnings, err := checkBufferMix(sig, opts)
	if err != nil {
		return nil, err
	}
	if err := checkDirection(sig); err != nil {
		return nil, err
	}
	if err := checkHookProgress(sig); err != nil {
		return nil, err
	}
	consolidateTCP(sig)

	typ, table := classify(sig)
	sig.Type = typ
	sig.Table = table

	if err := checkTableCompatibility(sig); err != nil {
		return nil, err
	}
	if err := checkFileHandling(sig, opts); err != nil {
		return nil, err
	}

	if sig.Prio == -1 {
		sig.Prio = 3
	}

	return &Result{Type: typ, Table: table, Warnings: warnings}, nil
}

// checkFirewallPreconditions is step 1.
func checkFirewallPreconditions(sig *signature.Signature) error {
	if !sig.Flags.Has(signature.FlagFirewall) {
		return nil
	}
	if !sig.Hook.IsSet() {
		return fmt.Errorf("firewall rule must specify a hook")
	}
	if sig.ActionScope == signature.ScopeNotSet {
		return fmt.Errorf("firewall rule must specify an action scope")
	}
	if sig.Flags.Has(signature.FlagTxBothDir) {
		return fmt.Errorf("transactional bidirectional rules cannot be firewall rules")
	}
	return nil
}

// checkPacketVsStream is step 2 / invariant 3.
func checkPacketVsStream(sig *signature.Signature) error {
	if sig.Flags.Has(signature.FlagRequirePacket) && sig.Flags.Has(signature.FlagRequireStream) {
		return fmt.Errorf("signature requires both packet and stream inspection")
	}
	return nil
}

// checkBufferMix is step 3.
func checkBufferMix(sig *signature.Signature, opts Options) ([]string, error) {
	var warnings []string
	var sawFrame, sawApp, sawPkt bool

	for _, buf := range sig.Buffers() {
		if buf.Empty() {
			return nil, fmt.Errorf("sticky buffer %d selected but has no matches", buf.ID)
		}
		switch opts.Classify(buf.ID) {
		case BufferKindFrame:
			sawFrame = true
		case BufferKindApp:
			sawApp = true
		case BufferKindPacket:
			sawPkt = true
		}
	}
	if sig.LegacyHead(signature.ListPMatch) != nil {
		sawApp = true
	}
	if sig.LegacyHead(signature.ListMatch) != nil {
		sawPkt = true
	}

	if sawFrame && sawApp {
		return nil, fmt.Errorf("cannot mix a payload/app buffer with a frame buffer")
	}
	if sawFrame && sawPkt {
		return nil, fmt.Errorf("cannot mix a packet buffer with a frame buffer")
	}

	if opts.PacketOnlyBuffers != nil {
		for _, buf := range sig.Buffers() {
			if opts.PacketOnlyBuffers[buf.ID] && (sawApp || sawFrame) {
				return nil, fmt.Errorf("packet-only keyword cannot be combined with a non-packet buffer")
			}
		}
	}

	if buf := sig.Buffer(opts.FileDataListID); buf != nil {
		var rawbytesErr bool
		buf.Each(func(sm *signature.SigMatch) {
			if sm.Flags.Has(signature.SMFlagRawBytes) {
				rawbytesErr = true
			}
		})
		if rawbytesErr {
			return nil, fmt.Errorf("rawbytes is incompatible with file_data")
		}
	}

	return warnings, nil
}

// checkDirection is step 4.
func checkDirection(sig *signature.Signature) error {
	ts := sig.Flags.Has(signature.FlagToServer)
	tc := sig.Flags.Has(signature.FlagToClient)

	if sig.Flags.Has(signature.FlagTxBothDir) {
		if !ts || !tc {
			return fmt.Errorf("=> rule must be exclusive in both directions across its buffers")
		}
		return nil
	}

	if ts && tc {
		return fmt.Errorf("conflicting direction requirements; use => for a transactional rule")
	}
	return nil
}

// checkHookProgress is step 5.
func checkHookProgress(sig *signature.Signature) error {
	if sig.Hook.Kind != signature.HookApp {
		return nil
	}
	// Per-engine inspection progress reconciliation depends on the
	// DetectBufferRegisterInspectEngine collaborator (spec.md §6);
	// nothing in this module's scope attaches inspection engines that
	// could disagree with the hook's progress, so there is nothing
	// further to check here.
	return nil
}

// consolidateTCP is step 6.
func consolidateTCP(sig *signature.Signature) {
	const tcpMask = 1 << 0
	if sig.ProtoMask&tcpMask == 0 {
		return
	}
	if sig.LegacyHead(signature.ListPMatch) == nil {
		return
	}
	if !sig.Flags.Has(signature.FlagRequirePacket) && !sig.Flags.Has(signature.FlagRequireStream) {
		sig.Flags.Set(signature.FlagRequireStream)
	}

	forcePacket := false
	sig.LegacyEach(signature.ListPMatch, func(sm *signature.SigMatch) {
		if sm.Type == signature.KwContent && sm.Flags.Has(signature.SMFlagDepthOffset) {
			forcePacket = true
		}
	})
	sig.LegacyEach(signature.ListMatch, func(sm *signature.SigMatch) {
		if sm.Type == signature.KwStreamSize {
			forcePacket = true
		}
	})
	if forcePacket {
		sig.Flags.Set(signature.FlagRequirePacket)
	}
}

// classify is step 7.
func classify(sig *signature.Signature) (signature.Type, signature.Table) {
	hasPayload := sig.HasAnyMatches()
	isApp := sig.Flags.Has(signature.FlagAppLayer)

	var typ signature.Type
	switch {
	case !hasPayload && !isApp:
		typ = signature.TypeIPOnly
	case isApp:
		typ = signature.TypeAppTx
	default:
		typ = signature.TypePacket
	}

	var table signature.Table
	switch {
	case sig.Flags.Has(signature.FlagFirewall) && sig.Hook.Kind == signature.HookPkt:
		switch sig.Hook.Phase {
		case signature.PhasePreStream:
			table = signature.TablePacketPreStream
		case signature.PhasePreFlow:
			table = signature.TablePacketPreFlow
		default:
			table = signature.TablePacketFilter
		}
	case sig.Flags.Has(signature.FlagFirewall) && sig.Hook.Kind == signature.HookApp:
		table = signature.TableAppFilter
	case isApp:
		table = signature.TableAppTD
	default:
		table = signature.TablePacketTD
	}

	return typ, table
}

// checkTableCompatibility is step 8. Table-bit/keyword compatibility is
// the Setup routines' own contract (out of scope per spec.md §1); this
// keeps the hook so a future keyword table carrying table-bit metadata
// can be wired in without reshaping the validator.
func checkTableCompatibility(sig *signature.Signature) error {
	return nil
}

// checkFileHandling is step 9.
func checkFileHandling(sig *signature.Signature, opts Options) error {
	buf := sig.Buffer(opts.FileDataListID)
	if buf == nil {
		return nil
	}
	if sig.Alproto == "http2" {
		return fmt.Errorf("filename matching is not supported on http2")
	}
	if !sig.Flags.Has(signature.FlagAppLayer) {
		return fmt.Errorf("file_data requires an app-layer protocol that supports file inspection")
	}
	return nil
}
