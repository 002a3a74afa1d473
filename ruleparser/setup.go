package ruleparser

import (
	"strconv"
	"strings"

	"github.com/jasonish/sigparse/keywords"
	"github.com/jasonish/sigparse/signature"
)

// contentCtx is the opaque per-instance data for a "content" match. Real
// content-matcher compilation (MPM) is out of scope (spec.md §1); this
// carries just enough to drive the builder and validator logic spec.md
// names explicitly: within/distance/depth/offset linkage, rawbytes,
// nocase, and negation.
type contentCtx struct {
	pattern string
	negated bool
	nocase  bool
}

func (c *contentCtx) Free() {}

type pcreCtx struct {
	pattern string
}

func (c *pcreCtx) Free() {}

// dsizeCtx/streamSizeCtx/bsizeCtx are packet-only keyword markers: their
// presence alone is what the validator (spec.md §4.6 step 6) cares about.
type dsizeCtx struct{ expr string }

func (c *dsizeCtx) Free() {}

type streamSizeCtx struct{ expr string }

func (c *streamSizeCtx) Free() {}

type flowCtx struct{ expr string }

func (c *flowCtx) Free() {}

type thresholdCtx struct{ expr string }

func (c *thresholdCtx) Free() {}

type referenceCtx struct{ expr string }

func (c *referenceCtx) Free() {}

// DefaultTable builds a keyword registration table holding every builtin
// keyword (spec.md §3/§4.2 — C2). Each call returns a new, independent
// table; there is no shared process-wide instance, so a caller that
// wants one table for a whole load builds it once and passes it along.
func DefaultTable() *keywords.Table {
	t := keywords.NewTable()
	for _, e := range builtinKeywords() {
		t.Register(e)
	}
	return t
}

func builtinKeywords() []*keywords.Entry {
	return []*keywords.Entry{
		{ID: signature.KwMsg, Name: "msg", Flags: keywords.FlagQuotesMandatory, Setup: setupMsg},
		{ID: signature.KwSid, Name: "sid", Setup: setupSid},
		{ID: signature.KwGid, Name: "gid", Setup: setupGid},
		{ID: signature.KwRev, Name: "rev", Setup: setupRev},
		{ID: signature.KwPriority, Name: "priority", Setup: setupPriority},
		{ID: signature.KwClasstype, Name: "classtype", Setup: setupClasstype},
		{ID: signature.KwReference, Name: "reference", Setup: setupReference},
		{ID: signature.KwRequires, Name: "requires", Setup: setupRequires},
		{ID: signature.KwContent, Name: "content", Flags: keywords.FlagQuotesMandatory | keywords.FlagHandleNegation, Setup: setupContent},
		{ID: signature.KwNocase, Name: "nocase", Flags: keywords.FlagNoOpt, Setup: setupNocase},
		{ID: signature.KwRawbytes, Name: "rawbytes", Flags: keywords.FlagNoOpt, Setup: setupRawbytes},
		{ID: signature.KwReplace, Name: "replace", Flags: keywords.FlagQuotesMandatory, Setup: setupReplace},
		{ID: signature.KwWithin, Name: "within", Setup: setupWithin},
		{ID: signature.KwDistance, Name: "distance", Setup: setupDistance},
		{ID: signature.KwDepth, Name: "depth", Setup: setupDepth},
		{ID: signature.KwOffset, Name: "offset", Setup: setupOffset},
		{ID: signature.KwPCRE, Name: "pcre", Flags: keywords.FlagQuotesMandatory, Setup: setupPCRE},
		{ID: signature.KwFileData, Name: "file_data", Flags: keywords.FlagNoOpt | keywords.FlagSupportDir, Setup: setupFileData},
		{ID: signature.KwHTTPURI, Name: "http_uri", Flags: keywords.FlagNoOpt | keywords.FlagOptionalOpt, Setup: setupHTTPURI},
		{ID: signature.KwFlow, Name: "flow", Setup: setupFlow},
		{ID: signature.KwDsize, Name: "dsize", Setup: setupDsize},
		{ID: signature.KwStreamSize, Name: "stream_size", Setup: setupStreamSize},
		{ID: signature.KwThreshold, Name: "threshold", Setup: setupThreshold},
		{ID: signature.KwPktData, Name: "pkt_data", Flags: keywords.FlagNoOpt, Setup: setupPktData},
		{ID: signature.KwFilestore, Name: "filestore", Flags: keywords.FlagOptionalOpt, Setup: setupFilestore},
	}
}

func setupMsg(sig *signature.Signature, value string) error {
	sig.Msg = value
	return nil
}

func parseUint64Strict(value string) (uint64, error) {
	if strings.ContainsAny(value, " ,") {
		return 0, &strconv.NumError{Func: "ParseUint", Num: value, Err: strconv.ErrSyntax}
	}
	return strconv.ParseUint(value, 10, 64)
}

func setupSid(sig *signature.Signature, value string) error {
	sid, err := parseUint64Strict(value)
	if err != nil {
		return err
	}
	sig.SID = sid
	return nil
}

func setupGid(sig *signature.Signature, value string) error {
	gid, err := parseUint64Strict(value)
	if err != nil {
		return err
	}
	sig.GID = gid
	return nil
}

func setupRev(sig *signature.Signature, value string) error {
	rev, err := parseUint64Strict(value)
	if err != nil {
		return err
	}
	sig.Rev = rev
	return nil
}

func setupPriority(sig *signature.Signature, value string) error {
	prio, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	sig.Prio = prio
	return nil
}

func setupClasstype(sig *signature.Signature, value string) error {
	// The classification config lookup itself is an external
	// collaborator (spec.md §1); accepting any non-empty name is the
	// in-scope contract.
	if value == "" {
		return errEmptyValue("classtype")
	}
	return nil
}

func setupReference(sig *signature.Signature, value string) error {
	_, err := sig.AppendMatch(signature.ListMax, signature.KwReference, &referenceCtx{expr: value})
	return err
}

func setupRequires(sig *signature.Signature, value string) error {
	// Feature/version predicate evaluation is an external collaborator.
	// A leading '!' is treated as "never satisfied" purely so the
	// skip-path is exercisable without a real feature registry.
	if strings.HasPrefix(strings.TrimSpace(value), "!") {
		return ErrRequiresNotMet
	}
	return nil
}

func setupContent(sig *signature.Signature, value string) error {
	ctx := &contentCtx{pattern: value, negated: sig.Negated}
	listID, err := contentTargetList(sig)
	if err != nil {
		return err
	}
	sm, err := sig.AppendMatch(listID, signature.KwContent, ctx)
	if err != nil {
		return err
	}
	if ctx.negated {
		sm.Flags.Set(signature.SMFlagNegated)
	}
	return nil
}

// contentTargetList picks PMATCH for a plain content, or the current
// sticky buffer if one is active (spec.md §4.5's AppendMatch contract).
func contentTargetList(sig *signature.Signature) (signature.ListID, error) {
	if bufID, ok := sig.CurrentBufferID(); ok {
		return bufID, nil
	}
	return signature.ListPMatch, nil
}

func lastContent(sig *signature.Signature) *signature.SigMatch {
	return sig.GetLastMatch(func(t signature.KeywordID) bool { return t == signature.KwContent }, []signature.ListID{signature.ListPMatch}, nil)
}

func setupNocase(sig *signature.Signature, value string) error {
	sm := lastContent(sig)
	if sm == nil {
		return errNoPrecedingContent("nocase")
	}
	if c, ok := sm.Ctx.(*contentCtx); ok {
		c.nocase = true
	}
	return nil
}

func setupRawbytes(sig *signature.Signature, value string) error {
	sm := lastContent(sig)
	if sm == nil {
		return errNoPrecedingContent("rawbytes")
	}
	if sm.List() == signature.FileDataListID {
		return errIncompatible("rawbytes", "file_data")
	}
	sm.Flags.Set(signature.SMFlagRawBytes)
	return nil
}

func setupReplace(sig *signature.Signature, value string) error {
	sm := lastContent(sig)
	if sm == nil {
		return errNoPrecedingContent("replace")
	}
	if sm.Flags.Has(signature.SMFlagNegated) {
		return errIncompatible("replace", "negated content")
	}
	sm.Flags.Set(signature.SMFlagReplace)
	return nil
}

func setupWithin(sig *signature.Signature, value string) error {
	return setRelative(sig, "within", signature.SMFlagWithin)
}

func setupDistance(sig *signature.Signature, value string) error {
	return setRelative(sig, "distance", signature.SMFlagDistance)
}

// setRelative marks the preceding content/pcre's RELATIVE_NEXT bit, per
// spec.md §3's SigMatch description of chaining keywords.
func setRelative(sig *signature.Signature, name string, bit signature.SigMatchFlag) error {
	sm := sig.GetLastMatch(func(t signature.KeywordID) bool {
		return t == signature.KwContent || t == signature.KwPCRE
	}, []signature.ListID{signature.ListPMatch}, nil)
	if sm == nil {
		return errNoPrecedingContent(name)
	}
	sm.Flags.Set(bit)
	if prev := sm.Prev(); prev != nil {
		prev.Flags.Set(signature.SMFlagRelativeNext)
	}
	return nil
}

func setupDepth(sig *signature.Signature, value string) error {
	return markDepthOffset(sig)
}

func setupOffset(sig *signature.Signature, value string) error {
	return markDepthOffset(sig)
}

func markDepthOffset(sig *signature.Signature) error {
	sm := lastContent(sig)
	if sm == nil {
		return errNoPrecedingContent("depth/offset")
	}
	sm.Flags.Set(signature.SMFlagDepthOffset)
	return nil
}

func setupPCRE(sig *signature.Signature, value string) error {
	listID, err := contentTargetList(sig)
	if err != nil {
		return err
	}
	_, err = sig.AppendMatch(listID, signature.KwPCRE, &pcreCtx{pattern: value})
	return err
}

func setupFileData(sig *signature.Signature, value string) error {
	sig.SetCurrentBuffer(signature.FileDataListID, true)
	sig.Flags.Set(signature.FlagInitFileData)
	return sig.SetAlproto(sig.Alproto, nil)
}

func setupHTTPURI(sig *signature.Signature, value string) error {
	return sig.ContentModifierTransfer(signature.HTTPURIListID, "http", func(a, b string) (string, bool) {
		return "http", a == "http" || a == "http1" || b == "http" || b == "http1"
	})
}

func setupPktData(sig *signature.Signature, value string) error {
	sig.ClearCurrentBuffer()
	return nil
}

func setupFlow(sig *signature.Signature, value string) error {
	for _, part := range strings.Split(value, ",") {
		switch strings.TrimSpace(part) {
		case "to_client", "from_server":
			sig.Flags.Set(signature.FlagToClient)
		case "to_server", "from_client":
			sig.Flags.Set(signature.FlagToServer)
		}
	}
	sig.Flags.Set(signature.FlagInitFlow)
	_, err := sig.AppendMatch(signature.ListMatch, signature.KwFlow, &flowCtx{expr: value})
	return err
}

func setupDsize(sig *signature.Signature, value string) error {
	sig.Flags.Set(signature.FlagRequirePacket)
	_, err := sig.AppendMatch(signature.ListMatch, signature.KwDsize, &dsizeCtx{expr: value})
	return err
}

func setupStreamSize(sig *signature.Signature, value string) error {
	sig.Flags.Set(signature.FlagRequireStream)
	_, err := sig.AppendMatch(signature.ListMatch, signature.KwStreamSize, &streamSizeCtx{expr: value})
	return err
}

func setupThreshold(sig *signature.Signature, value string) error {
	_, err := sig.AppendMatch(signature.ListThreshold, signature.KwThreshold, &thresholdCtx{expr: value})
	return err
}

func setupFilestore(sig *signature.Signature, value string) error {
	sig.Flags.Set(signature.FlagFileStore)
	return nil
}

func errEmptyValue(name string) error {
	return &RuleParseError{Kind: KindSemantic, Msg: "keyword " + name + " requires a non-empty value"}
}

func errNoPrecedingContent(name string) error {
	return &RuleParseError{Kind: KindSemantic, Msg: name + " used without a preceding content match"}
}

func errIncompatible(name, other string) error {
	return &RuleParseError{Kind: KindSemantic, Msg: name + " is incompatible with " + other}
}
