package ruleparser

import (
	"strings"

	"github.com/jasonish/sigparse/addrport"
	"github.com/jasonish/sigparse/signature"
)

// networkProtos and appLayerProtos stand in for the
// AppLayerProtoByName/network-proto lookup named as an external
// collaborator in spec.md §6. Only a small, fixed set is recognized;
// callers that need the full protocol registry are expected to extend
// this table the same way the keyword registry is extended.
var networkProtos = map[string]uint32{
	"tcp":  1 << 0,
	"udp":  1 << 1,
	"icmp": 1 << 2,
	"ip":   1 << 3,
	"ip4":  1 << 3,
	"ip6":  1 << 4,
}

var appLayerProtos = map[string]bool{
	"http": true, "http1": true, "http2": true, "tls": true, "ssh": true,
	"dns": true, "ftp": true, "smtp": true, "dcerpc": true, "smb": true,
}

// appLayerFamily implements the "common" relation spec.md §4.5 refers to
// (e.g. http <-> http1 -> http).
func appLayerFamily(a, b string) (string, bool) {
	families := [][]string{{"http", "http1"}}
	for _, fam := range families {
		inFam := func(p string) bool {
			for _, f := range fam {
				if f == p {
					return true
				}
			}
			return false
		}
		if inFam(a) && inFam(b) {
			return fam[0], true
		}
	}
	return "", false
}

func resolveProto(name string) (networkMask uint32, alproto string, ok bool) {
	if mask, ok := networkProtos[name]; ok {
		return mask, "", true
	}
	if appLayerProtos[name] {
		return 0, name, true
	}
	return 0, "", false
}

var pktHooks = map[string]signature.Phase{
	"flow_start": signature.PhaseFlowStart,
	"pre_flow":   signature.PhasePreFlow,
	"pre_stream": signature.PhasePreStream,
	"all":        signature.PhaseAll,
}

var builtinAppHooks = map[string]bool{
	"request_started": true, "request_complete": true,
	"response_started": true, "response_complete": true,
}

func isResponseHook(name string) bool {
	return strings.HasPrefix(name, "response_")
}

// parseActionScope parses "action[:scope]" per spec.md §4.3.
func parseActionScope(raw, field string) (signature.Action, signature.ActionScope, error) {
	action, scopeStr := field, ""
	if idx := strings.IndexByte(field, ':'); idx >= 0 {
		action, scopeStr = field[:idx], field[idx+1:]
	}

	var flags signature.Action
	var allowedScopes map[string]signature.ActionScope
	scopeRequired := false
	scopeForbidden := false

	switch action {
	case "alert":
		flags = signature.ActionAlert
		scopeForbidden = false
		allowedScopes = map[string]signature.ActionScope{"packet": signature.ScopePacket, "flow": signature.ScopeFlow}
	case "drop":
		flags = signature.ActionDrop | signature.ActionAlert
		allowedScopes = map[string]signature.ActionScope{"packet": signature.ScopePacket, "flow": signature.ScopeFlow}
	case "pass":
		flags = signature.ActionPass
		allowedScopes = map[string]signature.ActionScope{"packet": signature.ScopePacket, "flow": signature.ScopeFlow}
	case "reject", "rejectsrc":
		flags = signature.ActionReject | signature.ActionDrop | signature.ActionAlert
		scopeForbidden = true
	case "rejectdst":
		flags = signature.ActionRejectDst | signature.ActionDrop | signature.ActionAlert
		scopeForbidden = true
	case "rejectboth":
		flags = signature.ActionRejectBoth | signature.ActionDrop | signature.ActionAlert
		scopeForbidden = true
	case "config":
		flags = signature.ActionConfig
		scopeRequired = false
		allowedScopes = map[string]signature.ActionScope{"packet": signature.ScopePacket}
	case "accept":
		flags = signature.ActionAccept
		scopeRequired = true
		allowedScopes = map[string]signature.ActionScope{
			"packet": signature.ScopePacket, "flow": signature.ScopeFlow,
			"tx": signature.ScopeTx, "hook": signature.ScopeHook,
		}
	default:
		return 0, signature.ScopeNotSet, newError(KindUnknownKeyword, raw, "unknown action %q", action)
	}

	if scopeStr == "" {
		if scopeForbidden || !scopeRequired {
			return flags, signature.ScopeNotSet, nil
		}
		return flags, signature.ScopeNotSet, newError(KindSemantic, raw, "action %q requires an explicit scope", action)
	}
	if scopeForbidden {
		return 0, 0, newError(KindSemantic, raw, "action %q does not accept a scope", action)
	}
	scope, ok := allowedScopes[scopeStr]
	if !ok {
		return 0, 0, newError(KindSemantic, raw, "action %q does not support scope %q", action, scopeStr)
	}
	return flags, scope, nil
}

// parseProtoHook parses "<proto>[:<hook>]" per spec.md §4.3.
func parseProtoHook(raw, field string) (networkMask uint32, alproto string, hook signature.Hook, err error) {
	if len(field) > 32 {
		return 0, "", signature.Hook{}, newError(KindSemantic, raw, "protocol field %q exceeds 32 characters", field)
	}

	proto, hookName := field, ""
	if idx := strings.IndexByte(field, ':'); idx >= 0 {
		proto, hookName = field[:idx], field[idx+1:]
	}

	networkMask, alproto, ok := resolveProto(proto)
	if !ok {
		return 0, "", signature.Hook{}, newError(KindSemantic, raw, "unknown protocol %q", proto)
	}

	if hookName == "" {
		return networkMask, alproto, signature.NotSetHook(), nil
	}

	if alproto == "" {
		phase, ok := pktHooks[hookName]
		if !ok {
			return 0, "", signature.Hook{}, newError(KindCapability, raw, "unknown packet hook %q", hookName)
		}
		return networkMask, alproto, signature.PktHook(phase), nil
	}

	progress := hookName
	if !builtinAppHooks[hookName] {
		// A protocol-defined named progress slot; accepted as-is. The
		// real AppLayerProgressByName collaborator (spec.md §6) would
		// validate it against the protocol's state machine.
	}
	listID := signature.ListID(int(signature.ListMax) + 1)
	h := signature.AppHook(alproto, progress, listID)
	return networkMask, alproto, h, nil
}

// directionFromHook derives TOSERVER/TOCLIENT from an app-level hook
// name, per spec.md §4.3 ("request->toserver, response->toclient").
func directionFromHook(progress string) signature.Flags {
	if isResponseHook(progress) {
		return signature.FlagToClient
	}
	return signature.FlagToServer
}

func parseDirection(raw, tok string) (string, error) {
	switch tok {
	case "->", "<>", "=>":
		return tok, nil
	default:
		return "", newError(KindBadDirection, raw, "invalid direction %q", tok)
	}
}

// ParseHeader parses the seven header fields into sig, delegating address
// and port parsing to the addrport package (spec.md §4.3 — C3).
func ParseHeader(raw string, h *HeaderFields, sig *signature.Signature) error {
	action, scope, err := parseActionScope(raw, h.Action)
	if err != nil {
		return err
	}
	sig.Action = action
	sig.ActionScope = scope

	networkMask, alproto, hook, err := parseProtoHook(raw, h.Proto)
	if err != nil {
		return err
	}
	sig.ProtoMask = networkMask
	if alproto != "" {
		sig.Alproto = alproto
		sig.Flags.Set(signature.FlagAppLayer)
	}
	sig.Hook = hook

	isFirewall := hook.IsSet()
	if isFirewall {
		sig.Flags.Set(signature.FlagFirewall)
		if scope == signature.ScopeNotSet {
			return newError(KindSemantic, raw, "firewall rules require an explicit action scope")
		}
		if sig.Action&signature.ActionPass != 0 {
			return newError(KindSemantic, raw, "action \"pass\" is not allowed in firewall rules")
		}
	} else if sig.Action&signature.ActionAccept != 0 {
		return newError(KindSemantic, raw, "action \"accept\" is only valid in firewall rules")
	}
	if hook.Kind == signature.HookApp {
		sig.Flags.Set(directionFromHook(hook.Progress))
	}

	src, err := addrport.ParseAddress(h.Src)
	if err != nil {
		return newError(KindSemantic, raw, "%v", err)
	}
	sig.Src = toEndpoint(src)

	sp, err := addrport.ParsePort(h.SP)
	if err != nil {
		return newError(KindSemantic, raw, "%v", err)
	}
	sig.SP = toPortRange(sp)

	direction, err := parseDirection(raw, h.Direction)
	if err != nil {
		return err
	}
	sig.Direction = direction
	switch direction {
	case "<>":
		sig.Flags.Set(signature.FlagInitBidirec)
	case "=>":
		if isFirewall {
			return newError(KindSemantic, raw, "transactional direction \"=>\" is not allowed in firewall rules")
		}
		sig.Flags.Set(signature.FlagTxBothDir)
	}

	dst, err := addrport.ParseAddress(h.Dst)
	if err != nil {
		return newError(KindSemantic, raw, "%v", err)
	}
	sig.Dst = toEndpoint(dst)

	dp, err := addrport.ParsePort(h.DP)
	if err != nil {
		return newError(KindSemantic, raw, "%v", err)
	}
	sig.DP = toPortRange(dp)

	return nil
}

func toEndpoint(a *addrport.AddressList) signature.Endpoint {
	return signature.Endpoint{Raw: a.Raw, Any: a.Any, Negated: a.Negated, Nets: a.Nets, Vars: a.Vars}
}

func toPortRange(p *addrport.PortRange) signature.PortRange {
	return signature.PortRange{Raw: p.Raw, Any: p.Any, Negated: p.Negated, Ranges: p.Ranges, Vars: p.Vars}
}
