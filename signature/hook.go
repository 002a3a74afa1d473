package signature

// Phase is a pkt-level hook attachment point.
type Phase int

const (
	PhaseFlowStart Phase = iota
	PhasePreFlow
	PhasePreStream
	PhaseAll
)

// HookKind discriminates the Hook tagged union.
type HookKind int

const (
	HookNotSet HookKind = iota
	HookPkt
	HookApp
)

// Hook is the tagged union {NOT_SET | PKT{phase} | APP{alproto, progress}}
// described in spec.md §3 and §9 ("Hooks as tagged union"). Phase and
// Progress live in disjoint fields so callers switch on Kind rather than
// risk reading a field that doesn't apply.
type Hook struct {
	Kind HookKind

	// Valid when Kind == HookPkt.
	Phase Phase

	// Valid when Kind == HookApp.
	Alproto  string
	Progress string
	// ListID is the "<proto>:<hook>:generic" list registered at engine
	// init; resolved by the header parser (spec.md §4.3).
	ListID ListID
}

func NotSetHook() Hook { return Hook{Kind: HookNotSet} }

func PktHook(phase Phase) Hook { return Hook{Kind: HookPkt, Phase: phase} }

func AppHook(alproto, progress string, listID ListID) Hook {
	return Hook{Kind: HookApp, Alproto: alproto, Progress: progress, ListID: listID}
}

func (h Hook) IsSet() bool { return h.Kind != HookNotSet }
