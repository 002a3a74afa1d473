// Copyright (c) 2016 Jason Ish
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met. See the LICENSE carried by the rest of this module.

package signature

// Action is the bitflag set produced by parsing a rule's action keyword.
type Action uint16

const (
	ActionAlert Action = 1 << iota
	ActionDrop
	ActionPass
	ActionReject
	ActionRejectDst
	ActionRejectBoth
	ActionConfig
	ActionAccept
)

// ActionScope is the optional action:scope qualifier.
type ActionScope int

const (
	ScopeNotSet ActionScope = iota
	ScopePacket
	ScopeFlow
	ScopeTx
	ScopeHook
)

func (s ActionScope) String() string {
	switch s {
	case ScopePacket:
		return "packet"
	case ScopeFlow:
		return "flow"
	case ScopeTx:
		return "tx"
	case ScopeHook:
		return "hook"
	default:
		return "not_set"
	}
}

// Flags are the per-signature direction/requirement bits from spec.md §3.
type Flags uint32

const (
	FlagToServer Flags = 1 << iota
	FlagToClient
	FlagTxBothDir
	FlagFirewall
	FlagRequirePacket
	FlagRequireStream
	FlagAppLayer
	FlagFileStore
	FlagInitBidirec
	FlagInitForceToServer
	FlagInitForceToClient
	FlagInitPacket
	FlagInitFlow
	FlagInitFileData
	FlagIPOnly
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
func (f *Flags) Set(bit Flags)     { *f |= bit }
func (f *Flags) Clear(bit Flags)   { *f &^= bit }

// Type is the final classification a signature receives during
// validation (spec.md §4.6 step 7).
type Type int

const (
	TypeNotSet Type = iota
	TypeIPOnly
	TypePacket
	TypeAppTx
)

// Table is the detection table a validated signature is slotted into
// (spec.md §4.6 step 7).
type Table int

const (
	TableNotSet Table = iota
	TablePacketFilter
	TablePacketPreStream
	TablePacketPreFlow
	TableAppFilter
	TablePacketTD
	TableAppTD
)
