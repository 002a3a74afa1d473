package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonish/sigparse/signature"
)

func noopSetup(sig *signature.Signature, value string) error { return nil }

func TestTable_RegisterAndLookupByNameAndAlias(t *testing.T) {
	tbl := NewTable()
	tbl.Register(&Entry{ID: signature.KwContent, Name: "content", Alias: "c", Setup: noopSetup})

	e, ok := tbl.Lookup("content")
	require.True(t, ok)
	assert.Equal(t, "content", e.Name)

	e, ok = tbl.Lookup("C")
	require.True(t, ok, "lookup should be case-insensitive")
	assert.Equal(t, "content", e.Name)

	_, ok = tbl.Lookup("nope")
	assert.False(t, ok)
}

func TestTable_Index(t *testing.T) {
	tbl := NewTable()
	a := &Entry{Name: "a", Setup: noopSetup}
	b := &Entry{Name: "b", Setup: noopSetup}
	tbl.Register(a)
	tbl.Register(b)

	assert.Equal(t, 0, tbl.Index(a))
	assert.Equal(t, 1, tbl.Index(b))
}

func TestTable_ApplyStrict_all(t *testing.T) {
	tbl := NewTable()
	a := &Entry{Name: "a", Setup: noopSetup}
	tbl.Register(a)
	tbl.ApplyStrict("all")
	assert.True(t, a.Flags.Has(FlagStrictParsing))
}

func TestTable_ApplyStrict_namedList(t *testing.T) {
	tbl := NewTable()
	a := &Entry{Name: "a", Setup: noopSetup}
	b := &Entry{Name: "b", Setup: noopSetup}
	tbl.Register(a)
	tbl.Register(b)
	tbl.ApplyStrict("a, nonexistent")
	assert.True(t, a.Flags.Has(FlagStrictParsing))
	assert.False(t, b.Flags.Has(FlagStrictParsing))
}

func TestTable_SilentError_onlyFirstOccurrenceReportsTrue(t *testing.T) {
	tbl := NewTable()
	e := &Entry{Name: "a", Setup: noopSetup}
	tbl.Register(e)

	assert.True(t, tbl.SilentError(e))
	assert.False(t, tbl.SilentError(e))
}

func TestFlag_Has(t *testing.T) {
	var f Flag = FlagQuotesMandatory | FlagHandleNegation
	assert.True(t, f.Has(FlagQuotesMandatory))
	assert.True(t, f.Has(FlagHandleNegation))
	assert.False(t, f.Has(FlagNoOpt))
}
