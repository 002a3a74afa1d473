package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonish/sigparse/ruleparser"
	"github.com/jasonish/sigparse/validator"
)

func newTestEngine() *Engine {
	return New(ruleparser.DefaultTable(), validator.Options{})
}

func TestLoadRule_happyPath(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	err := e.LoadRule(`alert tcp any any -> any any (msg:"one"; sid:1; rev:1;)`, stats)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 1, stats.New)
	require.Len(t, e.Signatures(), 1)
	assert.EqualValues(t, 1, e.FindBySID(1).SID)
}

func TestLoadRule_duplicateRevisionWins(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	require.NoError(t, e.LoadRule(`alert tcp any any -> any any (msg:"v1"; sid:1; rev:1;)`, stats))
	require.NoError(t, e.LoadRule(`alert tcp any any -> any any (msg:"v2"; sid:1; rev:2;)`, stats))

	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 1, stats.Replaced)
	require.Len(t, e.Signatures(), 1)
	assert.Equal(t, "v2", e.FindBySID(1).Msg)
}

func TestLoadRule_duplicateLowerRevisionDropped(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	require.NoError(t, e.LoadRule(`alert tcp any any -> any any (msg:"v2"; sid:1; rev:2;)`, stats))
	require.NoError(t, e.LoadRule(`alert tcp any any -> any any (msg:"v1"; sid:1; rev:1;)`, stats))

	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 1, stats.DroppedOlder)
	require.Len(t, e.Signatures(), 1)
	assert.Equal(t, "v2", e.FindBySID(1).Msg)
}

func TestLoadRule_bidirectionalClonesTwoSignatures(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	err := e.LoadRule(`alert tcp 1.1.1.1 80 <> 2.2.2.2 81 (msg:"bidir"; sid:1; rev:1;)`, stats)
	require.NoError(t, err)

	sigs := e.Signatures()
	require.Len(t, sigs, 2)
	assert.Equal(t, 2, stats.New)
	for _, sig := range sigs {
		assert.Equal(t, "->", sig.Direction)
	}
}

func TestLoadRule_bidirectionalSkippedWhenEndpointsEquivalent(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	err := e.LoadRule(`alert tcp any any <> any any (msg:"symmetric"; sid:1; rev:1;)`, stats)
	require.NoError(t, err)

	require.Len(t, e.Signatures(), 1)
}

func TestLoadRule_disabledRuleDoesNotCountAsParsed(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	err := e.LoadRule(`#alert tcp any any -> any any (msg:"disabled"; sid:1; rev:1;)`, stats)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Parsed)
	assert.Empty(t, e.Signatures())
}

func TestLoadPaths_singleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.rules")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		`alert tcp any any -> any any (msg:"one"; sid:1; rev:1;)`,
		`alert tcp any any -> any any (msg:"two"; sid:2; rev:1;)`,
	}, "\n")), 0o644))

	e := newTestEngine()
	stats := e.LoadPaths([]string{path})
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 2, stats.Parsed)
	assert.Len(t, e.Signatures(), 2)
}

func TestLoadPaths_directoryOnlyReadsRulesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rules"),
		[]byte(`alert tcp any any -> any any (msg:"a"; sid:1; rev:1;)`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"),
		[]byte(`alert tcp any any -> any any (msg:"ignored"; sid:99; rev:1;)`), 0o644))

	e := newTestEngine()
	stats := e.LoadPaths([]string{dir})
	assert.Equal(t, 1, stats.Files)
	require.Len(t, e.Signatures(), 1)
	assert.EqualValues(t, 1, e.Signatures()[0].SID)
}

func TestLoadPaths_glob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rules"),
		[]byte(`alert tcp any any -> any any (msg:"a"; sid:1; rev:1;)`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.rules"),
		[]byte(`alert tcp any any -> any any (msg:"b"; sid:2; rev:1;)`), 0o644))

	e := newTestEngine()
	stats := e.LoadPaths([]string{filepath.Join(dir, "*.rules")})
	assert.Equal(t, 2, stats.Files)
	assert.Len(t, e.Signatures(), 2)
}

func TestSignatures_sortedByGidSid(t *testing.T) {
	e := newTestEngine()
	stats := &LoadStats{}
	require.NoError(t, e.LoadRule(`alert tcp any any -> any any (msg:"b"; sid:5; rev:1;)`, stats))
	require.NoError(t, e.LoadRule(`alert tcp any any -> any any (msg:"a"; sid:2; rev:1;)`, stats))

	sigs := e.Signatures()
	require.Len(t, sigs, 2)
	assert.EqualValues(t, 2, sigs[0].SID)
	assert.EqualValues(t, 5, sigs[1].SID)
}
