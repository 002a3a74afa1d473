package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendMatch_legacyList(t *testing.T) {
	s := New()
	sm, err := s.AppendMatch(ListPMatch, KwContent, "a")
	require.NoError(t, err)
	assert.Equal(t, ListPMatch, sm.List())
	assert.Same(t, sm, s.LegacyHead(ListPMatch))
}

func TestAppendMatch_stickyBuffer(t *testing.T) {
	s := New()
	id, ok := s.CurrentBufferID()
	assert.False(t, ok)

	buf := s.SetCurrentBuffer(ListID(int(ListMax)+1), false)
	id, ok = s.CurrentBufferID()
	require.True(t, ok)
	assert.Equal(t, buf.ID, id)

	sm, err := s.AppendMatch(id, KwContent, "uri")
	require.NoError(t, err)
	assert.Equal(t, id, sm.List())
	assert.False(t, buf.Empty())
}

func TestAppendMatch_bufferCapExceeded(t *testing.T) {
	s := New()
	for i := 0; i < MaxBuffers; i++ {
		s.SetCurrentBuffer(ListID(int(ListMax)+1+i), false)
	}
	_, err := s.AppendMatch(ListID(int(ListMax)+1+MaxBuffers), KwContent, "x")
	assert.Error(t, err)
}

func TestSetAlproto_conflict(t *testing.T) {
	s := New()
	require.NoError(t, s.SetAlproto("http", nil))
	assert.Error(t, s.SetAlproto("tls", nil))
}

func TestSetAlproto_familyResolvesCommon(t *testing.T) {
	s := New()
	family := func(a, b string) (string, bool) {
		if (a == "http" && b == "http1") || (a == "http1" && b == "http") {
			return "http", true
		}
		return "", false
	}
	require.NoError(t, s.SetAlproto("http", family))
	require.NoError(t, s.SetAlproto("http1", family))
	assert.Equal(t, "http", s.Alproto)
}

func TestSetAlprotos_intersection(t *testing.T) {
	s := New()
	require.NoError(t, s.SetAlprotos([]string{"http", "tls", "ftp"}, nil))
	require.NoError(t, s.SetAlprotos([]string{"tls", "ftp"}, nil))
	assert.ElementsMatch(t, []string{"tls", "ftp"}, s.currentAlprotoSet())
}

func TestSetAlprotos_intersectionToSingleton(t *testing.T) {
	s := New()
	require.NoError(t, s.SetAlprotos([]string{"http", "tls"}, nil))
	require.NoError(t, s.SetAlprotos([]string{"tls"}, nil))
	assert.Equal(t, "tls", s.Alproto)
}

func TestSetAlprotos_emptyIntersectionIsError(t *testing.T) {
	s := New()
	require.NoError(t, s.SetAlprotos([]string{"http", "tls"}, nil))
	assert.Error(t, s.SetAlprotos([]string{"ftp"}, nil))
}

func TestContentModifierTransfer_movesLatestContent(t *testing.T) {
	s := New()
	_, err := s.AppendMatch(ListPMatch, KwContent, "a")
	require.NoError(t, err)
	sm2, err := s.AppendMatch(ListPMatch, KwContent, "b")
	require.NoError(t, err)

	target := ListID(int(ListMax) + 5)
	require.NoError(t, s.ContentModifierTransfer(target, "http", nil))

	assert.Nil(t, s.LegacyHead(ListPMatch).next, "one content should remain, with no successor")
	buf := s.Buffer(target)
	require.NotNil(t, buf)
	assert.Same(t, sm2, buf.Head())
	assert.Equal(t, "http", s.Alproto)
}

func TestContentModifierTransfer_requiresPrecedingContent(t *testing.T) {
	s := New()
	err := s.ContentModifierTransfer(ListID(int(ListMax)+5), "http", nil)
	assert.Error(t, err)
}

func TestContentModifierTransfer_rejectsRawbytes(t *testing.T) {
	s := New()
	sm, err := s.AppendMatch(ListPMatch, KwContent, "a")
	require.NoError(t, err)
	sm.Flags.Set(SMFlagRawBytes)
	assert.Error(t, s.ContentModifierTransfer(ListID(int(ListMax)+5), "http", nil))
}

func TestGetLastMatch_highestIdxWins(t *testing.T) {
	s := New()
	_, _ = s.AppendMatch(ListPMatch, KwContent, "a")
	last, _ := s.AppendMatch(ListPMatch, KwContent, "b")

	got := s.GetLastMatch(func(t KeywordID) bool { return t == KwContent }, []ListID{ListPMatch}, nil)
	assert.Same(t, last, got)
}

func TestGetLastMatch_searchesBuffersWhenNoScope(t *testing.T) {
	s := New()
	buf := s.SetCurrentBuffer(ListID(int(ListMax)+1), false)
	sm, _ := s.AppendMatch(buf.ID, KwContent, "uri")

	got := s.GetLastMatch(func(t KeywordID) bool { return t == KwContent }, nil, nil)
	assert.Same(t, sm, got)
}

func TestHasAnyMatches(t *testing.T) {
	s := New()
	assert.False(t, s.HasAnyMatches())
	_, _ = s.AppendMatch(ListPMatch, KwContent, "a")
	assert.True(t, s.HasAnyMatches())
}

type freeSpy struct{ freed bool }

func (f *freeSpy) Free() { f.freed = true }

func TestSignatureFree_cascadesToMatchCtx(t *testing.T) {
	s := New()
	spy := &freeSpy{}
	_, err := s.AppendMatch(ListPMatch, KwContent, spy)
	require.NoError(t, err)
	s.Free()
	assert.True(t, spy.freed)
	assert.Nil(t, s.LegacyHead(ListPMatch))
}
