package addrport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress_any(t *testing.T) {
	a, err := ParseAddress("any")
	require.NoError(t, err)
	assert.True(t, a.Any)

	_, err = ParseAddress("!any")
	assert.Error(t, err)
}

func TestParseAddress_single(t *testing.T) {
	a, err := ParseAddress("1.1.1.1")
	require.NoError(t, err)
	require.Len(t, a.Nets, 1)
	assert.Equal(t, "1.1.1.1/32", a.Nets[0].String())
}

func TestParseAddress_cidr(t *testing.T) {
	a, err := ParseAddress("10.0.0.0/8")
	require.NoError(t, err)
	require.Len(t, a.Nets, 1)
	assert.Equal(t, "10.0.0.0/8", a.Nets[0].String())
}

func TestParseAddress_negated(t *testing.T) {
	a, err := ParseAddress("!1.1.1.1")
	require.NoError(t, err)
	assert.True(t, a.Negated)
}

func TestParseAddress_variable(t *testing.T) {
	a, err := ParseAddress("$HOME_NET")
	require.NoError(t, err)
	assert.Equal(t, []string{"$HOME_NET"}, a.Vars)
}

func TestParseAddress_bracketedList(t *testing.T) {
	a, err := ParseAddress("[1.1.1.1/32,2.2.2.2/32]")
	require.NoError(t, err)
	assert.Len(t, a.Nets, 2)
}

func TestParseAddress_listWithSpacesRejected(t *testing.T) {
	_, err := ParseAddress("[1.1.1.1/32, 2.2.2.2/32]")
	assert.Error(t, err)
}

func TestParseAddress_nestedList(t *testing.T) {
	a, err := ParseAddress("[1.1.1.1/32,[2.2.2.2/32,3.3.3.3/32]]")
	require.NoError(t, err)
	assert.Len(t, a.Nets, 3)
}

func TestParseAddress_unterminatedList(t *testing.T) {
	_, err := ParseAddress("[1.1.1.1/32")
	assert.Error(t, err)
}

func TestAddressList_Equivalent(t *testing.T) {
	a, _ := ParseAddress("[1.1.1.1/32,2.2.2.2/32]")
	b, _ := ParseAddress("[2.2.2.2/32,1.1.1.1/32]")
	assert.True(t, a.Equivalent(b), "order should not matter")

	c, _ := ParseAddress("[1.1.1.1/32,3.3.3.3/32]")
	assert.False(t, a.Equivalent(c))

	anyA, _ := ParseAddress("any")
	anyB, _ := ParseAddress("any")
	assert.True(t, anyA.Equivalent(anyB))
	assert.False(t, anyA.Equivalent(a))
}
