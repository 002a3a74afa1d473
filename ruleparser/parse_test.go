// The MIT License (MIT)
// Copyright (c) 2016 Jason Ish
//
// Permission is hereby granted, free of charge, to any person
// obtaining a copy of this software and associated documentation
// files (the "Software"), to deal in the Software without
// restriction, including without limitation the rights to use, copy,
// modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS
// BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN
// ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ruleparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonish/sigparse/signature"
)

func mustParse(t *testing.T, raw string) *signature.Signature {
	t.Helper()
	res, err := Parse(raw, DefaultTable())
	require.NoError(t, err, raw)
	require.Equal(t, OutcomeParsed, res.Outcome, raw)
	return res.Signature
}

var validRuleTests = []struct {
	input string
	sid   uint64
	rev   uint64
	msg   string
}{
	{
		// From ET Open, Suricata 3.1.
		`alert tcp $EXTERNAL_NET $HTTP_PORTS -> $HOME_NET any (msg:"ET ACTIVEX Possible NOS Microsystems Adobe Reader/Acrobat getPlus Get_atlcomHelper ActiveX Control Multiple Stack Overflows Remote Code Execution Attempt"; flow:established,to_client; content:"E2883E8F-472F-4fb0-9522-AC9BF37916A7"; nocase; content:"offer-"; nocase; pcre:"/<OBJECT\s+[^>]*classid\s*=\s*[\x22\x27]?\s*clsid\s*\x3a\s*\x7B?\s*E2883E8F-472F-4fb0-9522-AC9BF37916A7.+offer-(ineligible|preinstalled|declined|accepted)/si"; reference:url,www.securityfocus.com/bid/37759; reference:cve,2009-3958; classtype:attempted-user; sid:2010665; rev:7;)`,
		2010665, 7,
		`ET ACTIVEX Possible NOS Microsystems Adobe Reader/Acrobat getPlus Get_atlcomHelper ActiveX Control Multiple Stack Overflows Remote Code Execution Attempt`,
	},
	{
		// From ET Open, Suricata 3.1 (ciarmy.rules).
		`alert ip [1.34.6.220,1.34.12.196,1.34.12.225] any -> $HOME_NET any (msg:"ET CINS Active Threat Intelligence Poor Reputation IP group 1"; reference:url,www.cinsscore.com; threshold: type limit, track by_src, seconds 3600, count 1; classtype:misc-attack; sid:2403300; rev:3064;)`,
		2403300, 3064,
		"ET CINS Active Threat Intelligence Poor Reputation IP group 1",
	},
}

func TestValidRules(t *testing.T) {
	for _, test := range validRuleTests {
		sig := mustParse(t, test.input)
		assert.Equal(t, test.sid, sig.SID, test.input)
		assert.Equal(t, test.rev, sig.Rev, test.input)
		assert.Equal(t, test.msg, sig.Msg, test.input)
	}
}

var incompleteTests = []struct {
	input string
	err   bool
}{
	{"alert", true},
	{"alert tcp", true},
	{"alert tcp any", true},
	{"alert tcp any any", true},
	{"alert tcp any any ->", true},
	{"alert tcp any any -> any", true},
	{"alert tcp any any -> any any", true},
	{"alert tcp any any -> any any (", true},
	{`alert tcp any any -> any any (msg`, true},
	{`alert tcp any any -> any any (msg:`, true},
	{`alert tcp any any -> any any (msg:"some message`, true},
	{`alert tcp any any -> any any (msg:"some message"`, true},
	{`alert tcp any any -> any any (msg:"some message";`, true},
	{`alert tcp any any -> any any (msg:"some message"; sid`, true},
	{`alert tcp any any -> any any (msg:"some message"; sid:`, true},
	{`alert tcp any any -> any any (msg:"some message"; sid:1`, true},
	{`alert tcp any any -> any any (msg:"some message"; sid:1;)`, false},
}

func TestIncompleteRules(t *testing.T) {
	for _, test := range incompleteTests {
		_, err := Parse(test.input, DefaultTable())
		if test.err {
			assert.NotNil(t, err, test.input)
		} else {
			assert.Nil(t, err, test.input)
		}
	}
}

var invalidSidTests = []string{
	`alert tcp any any -> any any (msg:"msg"; sid:-1;)`,
	`alert tcp any any -> any any (msg:"msg"; sid:a;)`,
	`alert tcp any any -> any any (msg:"msg"; sid:18446744073709551616;)`,
}

func TestInvalidSids(t *testing.T) {
	for _, test := range invalidSidTests {
		_, err := Parse(test, DefaultTable())
		assert.NotNil(t, err, "error expected for rule %s", test)
	}
}

func TestParseRuleWithAddressList(t *testing.T) {
	buf := `alert tcp [1.1.1.1/32,2.2.2.2/32] any -> any any (msg:"Message"; sid:1; rev:1;)`
	sig := mustParse(t, buf)
	assert.Equal(t, "[1.1.1.1/32,2.2.2.2/32]", sig.Src.Raw)

	// Like Snort/Suricata, an address list with embedded spaces does
	// not parse.
	buf = `alert tcp [1.1.1.1/32, 2.2.2.2/32] any -> any any (msg:"Message"; sid:1; rev:1;)`
	_, err := Parse(buf, DefaultTable())
	assert.NotNil(t, err)
}

func TestParseMultilineRule(t *testing.T) {
	buf := `alert tcp any any -> any any ( \
msg:"A multiline rule"; sid:1;)

alert \
	tcp any any -> any any \
( \
	msg:"A rule split over many lines"; \
sid:2; rev:3; \
)
`
	sigs, errs := ParseReader(strings.NewReader(buf), DefaultTable())
	assert.Empty(t, errs)
	assert.Equal(t, 2, len(sigs))
}

func TestParseEnabledAndDisabled(t *testing.T) {
	buf := `alert ip [1.34.6.220] any -> $HOME_NET any (msg:"ET CINS"; reference:url,www.cinsscore.com; classtype:misc-attack; sid:2403300; rev:3064;)`

	res, err := Parse(buf, DefaultTable())
	assert.Nil(t, err)
	assert.True(t, res.Enabled)

	res, err = Parse("#"+buf, DefaultTable())
	assert.Nil(t, err)
	assert.False(t, res.Enabled)
}

func TestRuleReader_CommentsAndBlanks(t *testing.T) {
	buf := `# Some comments

# and some blank lines.`
	reader := NewRuleReader(strings.NewReader(buf), DefaultTable())
	_, err := reader.Next()
	assert.NotNil(t, err)
}

func TestRuleReader_Multiline(t *testing.T) {
	buf := `alert tcp $EXTERNAL_NET $HTTP_PORTS \
-> $HOME_NET any (msg:"ET \
ACTIVEX Possible NOS Microsystems Adobe Reader/Acrobat getPlus Get_atlcomHelper ActiveX Control Multiple Stack Overflows Remote Code Execution Attempt"; flow:established,to_client; content:"E2883E8F-472F-4fb0-9522-AC9BF37916A7"; nocase; content:"offer-"; nocase; classtype:attempted-user; sid:2010665; rev:7;)`
	reader := NewRuleReader(strings.NewReader(buf), DefaultTable())
	res, err := reader.Next()
	assert.Nil(t, err)
	assert.Equal(t, "ET ACTIVEX Possible NOS Microsystems Adobe Reader/Acrobat getPlus Get_atlcomHelper ActiveX Control Multiple Stack Overflows Remote Code Execution Attempt", res.Signature.Msg)
}

func TestParse_contentAndModifiers(t *testing.T) {
	sig := mustParse(t, `alert tcp any any -> any any (msg:"content"; content:"evil"; nocase; within:10; sid:4;)`)
	sm := sig.LegacyHead(signature.ListPMatch)
	require.NotNil(t, sm)
	assert.Equal(t, signature.KwContent, sm.Type)
	assert.True(t, sm.Flags.Has(signature.SMFlagWithin))
}

func TestParse_contentModifierTransferToStickyBuffer(t *testing.T) {
	sig := mustParse(t, `alert http any any -> any any (msg:"uri"; content:"/admin"; http_uri; sid:5;)`)
	assert.Nil(t, sig.LegacyHead(signature.ListPMatch))
	assert.True(t, sig.BufferCount() >= 1)
}

func TestParse_rawbytesIncompatibleWithFileData(t *testing.T) {
	_, err := Parse(`alert http any any -> any any (msg:"bad"; file_data; content:"x"; rawbytes; sid:6;)`, DefaultTable())
	require.Error(t, err)
}

func TestParse_firewallRuleRequiresScope(t *testing.T) {
	sig := mustParse(t, `alert:packet tcp:pre_flow any any -> any any (msg:"fw"; sid:7;)`)
	assert.True(t, sig.Flags.Has(signature.FlagFirewall))

	_, err := Parse(`alert tcp:pre_flow any any -> any any (msg:"fw no scope"; sid:8;)`, DefaultTable())
	require.Error(t, err)
}

func TestParse_passForbiddenInFirewallRule(t *testing.T) {
	_, err := Parse(`pass:packet tcp:pre_flow any any -> any any (msg:"fw pass"; sid:9;)`, DefaultTable())
	require.Error(t, err)
}

func TestParse_acceptOnlyValidInFirewallRule(t *testing.T) {
	_, err := Parse(`accept:packet tcp any any -> any any (msg:"accept no hook"; sid:10;)`, DefaultTable())
	require.Error(t, err)
}

func TestParse_transactionalDirectionForbiddenInFirewallRule(t *testing.T) {
	_, err := Parse(`alert:packet tcp:pre_flow any any => any any (msg:"fw tx"; sid:11;)`, DefaultTable())
	require.Error(t, err)
}

func TestParse_dsizeRequiresPacketInspection(t *testing.T) {
	sig := mustParse(t, `alert tcp any any -> any any (msg:"dsize"; dsize:>100; sid:13;)`)
	assert.True(t, sig.Flags.Has(signature.FlagRequirePacket))
}

func TestParseReader_collectsEnabledSignatures(t *testing.T) {
	rules := strings.Join([]string{
		`alert tcp any any -> any any (msg:"one"; sid:16;)`,
		`#alert tcp any any -> any any (msg:"two"; sid:17;)`,
		`alert tcp any any -> any any (msg:"three"; sid:18;)`,
	}, "\n")
	sigs, errs := ParseReader(strings.NewReader(rules), DefaultTable())
	require.Empty(t, errs)
	require.Len(t, sigs, 2)
	assert.EqualValues(t, 16, sigs[0].SID)
	assert.EqualValues(t, 18, sigs[1].SID)
}
