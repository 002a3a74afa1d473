// Package addrport implements the two external collaborators spec.md §6
// names but leaves out of scope beyond their contracts: ParseAddress and
// ParsePort. spec.md explicitly treats the full address/CIDR list parser
// and port-range parser as external, but the signature builder cannot be
// exercised end-to-end without something real behind those contracts, so
// this is a modest, real implementation grounded on the list syntax the
// teacher's own lexer already recognizes (bracketed, comma-separated,
// no embedded whitespace — see ruleparser.TestParseRuleWithList in the
// teacher).
package addrport

import (
	"fmt"
	"net"
	"strings"
)

// AddressList is the result of parsing a rule endpoint's address field.
type AddressList struct {
	Raw     string
	Any     bool
	Negated bool
	Nets    []net.IPNet
	// Vars carries any $VARIABLE tokens found in the list; this package
	// does not expand address-variable-file configuration, matching
	// spec.md's "opaque to this spec" framing for endpoint handles.
	Vars []string
}

// ParseAddress parses a single address field: "any", a bare address or
// CIDR, a "$VARIABLE", or a bracketed comma list of any of those. A
// leading "!" negates the whole field; "!any" is always rejected, per
// spec.md end-to-end scenario 7.
func ParseAddress(field string) (*AddressList, error) {
	raw := field
	negated := false
	if strings.HasPrefix(field, "!") {
		negated = true
		field = field[1:]
	}

	if field == "any" {
		if negated {
			return nil, fmt.Errorf("addrport: cannot negate \"any\"")
		}
		return &AddressList{Raw: raw, Any: true}, nil
	}

	items, err := splitList(field)
	if err != nil {
		return nil, err
	}

	result := &AddressList{Raw: raw, Negated: negated}
	for _, item := range items {
		if item == "" {
			return nil, fmt.Errorf("addrport: empty address in list %q", field)
		}
		if strings.HasPrefix(item, "$") {
			result.Vars = append(result.Vars, item)
			continue
		}
		if strings.HasPrefix(item, "[") {
			nested, err := ParseAddress(item)
			if err != nil {
				return nil, err
			}
			result.Nets = append(result.Nets, nested.Nets...)
			result.Vars = append(result.Vars, nested.Vars...)
			continue
		}
		netw, err := parseOneAddress(item)
		if err != nil {
			return nil, fmt.Errorf("addrport: %w", err)
		}
		result.Nets = append(result.Nets, netw)
	}
	return result, nil
}

func parseOneAddress(item string) (net.IPNet, error) {
	if strings.Contains(item, "/") {
		_, netw, err := net.ParseCIDR(item)
		if err != nil {
			return net.IPNet{}, fmt.Errorf("invalid CIDR %q: %v", item, err)
		}
		return *netw, nil
	}
	ip := net.ParseIP(item)
	if ip == nil {
		return net.IPNet{}, fmt.Errorf("invalid address %q", item)
	}
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}
	return net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// splitList splits a "[a,b,c]" field into its comma-separated items. Per
// spec.md §4.1/§6, list mode must not contain embedded whitespace; any
// space inside the brackets is a syntax error (matching the teacher's
// "should not parse an address list with spaces" behavior).
func splitList(field string) ([]string, error) {
	if !strings.HasPrefix(field, "[") {
		return []string{field}, nil
	}
	if !strings.HasSuffix(field, "]") {
		return nil, fmt.Errorf("addrport: unterminated address list %q", field)
	}
	inner := field[1 : len(field)-1]
	if strings.ContainsAny(inner, " \t") {
		return nil, fmt.Errorf("addrport: address list must not contain whitespace: %q", field)
	}
	if inner == "" {
		return nil, fmt.Errorf("addrport: empty address list")
	}
	return splitTopLevelCommas(inner), nil
}

// splitTopLevelCommas splits on commas that are not inside a nested
// bracket pair, so an address list of address lists round-trips.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// Equivalent reports whether two address lists denote the same set of
// endpoints, used by the bidirectional cloner's "source == dest" check
// (spec.md §4.8, invariant 8). This compares the resolved set rather than
// the raw literal or list-pointer identity, addressing the open question
// in spec.md §9 about SigHasSameSourceAndDestination.
func (a *AddressList) Equivalent(b *AddressList) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Any != b.Any || a.Negated != b.Negated {
		return false
	}
	if a.Any {
		return true
	}
	if !sameStringSet(a.Vars, b.Vars) {
		return false
	}
	return sameNetSet(a.Nets, b.Nets)
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func sameNetSet(a, b []net.IPNet) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, n := range a {
		counts[n.String()]++
	}
	for _, n := range b {
		counts[n.String()]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
