package addrport

import (
	"fmt"
	"strconv"
	"strings"
)

const maxPort = 65535

// PortRange is the result of parsing a rule endpoint's port field.
type PortRange struct {
	Raw     string
	Any     bool
	Negated bool
	Ranges  [][2]int
	Vars    []string
}

// ParsePort parses a single port field: "any", a bare port, a "lo:hi"
// range (either side may be omitted to mean 0/maxPort), a "$VARIABLE", or
// a bracketed comma list of any of those. A leading "!" negates the
// field.
func ParsePort(field string) (*PortRange, error) {
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
		return &PortRange{Raw: raw, Any: true}, nil
	}

	items, err := splitList(field)
	if err != nil {
		return nil, err
	}

	result := &PortRange{Raw: raw, Negated: negated}
	for _, item := range items {
		if item == "" {
			return nil, fmt.Errorf("addrport: empty port in list %q", field)
		}
		if strings.HasPrefix(item, "$") {
			result.Vars = append(result.Vars, item)
			continue
		}
		lo, hi, err := parseOnePort(item)
		if err != nil {
			return nil, fmt.Errorf("addrport: %w", err)
		}
		result.Ranges = append(result.Ranges, [2]int{lo, hi})
	}
	return result, nil
}

func parseOnePort(item string) (int, int, error) {
	if idx := strings.Index(item, ":"); idx >= 0 {
		loStr, hiStr := item[:idx], item[idx+1:]
		lo, hi := 0, maxPort
		var err error
		if loStr != "" {
			lo, err = strconv.Atoi(loStr)
			if err != nil {
				return 0, 0, fmt.Errorf("invalid port %q: %v", loStr, err)
			}
		}
		if hiStr != "" {
			hi, err = strconv.Atoi(hiStr)
			if err != nil {
				return 0, 0, fmt.Errorf("invalid port %q: %v", hiStr, err)
			}
		}
		if lo < 0 || hi > maxPort || lo > hi {
			return 0, 0, fmt.Errorf("port range %q out of bounds (0-%d)", item, maxPort)
		}
		return lo, hi, nil
	}

	p, err := strconv.Atoi(item)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port %q: %v", item, err)
	}
	if p < 0 || p > maxPort {
		return 0, 0, fmt.Errorf("port %q out of bounds (0-%d)", item, maxPort)
	}
	return p, p, nil
}

// Equivalent reports whether two port ranges denote the same set of
// ports, used by the bidirectional cloner's endpoint-equality check.
func (p *PortRange) Equivalent(o *PortRange) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Any != o.Any || p.Negated != o.Negated {
		return false
	}
	if p.Any {
		return true
	}
	if !sameStringSet(p.Vars, o.Vars) {
		return false
	}
	if len(p.Ranges) != len(o.Ranges) {
		return false
	}
	counts := map[[2]int]int{}
	for _, r := range p.Ranges {
		counts[r]++
	}
	for _, r := range o.Ranges {
		counts[r]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
