package engine

import (
	"bufio"
	"io"
	"strings"
)

// rawRuleScanner joins backslash-continued lines and skips blank lines,
// the same way ruleparser.RuleReader does, but hands back the raw rule
// text instead of a parsed result -- LoadRule needs that raw text to
// reparse a direction-swapped mirror for bidirectional rules.
type rawRuleScanner struct {
	reader *bufio.Reader
}

func newRawRuleScanner(r io.Reader) *rawRuleScanner {
	return &rawRuleScanner{reader: bufio.NewReader(r)}
}

func (s *rawRuleScanner) next() (string, error) {
	line := ""
	for {
		chunk, err := s.reader.ReadString('\n')
		if err != nil && chunk == "" {
			return "", err
		}
		chunk = strings.TrimRight(chunk, "\r\n")
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		if strings.HasSuffix(chunk, "\\") {
			line += chunk[:len(chunk)-1]
			if err != nil {
				return line, nil
			}
			continue
		}
		line += chunk
		return line, nil
	}
}
