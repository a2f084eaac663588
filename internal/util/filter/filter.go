// Package filter matches candidate strings against a set of regular
// expressions.
package filter

import (
	"fmt"
	"regexp"
)

// Set is a list of patterns. An empty Set passes everything; otherwise a
// candidate passes when any pattern matches it in full.
//
// A pattern is compiled as ^(?:p)$, so any alternative that spans the whole
// candidate counts: "a|ab" matches "ab" even though its leftmost-first match
// is only "a".
type Set struct {
	patterns []string
	res      []*regexp.Regexp
}

// New compiles patterns into a Set.
func New(patterns ...string) (*Set, error) {
	s := &Set{patterns: append([]string(nil), patterns...)}
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", p, err)
		}
		s.res = append(s.res, re)
	}
	return s, nil
}

// Match reports whether candidate passes the set.
func (s *Set) Match(candidate string) bool {
	if s == nil || len(s.res) == 0 {
		return true
	}
	for _, re := range s.res {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns the set was built from.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.patterns...)
}
