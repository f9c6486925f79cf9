package rules

import (
	"regexp"

	"github.com/gnolang/astrule/internal/pattern"
)

// RuleSet is the result of a successful compilation: every rule of the
// document, in document order. It is read-only and safe for concurrent use.
type RuleSet struct {
	registry *pattern.Registry
}

// Names returns the rule names in document order.
func (s *RuleSet) Names() []string {
	return s.registry.Names()
}

// Pattern returns the compiled pattern of a rule.
func (s *RuleSet) Pattern(name string) (pattern.Pattern, bool) {
	return s.registry.Lookup(name)
}

// Registry exposes the registry the rule references resolve against.
func (s *RuleSet) Registry() *pattern.Registry {
	return s.registry
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return s.registry.Len()
}

// Equal reports whether both rule sets define the same names, in the same
// order, with structurally equal patterns.
func (s *RuleSet) Equal(other *RuleSet) bool {
	a, b := s.Names(), other.Names()
	if len(a) != len(b) {
		return false
	}
	for i, name := range a {
		if b[i] != name {
			return false
		}
		pa, _ := s.Pattern(name)
		pb, _ := other.Pattern(name)
		if !pattern.Equal(pa, pb) {
			return false
		}
	}
	return true
}

// Select returns the names of the rules that fully match include and do not
// fully match exclude. A nil regexp is ignored.
func (s *RuleSet) Select(include, exclude *regexp.Regexp) []string {
	include, exclude = anchor(include), anchor(exclude)

	var out []string
	for _, name := range s.Names() {
		if include != nil && !include.MatchString(name) {
			continue
		}
		if exclude != nil && exclude.MatchString(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func anchor(re *regexp.Regexp) *regexp.Regexp {
	if re == nil {
		return nil
	}
	return regexp.MustCompile(`^(?:` + re.String() + `)$`)
}
