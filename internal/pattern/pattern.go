// Package pattern implements the executable form of a rule: a closed set of
// pattern variants matched recursively against terms.
//
// A match either succeeds with a set of captures or fails with a *Failure
// explaining why. Failures are ordinary values; they drive alternation (Or)
// and negation (Not) and are never returned as errors.
//
// Patterns are immutable trees. Recursive rules are expressed through Ref,
// which resolves a rule name in a Registry at match time, so a pattern tree
// never contains a direct cycle.
package pattern

import (
	"fmt"
	"strings"

	"github.com/gnolang/astrule/internal/term"
)

// Pattern is one of the variants declared in this package.
type Pattern interface {
	// Match matches the pattern against t. Exactly one of the results is
	// non-nil.
	Match(t term.Term) (Captures, *Failure)
	String() string

	isPattern()
}

// Match is the matcher entry point.
func Match(p Pattern, t term.Term) (Captures, *Failure) {
	return p.Match(t)
}

// Captures maps capture names to the terms bound to them.
type Captures map[string]term.Term

// Merge copies other into c. Names already bound in c are overwritten.
func (c Captures) Merge(other Captures) {
	for k, v := range other {
		c[k] = v
	}
}

// Failure describes why a match did not succeed.
type Failure struct {
	Message string
	// Causes holds the failures this one aggregates, if any.
	Causes []*Failure

	heading string
}

// Failf builds a leaf failure.
func Failf(format string, args ...any) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// Wrap prefixes the failure message while keeping the original as cause.
func (f *Failure) Wrap(prefix string) *Failure {
	return &Failure{
		Message: prefix + ": " + f.Message,
		Causes:  []*Failure{f},
	}
}

func (f *Failure) String() string {
	if f == nil {
		return ""
	}
	return f.Message
}

// Tree renders the failure and its causes as an indented tree.
func (f *Failure) Tree() string {
	var sb strings.Builder
	f.writeTree(&sb, 0)
	return sb.String()
}

func (f *Failure) writeTree(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	if len(f.Causes) > 1 && f.heading != "" {
		sb.WriteString(f.heading)
	} else {
		sb.WriteString(f.Message)
	}
	sb.WriteString("\n")
	if len(f.Causes) > 1 && f.heading != "" {
		for _, c := range f.Causes {
			c.writeTree(sb, depth+1)
		}
	}
}

func joinFailures(failures []*Failure, sep string) string {
	msgs := make([]string, len(failures))
	for i, f := range failures {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, sep)
}
