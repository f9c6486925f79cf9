// Package nolint finds //nolint directives in a Go file and answers whether
// a rule is suppressed at a given line.
//
//	//nolint             suppresses every rule
//	//nolint:Foo,Bar     suppresses rules Foo and Bar
//
// A directive placed before the package clause covers the whole file. A
// directive trailing a statement or declaration covers that node. A directive
// on its own line covers the node starting on the next line, or just the
// directive's own line when there is none.
package nolint

import (
	"go/ast"
	"go/token"
	"strings"
)

const directive = "//nolint"

// Index holds the suppression scopes of one file.
type Index struct {
	scopes []scope
}

type scope struct {
	// nil means all rules
	rules    map[string]struct{}
	from, to int
}

func (s scope) covers(line int, rule string) bool {
	if line < s.from || line > s.to {
		return false
	}
	if s.rules == nil {
		return true
	}
	_, ok := s.rules[rule]
	return ok
}

// Parse builds the index of f. Malformed directives are ignored.
func Parse(f *ast.File, fset *token.FileSet) *Index {
	idx := &Index{}
	if len(f.Comments) == 0 {
		return idx
	}

	lines := nodesByLine(f, fset)
	pkgLine := fset.Position(f.Package).Line
	fileEnd := fset.Position(f.End()).Line

	for _, group := range f.Comments {
		for _, c := range group.List {
			rules, ok := parseDirective(c.Text)
			if !ok {
				continue
			}
			pos := fset.Position(c.Slash)
			s := scope{rules: rules, from: pos.Line, to: pos.Line}

			switch n, found := lines[pos.Line]; {
			case pos.Line < pkgLine:
				s.from, s.to = 1, fileEnd
			case found && fset.Position(n.Pos()).Offset < pos.Offset:
				s.from = fset.Position(n.Pos()).Line
				s.to = fset.Position(n.End()).Line
			default:
				if next, ok := lines[pos.Line+1]; ok {
					s.to = fset.Position(next.End()).Line
				}
			}
			idx.scopes = append(idx.scopes, s)
		}
	}
	return idx
}

// Suppressed reports whether rule is disabled at line.
func (idx *Index) Suppressed(line int, rule string) bool {
	if idx == nil {
		return false
	}
	for _, s := range idx.scopes {
		if s.covers(line, rule) {
			return true
		}
	}
	return false
}

// Len returns the number of directives found.
func (idx *Index) Len() int {
	return len(idx.scopes)
}

// parseDirective returns the rule set of a nolint comment, nil for all rules.
func parseDirective(text string) (map[string]struct{}, bool) {
	rest, ok := strings.CutPrefix(text, directive)
	if !ok {
		return nil, false
	}
	if rest == "" || strings.TrimSpace(rest) == "" {
		return nil, true
	}
	list, ok := strings.CutPrefix(rest, ":")
	if !ok {
		return nil, false
	}

	rules := make(map[string]struct{})
	for _, name := range strings.Split(list, ",") {
		// "//nolint:Foo // reason" keeps only the rule list
		name, _, _ = strings.Cut(name, "//")
		if name = strings.TrimSpace(name); name != "" {
			rules[name] = struct{}{}
		}
	}
	if len(rules) == 0 {
		return nil, false
	}
	return rules, true
}

// nodesByLine maps each line to the first statement, declaration or spec
// starting on it.
func nodesByLine(f *ast.File, fset *token.FileSet) map[int]ast.Node {
	lines := make(map[int]ast.Node)
	ast.Inspect(f, func(n ast.Node) bool {
		switch n.(type) {
		case ast.Stmt, ast.Decl, ast.Spec, *ast.Field:
			line := fset.Position(n.Pos()).Line
			if _, seen := lines[line]; !seen {
				lines[line] = n
			}
		case nil:
			return false
		}
		return true
	})
	return lines
}
