package rules

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Path locates a node in a rule document: a sequence of mapping keys
// (strings) and sequence indices (ints) from the document root.
type Path []any

func (p Path) with(elem any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		switch v := e.(type) {
		case int:
			parts[i] = strconv.Itoa(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// CompileError reports a malformed rule document. Compilation stops at the
// first error.
type CompileError struct {
	Path    Path
	Message string
	// Line and Column point into the source document, when known.
	Line   int
	Column int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: at %s: %s", e.Line, e.Column, e.Path, e.Message)
	}
	return fmt.Sprintf("at %s: %s", e.Path, e.Message)
}

func errorAt(n *yaml.Node, path Path, format string, args ...any) *CompileError {
	e := &CompileError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}
