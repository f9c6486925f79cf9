// Package ffi provides named predicates that rules reference with ffi(name).
package ffi

import (
	"go/ast"
	"sort"
	"sync"

	"github.com/gnolang/astrule/internal/goast"
	"github.com/gnolang/astrule/internal/pattern"
	"github.com/gnolang/astrule/internal/term"
)

// Table maps predicate names to predicates. It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	preds map[string]pattern.Predicate
}

// New returns an empty table.
func New() *Table {
	return &Table{preds: make(map[string]pattern.Predicate)}
}

// Default returns a table holding the built-in predicates:
//
//	exported    an identifier whose name is exported
//	blank       the blank identifier _
//	nonempty    a non-empty list
//	error-type  an identifier named error
func Default() *Table {
	t := New()
	t.Register("exported", identWhere("an exported identifier", ast.IsExported))
	t.Register("blank", identWhere("the blank identifier", func(name string) bool { return name == "_" }))
	t.Register("error-type", identWhere("the error type", func(name string) bool { return name == "error" }))
	t.Register("nonempty", nonempty)
	return t
}

// Register adds or replaces a predicate.
func (t *Table) Register(name string, p pattern.Predicate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.preds[name] = p
}

// Lookup returns the named predicate. Its signature matches
// pattern.FFIResolver, so it can be passed to rules.WithFFI directly.
func (t *Table) Lookup(name string) (pattern.Predicate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.preds[name]
	return p, ok
}

// Names returns the registered names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.preds))
	for name := range t.preds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func identWhere(what string, ok func(name string) bool) pattern.Predicate {
	return func(t term.Term) (pattern.Captures, *pattern.Failure) {
		name, found := identName(t)
		if !found {
			return nil, pattern.Failf("%s is not an identifier", term.String(t))
		}
		if !ok(name) {
			return nil, pattern.Failf("%s is not %s", name, what)
		}
		return pattern.Captures{}, nil
	}
}

func identName(t term.Term) (string, bool) {
	n, ok := t.(term.Node)
	if !ok {
		return "", false
	}
	if g, ok := n.Tree.(goast.Node); ok {
		ident, ok := g.AST().(*ast.Ident)
		if !ok {
			return "", false
		}
		return ident.Name, true
	}
	if n.Kind() != "Ident" {
		return "", false
	}
	v, ok := n.Attr("Name")
	if !ok {
		return "", false
	}
	b, ok := v.(term.Box)
	if !ok || b.Kind() != term.KindString {
		return "", false
	}
	return b.Value.(string), true
}

func nonempty(t term.Term) (pattern.Captures, *pattern.Failure) {
	list, ok := t.(term.List)
	if !ok {
		return nil, pattern.Failf("not a list")
	}
	if len(list) == 0 {
		return nil, pattern.Failf("empty list")
	}
	return pattern.Captures{}, nil
}
