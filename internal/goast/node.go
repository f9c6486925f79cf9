// Package goast adapts go/ast syntax trees to the term model.
//
// A node's kind is the name of its go/ast type ("CallExpr", "Ident", ...),
// and its attributes are the exported fields of that type. Deprecated
// resolution fields (*ast.Object, *ast.Scope) are not exposed.
//
// Field values are converted as follows:
//
//	ast.Node          -> Node (nil becomes None)
//	slices            -> lists
//	token.Token       -> its string form ("+", "INT", "func")
//	token.Pos         -> int
//	BasicLit.Value    -> decoded constant (int, float, string); raw text in Raw.
//	                     Imaginary and out-of-range values stay constant.Value.
package goast

import (
	"bytes"
	"go/ast"
	"go/constant"
	"go/printer"
	"go/token"
	"reflect"
	"strings"
	"sync"

	"github.com/gnolang/astrule/internal/term"
)

// rawField is the synthetic BasicLit attribute holding the literal as written.
const rawField = "Raw"

const maxSummary = 60

var (
	objectType = reflect.TypeOf((*ast.Object)(nil))
	scopeType  = reflect.TypeOf((*ast.Scope)(nil))
	nodeType   = reflect.TypeOf((*ast.Node)(nil)).Elem()
	tokenType  = reflect.TypeOf(token.ILLEGAL)
	posType    = reflect.TypeOf(token.NoPos)
)

// fieldCache maps a node struct type to its exposed field names.
var fieldCache sync.Map

// Node wraps a go/ast node. It implements term.Tree.
type Node struct {
	node ast.Node
	fset *token.FileSet
}

// Wrap adapts n. fset may be nil when positions are not needed.
func Wrap(n ast.Node, fset *token.FileSet) Node {
	return Node{node: n, fset: fset}
}

// AST returns the wrapped node.
func (n Node) AST() ast.Node {
	return n.node
}

// Kind returns the go/ast type name of the node.
func (n Node) Kind() term.Kind {
	return KindOf(n.node)
}

// Fields returns the exposed attribute names in declaration order.
func (n Node) Fields() []string {
	names := fieldNames(reflect.TypeOf(n.node).Elem())
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Field returns the converted value of an attribute.
func (n Node) Field(name string) (any, bool) {
	v := reflect.ValueOf(n.node).Elem()

	if lit, ok := n.node.(*ast.BasicLit); ok {
		switch name {
		case "Value":
			return decodeLiteral(lit), true
		case rawField:
			return lit.Value, true
		}
	}

	if !hasField(v.Type(), name) {
		return nil, false
	}
	return n.convert(v.FieldByName(name)), true
}

// Start returns the position of the first character of the node.
func (n Node) Start() token.Position {
	if n.fset == nil {
		return token.Position{}
	}
	return n.fset.Position(n.node.Pos())
}

// End returns the position just after the node.
func (n Node) End() token.Position {
	if n.fset == nil {
		return token.Position{}
	}
	return n.fset.Position(n.node.End())
}

// Summary renders the node as single-line source text, shortened.
func (n Node) Summary() string {
	fset := n.fset
	if fset == nil {
		fset = token.NewFileSet()
	}
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, n.node); err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(buf.String()), " ")
	if len(text) > maxSummary {
		text = text[:maxSummary-3] + "..."
	}
	return text
}

func (n Node) convert(v reflect.Value) any {
	switch {
	case v.Type() == tokenType:
		return v.Interface().(token.Token).String()
	case v.Type() == posType:
		return int(v.Int())
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Type().Implements(nodeType) || v.Elem().Type().Implements(nodeType) {
			return Wrap(v.Interface().(ast.Node), n.fset)
		}
		return v.Interface()
	case reflect.Slice:
		out := make([]any, v.Len())
		for i := range v.Len() {
			out[i] = n.convert(v.Index(i))
		}
		return out
	}
	return v.Interface()
}

func fieldNames(t reflect.Type) []string {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]string)
	}
	var names []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Type == objectType || f.Type == scopeType {
			continue
		}
		names = append(names, f.Name)
	}
	if t == reflect.TypeOf(ast.BasicLit{}) {
		names = append(names, rawField)
	}
	fieldCache.Store(t, names)
	return names
}

func hasField(t reflect.Type, name string) bool {
	for _, f := range fieldNames(t) {
		if f == name {
			return true
		}
	}
	return false
}

// decodeLiteral returns the value of a basic literal: int64 or float64 for
// numbers that fit, string for strings and characters. Imaginary numbers and
// integers overflowing int64 are returned as their constant.Value, which
// boxes as "other" and never compares equal to a string.
func decodeLiteral(lit *ast.BasicLit) any {
	val := constant.MakeFromLiteral(lit.Value, lit.Kind, 0)
	switch lit.Kind {
	case token.INT:
		if i, exact := constant.Int64Val(val); exact {
			return i
		}
	case token.FLOAT:
		if val.Kind() != constant.Unknown {
			f, _ := constant.Float64Val(val)
			return f
		}
	case token.STRING:
		if val.Kind() == constant.String {
			return constant.StringVal(val)
		}
	case token.CHAR:
		if r, exact := constant.Int64Val(val); exact {
			return string(rune(r))
		}
	}
	return val
}
