// Package term defines the uniform value representation that rule patterns
// are matched against.
//
// A Term is one of three shapes:
//
//	Node - a syntax tree node with a kind tag and named attributes
//	List - an ordered sequence of terms
//	Box  - an opaque scalar (bool, int, float, string, None, Ellipsis)
//
// Terms are immutable. Matching never modifies a term.
package term

import (
	"reflect"
)

// Kind identifies the syntactic kind of a tree node, e.g. "AssignStmt".
type Kind string

// Tree is implemented by syntax tree providers.
//
// Fields returns the declared attribute names in a stable order. Field
// returns the raw attribute value; the value is converted with ToTerm before
// it is matched.
type Tree interface {
	Kind() Kind
	Fields() []string
	Field(name string) (any, bool)
}

// Term is a Node, a List or a Box.
type Term interface {
	isTerm()
}

// Node wraps a provider tree node.
type Node struct {
	Tree Tree
}

// List is an ordered sequence of terms.
type List []Term

// Box is a wrapped scalar. Use NewBox to build one so that numeric values
// are normalised.
type Box struct {
	Value any
}

func (Node) isTerm() {}
func (List) isTerm() {}
func (Box) isTerm()  {}

// Kind returns the node's kind tag.
func (n Node) Kind() Kind {
	return n.Tree.Kind()
}

// Attr returns the node attribute converted to a term.
func (n Node) Attr(name string) (Term, bool) {
	v, ok := n.Tree.Field(name)
	if !ok {
		return nil, false
	}
	return ToTerm(v), true
}

// ToTerm converts an arbitrary value into a term.
// Trees become nodes, slices and arrays become lists, anything else is boxed.
func ToTerm(v any) Term {
	switch x := v.(type) {
	case Term:
		return x
	case Tree:
		return Node{Tree: x}
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			out[i] = ToTerm(e)
		}
		return out
	case nil:
		return NewBox(nil)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		// []byte is treated as a scalar string
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return NewBox(string(rv.Bytes()))
		}
		out := make(List, rv.Len())
		for i := range rv.Len() {
			out[i] = ToTerm(rv.Index(i).Interface())
		}
		return out
	}
	return NewBox(v)
}
