package pattern

import (
	"strings"
)

// Equal reports whether two patterns are structurally equal: same variant
// and recursively equal fields. References compare by rule name and external
// predicates by function name.
func Equal(a, b Pattern) bool {
	switch x := a.(type) {
	case TypeRule:
		y, ok := b.(TypeRule)
		if !ok || x.Tag != y.Tag || len(x.Attrs) != len(y.Attrs) {
			return false
		}
		for i := range x.Attrs {
			if x.Attrs[i].Name != y.Attrs[i].Name || !Equal(x.Attrs[i].Pattern, y.Attrs[i].Pattern) {
				return false
			}
		}
		return true
	case Or:
		y, ok := b.(Or)
		return ok && equalAll(x.Alternatives, y.Alternatives)
	case And:
		y, ok := b.(And)
		return ok && equalAll(x.Conjuncts, y.Conjuncts)
	case Not:
		y, ok := b.(Not)
		return ok && Equal(x.Inner, y.Inner)
	case Ref:
		y, ok := b.(Ref)
		return ok && x.Name == y.Name
	case Var:
		y, ok := b.(Var)
		return ok && x.Name == y.Name
	case BoxTypeRule:
		y, ok := b.(BoxTypeRule)
		return ok && x.Kind == y.Kind
	case BoxValueRule:
		y, ok := b.(BoxValueRule)
		return ok && x.Value.Equal(y.Value)
	case FFIRule:
		y, ok := b.(FFIRule)
		return ok && x.Name == y.Name
	case TupleRule:
		y, ok := b.(TupleRule)
		return ok && equalAll(x.Items, y.Items)
	case Forall:
		y, ok := b.(Forall)
		return ok && Equal(x.Predicate, y.Predicate)
	case Exists:
		y, ok := b.(Exists)
		return ok && Equal(x.Predicate, y.Predicate)
	case nil:
		return b == nil
	}
	return false
}

func equalAll(a, b []Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// String methods render patterns in rule document syntax.

func (r TypeRule) String() string {
	if len(r.Attrs) == 0 {
		return "is(" + string(r.Tag) + ")"
	}
	attrs := make([]string, len(r.Attrs))
	for i, a := range r.Attrs {
		attrs[i] = a.Name + ": " + a.Pattern.String()
	}
	return "{is(" + string(r.Tag) + "): {" + strings.Join(attrs, ", ") + "}}"
}

func (r Or) String() string  { return "{:or: " + listString(r.Alternatives) + "}" }
func (r And) String() string { return "{:and: " + listString(r.Conjuncts) + "}" }
func (r Not) String() string { return "not(" + r.Inner.String() + ")" }
func (r Ref) String() string { return "~" + r.Name }
func (r Var) String() string { return "$" + r.Name }

func (r BoxTypeRule) String() string  { return "=" + r.Kind.String() }
func (r BoxValueRule) String() string { return "=" + r.Value.Literal() }
func (r FFIRule) String() string      { return "ffi(" + r.Name + ")" }

func (r TupleRule) String() string { return "{:tuple: " + listString(r.Items) + "}" }
func (r Forall) String() string    { return "{:all: " + r.Predicate.String() + "}" }
func (r Exists) String() string    { return "{:any: " + r.Predicate.String() + "}" }

func listString(ps []Pattern) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
