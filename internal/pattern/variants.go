package pattern

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/gnolang/astrule/internal/term"
)

// AttrRule pairs a node attribute with the pattern its value must match.
type AttrRule struct {
	Name    string
	Pattern Pattern
}

// TypeRule matches nodes of a given kind whose attributes match the attribute
// rules. Attribute rules are applied in order.
type TypeRule struct {
	Tag   term.Kind
	Attrs []AttrRule
}

func (r TypeRule) Match(t term.Term) (Captures, *Failure) {
	node, ok := t.(term.Node)
	if !ok {
		return nil, Failf("cannot match a %s against a %s", r.Tag, term.Describe(t))
	}
	if node.Kind() != r.Tag {
		return nil, Failf("%s is not a %s", node.Kind(), r.Tag)
	}

	captures := Captures{}
	for _, attr := range r.Attrs {
		value, ok := node.Attr(attr.Name)
		if !ok {
			return nil, Failf("%s has no attribute %s", r.Tag, attr.Name)
		}
		sub, fail := attr.Pattern.Match(value)
		if fail != nil {
			return nil, fail.Wrap("in attr " + attr.Name)
		}
		captures.Merge(sub)
	}
	return captures, nil
}

// Or succeeds with the captures of the first alternative that matches.
type Or struct {
	Alternatives []Pattern
}

func (r Or) Match(t term.Term) (Captures, *Failure) {
	failed := make([]*Failure, 0, len(r.Alternatives))
	for _, alt := range r.Alternatives {
		captures, fail := alt.Match(t)
		if fail == nil {
			return captures, nil
		}
		failed = append(failed, fail)
	}
	return nil, &Failure{
		Message: "no alternative matched: [" + joinFailures(failed, ", ") + "]",
		Causes:  failed,
		heading: "no alternative matched",
	}
}

// And requires every conjunct to match the same term. An empty And always
// matches.
type And struct {
	Conjuncts []Pattern
}

func (r And) Match(t term.Term) (Captures, *Failure) {
	captures := Captures{}
	for _, c := range r.Conjuncts {
		sub, fail := c.Match(t)
		if fail != nil {
			return nil, fail
		}
		captures.Merge(sub)
	}
	return captures, nil
}

// Not matches when Inner does not. It never binds names.
type Not struct {
	Inner Pattern
}

func (r Not) Match(t term.Term) (Captures, *Failure) {
	if _, fail := r.Inner.Match(t); fail == nil {
		return nil, Failf("should not have matched")
	}
	return Captures{}, nil
}

// Ref delegates to a named rule, looked up when the match runs.
type Ref struct {
	Name string

	slot     int
	registry *Registry
}

func (r Ref) Match(t term.Term) (Captures, *Failure) {
	if r.registry == nil {
		panic(errors.Newf("pattern: reference to %q is not bound to a registry", r.Name))
	}
	return r.registry.resolve(r.slot, r.Name).Match(t)
}

// Var always matches and binds the whole term.
type Var struct {
	Name string
}

func (r Var) Match(t term.Term) (Captures, *Failure) {
	return Captures{r.Name: t}, nil
}

// BoxTypeRule matches boxed scalars of a kind.
type BoxTypeRule struct {
	Kind term.BoxKind
}

func (r BoxTypeRule) Match(t term.Term) (Captures, *Failure) {
	box, ok := t.(term.Box)
	if !ok {
		return nil, Failf("not a box")
	}
	if box.Kind() != r.Kind {
		return nil, Failf("expected %s, got %s", r.Kind, box.Kind())
	}
	return Captures{}, nil
}

// BoxValueRule matches a boxed scalar equal to Value. Kinds are compared
// before values, so True never matches 1.
type BoxValueRule struct {
	Value term.Box
}

func (r BoxValueRule) Match(t term.Term) (Captures, *Failure) {
	box, ok := t.(term.Box)
	if !ok {
		return nil, Failf("not a box")
	}
	if box.Kind() != r.Value.Kind() {
		return nil, Failf("expected %s, got %s", r.Value.Kind(), box.Kind())
	}
	if !box.Equal(r.Value) {
		return nil, Failf("expected %s, got %s", r.Value.Literal(), box.Literal())
	}
	return Captures{}, nil
}

// Predicate is a matching function supplied from outside the rule grammar.
type Predicate func(t term.Term) (Captures, *Failure)

// FFIResolver finds a predicate by name.
type FFIResolver func(name string) (Predicate, bool)

// FFIRule delegates to an external predicate.
type FFIRule struct {
	Name string

	resolve FFIResolver
}

// NewFFIRule returns an FFIRule resolving name through resolve at match time.
func NewFFIRule(name string, resolve FFIResolver) FFIRule {
	return FFIRule{Name: name, resolve: resolve}
}

func (r FFIRule) Match(t term.Term) (Captures, *Failure) {
	if r.resolve == nil {
		panic(errors.Newf("pattern: ffi(%s) has no resolver", r.Name))
	}
	fn, ok := r.resolve(r.Name)
	if !ok {
		panic(errors.Newf("pattern: ffi(%s) is not defined", r.Name))
	}
	return fn(t)
}

// TupleRule matches a list element-wise against patterns of the same length.
type TupleRule struct {
	Items []Pattern
}

func (r TupleRule) Match(t term.Term) (Captures, *Failure) {
	list, ok := t.(term.List)
	if !ok {
		return nil, Failf("not a list")
	}
	if len(list) != len(r.Items) {
		return nil, Failf("pattern is %d elements long, got %d", len(r.Items), len(list))
	}

	captures := Captures{}
	for i, item := range r.Items {
		sub, fail := item.Match(list[i])
		if fail != nil {
			return nil, fail.Wrap(fmt.Sprintf("at pattern #%d", i))
		}
		captures.Merge(sub)
	}
	return captures, nil
}

// Forall matches lists whose every element matches Predicate. An empty list
// matches.
type Forall struct {
	Predicate Pattern
}

func (r Forall) Match(t term.Term) (Captures, *Failure) {
	list, ok := t.(term.List)
	if !ok {
		return nil, Failf("not a list")
	}

	captures := Captures{}
	for i, elem := range list {
		sub, fail := r.Predicate.Match(elem)
		if fail != nil {
			return nil, fail.Wrap(fmt.Sprintf("at item #%d", i))
		}
		captures.Merge(sub)
	}
	return captures, nil
}

// Exists matches lists with at least one element matching Predicate and
// returns the captures of the first such element.
type Exists struct {
	Predicate Pattern
}

func (r Exists) Match(t term.Term) (Captures, *Failure) {
	list, ok := t.(term.List)
	if !ok {
		return nil, Failf("not a list")
	}
	if len(list) == 0 {
		return nil, Failf("empty list")
	}

	failed := make([]*Failure, 0, len(list))
	for _, elem := range list {
		captures, fail := r.Predicate.Match(elem)
		if fail == nil {
			return captures, nil
		}
		failed = append(failed, fail)
	}
	return nil, &Failure{
		Message: joinFailures(failed, "; "),
		Causes:  failed,
		heading: "no element matched",
	}
}

func (TypeRule) isPattern()     {}
func (Or) isPattern()           {}
func (And) isPattern()          {}
func (Not) isPattern()          {}
func (Ref) isPattern()          {}
func (Var) isPattern()          {}
func (BoxTypeRule) isPattern()  {}
func (BoxValueRule) isPattern() {}
func (FFIRule) isPattern()      {}
func (TupleRule) isPattern()    {}
func (Forall) isPattern()       {}
func (Exists) isPattern()       {}
