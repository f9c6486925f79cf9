package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gnolang/astrule/internal/term"
)

func TestEqual(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Declare("truthy")
	ref, _ := reg.Ref("truthy")

	other := NewRegistry()
	other.Declare("truthy")
	otherRef, _ := other.Ref("truthy")

	truthy := Or{Alternatives: []Pattern{
		value(true),
		value(term.Ellipsis),
		And{Conjuncts: []Pattern{BoxTypeRule{Kind: term.KindInt}, Not{Inner: value(0)}}},
	}}

	tests := []struct {
		name string
		a, b Pattern
		want bool
	}{
		{"same or", truthy, Or{Alternatives: []Pattern{
			value(true),
			value(term.Ellipsis),
			And{Conjuncts: []Pattern{BoxTypeRule{Kind: term.KindInt}, Not{Inner: value(0)}}},
		}}, true},
		{"different order", Or{Alternatives: []Pattern{value(1), value(2)}}, Or{Alternatives: []Pattern{value(2), value(1)}}, false},
		{"or vs and", Or{}, And{}, false},
		{"box kinds differ", value(1), value(true), false},
		{"box int vs float", value(1), value(1.0), false},
		{"refs by name", ref, otherRef, true},
		{"refs differ", ref, Ref{Name: "other"}, false},
		{"attrs order matters", TypeRule{Tag: "A", Attrs: []AttrRule{{"x", Var{"a"}}, {"y", Var{"b"}}}},
			TypeRule{Tag: "A", Attrs: []AttrRule{{"y", Var{"b"}}, {"x", Var{"a"}}}}, false},
		{"attrs equal", TypeRule{Tag: "A", Attrs: []AttrRule{{"x", Var{"a"}}}},
			TypeRule{Tag: "A", Attrs: []AttrRule{{"x", Var{"a"}}}}, true},
		{"ffi by name", NewFFIRule("f", nil), NewFFIRule("f", func(string) (Predicate, bool) { return nil, false }), true},
		{"tuple", TupleRule{Items: []Pattern{Var{"a"}}}, TupleRule{Items: []Pattern{Var{"a"}, Var{"b"}}}, false},
		{"forall vs exists", Forall{Predicate: Var{"a"}}, Exists{Predicate: Var{"a"}}, false},
		{"box type", BoxTypeRule{Kind: term.KindString}, BoxTypeRule{Kind: term.KindString}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestPatternString(t *testing.T) {
	t.Parallel()

	p := TypeRule{Tag: "Assert", Attrs: []AttrRule{
		{Name: "test", Pattern: Or{Alternatives: []Pattern{
			value(true),
			value("x"),
			Not{Inner: value(0)},
			Ref{Name: "truthy"},
			NewFFIRule("exported", nil),
			Forall{Predicate: Var{Name: "a"}},
			Exists{Predicate: TypeRule{Tag: "Ident"}},
			TupleRule{Items: []Pattern{BoxTypeRule{Kind: term.KindInt}}},
		}}},
	}}

	want := `{is(Assert): {test: {:or: [=True, ="x", not(=0), ~truthy, ffi(exported), {:all: $a}, {:any: is(Ident)}, {:tuple: [=int]}]}}}`
	assert.Equal(t, want, p.String())
}
