package rules

import (
	"regexp"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/astrule/internal/pattern"
	"github.com/gnolang/astrule/internal/term"
)

const source = `
rules:
  truthy-value:
    :or:
      - =True
      - =...
      - :and: [=int, not(=0)]

  f-string:
    is(JoinedStr)

  ULA001: # assert True
    is(Assert):
      test:
        is(Constant):
          value:
            ~truthy-value
`

type testTree struct {
	kind  term.Kind
	attrs map[string]any
}

func (n testTree) Kind() term.Kind { return n.kind }
func (n testTree) Fields() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	return names
}
func (n testTree) Field(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

var regexpMust = regexp.MustCompile

func value(v any) pattern.BoxValueRule {
	return pattern.BoxValueRule{Value: term.NewBox(v)}
}

func mustCompile(t *testing.T, src string, opts ...Option) *RuleSet {
	t.Helper()
	rs, err := CompileYAML([]byte(src), opts...)
	require.NoError(t, err)
	return rs
}

func mustPattern(t *testing.T, rs *RuleSet, name string) pattern.Pattern {
	t.Helper()
	p, ok := rs.Pattern(name)
	require.True(t, ok, "rule %s not found", name)
	return p
}

func compileError(t *testing.T, src string, opts ...Option) *CompileError {
	t.Helper()
	_, err := CompileYAML([]byte(src), opts...)
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "expected a CompileError, got %v", err)
	return ce
}

func TestCompileTruthyValue(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, source)
	want := pattern.Or{Alternatives: []pattern.Pattern{
		value(true),
		pattern.BoxValueRule{Value: term.Box{Value: term.Ellipsis}},
		pattern.And{Conjuncts: []pattern.Pattern{
			pattern.BoxTypeRule{Kind: term.KindInt},
			pattern.Not{Inner: value(0)},
		}},
	}}
	got := mustPattern(t, rs, "truthy-value")
	assert.True(t, pattern.Equal(want, got), "got %s", got)

	tests := []struct {
		name  string
		term  term.Term
		match bool
	}{
		{"true", term.NewBox(true), true},
		{"ellipsis", term.Box{Value: term.Ellipsis}, true},
		{"nonzero int", term.NewBox(7), true},
		{"zero", term.NewBox(0), false},
		{"false", term.NewBox(false), false},
		{"string", term.NewBox("yes"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fail := pattern.Match(got, tt.term)
			assert.Equal(t, tt.match, fail == nil, "failure: %s", fail)
		})
	}
}

func TestCompileFString(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, source)
	assert.True(t, pattern.Equal(pattern.TypeRule{Tag: "JoinedStr"}, mustPattern(t, rs, "f-string")))
}

func TestCompileNestedTypeRuleWithReference(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, source)
	got := mustPattern(t, rs, "ULA001")

	ref, ok := rs.Registry().Ref("truthy-value")
	require.True(t, ok)
	want := pattern.TypeRule{Tag: "Assert", Attrs: []pattern.AttrRule{
		{Name: "test", Pattern: pattern.TypeRule{Tag: "Constant", Attrs: []pattern.AttrRule{
			{Name: "value", Pattern: ref},
		}}},
	}}
	assert.True(t, pattern.Equal(want, got), "got %s", got)

	// the reference resolves to the compiled truthy-value rule
	truthy := mustPattern(t, rs, "truthy-value")
	resolved, ok := rs.Registry().Lookup(ref.Name)
	require.True(t, ok)
	assert.True(t, pattern.Equal(truthy, resolved))

	assertNode := func(v any) term.Term {
		return term.Node{Tree: testTree{kind: "Assert", attrs: map[string]any{
			"test": testTree{kind: "Constant", attrs: map[string]any{"value": v}},
		}}}
	}

	captures, fail := pattern.Match(got, assertNode(42))
	require.Nil(t, fail)
	assert.Empty(t, captures)

	_, fail = pattern.Match(got, assertNode(0))
	require.NotNil(t, fail)
	assert.Contains(t, fail.Message, "in attr test: in attr value: no alternative matched")
}

func TestCompileDeterministic(t *testing.T) {
	t.Parallel()

	a := mustCompile(t, source)
	b := mustCompile(t, source)
	assert.True(t, a.Equal(b))
	assert.Equal(t, []string{"truthy-value", "f-string", "ULA001"}, a.Names())
	assert.Equal(t, 3, a.Len())
}

func TestCompileCapture(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, "rules:\n  any: $x\n")
	p := mustPattern(t, rs, "any")
	assert.True(t, pattern.Equal(pattern.Var{Name: "x"}, p))

	for _, tm := range []term.Term{term.NewBox(1), term.List{}, term.Node{Tree: testTree{kind: "Name"}}} {
		captures, fail := pattern.Match(p, tm)
		require.Nil(t, fail)
		assert.Equal(t, pattern.Captures{"x": tm}, captures)
	}
}

func TestCompileExpressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want pattern.Pattern
	}{
		{"false", "=False", value(false)},
		{"go true", "=true", value(true)},
		{"none", "=None", value(nil)},
		{"nil", "=nil", value(nil)},
		{"int", "=42", value(42)},
		{"float", "=4.25", value(4.25)},
		{"double quoted", `'="a\tb"'`, value("a\tb")},
		{"single quoted", `"='it\\'s'"`, value("it's")},
		{"single quoted with double quote", `'=''say "hi"'''`, value(`say "hi"`)},
		{"type str", "=str", pattern.BoxTypeRule{Kind: term.KindString}},
		{"type bool", "=bool", pattern.BoxTypeRule{Kind: term.KindBool}},
		{"type float", "=float", pattern.BoxTypeRule{Kind: term.KindFloat}},
		{"not shorthand", "not(=0)", pattern.Not{Inner: value(0)}},
		{"nested not", "not(not($x))", pattern.Not{Inner: pattern.Not{Inner: pattern.Var{Name: "x"}}}},
		{"is shorthand", "is(Call)", pattern.TypeRule{Tag: "Call"}},
		{"var", "$name", pattern.Var{Name: "name"}},
		{"all", "{':all': is(Ident)}", pattern.Forall{Predicate: pattern.TypeRule{Tag: "Ident"}}},
		{"any", "{':any': $x}", pattern.Exists{Predicate: pattern.Var{Name: "x"}}},
		{"tuple", "{':tuple': [$a, =1]}", pattern.TupleRule{Items: []pattern.Pattern{pattern.Var{Name: "a"}, value(1)}}},
		{"empty and", "{':and': []}", pattern.And{Conjuncts: []pattern.Pattern{}}},
		{"not mapping", "{':not': $x}", pattern.Not{Inner: pattern.Var{Name: "x"}}},
		{"several kinds", "{is(Eq): null, is(NotEq): {X: $x}}", pattern.Or{Alternatives: []pattern.Pattern{
			pattern.TypeRule{Tag: "Eq"},
			pattern.TypeRule{Tag: "NotEq", Attrs: []pattern.AttrRule{{Name: "X", Pattern: pattern.Var{Name: "x"}}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := mustCompile(t, "rules:\n  r: "+tt.expr+"\n")
			got := mustPattern(t, rs, "r")
			assert.True(t, pattern.Equal(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCompileForwardAndSelfReference(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, `
rules:
  uses-later: ~nested
  nested:
    :or:
      - =int
      - :all: ~nested
`)
	p := mustPattern(t, rs, "uses-later")

	_, fail := pattern.Match(p, term.List{term.NewBox(1), term.List{term.NewBox(2)}})
	assert.Nil(t, fail)
	_, fail = pattern.Match(p, term.List{term.NewBox("x")})
	assert.NotNil(t, fail)
}

func TestCompileFFI(t *testing.T) {
	t.Parallel()

	preds := map[string]pattern.Predicate{
		"always": func(term.Term) (pattern.Captures, *pattern.Failure) { return pattern.Captures{}, nil },
	}
	resolve := func(name string) (pattern.Predicate, bool) {
		p, ok := preds[name]
		return p, ok
	}

	rs := mustCompile(t, "rules:\n  r: ffi(always)\n", WithFFI(resolve))
	p := mustPattern(t, rs, "r")
	assert.True(t, pattern.Equal(pattern.NewFFIRule("always", nil), p))
	_, fail := pattern.Match(p, term.NewBox(1))
	assert.Nil(t, fail)

	ce := compileError(t, "rules:\n  r: ffi(missing)\n", WithFFI(resolve))
	assert.Equal(t, Path{"r"}, ce.Path)
	assert.Contains(t, ce.Message, "unknown predicate")

	ce = compileError(t, "rules:\n  r: ffi(always)\n")
	assert.Contains(t, ce.Message, "no external predicates")
}

func TestCompileKinds(t *testing.T) {
	t.Parallel()

	opt := WithKinds([]term.Kind{"Ident", "CallExpr"})
	mustCompile(t, "rules:\n  r: is(Ident)\n", opt)

	ce := compileError(t, "rules:\n  r:\n    is(Idnet): {Name: $n}\n", opt)
	assert.Equal(t, Path{"r", "is(Idnet)"}, ce.Path)
	assert.Equal(t, "unknown node kind Idnet", ce.Message)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		path    Path
		message string
		line    int
	}{
		{"empty mapping", "rules:\n  bad: {}\n", Path{"bad"}, "got an empty mapping", 2},
		{"not a mapping document", "- a\n", Path{}, "expected a mapping", 1},
		{"missing rules", "other: {}\n", Path{}, "expected a `rules` mapping", 1},
		{"rules not a mapping", "rules: [a]\n", Path{"rules"}, "expected a `rules` mapping", 1},
		{"empty string", "rules:\n  bad: ''\n", Path{"bad"}, "empty string", 2},
		{"unknown constant", "rules:\n  bad: =maybe\n", Path{"bad"}, `unknown constant: "maybe"`, 2},
		{"float prefix is not an int", "rules:\n  bad: =1.5x\n", Path{"bad"}, "unknown constant", 2},
		{"integer", "rules:\n  bad: 42\n", Path{"bad"}, "I don't understand this at all: int 42", 2},
		{"list", "rules:\n  bad: [a]\n", Path{"bad"}, "I don't understand this at all: a list", 2},
		{"unknown string", "rules:\n  bad: whatever\n", Path{"bad"}, `unknown rule: "whatever"`, 2},
		{"or needs a list", "rules:\n  bad: {':or': $x}\n", Path{"bad", ":or"}, "expected a list", 2},
		{"error inside or", "rules:\n  bad:\n    :or:\n      - $x\n      - =oops\n", Path{"bad", ":or", 1}, "unknown constant", 5},
		{"attrs must be a mapping", "rules:\n  bad:\n    is(Call): [x]\n", Path{"bad", "is(Call)"}, "expected a mapping of attributes", 3},
		{"error in attribute", "rules:\n  bad:\n    is(Call):\n      Fun: ''\n", Path{"bad", "is(Call)", "Fun"}, "empty string", 4},
		{"mixed keys", "rules:\n  bad: {is(Call): null, foo: 1}\n", Path{"bad"}, "got keys: {foo, is(Call)}", 2},
		{"combinator with extra keys", "rules:\n  bad: {':not': $x, is(A): null}\n", Path{"bad"}, ":not must be the only key", 2},
		{"two combinators", "rules:\n  bad:\n    :and: [$x]\n    :or: [$y]\n", Path{"bad"}, ":and must be the only key", 3},
		{"unknown reference", "rules:\n  bad: ~nowhere\n", Path{"bad"}, `reference to unknown rule "nowhere"`, 2},
		{"empty kind", "rules:\n  bad: is()\n", Path{"bad"}, "missing node kind", 2},
		{"bad string literal", "rules:\n  bad: '=\"abc'\n", Path{"bad"}, "invalid string literal", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := compileError(t, tt.src)
			assert.Equal(t, tt.path, ce.Path)
			assert.Contains(t, ce.Message, tt.message)
			assert.Equal(t, tt.line, ce.Line)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	t.Parallel()

	ce := compileError(t, "rules:\n  bad: {}\n")
	assert.Equal(t, "2:8: at (bad): expected one of ':and', ':or', ':not', 'is(...)', got an empty mapping", ce.Error())
	assert.Equal(t, "(bad, :or, 0)", Path{"bad", ":or", 0}.String())
}

func TestCompileLegacyKeyAndAliases(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, `
stmt-rules:
  base: &base
    is(Ident): {Name: $name}
  copy: *base
`)
	assert.True(t, pattern.Equal(mustPattern(t, rs, "base"), mustPattern(t, rs, "copy")))
}

func TestCompileInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := CompileYAML([]byte("rules: [unclosed"))
	require.Error(t, err)
	var ce *CompileError
	assert.False(t, errors.As(err, &ce))
}

func TestSelect(t *testing.T) {
	t.Parallel()

	rs := mustCompile(t, source)
	assert.Equal(t, []string{"ULA001"}, rs.Select(regexpMust(`[A-Z].*`), nil))
	assert.Equal(t, []string{"truthy-value", "f-string"}, rs.Select(nil, regexpMust(`ULA.*`)))
	assert.Equal(t, []string{"truthy-value"}, rs.Select(regexpMust(`truthy|truthy-value`), nil))
}
