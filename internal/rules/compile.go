// Package rules compiles rule documents into patterns.
//
// A rule document is YAML with a top-level "rules" mapping from rule name to
// rule expression:
//
//	rules:
//	  truthy:
//	    :or:
//	      - =True
//	      - =...
//	      - :and: [=int, not(=0)]
//	  assert-truthy:
//	    is(Assert):
//	      test:
//	        is(Constant):
//	          value: ~truthy
//
// Expressions are either mappings (combinators and node kinds) or strings
// (literals, references, captures and shorthands). See compileExpr for the
// full grammar.
package rules

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/astrule/internal/pattern"
	"github.com/gnolang/astrule/internal/term"
)

const (
	rulesKey       = "rules"
	legacyRulesKey = "stmt-rules"

	keyOr    = ":or"
	keyAnd   = ":and"
	keyNot   = ":not"
	keyAll   = ":all"
	keyAny   = ":any"
	keyTuple = ":tuple"
)

var combinatorKeys = map[string]bool{
	keyOr: true, keyAnd: true, keyNot: true, keyAll: true, keyAny: true, keyTuple: true,
}

// Option configures a compilation.
type Option func(*compiler)

// WithFFI makes the named predicates of resolve available to ffi(name)
// expressions. Without it, ffi expressions do not compile.
func WithFFI(resolve pattern.FFIResolver) Option {
	return func(c *compiler) {
		c.ffi = resolve
	}
}

// WithKinds restricts is(Kind) expressions to the given node kinds.
func WithKinds(kinds []term.Kind) Option {
	return func(c *compiler) {
		c.kinds = make(map[term.Kind]bool, len(kinds))
		for _, k := range kinds {
			c.kinds[k] = true
		}
	}
}

type compiler struct {
	registry *pattern.Registry
	ffi      pattern.FFIResolver
	kinds    map[term.Kind]bool
}

// CompileYAML parses data as YAML and compiles it.
func CompileYAML(data []byte, opts ...Option) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse rule document")
	}
	return Compile(&doc, opts...)
}

// Compile compiles a rule document. On failure the returned error is a
// *CompileError and no rules are returned.
func Compile(doc *yaml.Node, opts ...Option) (*RuleSet, error) {
	c := &compiler{registry: pattern.NewRegistry()}
	for _, opt := range opts {
		opt(c)
	}

	rulesNode, err := findRules(doc)
	if err != nil {
		return nil, err
	}

	// declare every name first so references can point forward
	slots := make([]int, 0, len(rulesNode.Content)/2)
	for i := 0; i+1 < len(rulesNode.Content); i += 2 {
		key := rulesNode.Content[i]
		if !isString(key) {
			return nil, errorAt(key, Path{key.Value}, "expected key to be a string")
		}
		if _, dup := c.registry.Ref(key.Value); dup {
			return nil, errorAt(key, Path{key.Value}, "rule %q is defined twice", key.Value)
		}
		slots = append(slots, c.registry.Declare(key.Value))
	}

	for i := 0; i+1 < len(rulesNode.Content); i += 2 {
		name := rulesNode.Content[i].Value
		p, err := c.compileExpr(rulesNode.Content[i+1], Path{name})
		if err != nil {
			return nil, err
		}
		c.registry.Define(slots[i/2], p)
	}
	c.registry.Freeze()

	return &RuleSet{registry: c.registry}, nil
}

func findRules(doc *yaml.Node) (*yaml.Node, error) {
	root := resolve(doc)
	if root != nil && root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			root = nil
		} else {
			root = resolve(root.Content[0])
		}
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, errorAt(root, Path{}, "expected a mapping")
	}

	for _, key := range []string{rulesKey, legacyRulesKey} {
		if v := lookup(root, key); v != nil {
			if v.Kind != yaml.MappingNode {
				return nil, errorAt(v, Path{key}, "expected a `%s` mapping", key)
			}
			return v, nil
		}
	}
	return nil, errorAt(root, Path{}, "expected a `%s` mapping", rulesKey)
}

// compileExpr compiles one rule expression.
//
// Mappings:
//
//	{:or: [e...]}     first matching alternative
//	{:and: [e...]}    every conjunct on the same term
//	{:not: e}         negation, never binds
//	{:all: e}         every list element matches e
//	{:any: e}         some list element matches e
//	{:tuple: [e...]}  list of exactly these elements
//	{is(K): {attr: e, ...}, ...}  node of kind K (several keys: any of them)
//
// A combinator key (:or, :and, :not, :all, :any, :tuple) must be the only key
// of its mapping; mixing it with other keys is a compile error.
//
// Strings:
//
//	=literal   True, False, None, ..., "str", 'str', 42, 4.2
//	=int =str =bool =float  scalar of that kind
//	not(e)     same as {:not: e}
//	is(K)      node of kind K
//	ffi(name)  external predicate
//	~name      reference to another rule
//	$name      capture the term as name
func (c *compiler) compileExpr(n *yaml.Node, path Path) (pattern.Pattern, error) {
	n = resolve(n)
	switch {
	case n.Kind == yaml.MappingNode:
		return c.compileMapping(n, path)
	case isString(n):
		return c.compileString(n, n.Value, path)
	}
	return nil, errorAt(n, path, "I don't understand this at all: %s", describe(n))
}

func (c *compiler) compileMapping(n *yaml.Node, path Path) (pattern.Pattern, error) {
	if len(n.Content) == 0 {
		return nil, errorAt(n, path, "expected one of ':and', ':or', ':not', 'is(...)', got an empty mapping")
	}

	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key := n.Content[i]
		if !isString(key) {
			return nil, errorAt(key, path, "expected a string key, got %s", describe(key))
		}
		keys = append(keys, key.Value)
	}

	for i, key := range keys {
		if !combinatorKeys[key] {
			continue
		}
		if len(keys) > 1 {
			return nil, errorAt(n, path, "%s must be the only key, got keys: %s", key, quoteKeys(keys))
		}
		return c.compileCombinator(key, n.Content[2*i+1], path.with(key))
	}

	for _, key := range keys {
		if !isTypeKey(key) {
			return nil, errorAt(n, path, "expected one of ':and', ':or', ':not', 'is(...)', got keys: %s", quoteKeys(keys))
		}
	}

	alts := make([]pattern.Pattern, 0, len(keys))
	for i, key := range keys {
		p, err := c.compileTypeRule(n.Content[2*i], n.Content[2*i+1], path.with(key))
		if err != nil {
			return nil, err
		}
		alts = append(alts, p)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return pattern.Or{Alternatives: alts}, nil
}

func (c *compiler) compileCombinator(key string, value *yaml.Node, path Path) (pattern.Pattern, error) {
	switch key {
	case keyOr:
		items, err := c.compileList(value, path)
		if err != nil {
			return nil, err
		}
		return pattern.Or{Alternatives: items}, nil
	case keyAnd:
		items, err := c.compileList(value, path)
		if err != nil {
			return nil, err
		}
		return pattern.And{Conjuncts: items}, nil
	case keyTuple:
		items, err := c.compileList(value, path)
		if err != nil {
			return nil, err
		}
		return pattern.TupleRule{Items: items}, nil
	}

	inner, err := c.compileExpr(value, path)
	if err != nil {
		return nil, err
	}
	switch key {
	case keyNot:
		return pattern.Not{Inner: inner}, nil
	case keyAll:
		return pattern.Forall{Predicate: inner}, nil
	default:
		return pattern.Exists{Predicate: inner}, nil
	}
}

func (c *compiler) compileList(n *yaml.Node, path Path) ([]pattern.Pattern, error) {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, path, "expected a list, got %s", describe(n))
	}
	out := make([]pattern.Pattern, 0, len(n.Content))
	for i, item := range n.Content {
		p, err := c.compileExpr(item, path.with(i))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *compiler) compileTypeRule(key, value *yaml.Node, path Path) (pattern.Pattern, error) {
	tag := term.Kind(strings.TrimSpace(key.Value[len("is(") : len(key.Value)-1]))
	if tag == "" {
		return nil, errorAt(key, path, "missing node kind in %s", key.Value)
	}
	if c.kinds != nil && !c.kinds[tag] {
		return nil, errorAt(key, path, "unknown node kind %s", tag)
	}

	rule := pattern.TypeRule{Tag: tag}
	value = resolve(value)
	if value == nil || isNull(value) {
		return rule, nil
	}
	if value.Kind != yaml.MappingNode {
		return nil, errorAt(value, path, "expected a mapping of attributes, got %s", describe(value))
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		attr := value.Content[i]
		if !isString(attr) {
			return nil, errorAt(attr, path, "expected a string key, got %s", describe(attr))
		}
		p, err := c.compileExpr(value.Content[i+1], path.with(attr.Value))
		if err != nil {
			return nil, err
		}
		rule.Attrs = append(rule.Attrs, pattern.AttrRule{Name: attr.Value, Pattern: p})
	}
	return rule, nil
}

func (c *compiler) compileString(n *yaml.Node, s string, path Path) (pattern.Pattern, error) {
	switch {
	case s == "":
		return nil, errorAt(n, path, "I don't understand an empty string")

	case strings.HasPrefix(s, "="):
		p, err := parseConstant(s[1:])
		if err != nil {
			return nil, errorAt(n, path, "%s", err.Error())
		}
		return p, nil

	case wrapped(s, "not("):
		inner := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s[len("not(") : len(s)-1], Line: n.Line, Column: n.Column}
		return c.compileCombinator(keyNot, inner, path.with(keyNot))

	case wrapped(s, "is("):
		return c.compileTypeRule(n, nil, path)

	case wrapped(s, "ffi("):
		name := s[len("ffi(") : len(s)-1]
		if c.ffi == nil {
			return nil, errorAt(n, path, "ffi(%s): no external predicates are available", name)
		}
		if _, ok := c.ffi(name); !ok {
			return nil, errorAt(n, path, "ffi(%s): unknown predicate", name)
		}
		return pattern.NewFFIRule(name, c.ffi), nil

	case strings.HasPrefix(s, "~"):
		name := s[1:]
		ref, ok := c.registry.Ref(name)
		if !ok {
			return nil, errorAt(n, path, "reference to unknown rule %q", name)
		}
		return ref, nil

	case strings.HasPrefix(s, "$"):
		if s == "$" {
			return nil, errorAt(n, path, "missing capture name")
		}
		return pattern.Var{Name: s[1:]}, nil
	}

	return nil, errorAt(n, path, "unknown rule: %q", s)
}

func wrapped(s, prefix string) bool {
	return strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") && len(s) > len(prefix)
}

func isTypeKey(s string) bool {
	return wrapped(s, "is(")
}

// resolve follows YAML aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isString(m.Content[i]) && m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

func describe(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return strings.TrimPrefix(n.ShortTag(), "!!") + " " + n.Value
	}
	return "an unsupported YAML node"
}

func quoteKeys(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return "{" + strings.Join(sorted, ", ") + "}"
}
