package internal

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/astrule/internal/ffi"
	"github.com/gnolang/astrule/internal/goast"
	"github.com/gnolang/astrule/internal/rules"
	tt "github.com/gnolang/astrule/internal/types"
)

const testRules = `
rules:
  AddZero:
    is(BinaryExpr):
      Op: '="+"'
      Y:
        is(BasicLit):
          Value: =0
  PrintCall:
    is(CallExpr):
      Fun:
        is(Ident):
          Name: '="println"'
      Args: $args
  helper: is(Ident)
`

const testSource = `package main

func main() {
	x := 1
	y := x + 0
	println(y)
	println(x + 0) //nolint:AddZero
}
`

func compileTestRules(t testing.TB) *rules.RuleSet {
	t.Helper()
	set, err := rules.CompileYAML([]byte(testRules), rules.WithFFI(ffi.Default().Lookup), rules.WithKinds(goast.Kinds()))
	require.NoError(t, err)
	return set
}

func newTestEngine(t testing.TB, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithSelection(regexp.MustCompile("[A-Z].*"), nil)}, opts...)
	engine, err := NewEngine(compileTestRules(t), opts...)
	require.NoError(t, err)
	return engine
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(nil)
	assert.Error(t, err)

	engine := newTestEngine(t)
	assert.Equal(t, []string{"AddZero", "PrintCall"}, engine.Rules())

	all, err := NewEngine(compileTestRules(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"AddZero", "PrintCall", "helper"}, all.Rules())

	unselected, err := NewEngine(compileTestRules(t), WithSelection(nil, regexp.MustCompile("Print.*|helper")))
	require.NoError(t, err)
	assert.Equal(t, []string{"AddZero"}, unselected.Rules())
}

func TestEngineSeverity(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, WithSeverity(func(rule string) tt.Severity {
		if rule == "PrintCall" {
			return tt.SeverityOff
		}
		return tt.SeverityWarning
	}))
	assert.Equal(t, []string{"AddZero"}, engine.Rules())

	issues, err := engine.RunSource(context.Background(), "main.go", []byte(testSource))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, tt.SeverityWarning, issues[0].Severity)
}

func TestEngineRunSource(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	issues, err := engine.RunSource(context.Background(), "main.go", []byte(testSource))
	require.NoError(t, err)
	require.Len(t, issues, 3)

	assert.Equal(t, "AddZero", issues[0].Rule)
	assert.Equal(t, "BinaryExpr", issues[0].Kind)
	assert.Equal(t, 5, issues[0].Start.Line)
	assert.Equal(t, 7, issues[0].Start.Column)
	assert.Equal(t, "main.go", issues[0].Filename)
	assert.Empty(t, issues[0].Captures)

	assert.Equal(t, "PrintCall", issues[1].Rule)
	assert.Equal(t, 6, issues[1].Start.Line)
	assert.Equal(t, []tt.Capture{{Name: "args", Value: "[Ident(y)]"}}, issues[1].Captures)

	assert.Equal(t, "PrintCall", issues[2].Rule)
	assert.Equal(t, 7, issues[2].Start.Line)
	assert.Equal(t, []tt.Capture{{Name: "args", Value: "[BinaryExpr(x + 0)]"}}, issues[2].Captures)
}

func TestEngineRunSourceErrors(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	_, err := engine.RunSource(context.Background(), "bad.go", []byte("package"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.RunSource(ctx, "main.go", []byte(testSource))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineRunFile(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)
	path := writeTestFile(t, t.TempDir(), "main.go", testSource)

	issues, err := engine.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, issues, 3)
	assert.Equal(t, path, issues[0].Filename)

	_, err = engine.Run(context.Background(), filepath.Join(t.TempDir(), "missing.go"))
	assert.Error(t, err)
}

func TestEngineExplain(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t)

	explanations, err := engine.Explain("main.go", []byte(testSource), "AddZero", 5)
	require.NoError(t, err)

	var kinds []string
	matched := 0
	for _, ex := range explanations {
		kinds = append(kinds, ex.Kind)
		if ex.Failure == nil {
			matched++
			assert.Equal(t, "BinaryExpr", ex.Kind)
			assert.Equal(t, "x + 0", ex.Source)
		}
	}
	assert.Equal(t, []string{"AssignStmt", "Ident", "BinaryExpr", "Ident", "BasicLit"}, kinds)
	assert.Equal(t, 1, matched)

	assign := explanations[0]
	require.NotNil(t, assign.Failure)
	assert.Equal(t, "AssignStmt is not a BinaryExpr", assign.Failure.Message)

	_, err = engine.Explain("main.go", []byte(testSource), "Missing", 5)
	assert.Error(t, err)
}
