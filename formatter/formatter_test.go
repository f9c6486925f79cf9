package formatter

import (
	"bytes"
	"encoding/json"
	"go/token"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/astrule/internal"
	"github.com/gnolang/astrule/internal/pattern"
	"github.com/gnolang/astrule/internal/rules"
	tt "github.com/gnolang/astrule/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleIssues() []tt.Issue {
	return []tt.Issue{
		{
			Rule:     "PanicCall",
			Filename: "main.go",
			Kind:     "CallExpr",
			Start:    token.Position{Filename: "main.go", Line: 4, Column: 2},
			Captures: []tt.Capture{{Name: "args", Value: `[BasicLit("boom")]`}},
		},
		{
			Rule:     "AddZero",
			Filename: "main.go",
			Kind:     "BinaryExpr",
			Severity: tt.SeverityWarning,
			Start:    token.Position{Filename: "main.go", Line: 5, Column: 7},
		},
		{
			Rule:     "PanicCall",
			Filename: "pkg/util.go",
			Kind:     "CallExpr",
			Start:    token.Position{Filename: "pkg/util.go", Line: 9, Column: 3},
		},
	}
}

func TestText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleIssues(), []string{"AddZero", "PanicCall"}))

	want := `Matches for 'AddZero':
  In main.go:
    at line 5, col 7: BinaryExpr (warning)
Matches for 'PanicCall':
  In main.go:
    at line 4, col 2: CallExpr
      - args: [BasicLit("boom")]
  In pkg/util.go:
    at line 9, col 3: CallExpr
`
	assert.Equal(t, want, buf.String())
}

func TestTextUnorderedRules(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleIssues(), nil))
	out := buf.String()

	assert.Less(t, bytes.Index([]byte(out), []byte("'AddZero'")), bytes.Index([]byte(out), []byte("'PanicCall'")))

	buf.Reset()
	require.NoError(t, Text(&buf, nil, nil))
	assert.Empty(t, buf.String())
}

func TestSummary(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "no matches", Summary(nil))
	assert.Equal(t, "3 matches (2 error, 1 warning)", Summary(sampleIssues()))
	assert.Equal(t, "1 match (1 error)", Summary(sampleIssues()[:1]))
}

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleIssues()))

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded["main.go"], 2)
	require.Len(t, decoded["pkg/util.go"], 1)

	first := decoded["main.go"][0]
	assert.Equal(t, "PanicCall", first["rule"])
	assert.Equal(t, "error", first["severity"])
	assert.Equal(t, "warning", decoded["main.go"][1]["severity"])

	buf.Reset()
	require.NoError(t, JSON(&buf, nil))
	assert.Equal(t, "{}\n", buf.String())
}

func TestRuleTable(t *testing.T) {
	t.Parallel()
	set, err := rules.CompileYAML([]byte("rules:\n  First: is(Ident)\n  second: $x\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RuleTable(&buf, set, []string{"First"}))
	out := buf.String()

	assert.Contains(t, out, "First")
	assert.Contains(t, out, "is(Ident)")
	assert.Contains(t, out, "$x")
	assert.Contains(t, out, "Total: 2 rules")
	assert.Contains(t, out, "1 selected")
}

func TestExplain(t *testing.T) {
	t.Parallel()
	explanations := []internal.Explanation{
		{
			Kind:     "CallExpr",
			Start:    token.Position{Line: 4, Column: 2},
			Source:   `panic("boom")`,
			Captures: []tt.Capture{{Name: "args", Value: `[BasicLit("boom")]`}},
		},
		{
			Kind:    "Ident",
			Start:   token.Position{Line: 4, Column: 2},
			Source:  "panic",
			Failure: pattern.Failf("Ident is not a CallExpr"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Explain(&buf, "PanicCall", explanations))

	want := "col 2: CallExpr `panic(\"boom\")`\n" +
		"  matches 'PanicCall'\n" +
		"    - args: [BasicLit(\"boom\")]\n" +
		"col 2: Ident `panic`\n" +
		"  no match:\n" +
		"    - Ident is not a CallExpr\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, Explain(&buf, "PanicCall", nil))
	assert.Equal(t, "no node starts on this line\n", buf.String())
}
