package formatter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode"

	"github.com/cockroachdb/errors"

	tt "github.com/gnolang/astrule/internal/types"
)

const (
	tabWidth = 8
	// maxSourceLines bounds the lines shown for a multi-line node.
	maxSourceLines = 6
)

const sourceTemplate = `{{header .}}
{{gutter .Padding}}
{{snippet .}}{{underline .}}{{.Padding}}= {{.Message}}
{{range .Captures}}{{gutter $.Padding}}  {{.Name}}: {{.Value}}
{{end}}
`

var sourceTmpl = template.Must(template.New("source").Funcs(template.FuncMap{
	"header":    sourceHeader,
	"gutter":    gutter,
	"snippet":   sourceSnippet,
	"underline": sourceUnderline,
}).Parse(sourceTemplate))

// sourceData is what the template sees of one match.
type sourceData struct {
	tt.Issue
	Lines        []string // lines shown, without the common indent
	FirstLine    int
	Truncated    bool
	Padding      string
	LineNumWidth int
	Indent       string
}

// Source writes every match with the source lines of its node:
//
//	error: PanicCall
//	 --> main.go:4:2
//	  |
//	4 | panic("boom")
//	  | ~~~~~~~~~~~~~
//	  = CallExpr matches rule PanicCall
//	  |  args: [BasicLit("boom")]
//
// Files are read from disk once each.
func Source(w io.Writer, issues []tt.Issue) error {
	files := make(map[string][]string)
	var buf bytes.Buffer
	for _, issue := range issues {
		lines, ok := files[issue.Filename]
		if !ok {
			data, err := os.ReadFile(issue.Filename)
			if err != nil {
				return errors.Wrapf(err, "reading %s", issue.Filename)
			}
			lines = strings.Split(string(data), "\n")
			files[issue.Filename] = lines
		}
		if err := sourceTmpl.Execute(&buf, newSourceData(issue, lines)); err != nil {
			return errors.Wrap(err, "formatting match")
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func newSourceData(issue tt.Issue, lines []string) sourceData {
	first, last := issue.Start.Line, issue.End.Line
	if last < first {
		last = first
	}
	truncated := false
	if last-first+1 > maxSourceLines {
		last = first + maxSourceLines - 1
		truncated = true
	}

	var shown []string
	if first >= 1 && last <= len(lines) {
		shown = lines[first-1 : last]
	}
	indent := findCommonIndent(shown)
	trimmed := make([]string, len(shown))
	for i, line := range shown {
		trimmed[i] = strings.TrimPrefix(line, indent)
	}

	width := len(fmt.Sprint(last))
	return sourceData{
		Issue:        issue,
		Lines:        trimmed,
		FirstLine:    first,
		Truncated:    truncated,
		Padding:      strings.Repeat(" ", width+1),
		LineNumWidth: width,
		Indent:       indent,
	}
}

func sourceHeader(d sourceData) string {
	severity := d.Severity.String()
	return severityStyle(severity).Sprintf("%s: ", strings.ToLower(severity)) +
		ruleStyle.Sprint(d.Rule) + "\n" +
		lineStyle.Sprintf("%s--> ", d.Padding[1:]) +
		fileStyle.Sprintf("%s:%d:%d", d.Filename, d.Start.Line, d.Start.Column)
}

func gutter(padding string) string {
	return lineStyle.Sprintf("%s|", padding)
}

func sourceSnippet(d sourceData) string {
	var sb strings.Builder
	for i, line := range d.Lines {
		sb.WriteString(lineStyle.Sprintf("%*d | ", d.LineNumWidth, d.FirstLine+i))
		sb.WriteString(line + "\n")
	}
	if d.Truncated {
		sb.WriteString(lineStyle.Sprintf("%s| ", d.Padding) + "...\n")
	}
	return sb.String()
}

// sourceUnderline marks the node's columns when it spans one line.
func sourceUnderline(d sourceData) string {
	if len(d.Lines) != 1 || d.End.Line != d.Start.Line {
		return ""
	}
	line := d.Indent + d.Lines[0]
	indentWidth := visualColumn(d.Indent, len(d.Indent)+1)
	start := visualColumn(line, d.Start.Column) - indentWidth
	end := visualColumn(line, d.End.Column) - indentWidth
	if start < 0 {
		start = 0
	}
	if end <= start {
		end = start + 1
	}
	return lineStyle.Sprintf("%s| ", d.Padding) +
		strings.Repeat(" ", start) +
		errorStyle.Sprint(strings.Repeat("~", end-start)) + "\n"
}

// visualColumn returns the display offset of the 1-based byte column in
// line, expanding tabs.
func visualColumn(line string, column int) int {
	visual := 0
	for i, ch := range line {
		if i+1 >= column {
			break
		}
		if ch == '\t' {
			visual += tabWidth - visual%tabWidth
		} else {
			visual++
		}
	}
	return visual
}

// findCommonIndent returns the leading whitespace shared by the non-blank
// lines.
func findCommonIndent(lines []string) string {
	var indent []rune
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		current := []rune(line[:len(line)-len(trimmed)])
		if !found {
			indent, found = current, true
			continue
		}
		indent = commonPrefix(indent, current)
		if len(indent) == 0 {
			break
		}
	}
	return string(indent)
}

func commonPrefix(a, b []rune) []rune {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
