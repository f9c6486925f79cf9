package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	tt "github.com/gnolang/astrule/internal/types"
)

// Text writes issues grouped by rule, then by file:
//
//	Matches for 'Rule':
//	  In path/to/file.go:
//	    at line 4, col 2: CallExpr
//	      - args: [BasicLit("boom")]
//
// Rules are listed in the given order; rules missing from order follow,
// sorted by name. Within a file, matches keep the order of issues.
func Text(w io.Writer, issues []tt.Issue, order []string) error {
	byRule := make(map[string][]tt.Issue)
	for _, issue := range issues {
		byRule[issue.Rule] = append(byRule[issue.Rule], issue)
	}

	var sb strings.Builder
	for _, rule := range ruleOrder(byRule, order) {
		sb.WriteString(fmt.Sprintf("Matches for %s:\n", ruleStyle.Sprintf("'%s'", rule)))

		ruleIssues := byRule[rule]
		var files []string
		byFile := make(map[string][]tt.Issue)
		for _, issue := range ruleIssues {
			if _, seen := byFile[issue.Filename]; !seen {
				files = append(files, issue.Filename)
			}
			byFile[issue.Filename] = append(byFile[issue.Filename], issue)
		}

		for _, file := range files {
			sb.WriteString(fmt.Sprintf("  In %s:\n", fileStyle.Sprint(file)))
			for _, issue := range byFile[file] {
				writeMatch(&sb, issue)
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeMatch(sb *strings.Builder, issue tt.Issue) {
	sb.WriteString(fmt.Sprintf("    %s: %s",
		lineStyle.Sprintf("at line %d, col %d", issue.Start.Line, issue.Start.Column),
		issue.Kind,
	))
	// error is the default and stays unmarked
	if issue.Severity != tt.SeverityError {
		severity := issue.Severity.String()
		sb.WriteString(" " + severityStyle(severity).Sprintf("(%s)", strings.ToLower(severity)))
	}
	sb.WriteString("\n")
	for _, c := range issue.Captures {
		sb.WriteString(fmt.Sprintf("      - %s: %s\n", c.Name, c.Value))
	}
}

func ruleOrder(byRule map[string][]tt.Issue, order []string) []string {
	seen := make(map[string]bool, len(order))
	var out []string
	for _, rule := range order {
		if _, ok := byRule[rule]; ok && !seen[rule] {
			out = append(out, rule)
			seen[rule] = true
		}
	}
	var rest []string
	for rule := range byRule {
		if !seen[rule] {
			rest = append(rest, rule)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Summary returns a one-line count of issues per severity.
func Summary(issues []tt.Issue) string {
	if len(issues) == 0 {
		return matchStyle.Sprint("no matches")
	}
	counts := make(map[tt.Severity]int)
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	var parts []string
	for _, s := range []tt.Severity{tt.SeverityError, tt.SeverityWarning, tt.SeverityInfo} {
		if n := counts[s]; n > 0 {
			parts = append(parts, severityStyle(s.String()).Sprintf("%d %s", n, strings.ToLower(s.String())))
		}
	}
	noun := "matches"
	if len(issues) == 1 {
		noun = "match"
	}
	return fmt.Sprintf("%d %s (%s)", len(issues), noun, strings.Join(parts, ", "))
}
