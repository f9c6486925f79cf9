package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/gnolang/astrule/internal"
)

// Explain writes, for every node on the examined line, whether the rule
// matched it and the failure tree when it did not.
func Explain(w io.Writer, rule string, explanations []internal.Explanation) error {
	var sb strings.Builder
	if len(explanations) == 0 {
		sb.WriteString("no node starts on this line\n")
	}
	for _, ex := range explanations {
		sb.WriteString(fmt.Sprintf("%s %s `%s`\n",
			lineStyle.Sprintf("col %d:", ex.Start.Column), ex.Kind, ex.Source))

		if ex.Failure == nil {
			sb.WriteString("  " + matchStyle.Sprintf("matches %s", ruleStyle.Sprintf("'%s'", rule)) + "\n")
			for _, c := range ex.Captures {
				sb.WriteString(fmt.Sprintf("    - %s: %s\n", c.Name, c.Value))
			}
			continue
		}
		sb.WriteString("  " + errorStyle.Sprint("no match:") + "\n")
		for _, line := range strings.Split(strings.TrimRight(ex.Failure.Tree(), "\n"), "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
