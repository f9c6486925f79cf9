package formatter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gnolang/astrule/internal/rules"
)

const maxPatternWidth = 72

// RuleTable writes one row per compiled rule: its position in the document,
// name, whether it is selected and its pattern.
func RuleTable(w io.Writer, set *rules.RuleSet, selected []string) error {
	isSelected := make(map[string]bool, len(selected))
	for _, name := range selected {
		isSelected[name] = true
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxPatternWidth},
	})

	tbl.AppendHeader(table.Row{"#", "Rule", "Selected", "Pattern"})
	for i, name := range set.Names() {
		p, _ := set.Pattern(name)
		mark := ""
		if isSelected[name] {
			mark = "yes"
		}
		tbl.AppendRow(table.Row{i + 1, name, mark, p.String()})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d rules", set.Len()), fmt.Sprintf("%d selected", len(selected)), ""})

	_, err := io.WriteString(w, tbl.Render()+"\n")
	return err
}
