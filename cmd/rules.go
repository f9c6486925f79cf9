package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnolang/astrule/formatter"
	"github.com/gnolang/astrule/internal"
	"github.com/gnolang/astrule/lint"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the compiled rules and which of them are selected",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := lint.LoadRules(cfg.Spec)
		if err != nil {
			return err
		}
		include, err := cfg.SelectRegexp()
		if err != nil {
			return err
		}
		exclude, err := cfg.UnselectRegexp()
		if err != nil {
			return err
		}
		engine, err := internal.NewEngine(set,
			internal.WithSelection(include, exclude),
			internal.WithSeverity(cfg.SeverityOf),
		)
		if err != nil {
			return err
		}
		return formatter.RuleTable(cmd.OutOrStdout(), set, engine.Rules())
	},
}
