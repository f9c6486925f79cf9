package cmd

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gnolang/astrule/formatter"
	"github.com/gnolang/astrule/internal"
	"github.com/gnolang/astrule/lint"
)

var (
	explainRule string
	explainLine int
)

var explainCmd = &cobra.Command{
	Use:   "explain --rule NAME --line N file.go",
	Short: "Show why a rule does or does not match the nodes on a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if explainRule == "" {
			return errors.New("--rule is required")
		}
		if explainLine <= 0 {
			return errors.New("--line must be positive")
		}

		filename := args[0]
		src, err := os.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "reading %s", filename)
		}
		set, err := lint.LoadRules(cfg.Spec)
		if err != nil {
			return err
		}
		engine, err := internal.NewEngine(set, internal.WithLogger(logger))
		if err != nil {
			return err
		}
		explanations, err := engine.Explain(filename, src, explainRule, explainLine)
		if err != nil {
			return err
		}
		return formatter.Explain(cmd.OutOrStdout(), explainRule, explanations)
	},
}

func init() {
	explainCmd.Flags().StringVar(&explainRule, "rule", "", "Rule to explain")
	explainCmd.Flags().IntVar(&explainLine, "line", 0, "Line of the nodes to explain")
}
