package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gnolang/astrule/internal/rules"
	"github.com/gnolang/astrule/lint"
)

// ErrInvalidSpec is returned by check when the rule document does not compile.
var ErrInvalidSpec = errors.New("invalid rule document")

var checkCmd = &cobra.Command{
	Use:   "check [spec]",
	Short: "Compile a rule document and report the first error",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Spec
		if len(args) == 1 {
			path = args[0]
		}
		return checkSpec(cmd, path)
	},
}

func checkSpec(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading rule document %s", path)
	}

	out := cmd.OutOrStdout()
	set, err := lint.CompileRules(data)
	if err != nil {
		var ce *rules.CompileError
		if !errors.As(err, &ce) {
			return errors.Wrapf(err, "compiling %s", path)
		}
		fmt.Fprintf(out, "%s:%s\n", path, ce.Error())
		return ErrInvalidSpec
	}

	fmt.Fprintf(out, "%s: %d rules ok\n", path, set.Len())
	return nil
}
