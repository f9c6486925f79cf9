package cmd

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/astrule/internal/config"
)

// ErrMatchesFound is returned by match when at least one node matched, so
// the process can exit non-zero.
var ErrMatchesFound = errors.New("matches found")

var (
	cfgFile  string
	specPath string
	timeout  time.Duration
	verbose  bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:              "astrule [paths...]",
	Short:            "astrule - match declarative syntax rules against Go source",
	TraverseChildren: true, // Prioritize subcommands
	Args:             cobra.ArbitraryArgs,
	SilenceUsage:     true,
	SilenceErrors:    true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// no subcommand
		if len(args) == 0 {
			return cmd.Help()
		}
		// astrule [path1 path2 ...] behaves like the match subcommand
		return runMatch(cmd, args)
	},
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file (default .astrule.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&specPath, "spec", "", "Rule document (overrides the configured spec)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Stop after this long (overrides the configured timeout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(explainCmd)
}

// setup builds the logger and loads the configuration every command shares.
func setup(cmd *cobra.Command) error {
	if err := setupLogger(); err != nil {
		return err
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.NewFileLoader(cfgFile).Load()
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("spec") {
		cfg.Spec = specPath
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = timeout
	}
	return nil
}

func setupLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
	}
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	return nil
}
